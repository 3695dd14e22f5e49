package cli

import (
	"strings"
	"testing"
)

func TestReportChecksAllPassing(t *testing.T) {
	var out strings.Builder
	checks := []checkResult{
		{label: "config", ok: true, detail: "built-in defaults"},
		{label: "capture store", ok: true, detail: "/tmp/captures"},
	}
	if err := reportChecks(&out, checks); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	if !strings.Contains(got, "✓ config") {
		t.Fatalf("output = %q", got)
	}
	if !strings.Contains(got, "All checks passed.") {
		t.Fatalf("output = %q", got)
	}
}

func TestReportChecksFailureCarriesFix(t *testing.T) {
	var out strings.Builder
	checks := []checkResult{
		{label: "redaction service", ok: false, detail: "unreachable at http://127.0.0.1:8787", fix: "start the service, or set backend.url"},
	}
	err := reportChecks(&out, checks)
	if err == nil {
		t.Fatal("failed checks should surface an error")
	}
	got := out.String()
	if !strings.Contains(got, "✗ redaction service") {
		t.Fatalf("output = %q", got)
	}
	if !strings.Contains(got, "->  start the service, or set backend.url") {
		t.Fatalf("output = %q", got)
	}
	if !strings.Contains(got, "Some checks failed.") {
		t.Fatalf("output = %q", got)
	}
}
