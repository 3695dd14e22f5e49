package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"go.uber.org/zap"
)

func TestNewWithWriterEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("debug", &buf)
	log.Info("hello", zap.String("k", "v"))
	log.Sync()

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if line["level"] != "info" {
		t.Fatalf("level = %v", line["level"])
	}
	if line["message"] != "hello" {
		t.Fatalf("message = %v", line["message"])
	}
	if line["k"] != "v" {
		t.Fatalf("field k = %v", line["k"])
	}
	if _, ok := line["timestamp"]; !ok {
		t.Fatal("no timestamp field")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("warn", &buf)
	log.Info("dropped")
	log.Sync()
	if buf.Len() != 0 {
		t.Fatalf("info line leaked past warn level: %q", buf.String())
	}
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("banana", &buf)
	log.Debug("dropped")
	log.Info("kept")
	log.Sync()
	if !bytes.Contains(buf.Bytes(), []byte("kept")) {
		t.Fatalf("info line missing: %q", buf.String())
	}
	if bytes.Contains(buf.Bytes(), []byte("dropped")) {
		t.Fatalf("debug line leaked: %q", buf.String())
	}
}
