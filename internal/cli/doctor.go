package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/promptveil/promptveil/internal/backend"
	"github.com/promptveil/promptveil/internal/capture"
	"github.com/promptveil/promptveil/internal/config"
	"github.com/promptveil/promptveil/internal/locator"
)

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check readiness and diagnose configuration issues",
	RunE:  runDoctor,
}

type checkResult struct {
	label  string
	ok     bool
	detail string
	fix    string
}

func runDoctor(cmd *cobra.Command, args []string) error {
	var checks []checkResult

	// 1. Config file.
	cfgPath := flagConfig
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}
	cfg, err := config.Load(flagConfig)
	if err != nil {
		checks = append(checks, checkResult{
			label:  "config",
			ok:     false,
			detail: err.Error(),
			fix:    "fix the YAML at " + cfgPath,
		})
		cfg = config.DefaultConfig()
	} else if _, statErr := os.Stat(cfgPath); statErr == nil {
		checks = append(checks, checkResult{label: "config", ok: true, detail: cfgPath})
	} else {
		checks = append(checks, checkResult{label: "config", ok: true, detail: "built-in defaults"})
	}

	// 2. Redaction service.
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	client := backend.NewClient(cfg.Backend.URL, 3*time.Second)
	if _, err := client.ScanText(ctx, "doctor check"); err == nil {
		checks = append(checks, checkResult{label: "redaction service", ok: true, detail: client.BaseURL()})
	} else {
		checks = append(checks, checkResult{
			label:  "redaction service",
			ok:     false,
			detail: fmt.Sprintf("unreachable at %s", client.BaseURL()),
			fix:    "start the service, or set backend.url",
		})
	}

	// 3. Selectors.
	selPath := cfg.Selectors
	if selPath == "" {
		selPath = locator.DefaultPath()
	}
	if _, err := locator.Load(cfg.Selectors); err != nil {
		checks = append(checks, checkResult{
			label:  "selectors",
			ok:     false,
			detail: err.Error(),
			fix:    "fix the YAML at " + selPath,
		})
	} else if _, statErr := os.Stat(selPath); statErr == nil {
		checks = append(checks, checkResult{label: "selectors", ok: true, detail: selPath})
	} else {
		checks = append(checks, checkResult{label: "selectors", ok: true, detail: "built-in defaults"})
	}

	// 4. Capture store.
	dir := captureDir(cfg)
	if _, err := capture.NewStore(dir); err == nil {
		checks = append(checks, checkResult{label: "capture store", ok: true, detail: dir})
	} else {
		checks = append(checks, checkResult{
			label:  "capture store",
			ok:     false,
			detail: err.Error(),
			fix:    "mkdir -p " + filepath.Dir(dir),
		})
	}

	// 5. Browser endpoint, only when one is configured.
	if cfg.Browser.ControlURL != "" {
		hc := &http.Client{Timeout: 3 * time.Second}
		if resp, err := hc.Get(cfg.Browser.ControlURL); err == nil {
			resp.Body.Close()
			checks = append(checks, checkResult{label: "browser endpoint", ok: true, detail: cfg.Browser.ControlURL})
		} else {
			checks = append(checks, checkResult{
				label:  "browser endpoint",
				ok:     false,
				detail: fmt.Sprintf("unreachable at %s", cfg.Browser.ControlURL),
				fix:    "start the browser with remote debugging, or clear browser.control_url",
			})
		}
	}

	// Diagnostics go to stderr, like the rest of the CLI.
	return reportChecks(os.Stderr, checks)
}

func reportChecks(out io.Writer, checks []checkResult) error {
	hasFailures := false
	for _, c := range checks {
		mark := "✓"
		if !c.ok {
			mark = "✗"
			hasFailures = true
		}
		line := fmt.Sprintf("%s %-20s %s", mark, c.label+":", c.detail)
		if !c.ok && c.fix != "" {
			line += fmt.Sprintf("  ->  %s", c.fix)
		}
		fmt.Fprintln(out, line)
	}

	if hasFailures {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Some checks failed. Run the suggested fixes.")
		return fmt.Errorf("doctor found issues")
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "All checks passed.")
	return nil
}
