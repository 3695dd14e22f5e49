package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/promptveil/promptveil/internal/backend"
	"github.com/promptveil/promptveil/internal/capture"
	"github.com/promptveil/promptveil/internal/config"
	"github.com/promptveil/promptveil/internal/consent"
	"github.com/promptveil/promptveil/internal/locator"
	"github.com/promptveil/promptveil/internal/mediator"
	"github.com/promptveil/promptveil/internal/page/rodpage"
)

var (
	runURL      string
	runMatch    string
	runControl  string
	runHeadless bool
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runURL, "url", "", "Chat page URL to open (overrides config)")
	runCmd.Flags().StringVar(&runMatch, "match", "", "Attach to an open page whose URL contains this")
	runCmd.Flags().StringVar(&runControl, "control-url", "", "Existing DevTools endpoint to connect to")
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "Launch the managed browser headless")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Attach to a live chat page and mediate sends",
	Long:  "Connects to a Chromium tab, arms the send interceptor, and walks every intercepted message through scan, consent, and reinjection. Consent prompts appear on this terminal.",
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadSetup()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nDetaching...")
		cancel()
	}()

	opts := rodpage.BrowserOptions{
		ControlURL: firstOf(runControl, cfg.Browser.ControlURL),
		URL:        firstOf(runURL, cfg.Browser.URL),
		Match:      firstOf(runMatch, cfg.Browser.Match),
		Headless:   runHeadless,
	}
	tab, cleanup, err := rodpage.Attach(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to attach to browser: %w", err)
	}
	defer cleanup()

	doc, err := rodpage.New(tab, log)
	if err != nil {
		return fmt.Errorf("failed to instrument page: %w", err)
	}
	defer doc.Close()

	sel, err := locator.Load(cfg.Selectors)
	if err != nil {
		return fmt.Errorf("failed to load selectors: %w", err)
	}
	loc := locator.New(doc, sel)

	store, err := capture.NewStore(captureDir(cfg))
	if err != nil {
		return fmt.Errorf("failed to open capture store: %w", err)
	}

	client := backend.NewClient(cfg.Backend.URL, cfg.Backend.Timeout)
	client.SetOCROptions(cfg.OCR)

	m := mediator.New(mediator.Options{
		Doc:     doc,
		Locator: loc,
		Client:  client,
		Surface: consent.NewTerminal(os.Stdin, os.Stderr),
		Replies: newTermReply(os.Stdin, os.Stderr),
		Store:   store,
		Log:     log,
		Config: mediator.Config{
			TextOnlyConsent: cfg.Consent.TextOnly,
			TextOnlyDefault: textSelection(cfg.Consent.TextOnlyDefault),
			ScanTimeout:     cfg.Backend.Timeout,
		},
	})
	detach := m.Attach()
	defer detach()

	if rel, err := locator.NewReloader(loc, cfg.Selectors); err == nil && rel != nil {
		go rel.Run(ctx) //nolint:errcheck
	}

	fmt.Fprintln(os.Stderr, "promptveil attached; sends on this page are now mediated")
	if err := m.Watcher().Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func firstOf(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func captureDir(cfg *config.Config) string {
	if cfg.Captures != "" {
		return cfg.Captures
	}
	return capture.DefaultDir()
}

func textSelection(s string) consent.Selection {
	if s == "redacted" {
		return consent.Redacted
	}
	return consent.Original
}
