package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/promptveil/promptveil/internal/relay"
)

func init() {
	rootCmd.AddCommand(relayCmd)
}

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Start MCP server exposing captures and the scanner",
	Long:  "Runs promptveil as an MCP (Model Context Protocol) server over stdio.\nExposes the capture store and redaction service: last_capture, remember, scan.",
	RunE:  runRelay,
}

func runRelay(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadSetup()
	if err != nil {
		return err
	}

	srv, err := relay.New(relay.Config{
		BackendURL: cfg.Backend.URL,
		CaptureDir: cfg.Captures,
	})
	if err != nil {
		return fmt.Errorf("failed to create relay server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down relay...")
		cancel()
	}()

	fmt.Fprintln(os.Stderr, "promptveil relay listening on stdio")
	return srv.Run(ctx)
}
