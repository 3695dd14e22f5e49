package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/promptveil/promptveil/internal/backend"
	"github.com/promptveil/promptveil/internal/capture"
)

func init() {
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Submit the last captured exchange to the redaction service",
	Long:  "Pairs the most recent mediated prompt with the most recent captured reply and posts them to the service's report endpoint for review.",
	RunE:  runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadSetup()
	if err != nil {
		return err
	}

	store, err := capture.NewStore(captureDir(cfg))
	if err != nil {
		return fmt.Errorf("failed to open capture store: %w", err)
	}
	prompt, err := store.Last(capture.KindPrompt)
	if err != nil {
		return err
	}
	reply, err := store.Last(capture.KindReply)
	if err != nil {
		return err
	}
	if prompt == nil || reply == nil {
		return fmt.Errorf("no completed exchange captured yet")
	}

	client := backend.NewClient(cfg.Backend.URL, cfg.Backend.Timeout)
	if err := client.SubmitReport(context.Background(), backend.Report{
		OriginalText: prompt.Text,
		RedactedText: prompt.RedactedText,
		AnswerText:   reply.Text,
		Types:        prompt.Types,
	}); err != nil {
		return fmt.Errorf("report submission failed: %w", err)
	}
	fmt.Println("report submitted")
	return nil
}
