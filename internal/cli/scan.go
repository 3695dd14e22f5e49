package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/promptveil/promptveil/internal/backend"
	"github.com/promptveil/promptveil/internal/redact"
)

var (
	scanHitStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	scanSafeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
)

func init() {
	rootCmd.AddCommand(scanCmd)
}

var scanCmd = &cobra.Command{
	Use:   "scan [text]",
	Short: "Scan a text against the redaction service",
	Long:  "Sends the text (argument or stdin) to the local redaction service and prints the redacted variant with detected categories. Useful for checking what mediation would offer.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadSetup()
	if err != nil {
		return err
	}

	var text string
	if len(args) == 1 {
		text = args[0]
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("nothing to scan")
	}

	client := backend.NewClient(cfg.Backend.URL, cfg.Backend.Timeout)
	res, err := client.ScanText(context.Background(), text)
	if err != nil {
		fmt.Fprintln(os.Stderr, "service unreachable, using offline patterns")
		res = redact.Fallback(text)
		if res == nil {
			fmt.Println(scanSafeStyle.Render("no sensitive data detected (offline patterns only)"))
			return nil
		}
	}

	if len(res.Entities) == 0 {
		fmt.Println(scanSafeStyle.Render("no sensitive data detected"))
		return nil
	}
	fmt.Println(scanHitStyle.Render(fmt.Sprintf("%d sensitive span(s): %s",
		len(res.Entities), strings.Join(res.Types, ", "))))
	fmt.Println(res.RedactedText)
	return nil
}
