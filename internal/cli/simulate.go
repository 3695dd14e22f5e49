package cli

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/promptveil/promptveil/internal/backend"
	"github.com/promptveil/promptveil/internal/consent"
	"github.com/promptveil/promptveil/internal/locator"
	"github.com/promptveil/promptveil/internal/mediator"
	"github.com/promptveil/promptveil/internal/page"
	"github.com/promptveil/promptveil/internal/page/fakepage"
)

var (
	simText   string
	simImage  string
	simFile   string
	simChoose string

	simSentStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("78"))
)

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().StringVar(&simText, "text", "My card is 4111 1111 1111 1111, can you check it?", "Message to type into the simulated page")
	simulateCmd.Flags().StringVar(&simImage, "image", "", "Image file to stage on the image channel")
	simulateCmd.Flags().StringVar(&simFile, "file", "", "Data file to stage on the file channel")
	simulateCmd.Flags().StringVar(&simChoose, "choose", "ask", "Consent answer: ask, original, or redacted")
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run one mediation cycle against an in-memory chat page",
	Long:  "Builds a synthetic chat page, types a message, presses Enter, and walks the full pipeline: interception, scan, consent, reinjection, submission, reply capture. Needs the redaction service running for redacted variants; without it every channel degrades to original.",
	RunE:  runSimulate,
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadSetup()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	doc := fakepage.NewChat()
	loc := locator.New(doc, locator.DefaultSelectors())
	client := backend.NewClient(cfg.Backend.URL, cfg.Backend.Timeout)
	client.SetOCROptions(cfg.OCR)

	var surface consent.Mediator
	switch simChoose {
	case "original":
		surface = consent.Fixed(consent.Original)
	case "redacted":
		surface = consent.Fixed(consent.Redacted)
	default:
		surface = consent.NewTerminal(os.Stdin, os.Stderr)
	}

	m := mediator.New(mediator.Options{
		Doc:     doc,
		Locator: loc,
		Client:  client,
		Surface: surface,
		Replies: newTermReply(os.Stdin, os.Stderr),
		Log:     log,
		Config: mediator.Config{
			TextOnlyConsent: true,
			TextOnlyDefault: consent.Original,
			ScanTimeout:     cfg.Backend.Timeout,
		},
	})
	m.Done = make(chan mediator.Phase, 1)
	detach := m.Attach()
	defer detach()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	go m.Watcher().Run(ctx) //nolint:errcheck

	if simImage != "" {
		f, err := loadUpload(simImage)
		if err != nil {
			return err
		}
		m.OfferUpload(mediator.ChannelImage, f)
	}
	if simFile != "" {
		f, err := loadUpload(simFile)
		if err != nil {
			return err
		}
		m.OfferUpload(mediator.ChannelData, f)
	}

	doc.UserType(simText)
	doc.UserEnter()

	var final mediator.Phase
	select {
	case final = <-m.Done:
	case <-ctx.Done():
		return fmt.Errorf("cycle never finished")
	}
	fmt.Fprintf(os.Stderr, "cycle finished: %s\n", final)

	for _, sent := range doc.Sent {
		fmt.Println(simSentStyle.Render("sent:"), sent)
	}
	for _, files := range doc.SentFiles {
		for _, f := range files {
			fmt.Println(simSentStyle.Render("sent file:"), f.Name, fmt.Sprintf("(%d bytes)", len(f.Data)))
		}
	}
	if final == mediator.PhaseReadyToSend {
		fmt.Fprintln(os.Stderr, "attachment staged; a real user's Enter would complete the send")
	}

	if final == mediator.PhaseSent && len(doc.Sent) > 0 {
		body := doc.BeginAssistantTurn()
		doc.StreamAssistant(body, "Here is a simulated assistant reply.", 4)
		time.Sleep(2 * time.Second)
	}
	return nil
}

func loadUpload(path string) (page.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return page.File{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	mt := mime.TypeByExtension(filepath.Ext(path))
	if mt == "" {
		mt = "application/octet-stream"
	}
	return page.File{Name: filepath.Base(path), MIME: mt, Data: data}, nil
}
