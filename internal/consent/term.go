package consent

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/promptveil/promptveil/internal/backend"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	channelStyle  = lipgloss.NewStyle().Bold(true)
	originalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	redactedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	dimStyle      = lipgloss.NewStyle().Faint(true)
)

// Terminal is a line-oriented consent surface for CLI runs. Each
// offered channel is a two-way toggle defaulting to original; one
// confirm resolves everything, "c" cancels the cycle.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminal creates a terminal mediator reading answers from in.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

func (t *Terminal) Present(ctx context.Context, offer Offer) (*Choice, error) {
	fmt.Fprintln(t.out, titleStyle.Render("promptveil — choose what to send"))

	ch := &Choice{}
	if offer.Text != nil {
		sel, ok, err := t.askText(ctx, offer.Text)
		if err != nil || !ok {
			return nil, err
		}
		ch.Text = sel
	}
	if offer.Image != nil {
		sel, ok, err := t.askBinary(ctx, "image", offer.Image)
		if err != nil || !ok {
			return nil, err
		}
		ch.Image = sel
	}
	for i := range offer.Files {
		sel, ok, err := t.askBinary(ctx, fmt.Sprintf("file %d", i+1), &offer.Files[i])
		if err != nil || !ok {
			return nil, err
		}
		ch.Files = append(ch.Files, sel)
	}
	return ch, nil
}

func (t *Terminal) askText(ctx context.Context, o *TextOffer) (Selection, bool, error) {
	fmt.Fprintln(t.out, channelStyle.Render("text"))
	fmt.Fprintf(t.out, "  %s %s\n", originalStyle.Render("original:"), o.Original)
	if o.Scan == nil {
		fmt.Fprintln(t.out, dimStyle.Render("  redaction unavailable for this channel"))
		return Original, true, nil
	}
	fmt.Fprintf(t.out, "  %s %s\n", redactedStyle.Render("redacted:"), o.Scan.RedactedText)
	if len(o.Scan.Types) > 0 {
		fmt.Fprintf(t.out, "  %s\n", dimStyle.Render("detected: "+strings.Join(o.Scan.Types, ", ")))
	}
	return t.ask(ctx)
}

func (t *Terminal) askBinary(ctx context.Context, label string, o *BinaryOffer) (Selection, bool, error) {
	fmt.Fprintln(t.out, channelStyle.Render(label))
	fmt.Fprintf(t.out, "  %s %s (%d bytes)\n", originalStyle.Render("original:"), o.Original.Name, len(o.Original.Data))
	if o.Mask == nil {
		fmt.Fprintln(t.out, dimStyle.Render("  redaction unavailable for this channel"))
		return Original, true, nil
	}
	fmt.Fprintf(t.out, "  %s %s (%d bytes)\n", redactedStyle.Render("redacted:"), o.Mask.Redacted.Name, len(o.Mask.Redacted.Data))
	if len(o.Mask.Types) > 0 {
		fmt.Fprintf(t.out, "  %s\n", dimStyle.Render("detected: "+strings.Join(o.Mask.Types, ", ")))
	}
	for _, row := range previewSample(o.Mask, 3) {
		fmt.Fprintf(t.out, "  %s\n", dimStyle.Render(row))
	}
	return t.ask(ctx)
}

// ask reads one answer: o(riginal), r(edacted), or c(ancel). Empty
// input keeps the original default.
func (t *Terminal) ask(ctx context.Context) (Selection, bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", false, err
		}
		fmt.Fprint(t.out, "  [o]riginal / [r]edacted / [c]ancel > ")
		line, err := t.in.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return "", false, nil
			}
			return "", false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "", "o", "original":
			return Original, true, nil
		case "r", "redacted":
			return Redacted, true, nil
		case "c", "cancel":
			return "", false, nil
		}
	}
}

func previewSample(m *backend.MaskResult, n int) []string {
	var out []string
	for i, row := range m.Preview {
		if i >= n {
			break
		}
		out = append(out, fmt.Sprintf("%s[%d]: %v -> %v", row.Kind, row.Index, row.Original, row.Masked))
	}
	return out
}
