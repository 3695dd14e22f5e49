package consent

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/promptveil/promptveil/internal/backend"
	"github.com/promptveil/promptveil/internal/page"
)

func textOffer(redacted string) *TextOffer {
	o := &TextOffer{Original: "my number is 010-1234-5678"}
	if redacted != "" {
		o.Scan = &backend.ScanResult{
			OriginalText: o.Original,
			RedactedText: redacted,
			Types:        []string{"PHONE"},
		}
	}
	return o
}

func TestOfferEmpty(t *testing.T) {
	if !(Offer{}).Empty() {
		t.Fatal("zero offer should be empty")
	}
	if (Offer{Text: textOffer("")}).Empty() {
		t.Fatal("offer with a text channel is not empty")
	}
	if (Offer{Files: []BinaryOffer{{}}}).Empty() {
		t.Fatal("offer with a file channel is not empty")
	}
}

func TestResolveDegradesUnmaskedChannels(t *testing.T) {
	offer := Offer{
		Text:  textOffer("my number is [PHONE]"),
		Image: &BinaryOffer{Original: page.File{Name: "a.jpg"}}, // mask failed
		Files: []BinaryOffer{
			{Original: page.File{Name: "b.csv"}, Mask: &backend.MaskResult{Redacted: page.File{Name: "masked_b.csv"}}},
			{Original: page.File{Name: "c.csv"}}, // mask failed
		},
	}
	ch := Resolve(offer, Redacted)
	if ch.Text != Redacted {
		t.Fatalf("Text = %q", ch.Text)
	}
	if ch.Image != Original {
		t.Fatalf("Image = %q, want degrade to original", ch.Image)
	}
	if len(ch.Files) != 2 || ch.Files[0] != Redacted || ch.Files[1] != Original {
		t.Fatalf("Files = %v", ch.Files)
	}
}

func TestResolveTextWithoutScanForcesOriginal(t *testing.T) {
	ch := Resolve(Offer{Text: textOffer("")}, Redacted)
	if ch.Text != Original {
		t.Fatalf("Text = %q, want original when the scan failed", ch.Text)
	}
}

func TestFixedCancelsOnEmptySelection(t *testing.T) {
	ch, err := Fixed("").Present(context.Background(), Offer{Text: textOffer("x")})
	if err != nil {
		t.Fatal(err)
	}
	if ch != nil {
		t.Fatal("Fixed(\"\") should cancel")
	}
}

func TestGateRejectsOverlappingPrompts(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var enteredOnce sync.Once
	inner := Func(func(context.Context, Offer) (*Choice, error) {
		enteredOnce.Do(func() { close(entered) })
		<-release
		return &Choice{}, nil
	})
	g := NewGate(inner)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		g.Present(context.Background(), Offer{})
	}()
	<-entered

	if _, err := g.Present(context.Background(), Offer{}); err == nil {
		t.Fatal("second prompt should fail while the first is open")
	}
	close(release)
	wg.Wait()

	if _, err := g.Present(context.Background(), Offer{}); err != nil {
		t.Fatalf("gate should reopen after the first prompt resolves: %v", err)
	}
}

func terminal(input string) (*Terminal, *strings.Builder) {
	var out strings.Builder
	return NewTerminal(strings.NewReader(input), &out), &out
}

func TestTerminalRedactedAnswer(t *testing.T) {
	term, out := terminal("r\n")
	ch, err := term.Present(context.Background(), Offer{Text: textOffer("my number is [PHONE]")})
	if err != nil {
		t.Fatal(err)
	}
	if ch == nil || ch.Text != Redacted {
		t.Fatalf("choice = %v", ch)
	}
	if !strings.Contains(out.String(), "[PHONE]") {
		t.Fatal("redacted variant should be shown")
	}
	if !strings.Contains(out.String(), "PHONE") {
		t.Fatal("detected types should be shown")
	}
}

func TestTerminalEmptyInputKeepsOriginal(t *testing.T) {
	term, _ := terminal("\n")
	ch, err := term.Present(context.Background(), Offer{Text: textOffer("redacted")})
	if err != nil {
		t.Fatal(err)
	}
	if ch == nil || ch.Text != Original {
		t.Fatalf("choice = %v", ch)
	}
}

func TestTerminalCancel(t *testing.T) {
	term, _ := terminal("c\n")
	ch, err := term.Present(context.Background(), Offer{Text: textOffer("redacted")})
	if err != nil {
		t.Fatal(err)
	}
	if ch != nil {
		t.Fatal("cancel should yield a nil choice")
	}
}

func TestTerminalEOFCancels(t *testing.T) {
	term, _ := terminal("")
	ch, err := term.Present(context.Background(), Offer{Text: textOffer("redacted")})
	if err != nil {
		t.Fatal(err)
	}
	if ch != nil {
		t.Fatal("EOF should cancel, not error")
	}
}

func TestTerminalUnmaskedChannelSkipsPrompt(t *testing.T) {
	// No scan on the text channel: the toggle is unavailable, so no
	// input is consumed and the answer is original.
	term, out := terminal("")
	ch, err := term.Present(context.Background(), Offer{Text: textOffer("")})
	if err != nil {
		t.Fatal(err)
	}
	if ch == nil || ch.Text != Original {
		t.Fatalf("choice = %v", ch)
	}
	if !strings.Contains(out.String(), "redaction unavailable") {
		t.Fatal("user should be told the toggle is unavailable")
	}
}

func TestTerminalMultiChannel(t *testing.T) {
	offer := Offer{
		Text: textOffer("[PHONE]"),
		Image: &BinaryOffer{
			Original: page.File{Name: "card.jpg", Data: []byte{1, 2}},
			Mask: &backend.MaskResult{
				Redacted: page.File{Name: "masked_card.jpg", Data: []byte{3}},
				Types:    []string{"CC"},
			},
		},
	}
	term, _ := terminal("o\nr\n")
	ch, err := term.Present(context.Background(), offer)
	if err != nil {
		t.Fatal(err)
	}
	if ch == nil || ch.Text != Original || ch.Image != Redacted {
		t.Fatalf("choice = %v", ch)
	}
}

func TestTerminalRetriesOnUnknownInput(t *testing.T) {
	term, _ := terminal("maybe\nr\n")
	ch, err := term.Present(context.Background(), Offer{Text: textOffer("redacted")})
	if err != nil {
		t.Fatal(err)
	}
	if ch == nil || ch.Text != Redacted {
		t.Fatalf("choice = %v", ch)
	}
}
