// Package consent defines the choice protocol between the send
// pipeline and whatever surface asks the user "original or redacted?".
// The pipeline builds an Offer from the channels that resolved, a
// Mediator presents it, and the answer comes back as one atomic Choice
// or a cancellation. Presentation itself lives elsewhere; this package
// owns only the contract and its serialization guarantees.
package consent

import (
	"context"

	"github.com/promptveil/promptveil/internal/backend"
	"github.com/promptveil/promptveil/internal/page"
)

// Selection is a per-channel answer.
type Selection string

const (
	Original Selection = "original"
	Redacted Selection = "redacted"
)

// TextOffer is the text channel of an offer. A nil Scan means the scan
// call failed: only the original may be chosen.
type TextOffer struct {
	Original string
	Scan     *backend.ScanResult
}

// BinaryOffer is an image or data-file channel. A nil Mask means the
// mask call failed: the redacted toggle is unavailable.
type BinaryOffer struct {
	Original page.File
	Mask     *backend.MaskResult
}

// Offer lists exactly the channels present in one send cycle.
type Offer struct {
	Text  *TextOffer
	Image *BinaryOffer
	Files []BinaryOffer
}

// Empty reports whether the offer carries no channel at all.
func (o Offer) Empty() bool {
	return o.Text == nil && o.Image == nil && len(o.Files) == 0
}

// Choice resolves all of an offer's toggles atomically. Channel fields
// are empty for channels absent from the offer; Files is parallel to
// Offer.Files.
type Choice struct {
	Text  Selection
	Image Selection
	Files []Selection
}

// Mediator presents an offer and blocks until the user resolves it.
//
// Return semantics:
//   - (choice, nil): the user confirmed; every offered channel has a
//     selection
//   - (nil, nil): the user cancelled; the cycle aborts with nothing
//     applied
//   - (nil, err): the surface itself failed
//
// A mediator must not mutate host-page state.
type Mediator interface {
	Present(ctx context.Context, offer Offer) (*Choice, error)
}

// Func adapts a function to the Mediator interface.
type Func func(ctx context.Context, offer Offer) (*Choice, error)

func (f Func) Present(ctx context.Context, offer Offer) (*Choice, error) {
	return f(ctx, offer)
}

// Fixed returns a mediator that always answers with the same selection
// on every offered channel. Fixed("") always cancels. Used by simulate
// and by text-only short-circuit policies.
func Fixed(sel Selection) Mediator {
	return Func(func(_ context.Context, offer Offer) (*Choice, error) {
		if sel == "" {
			return nil, nil
		}
		return Resolve(offer, sel), nil
	})
}

// Resolve builds the choice that answers sel on every offered channel,
// degrading to Original where the redacted variant is unavailable.
func Resolve(offer Offer, sel Selection) *Choice {
	ch := &Choice{}
	if offer.Text != nil {
		ch.Text = sel
		if offer.Text.Scan == nil {
			ch.Text = Original
		}
	}
	if offer.Image != nil {
		ch.Image = sel
		if offer.Image.Mask == nil {
			ch.Image = Original
		}
	}
	for _, f := range offer.Files {
		s := sel
		if f.Mask == nil {
			s = Original
		}
		ch.Files = append(ch.Files, s)
	}
	return ch
}
