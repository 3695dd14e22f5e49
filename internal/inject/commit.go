// Package inject writes the chosen content back into a page whose
// input controls it does not own: a hard reset that waits for the
// host's asynchronous teardown, a value commit that satisfies the host
// framework's controlled-input convention, and a file attach with
// indirect confirmation.
package inject

import (
	"fmt"

	"github.com/promptveil/promptveil/internal/page"
)

// CommitStrategy writes text into an input surface so the host's own
// state layer observes the change. Strategies are tried in order until
// one verifies.
type CommitStrategy interface {
	Name() string
	Commit(doc page.Document, el page.Element, text string) error
}

// nativeSetter writes through the element's native value setter and
// dispatches synthetic input/change. A plain property assignment is not
// enough for frameworks that shadow the property; the native setter
// bypasses the override, and the events make the framework re-read.
type nativeSetter struct{}

func (nativeSetter) Name() string { return "native-setter" }

func (nativeSetter) Commit(doc page.Document, el page.Element, text string) error {
	if err := el.SetValueNative(text); err != nil {
		return err
	}
	if err := notify(doc, el); err != nil {
		return err
	}
	if got := el.Value(); got != text {
		return fmt.Errorf("value did not stick: got %d chars, want %d", len(got), len(text))
	}
	return nil
}

// insertText clears the surface and replays the text as typed
// insertion. Fallback for hosts that ignore direct value writes.
type insertText struct{}

func (insertText) Name() string { return "insert-text" }

func (insertText) Commit(doc page.Document, el page.Element, text string) error {
	if err := el.SetValueNative(""); err != nil {
		return err
	}
	if err := el.InsertText(text); err != nil {
		return err
	}
	if err := notify(doc, el); err != nil {
		return err
	}
	if got := el.Value(); got != text {
		return fmt.Errorf("value did not stick: got %d chars, want %d", len(got), len(text))
	}
	return nil
}

func notify(doc page.Document, el page.Element) error {
	if err := doc.Dispatch(page.Event{Kind: page.Input, Target: el}); err != nil {
		return err
	}
	return doc.Dispatch(page.Event{Kind: page.Change, Target: el})
}

// DefaultStrategies returns the commit order: native setter first,
// typed insertion as fallback.
func DefaultStrategies() []CommitStrategy {
	return []CommitStrategy{nativeSetter{}, insertText{}}
}
