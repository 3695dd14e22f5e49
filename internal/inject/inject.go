package inject

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/promptveil/promptveil/internal/locator"
	"github.com/promptveil/promptveil/internal/page"
)

const (
	// resetTimeout bounds the wait for the host's asynchronous UI
	// teardown after a reset. The host clears chips on its own
	// schedule, not synchronously with ours.
	resetTimeout = 1200 * time.Millisecond

	attachTimeout = 1200 * time.Millisecond

	pollInterval = 50 * time.Millisecond
)

// Engine reinjects chosen content into the host page.
type Engine struct {
	doc        page.Document
	loc        *locator.Locator
	log        *zap.Logger
	strategies []CommitStrategy

	// ResetTimeout and AttachTimeout override the default bounds when
	// positive. Tests shrink them.
	ResetTimeout  time.Duration
	AttachTimeout time.Duration
}

// New creates an engine over the document with the default commit
// strategies.
func New(doc page.Document, loc *locator.Locator, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		doc:        doc,
		loc:        loc,
		log:        log,
		strategies: DefaultStrategies(),
	}
}

// HardReset empties the input surface and clears all attachment chips,
// polling until the empty state is actually observed or the bound
// expires. Returns an error only when the emptied state never showed
// up; a missing surface is a no-op.
func (e *Engine) HardReset(ctx context.Context) error {
	if input := e.loc.Input(); input != nil {
		for _, s := range e.strategies {
			if err := s.Commit(e.doc, input, ""); err == nil {
				break
			}
		}
	}
	if fi := e.loc.AttachmentInput(); fi != nil {
		if err := fi.SetFiles(nil); err != nil {
			e.log.Debug("attachment clear failed", zap.Error(err))
		}
	}

	timeout := e.ResetTimeout
	if timeout <= 0 {
		timeout = resetTimeout
	}
	deadline := time.Now().Add(timeout)
	for {
		if e.isEmpty() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("input did not reach empty state within %v", timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func (e *Engine) isEmpty() bool {
	if input := e.loc.Input(); input != nil && input.Value() != "" {
		return false
	}
	return len(e.loc.AttachmentChips()) == 0
}

// WriteText commits text to the input surface, trying each strategy in
// order. Reports whether any strategy verified.
func (e *Engine) WriteText(el page.Element, text string) bool {
	if el == nil || !el.Connected() {
		el = e.loc.Input()
	}
	if el == nil {
		e.log.Warn("write skipped: no input surface")
		return false
	}
	for _, s := range e.strategies {
		err := s.Commit(e.doc, el, text)
		if err == nil {
			e.log.Debug("text committed", zap.String("strategy", s.Name()))
			return true
		}
		e.log.Debug("commit strategy failed",
			zap.String("strategy", s.Name()), zap.Error(err))
	}
	return false
}

// AttachFile assigns the file to the nearest file-input surface and
// confirms indirectly through the host's attachment-count UI. Reports
// whether the attachment was confirmed.
func (e *Engine) AttachFile(ctx context.Context, f page.File) bool {
	fi := e.loc.AttachmentInput()
	if fi == nil {
		e.log.Warn("attach skipped: no file-input surface", zap.String("file", f.Name))
		return false
	}
	if err := fi.SetFiles([]page.File{f}); err != nil {
		e.log.Warn("attach failed", zap.String("file", f.Name), zap.Error(err))
		return false
	}

	timeout := e.AttachTimeout
	if timeout <= 0 {
		timeout = attachTimeout
	}
	deadline := time.Now().Add(timeout)
	for {
		if len(e.loc.AttachmentChips()) > 0 {
			return true
		}
		if time.Now().After(deadline) {
			// The host may simply not render chips; the assignment
			// itself succeeded.
			e.log.Debug("attachment not confirmed by host UI", zap.String("file", f.Name))
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(pollInterval):
		}
	}
}
