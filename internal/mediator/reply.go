package mediator

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/promptveil/promptveil/internal/backend"
	"github.com/promptveil/promptveil/internal/capture"
	"github.com/promptveil/promptveil/internal/replywatch"
)

// ReplyAction is what the user chose to do with a captured reply.
type ReplyAction string

const (
	ActionInsert ReplyAction = "insert"
	ActionClose  ReplyAction = "close"
)

// ReplyContext pairs a captured reply with the mediated prompt that
// produced it, so a surface can show both sides of the exchange.
type ReplyContext struct {
	Prompt         string
	RedactedPrompt string
	Answer         string
	Types          []string
}

// ReplySurface presents a captured reply to the user. Nil is a valid
// surface: replies are still captured and stored, just not shown.
type ReplySurface interface {
	Show(ctx context.Context, rc ReplyContext) (ReplyAction, error)
}

// ReplyFunc adapts a function to the ReplySurface interface.
type ReplyFunc func(ctx context.Context, rc ReplyContext) (ReplyAction, error)

func (f ReplyFunc) Show(ctx context.Context, rc ReplyContext) (ReplyAction, error) {
	return f(ctx, rc)
}

// onReply receives each captured assistant reply from the watcher.
func (m *Mediator) onReply(c replywatch.Capture) {
	m.mu.Lock()
	m.lastRep = &c
	scan := m.lastScan
	m.mu.Unlock()

	m.log.Info("reply captured", zap.Int("text_len", len(c.Text)))

	if m.store != nil {
		if _, err := m.store.Remember(capture.Record{Kind: capture.KindReply, Text: c.Text}); err != nil {
			m.log.Debug("capture store write failed", zap.Error(err))
		}
	}

	if m.replies == nil {
		return
	}
	rc := ReplyContext{Prompt: c.Prompt, Answer: c.Text}
	if scan != nil {
		rc.RedactedPrompt = scan.RedactedText
		rc.Types = scan.Types
	}
	action, err := m.replies.Show(context.Background(), rc)
	if err != nil {
		m.log.Warn("reply surface failed", zap.Error(err))
		return
	}
	if action == ActionInsert {
		if !m.engine.WriteText(m.loc.Input(), c.Text) {
			m.log.Warn("reply insert failed")
		}
	}
}

// SubmitReport sends the last completed exchange to the redaction
// service's report endpoint.
func (m *Mediator) SubmitReport(ctx context.Context) error {
	m.mu.Lock()
	scan := m.lastScan
	rep := m.lastRep
	m.mu.Unlock()

	if scan == nil || rep == nil {
		return errors.New("no completed exchange to report")
	}
	return m.client.SubmitReport(ctx, backend.Report{
		OriginalText: scan.OriginalText,
		RedactedText: scan.RedactedText,
		AnswerText:   rep.Text,
		Types:        scan.Types,
	})
}
