// Package replywatch detects the arrival and completion of the host's
// asynchronously streamed reply. There is no push signal: a mutation
// subscription re-evaluates a baseline snapshot behind a single
// resettable debounce timer, and the first non-empty reply text is
// delivered exactly once per armed cycle.
package replywatch

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/promptveil/promptveil/internal/locator"
	"github.com/promptveil/promptveil/internal/page"
)

const (
	debounceDefault = 300 * time.Millisecond

	// settleDefault is the minimum age of a baseline before growth of
	// the last known reply counts as a new answer rather than leftover
	// streaming from the previous one.
	settleDefault = 30 * time.Millisecond

	// awaitTimeout bounds the wait for a detected reply element to
	// produce non-empty text.
	awaitTimeout  = 20 * time.Second
	awaitInterval = 200 * time.Millisecond

	// maxWaitDefault disarms a watcher whose host never answers.
	maxWaitDefault = 2 * time.Minute

	// armCooldown ignores repeated arms while one is already waiting.
	armCooldown = 2500 * time.Millisecond
)

// Capture is one detected reply.
type Capture struct {
	// Text is the reply's extracted text.
	Text string

	// Prompt is the input snapshot taken when the watcher was armed.
	Prompt string
}

// Baseline is the reply state snapshotted at arm time.
type Baseline struct {
	Count   int
	Last    page.Element
	LastLen int
	TakenAt time.Time
}

// Watcher observes the document for a new or growing assistant reply.
type Watcher struct {
	doc     page.Document
	loc     *locator.Locator
	log     *zap.Logger
	onReply func(Capture)

	// Debounce, Settle, AwaitTimeout, AwaitInterval, and MaxWait
	// override the defaults when positive. Tests shrink them.
	Debounce      time.Duration
	Settle        time.Duration
	AwaitTimeout  time.Duration
	AwaitInterval time.Duration
	MaxWait       time.Duration

	// ArmOnUserTurn arms the watcher when a user turn appears without a
	// mediated send, so replies to unmediated sends are still captured.
	ArmOnUserTurn bool

	mu        sync.Mutex
	armed     bool
	delivered bool
	baseline  Baseline
	target    page.Element
	prompt    string
	lastArm   time.Time
	deadline  time.Time
}

// New creates a watcher. onReply runs on the watcher goroutine once per
// armed cycle.
func New(doc page.Document, loc *locator.Locator, log *zap.Logger, onReply func(Capture)) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{doc: doc, loc: loc, log: log, onReply: onReply}
}

// Arm snapshots the current reply state and starts waiting for the
// next answer. Re-arming while already waiting is ignored inside the
// cooldown window. prompt is carried into the eventual Capture.
func (w *Watcher) Arm(prompt string) {
	now := time.Now()
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.armed && !w.delivered && now.Sub(w.lastArm) < armCooldown {
		return
	}
	w.armed = true
	w.delivered = false
	w.target = nil
	w.prompt = prompt
	w.lastArm = now
	w.deadline = now.Add(w.maxWait())
	w.baseline = w.snapshot(now)
	w.log.Debug("reply watcher armed",
		zap.Int("baseline_count", w.baseline.Count),
		zap.Int("baseline_len", w.baseline.LastLen))
}

// Armed reports whether a capture is pending.
func (w *Watcher) Armed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.armed && !w.delivered
}

func (w *Watcher) snapshot(now time.Time) Baseline {
	turns := w.loc.AssistantTurns()
	b := Baseline{Count: len(turns), TakenAt: now}
	if len(turns) > 0 {
		b.Last = turns[len(turns)-1]
		if body := w.loc.AssistantBody(b.Last); body != nil {
			b.LastLen = len(strings.TrimSpace(body.Text()))
		}
	}
	return b
}

// Run consumes document mutations until ctx is cancelled. A single
// debounce timer is reset on each relevant mutation; when it fires,
// the baseline comparison runs once for the whole batch.
func (w *Watcher) Run(ctx context.Context) error {
	muts, stop := w.doc.Observe(256)
	defer stop()

	debounce := time.NewTimer(w.debounce())
	debounce.Stop()
	defer debounce.Stop()

	expiry := time.NewTicker(time.Second)
	defer expiry.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-debounce.C:
			w.evaluate(ctx)

		case <-expiry.C:
			w.expire()

		case m, ok := <-muts:
			if !ok {
				return nil
			}
			assistantChanged, userTurnAdded := w.classify(m)

			if userTurnAdded && w.ArmOnUserTurn && !w.Armed() {
				w.Arm("")
			}
			if !assistantChanged || !w.Armed() {
				continue
			}
			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(w.debounce())
		}
	}
}

// classify decides whether a mutation batch touches assistant content
// or adds a user turn.
func (w *Watcher) classify(m page.Mutation) (assistantChanged, userTurnAdded bool) {
	for _, el := range m.Added {
		if w.loc.InUserTurn(el) {
			userTurnAdded = true
		}
		if w.loc.InAssistantTurn(el) {
			assistantChanged = true
		}
	}
	if m.Target != nil && w.loc.InAssistantTurn(m.Target) {
		assistantChanged = true
	}
	return assistantChanged, userTurnAdded
}

// evaluate runs the baseline comparison: a target already locked on, a
// turn beyond the baseline count, or growth of the last known turn
// after the settle time.
func (w *Watcher) evaluate(ctx context.Context) {
	w.mu.Lock()
	if !w.armed || w.delivered {
		w.mu.Unlock()
		return
	}
	base := w.baseline
	target := w.target
	w.mu.Unlock()

	if target != nil && target.Connected() {
		w.await(ctx, target)
		return
	}

	turns := w.loc.AssistantTurns()
	count := len(turns)

	if count > base.Count {
		w.lockTarget(turns[count-1])
		w.await(ctx, turns[count-1])
		return
	}

	if count == base.Count && base.Last != nil {
		body := w.loc.AssistantBody(base.Last)
		if body == nil {
			return
		}
		grown := len(strings.TrimSpace(body.Text())) > base.LastLen
		if grown && time.Since(base.TakenAt) >= w.settle() {
			w.lockTarget(base.Last)
			w.await(ctx, base.Last)
		}
	}
}

func (w *Watcher) lockTarget(turn page.Element) {
	w.mu.Lock()
	w.target = turn
	w.mu.Unlock()
}

// await polls the turn's body for non-empty text, bounded, then
// delivers.
func (w *Watcher) await(ctx context.Context, turn page.Element) {
	body := w.loc.AssistantBody(turn)
	if body == nil {
		return
	}
	deadline := time.Now().Add(w.awaitTimeoutD())
	for {
		if text := strings.TrimSpace(body.Text()); text != "" {
			w.deliverOnce(text)
			return
		}
		if time.Now().After(deadline) {
			w.log.Warn("reply stayed empty past await bound")
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.awaitIntervalD()):
		}
	}
}

// deliverOnce hands the capture to the callback at most once per armed
// cycle.
func (w *Watcher) deliverOnce(text string) {
	w.mu.Lock()
	if !w.armed || w.delivered {
		w.mu.Unlock()
		return
	}
	w.delivered = true
	w.armed = false
	w.target = nil
	prompt := w.prompt
	w.mu.Unlock()

	w.log.Debug("reply captured", zap.Int("len", len(text)))
	if w.onReply != nil {
		w.onReply(Capture{Text: text, Prompt: prompt})
	}
}

// expire disarms a watcher whose maximum wait elapsed without a reply.
func (w *Watcher) expire() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.armed || w.delivered {
		return
	}
	if time.Now().After(w.deadline) {
		w.armed = false
		w.target = nil
		w.log.Warn("reply watcher expired without a reply")
	}
}

func (w *Watcher) debounce() time.Duration {
	if w.Debounce > 0 {
		return w.Debounce
	}
	return debounceDefault
}

func (w *Watcher) settle() time.Duration {
	if w.Settle > 0 {
		return w.Settle
	}
	return settleDefault
}

func (w *Watcher) awaitTimeoutD() time.Duration {
	if w.AwaitTimeout > 0 {
		return w.AwaitTimeout
	}
	return awaitTimeout
}

func (w *Watcher) awaitIntervalD() time.Duration {
	if w.AwaitInterval > 0 {
		return w.AwaitInterval
	}
	return awaitInterval
}

func (w *Watcher) maxWait() time.Duration {
	if w.MaxWait > 0 {
		return w.MaxWait
	}
	return maxWaitDefault
}
