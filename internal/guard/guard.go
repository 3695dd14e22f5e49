package guard

import (
	"strings"

	"github.com/promptveil/promptveil/internal/page"
)

// Trigger describes one intercepted send attempt.
type Trigger struct {
	// Kind is the gesture that tried to send: key, click, or submit.
	Kind page.EventKind

	// Target is the event's target element, when known.
	Target page.Element
}

// Guard owns the capturing interceptor. While attached it classifies
// every keydown/click/submit; send attempts are consumed before the
// host sees them, and the first attempt while the pipeline is idle is
// reported through onSend, synchronously, with the claim already taken.
type Guard struct {
	state  *State
	onSend func(Trigger)
}

// New creates a guard around the given state. onSend runs synchronously
// inside event delivery whenever a new cycle should start; it must not
// block.
func New(state *State, onSend func(Trigger)) *Guard {
	return &Guard{state: state, onSend: onSend}
}

// State returns the cycle state the guard reads.
func (g *Guard) State() *State { return g.state }

// Attach registers the capturing interceptor on the document. The
// returned function detaches it.
func (g *Guard) Attach(doc page.Document) (detach func()) {
	return doc.Intercept(g.intercept)
}

func (g *Guard) intercept(ev *page.Event) page.Verdict {
	if !isSendAttempt(ev) {
		return page.Pass
	}

	// A one-shot pass lets the native pathway run exactly once: either
	// the pipeline's own programmatic submission, or the user's manual
	// send after a cycle that attached a file.
	if g.state.ConsumePassThrough() {
		return page.Pass
	}

	// Claim the pipeline. Failure means a cycle is already in flight:
	// the attempt is swallowed, not queued.
	if !g.state.TryBegin() {
		return page.Consume
	}

	if g.onSend != nil {
		g.onSend(Trigger{Kind: ev.Kind, Target: ev.Target})
	}
	return page.Consume
}

// isSendAttempt classifies an event as an attempt to submit the
// message.
func isSendAttempt(ev *page.Event) bool {
	switch ev.Kind {
	case page.Submit:
		return true
	case page.KeyDown:
		if ev.Key != "Enter" || ev.Composing {
			return false
		}
		if ev.Shift || ev.Alt {
			return false
		}
		// Plain Enter and Ctrl/Cmd+Enter both send.
		return true
	case page.Click:
		return LooksLikeSend(ev.Target)
	}
	return false
}

// LooksLikeSend classifies a clicked element as a send control by
// inspecting the nearest interactive ancestor's accessible label, test
// identifier, and visible text. Markup-independent: a host restyle
// keeps working as long as the control still says "send".
func LooksLikeSend(target page.Element) bool {
	if target == nil {
		return false
	}
	ctl := target.Closest(`button, [role="button"], [type="submit"]`)
	if ctl == nil {
		return false
	}

	if v, ok := ctl.Attr("data-testid"); ok && containsSendWord(v) {
		return true
	}
	for _, attr := range []string{"aria-label", "title"} {
		if v, ok := ctl.Attr(attr); ok && containsSendWord(v) {
			return true
		}
	}
	if t, ok := ctl.Attr("type"); ok && t == "submit" {
		return true
	}
	if containsSendWord(ctl.Text()) {
		return true
	}
	// Icon-only controls: the svg usually carries the label.
	if icon := ctl.Find("svg"); icon != nil {
		if v, ok := icon.Attr("aria-label"); ok && containsSendWord(v) {
			return true
		}
	}
	return false
}

var sendWords = []string{"send", "submit", "전송", "보내기"}

func containsSendWord(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, w := range sendWords {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
