package page

// EventKind identifies the event classes the mediation layer cares
// about.
type EventKind string

const (
	KeyDown EventKind = "keydown"
	Click   EventKind = "click"
	Submit  EventKind = "submit"
	Input   EventKind = "input"
	Change  EventKind = "change"
)

// Event is one host-page event as seen by a capturing interceptor.
type Event struct {
	Kind   EventKind
	Target Element

	// Key fields, set for KeyDown.
	Key       string
	Shift     bool
	Ctrl      bool
	Alt       bool
	Meta      bool
	Composing bool

	// Trusted distinguishes real user gestures from synthetic
	// dispatches. The guard must never re-intercept its own synthetic
	// events.
	Trusted bool
}

// Verdict is an interceptor's decision for one event.
type Verdict int

const (
	// Pass lets the event continue to the host's own handlers.
	Pass Verdict = iota

	// Consume calls preventDefault/stopPropagation before the host
	// sees the event. The native action does not fire.
	Consume Verdict = iota
)

// Interceptor inspects a capturing-phase event and decides whether the
// host page may act on it.
//
// Return semantics:
//   - Pass: forward the event to the host untouched
//   - Consume: suppress the event; the host's native pathway never runs
type Interceptor func(ev *Event) Verdict
