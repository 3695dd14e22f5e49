// Package page defines the capability surface promptveil needs from a
// host document. The mediation pipeline never touches a browser API
// directly; it talks to these interfaces so the same state machine runs
// against a live Chromium tab (rodpage) or an in-memory document
// (fakepage).
package page

// File is a binary payload moving through an attachment surface.
type File struct {
	Name string
	MIME string
	Data []byte
}

// Scope is a queryable subtree: the document itself, an element's
// subtree, or a shadow root. Queries do not cross shadow boundaries;
// callers traverse them explicitly via Element.Shadow.
type Scope interface {
	// Find returns the first element matching the selector, or nil.
	Find(selector string) Element

	// FindAll returns every element matching the selector, in document
	// order. "*" enumerates all elements in the scope.
	FindAll(selector string) []Element
}

// Element is a handle to a single host-page node. Handles stay valid
// across re-renders only as long as Connected reports true; callers
// must re-locate after the host tears a subtree down.
type Element interface {
	Scope

	// Tag returns the lower-case tag name.
	Tag() string

	// Attr returns the attribute value and whether it is present.
	Attr(name string) (string, bool)

	// Text returns the rendered text content.
	Text() string

	// Value returns the current input value (textarea/input) or the
	// text content for contenteditable surfaces.
	Value() string

	// Editable reports whether the element accepts text input.
	Editable() bool

	// Visible reports whether the element is rendered with non-zero
	// size.
	Visible() bool

	// Connected reports whether the element is still attached to the
	// document.
	Connected() bool

	// Closest returns the nearest ancestor (or self) matching the
	// selector, or nil.
	Closest(selector string) Element

	// Form returns the enclosing form element, or nil.
	Form() Element

	// Shadow returns the element's shadow root scope, or nil when the
	// element hosts none.
	Shadow() Scope

	// SetValueNative writes through the element's native value setter,
	// bypassing any property override the host framework installed. It
	// does not notify the host; callers dispatch synthetic events
	// afterwards.
	SetValueNative(text string) error

	// InsertText emulates typed text insertion at the element. Fallback
	// commit path for hosts that ignore direct value writes.
	InsertText(text string) error

	// SetFiles assigns a synthetic file list to a file input and
	// dispatches the input/change pair.
	SetFiles(files []File) error

	// Click performs a synthetic (non-user-trusted) click.
	Click() error
}

// Document is the root handle for one host page.
type Document interface {
	Scope

	// Active returns the currently focused element, or nil.
	Active() Element

	// Intercept registers a capturing-phase interceptor that runs
	// before the host's own handlers for keydown, click, and submit
	// events. The returned function removes it.
	Intercept(fn Interceptor) (remove func())

	// Observe returns a stream of document mutations (subtree child
	// additions and text changes). The returned function stops the
	// subscription and closes the channel.
	Observe(buf int) (<-chan Mutation, func())

	// Dispatch delivers a synthetic event to its target through the
	// normal pipeline. Synthetic events carry Trusted == false and are
	// still seen by interceptors.
	Dispatch(ev Event) error

	// Submit triggers the host's own submit mechanism on a form.
	Submit(form Element) error
}

// Mutation describes one observed document change.
type Mutation struct {
	// Added holds elements inserted into the document, if any.
	Added []Element

	// Target is the element whose text changed, for character-data
	// mutations. Nil for pure child-list changes.
	Target Element
}
