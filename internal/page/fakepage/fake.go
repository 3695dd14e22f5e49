// Package fakepage is a deterministic in-memory implementation of the
// page capability surface. It backs the test suite and the simulate
// command: a scripted host document with working event capture,
// mutation observation, and value/file semantics, but no browser.
package fakepage

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/promptveil/promptveil/internal/page"
)

// Node is one element of the fake document.
type Node struct {
	doc      *Doc
	parent   *Node
	tag      string
	attrs    map[string]string
	text     string
	value    string
	children []*Node
	shadow   *Node
	visible  bool
	editable bool
	detached bool
	files    []page.File

	// stickyValue mimics a host framework that shadows the value
	// property: plain InsertText appends, SetValueNative replaces.
	// Both leave host notification to the caller.
}

// Doc is the fake document root.
type Doc struct {
	mu         sync.Mutex
	root       *Node
	active     *Node
	intercepts map[int]page.Interceptor
	nextInt    int
	observers  map[int]chan page.Mutation
	nextObs    int

	// OnNativeSend runs when the host's native submission pathway
	// fires: an uninterecepted trusted Enter, send click, or form
	// submit with non-empty input. The fake host clears the input and
	// appends a user turn before calling it.
	OnNativeSend func(text string, files []page.File)

	// TeardownDelay defers attachment-chip removal after a file-input
	// clear, to exercise reset polling. Zero means synchronous.
	TeardownDelay time.Duration

	// Sent records every text the native pathway submitted.
	Sent []string

	// SentFiles records the files attached at each native submission.
	SentFiles [][]page.File
}

// New creates an empty document with only a root node.
func New() *Doc {
	d := &Doc{
		intercepts: make(map[int]page.Interceptor),
		observers:  make(map[int]chan page.Mutation),
	}
	d.root = &Node{doc: d, tag: "html", attrs: map[string]string{}, visible: true}
	return d
}

// --- tree construction ---

// NewNode creates a detached element. attrs come in pairs.
func (d *Doc) NewNode(tag string, attrs ...string) *Node {
	n := &Node{doc: d, tag: strings.ToLower(tag), attrs: map[string]string{}, visible: true}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.attrs[attrs[i]] = attrs[i+1]
	}
	if n.tag == "textarea" || n.tag == "input" {
		n.editable = n.tag == "textarea"
	}
	if ce, ok := n.attrs["contenteditable"]; ok && ce == "true" {
		n.editable = true
	}
	return n
}

// Root returns the document root node.
func (d *Doc) Root() *Node { return d.root }

// Append attaches child under parent and notifies observers.
func (d *Doc) Append(parent, child *Node) *Node {
	d.mu.Lock()
	child.parent = parent
	parent.children = append(parent.children, child)
	d.mu.Unlock()
	d.notify(page.Mutation{Added: []page.Element{child}})
	return child
}

// AttachShadow gives the node a shadow root and returns it.
func (d *Doc) AttachShadow(host *Node) *Node {
	sr := &Node{doc: d, tag: "#shadow-root", attrs: map[string]string{}, visible: true, parent: host}
	host.shadow = sr
	return sr
}

// Focus marks the node as the active element.
func (d *Doc) Focus(n *Node) {
	d.mu.Lock()
	d.active = n
	d.mu.Unlock()
}

// Detach removes the node from its parent.
func (d *Doc) Detach(n *Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n.markDetached()
	if n.parent == nil {
		return
	}
	kids := n.parent.children
	for i, c := range kids {
		if c == n {
			n.parent.children = append(kids[:i], kids[i+1:]...)
			break
		}
	}
	n.parent = nil
}

func (n *Node) markDetached() {
	n.detached = true
	for _, c := range n.children {
		c.markDetached()
	}
}

// SetText replaces the node's own text and notifies observers as a
// character-data mutation.
func (d *Doc) SetText(n *Node, text string) {
	d.mu.Lock()
	n.text = text
	d.mu.Unlock()
	d.notify(page.Mutation{Target: n})
}

// SetVisible toggles rendered visibility.
func (d *Doc) SetVisible(n *Node, v bool) {
	d.mu.Lock()
	n.visible = v
	d.mu.Unlock()
}

func (d *Doc) notify(m page.Mutation) {
	d.mu.Lock()
	chans := make([]chan page.Mutation, 0, len(d.observers))
	for _, ch := range d.observers {
		chans = append(chans, ch)
	}
	d.mu.Unlock()
	for _, ch := range chans {
		select {
		case ch <- m:
		default: // observer fell behind; mutations are re-derivable from the tree
		}
	}
}

// --- page.Scope on Doc ---

func (d *Doc) Find(selector string) page.Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := d.root.find(selector)
	if n == nil {
		return nil
	}
	return n
}

func (d *Doc) FindAll(selector string) []page.Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return nodesToElements(d.root.findAll(selector))
}

// Active returns the focused element, or nil.
func (d *Doc) Active() page.Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active == nil {
		return nil
	}
	return d.active
}

// --- interception and observation ---

func (d *Doc) Intercept(fn page.Interceptor) func() {
	d.mu.Lock()
	id := d.nextInt
	d.nextInt++
	d.intercepts[id] = fn
	d.mu.Unlock()
	return func() {
		d.mu.Lock()
		delete(d.intercepts, id)
		d.mu.Unlock()
	}
}

func (d *Doc) Observe(buf int) (<-chan page.Mutation, func()) {
	if buf < 1 {
		buf = 64
	}
	ch := make(chan page.Mutation, buf)
	d.mu.Lock()
	id := d.nextObs
	d.nextObs++
	d.observers[id] = ch
	d.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.observers, id)
			d.mu.Unlock()
			close(ch)
		})
	}
}

// Dispatch delivers a synthetic event through the capture pipeline.
func (d *Doc) Dispatch(ev page.Event) error {
	ev.Trusted = false
	d.deliver(&ev)
	return nil
}

// Submit triggers the host's native submit mechanism on a form.
func (d *Doc) Submit(form page.Element) error {
	n, ok := form.(*Node)
	if !ok || n.tag != "form" {
		return fmt.Errorf("fakepage: submit target is not a form")
	}
	ev := page.Event{Kind: page.Submit, Target: n, Trusted: false}
	d.deliver(&ev)
	return nil
}

// --- trusted user gestures ---

// UserEnter presses plain Enter in the active element.
func (d *Doc) UserEnter() {
	d.mu.Lock()
	target := d.active
	d.mu.Unlock()
	if target == nil {
		return
	}
	ev := page.Event{Kind: page.KeyDown, Key: "Enter", Target: target, Trusted: true}
	d.deliver(&ev)
}

// UserShiftEnter presses Shift+Enter (newline, never a send).
func (d *Doc) UserShiftEnter() {
	d.mu.Lock()
	target := d.active
	d.mu.Unlock()
	if target == nil {
		return
	}
	ev := page.Event{Kind: page.KeyDown, Key: "Enter", Shift: true, Target: target, Trusted: true}
	d.deliver(&ev)
}

// UserClick clicks an element as a trusted gesture.
func (d *Doc) UserClick(el page.Element) {
	n, ok := el.(*Node)
	if !ok {
		return
	}
	ev := page.Event{Kind: page.Click, Target: n, Trusted: true}
	d.deliver(&ev)
}

// UserType replaces the active element's value as if typed.
func (d *Doc) UserType(text string) {
	d.mu.Lock()
	if d.active != nil {
		d.active.value = text
	}
	d.mu.Unlock()
}

// deliver runs capturing interceptors in registration order, then the
// host's native behavior unless one consumed the event.
func (d *Doc) deliver(ev *page.Event) {
	d.mu.Lock()
	ids := make([]int, 0, len(d.intercepts))
	for id := range d.intercepts {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]page.Interceptor, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, d.intercepts[id])
	}
	d.mu.Unlock()

	for _, fn := range fns {
		if fn(ev) == page.Consume {
			return
		}
	}
	d.native(ev)
}

// native is the fake host's own event handling: Enter in an editable
// surface, a click on the send control, or a form submit all feed the
// native send pathway.
func (d *Doc) native(ev *page.Event) {
	switch ev.Kind {
	case page.KeyDown:
		t, _ := ev.Target.(*Node)
		if ev.Key == "Enter" && !ev.Shift && t != nil && t.editable {
			d.nativeSend()
		}
	case page.Click:
		if n, ok := ev.Target.(*Node); ok && n.isSendControl() {
			d.nativeSend()
		}
	case page.Submit:
		d.nativeSend()
	}
}

func (n *Node) isSendControl() bool {
	for c := n; c != nil; c = c.parent {
		if c.tag != "button" {
			continue
		}
		if v, ok := c.attrs["data-testid"]; ok && v == "send-button" {
			return true
		}
		if v, ok := c.attrs["type"]; ok && v == "submit" {
			return true
		}
	}
	return false
}

func (d *Doc) nativeSend() {
	d.mu.Lock()
	input := d.root.find("textarea")
	if input == nil {
		input = d.root.find("div[contenteditable='true']")
	}
	var text string
	if input != nil {
		text = input.value
	}
	if strings.TrimSpace(text) == "" {
		d.mu.Unlock()
		return
	}
	var files []page.File
	if fi := d.root.find("input[type='file']"); fi != nil {
		files = append(files, fi.files...)
		fi.files = nil
	}
	input.value = ""
	d.Sent = append(d.Sent, text)
	d.SentFiles = append(d.SentFiles, files)
	hook := d.OnNativeSend
	d.mu.Unlock()

	d.removeChips()
	d.appendUserTurn(text)
	if hook != nil {
		hook(text, files)
	}
}

func (d *Doc) appendUserTurn(text string) {
	conv := d.Find("[data-testid='conversation']")
	parent := d.root
	if conv != nil {
		parent = conv.(*Node)
	}
	turn := d.NewNode("div", "data-testid", "conversation-turn", "data-message-author-role", "user")
	turn.text = text
	d.Append(parent, turn)
}

func (d *Doc) removeChips() {
	for {
		chip := d.Find("[data-testid='attachment-chip']")
		if chip == nil {
			return
		}
		d.Detach(chip.(*Node))
	}
}

// --- internal query helpers (callers hold d.mu) ---

func (n *Node) find(selector string) *Node {
	for _, c := range n.children {
		if c.matches(selector) {
			return c
		}
		if got := c.find(selector); got != nil {
			return got
		}
	}
	return nil
}

func (n *Node) findAll(selector string) []*Node {
	var out []*Node
	for _, c := range n.children {
		if c.matches(selector) {
			out = append(out, c)
		}
		out = append(out, c.findAll(selector)...)
	}
	return out
}

func (n *Node) isShadowRoot() bool { return n.tag == "#shadow-root" }

func nodesToElements(ns []*Node) []page.Element {
	out := make([]page.Element, len(ns))
	for i, n := range ns {
		out[i] = n
	}
	return out
}
