// Package rodpage adapts a live Chromium tab, driven over the DevTools
// protocol, to the page interfaces. All DOM work happens in an injected
// script holding a node registry; the Go side only moves integer
// handles and scalar values across the protocol boundary.
package rodpage

import (
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/ysmood/gson"
	"go.uber.org/zap"

	"github.com/promptveil/promptveil/internal/page"
)

// Doc implements page.Document over one browser tab.
type Doc struct {
	page *rod.Page
	log  *zap.Logger

	mu          sync.Mutex
	interceptor page.Interceptor
	observers   map[int]chan page.Mutation
	obsNext     int
	stopEmit    func() error
}

// New injects the runtime into the tab and wires the emit binding.
// The document must be navigated already; the runtime re-installs on
// future navigations.
func New(p *rod.Page, log *zap.Logger) (*Doc, error) {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Doc{
		page:      p,
		log:       log,
		observers: make(map[int]chan page.Mutation),
	}

	stop, err := p.Expose("__pvEmit", d.onEmit)
	if err != nil {
		return nil, fmt.Errorf("failed to expose emit binding: %w", err)
	}
	d.stopEmit = stop

	if _, err := p.EvalOnNewDocument("(" + runtimeJS + ")();"); err != nil {
		return nil, fmt.Errorf("failed to install runtime: %w", err)
	}
	if _, err := p.Eval(runtimeJS); err != nil {
		return nil, fmt.Errorf("failed to inject runtime: %w", err)
	}
	return d, nil
}

// Close releases the emit binding.
func (d *Doc) Close() {
	if d.stopEmit != nil {
		_ = d.stopEmit()
	}
}

// eval runs a page function, logging failures. Getter paths treat an
// eval error as "node gone" and return the zero value.
func (d *Doc) eval(js string, args ...interface{}) (gson.JSON, bool) {
	obj, err := d.page.Eval(js, args...)
	if err != nil {
		d.log.Debug("page eval failed", zap.Error(err))
		return gson.JSON{}, false
	}
	return obj.Value, true
}

func (d *Doc) element(id int) page.Element {
	if id == 0 {
		return nil
	}
	return &El{scope: scope{d: d, id: id}}
}

// Find implements page.Scope at document level.
func (d *Doc) Find(selector string) page.Element {
	return scope{d: d, id: 0}.Find(selector)
}

// FindAll implements page.Scope at document level.
func (d *Doc) FindAll(selector string) []page.Element {
	return scope{d: d, id: 0}.FindAll(selector)
}

// Active returns the focused element, or nil.
func (d *Doc) Active() page.Element {
	g, ok := d.eval(`() => window.__pv.active()`)
	if !ok {
		return nil
	}
	return d.element(g.Int())
}

// Intercept arms the capturing interceptor. One interceptor at a time;
// the returned function disarms it.
func (d *Doc) Intercept(fn page.Interceptor) (remove func()) {
	d.mu.Lock()
	d.interceptor = fn
	d.mu.Unlock()
	d.eval(`() => window.__pv.arm()`)
	return func() {
		d.mu.Lock()
		d.interceptor = nil
		d.mu.Unlock()
		d.eval(`() => window.__pv.disarm()`)
	}
}

// Observe starts the document mutation stream.
func (d *Doc) Observe(buf int) (<-chan page.Mutation, func()) {
	ch := make(chan page.Mutation, buf)
	d.mu.Lock()
	d.obsNext++
	id := d.obsNext
	d.observers[id] = ch
	first := len(d.observers) == 1
	d.mu.Unlock()

	if first {
		d.eval(`() => window.__pv.observe()`)
	}
	return ch, func() {
		d.mu.Lock()
		if _, ok := d.observers[id]; ok {
			delete(d.observers, id)
			close(ch)
		}
		last := len(d.observers) == 0
		d.mu.Unlock()
		if last {
			d.eval(`() => window.__pv.unobserve()`)
		}
	}
}

// Dispatch delivers a synthetic event through the page's normal event
// pipeline. Interceptors see it; its Trusted flag is false.
func (d *Doc) Dispatch(ev page.Event) error {
	id := 0
	if el, ok := ev.Target.(*El); ok && el != nil {
		id = el.id
	}
	mods := map[string]bool{
		"shift": ev.Shift,
		"ctrl":  ev.Ctrl,
		"alt":   ev.Alt,
		"meta":  ev.Meta,
	}
	g, ok := d.eval(`(id, kind, key, mods) => window.__pv.dispatch(id, kind, key, mods)`,
		id, string(ev.Kind), ev.Key, mods)
	if !ok || !g.Bool() {
		return fmt.Errorf("dispatch %s failed", ev.Kind)
	}
	return nil
}

// Submit triggers the host's own submit mechanism on a form. The
// resulting submit event still passes the interceptor.
func (d *Doc) Submit(form page.Element) error {
	el, ok := form.(*El)
	if !ok || el == nil {
		return fmt.Errorf("not a form element")
	}
	g, ok := d.eval(`(id) => window.__pv.submit(id)`, el.id)
	if !ok || !g.Bool() {
		return fmt.Errorf("submit failed")
	}
	return nil
}

// onEmit receives event and mutation reports from the injected runtime.
func (d *Doc) onEmit(g gson.JSON) (interface{}, error) {
	switch g.Get("type").Str() {
	case "event":
		d.handleEvent(g)
	case "mutation":
		d.handleMutation(g)
	}
	return nil, nil
}

// handleEvent runs the interceptor over a consumed send attempt. The
// runtime already suppressed the native action; a Pass verdict is
// honored by replaying the gesture with interception bypassed.
func (d *Doc) handleEvent(g gson.JSON) {
	d.mu.Lock()
	fn := d.interceptor
	d.mu.Unlock()

	targetID := g.Get("target").Int()
	kind := page.EventKind(g.Get("kind").Str())

	if fn == nil {
		d.replay(targetID, kind)
		return
	}
	ev := &page.Event{
		Kind:      kind,
		Target:    d.element(targetID),
		Key:       g.Get("key").Str(),
		Shift:     g.Get("shift").Bool(),
		Ctrl:      g.Get("ctrl").Bool(),
		Alt:       g.Get("alt").Bool(),
		Meta:      g.Get("meta").Bool(),
		Composing: g.Get("composing").Bool(),
		Trusted:   g.Get("trusted").Bool(),
	}
	if fn(ev) == page.Pass {
		d.replay(targetID, kind)
	}
}

func (d *Doc) replay(targetID int, kind page.EventKind) {
	g, ok := d.eval(`(id, kind) => window.__pv.replay(id, kind)`, targetID, string(kind))
	if !ok || !g.Bool() {
		d.log.Warn("native replay failed", zap.String("kind", string(kind)))
	}
}

func (d *Doc) handleMutation(g gson.JSON) {
	var m page.Mutation
	for _, idj := range g.Get("added").Arr() {
		if el := d.element(idj.Int()); el != nil {
			m.Added = append(m.Added, el)
		}
	}
	if t := g.Get("target").Int(); t != 0 {
		m.Target = d.element(t)
	}
	if len(m.Added) == 0 && m.Target == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, ch := range d.observers {
		select {
		case ch <- m:
		default:
		}
	}
}

// encodeFiles converts payloads to the runtime's transfer shape.
func encodeFiles(files []page.File) []map[string]string {
	out := make([]map[string]string, 0, len(files))
	for _, f := range files {
		out = append(out, map[string]string{
			"name": f.Name,
			"mime": f.MIME,
			"data": base64.StdEncoding.EncodeToString(f.Data),
		})
	}
	return out
}

var _ page.Document = (*Doc)(nil)
