package rodpage

import (
	"fmt"

	"github.com/promptveil/promptveil/internal/page"
)

// scope addresses one queryable subtree by registry id; id 0 is the
// document.
type scope struct {
	d  *Doc
	id int
}

func (s scope) Find(selector string) page.Element {
	g, ok := s.d.eval(`(id, sel) => window.__pv.find(id, sel)`, s.id, selector)
	if !ok {
		return nil
	}
	return s.d.element(g.Int())
}

func (s scope) FindAll(selector string) []page.Element {
	g, ok := s.d.eval(`(id, sel) => window.__pv.findAll(id, sel)`, s.id, selector)
	if !ok {
		return nil
	}
	var out []page.Element
	for _, idj := range g.Arr() {
		if el := s.d.element(idj.Int()); el != nil {
			out = append(out, el)
		}
	}
	return out
}

// El is a handle to one live node.
type El struct {
	scope
}

func (e *El) Tag() string {
	g, _ := e.d.eval(`(id) => window.__pv.tag(id)`, e.id)
	return g.Str()
}

func (e *El) Attr(name string) (string, bool) {
	g, ok := e.d.eval(`(id, name) => window.__pv.attr(id, name)`, e.id, name)
	if !ok || g.Nil() {
		return "", false
	}
	return g.Str(), true
}

func (e *El) Text() string {
	g, _ := e.d.eval(`(id) => window.__pv.text(id)`, e.id)
	return g.Str()
}

func (e *El) Value() string {
	g, _ := e.d.eval(`(id) => window.__pv.value(id)`, e.id)
	return g.Str()
}

func (e *El) Editable() bool {
	g, _ := e.d.eval(`(id) => window.__pv.editable(id)`, e.id)
	return g.Bool()
}

func (e *El) Visible() bool {
	g, _ := e.d.eval(`(id) => window.__pv.visible(id)`, e.id)
	return g.Bool()
}

func (e *El) Connected() bool {
	g, ok := e.d.eval(`(id) => window.__pv.connected(id)`, e.id)
	return ok && g.Bool()
}

func (e *El) Closest(selector string) page.Element {
	g, ok := e.d.eval(`(id, sel) => window.__pv.closest(id, sel)`, e.id, selector)
	if !ok {
		return nil
	}
	return e.d.element(g.Int())
}

func (e *El) Form() page.Element {
	g, ok := e.d.eval(`(id) => window.__pv.form(id)`, e.id)
	if !ok {
		return nil
	}
	return e.d.element(g.Int())
}

func (e *El) Shadow() page.Scope {
	g, ok := e.d.eval(`(id) => window.__pv.shadow(id)`, e.id)
	if !ok || g.Int() == 0 {
		return nil
	}
	return scope{d: e.d, id: g.Int()}
}

func (e *El) SetValueNative(text string) error {
	g, ok := e.d.eval(`(id, text) => window.__pv.setNative(id, text)`, e.id, text)
	if !ok || !g.Bool() {
		return fmt.Errorf("native value write failed")
	}
	return nil
}

func (e *El) InsertText(text string) error {
	g, ok := e.d.eval(`(id, text) => window.__pv.insertText(id, text)`, e.id, text)
	if !ok || !g.Bool() {
		return fmt.Errorf("text insertion failed")
	}
	return nil
}

func (e *El) SetFiles(files []page.File) error {
	g, ok := e.d.eval(`(id, files) => window.__pv.setFiles(id, files)`, e.id, encodeFiles(files))
	if !ok || !g.Bool() {
		return fmt.Errorf("file assignment failed")
	}
	return nil
}

func (e *El) Click() error {
	g, ok := e.d.eval(`(id) => window.__pv.click(id)`, e.id)
	if !ok || !g.Bool() {
		return fmt.Errorf("click failed")
	}
	return nil
}

var _ page.Element = (*El)(nil)
