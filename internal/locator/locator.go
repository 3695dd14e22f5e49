// Package locator finds the host page's input surface, send control,
// attachment surfaces, and conversation turns. Discovery is a
// prioritized selector cascade over unstable markup: selectors are
// configuration data, tried in order, scoped focus-first, and a miss is
// a normal nil outcome rather than an error.
package locator

import (
	"sync"

	"github.com/promptveil/promptveil/internal/page"
)

// Locator resolves host-page surfaces against a document.
type Locator struct {
	doc page.Document

	mu  sync.RWMutex
	sel *Selectors
}

// New creates a locator. A nil Selectors falls back to the builtin
// cascade.
func New(doc page.Document, sel *Selectors) *Locator {
	if sel == nil {
		sel = DefaultSelectors()
	}
	return &Locator{doc: doc, sel: sel}
}

// SetSelectors swaps the cascade. Used by hot-reload.
func (l *Locator) SetSelectors(sel *Selectors) {
	if sel == nil {
		return
	}
	l.mu.Lock()
	l.sel = sel
	l.mu.Unlock()
}

func (l *Locator) selectors() *Selectors {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sel
}

// Input returns the active message-input surface, or nil.
//
// The focused element wins when it is itself editable; otherwise the
// cascade runs scoped to the focused element's form, then the whole
// document, then nested shadow trees.
func (l *Locator) Input() page.Element {
	if a := l.doc.Active(); a != nil && a.Editable() && a.Visible() {
		return a
	}
	return l.cascade(l.selectors().Input)
}

// SendControl returns the host's send control, or nil.
func (l *Locator) SendControl() page.Element {
	return l.cascade(l.selectors().SendControl)
}

// AttachmentInput returns the nearest file-input surface, or nil.
func (l *Locator) AttachmentInput() page.Element {
	return l.cascade(l.selectors().AttachmentInput)
}

// AttachmentChips returns the host's rendered attachment chips. Used to
// confirm attach/reset indirectly when direct value reads are not
// possible.
func (l *Locator) AttachmentChips() []page.Element {
	var out []page.Element
	for _, sel := range l.selectors().AttachmentChip {
		if got := l.doc.FindAll(sel); len(got) > 0 {
			out = append(out, got...)
		}
	}
	return out
}

// AssistantTurns returns all assistant reply turns in document order,
// falling back from the most specific turn selector to bare reply
// bodies.
func (l *Locator) AssistantTurns() []page.Element {
	for _, sel := range l.selectors().AssistantTurn {
		if got := l.doc.FindAll(sel); len(got) > 0 {
			return got
		}
	}
	return nil
}

// AssistantBody returns the text-bearing body inside a reply turn,
// or the turn itself when no body selector matches.
func (l *Locator) AssistantBody(turn page.Element) page.Element {
	if turn == nil {
		return nil
	}
	for _, sel := range l.selectors().AssistantBody {
		if body := turn.Find(sel); body != nil {
			return body
		}
	}
	return turn
}

// InAssistantTurn reports whether the element is, or sits inside, an
// assistant reply turn or reply body.
func (l *Locator) InAssistantTurn(el page.Element) bool {
	if el == nil {
		return false
	}
	sel := l.selectors()
	for _, s := range append(append([]string{}, sel.AssistantTurn...), sel.AssistantBody...) {
		if el.Closest(s) != nil {
			return true
		}
	}
	return false
}

// InUserTurn reports whether the element is, or sits inside, a user
// turn.
func (l *Locator) InUserTurn(el page.Element) bool {
	if el == nil {
		return false
	}
	for _, s := range l.selectors().UserTurn {
		if el.Closest(s) != nil {
			return true
		}
	}
	return false
}

// cascade tries each selector against each scope in priority order and
// returns the first visible match.
func (l *Locator) cascade(selectors []string) page.Element {
	scopes := l.scopes()
	for _, sel := range selectors {
		for _, scope := range scopes {
			if el := firstVisible(scope, sel); el != nil {
				return el
			}
		}
		if el := l.shadowFind(sel); el != nil {
			return el
		}
	}
	return nil
}

// scopes orders search scopes focus-outward: the focused element's
// enclosing form first, then the whole document.
func (l *Locator) scopes() []page.Scope {
	var scopes []page.Scope
	if a := l.doc.Active(); a != nil {
		if form := a.Form(); form != nil {
			scopes = append(scopes, form)
		}
	}
	return append(scopes, l.doc)
}

// shadowFind traverses nested shadow trees explicitly; standard queries
// do not cross the boundary.
func (l *Locator) shadowFind(sel string) page.Element {
	return shadowFindIn(l.doc, sel, 0)
}

// maxShadowDepth bounds traversal of pathological shadow nesting.
const maxShadowDepth = 8

func shadowFindIn(scope page.Scope, sel string, depth int) page.Element {
	if depth > maxShadowDepth {
		return nil
	}
	for _, host := range scope.FindAll("*") {
		root := host.Shadow()
		if root == nil {
			continue
		}
		if el := firstVisible(root, sel); el != nil {
			return el
		}
		if el := shadowFindIn(root, sel, depth+1); el != nil {
			return el
		}
	}
	return nil
}

func firstVisible(scope page.Scope, sel string) page.Element {
	for _, el := range scope.FindAll(sel) {
		if el.Visible() && el.Connected() {
			return el
		}
	}
	return nil
}
