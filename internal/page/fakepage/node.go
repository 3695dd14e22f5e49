package fakepage

import (
	"fmt"
	"strings"
	"time"

	"github.com/promptveil/promptveil/internal/page"
)

// page.Element implementation. Handles are live pointers into the tree;
// Connected turns false once the host detaches the subtree.

func (n *Node) Tag() string { return n.tag }

func (n *Node) Attr(name string) (string, bool) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	v, ok := n.attrs[name]
	return v, ok
}

func (n *Node) Text() string {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.textLocked()
}

func (n *Node) textLocked() string {
	parts := make([]string, 0, 1+len(n.children))
	if n.text != "" {
		parts = append(parts, n.text)
	}
	for _, c := range n.children {
		if t := c.textLocked(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "")
}

func (n *Node) Value() string {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if n.tag == "textarea" || n.tag == "input" {
		return n.value
	}
	return n.textLocked()
}

func (n *Node) Editable() bool { return n.editable }

func (n *Node) Visible() bool {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	for c := n; c != nil; c = c.parent {
		if !c.visible {
			return false
		}
	}
	return true
}

func (n *Node) Connected() bool {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return !n.detached
}

func (n *Node) Closest(selector string) page.Element {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	for c := n; c != nil && !c.isShadowRoot(); c = c.parent {
		if c.matches(selector) {
			return c
		}
	}
	return nil
}

func (n *Node) Form() page.Element {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	for c := n.parent; c != nil && !c.isShadowRoot(); c = c.parent {
		if c.tag == "form" {
			return c
		}
	}
	return nil
}

func (n *Node) Shadow() page.Scope {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if n.shadow == nil {
		return nil
	}
	return n.shadow
}

func (n *Node) Find(selector string) page.Element {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	got := n.find(selector)
	if got == nil {
		return nil
	}
	return got
}

func (n *Node) FindAll(selector string) []page.Element {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return nodesToElements(n.findAll(selector))
}

func (n *Node) SetValueNative(text string) error {
	n.doc.mu.Lock()
	if n.detached {
		n.doc.mu.Unlock()
		return fmt.Errorf("fakepage: element detached")
	}
	if n.tag == "textarea" || n.tag == "input" {
		n.value = text
	} else {
		n.children = nil
		n.text = text
	}
	n.doc.mu.Unlock()
	return nil
}

func (n *Node) InsertText(text string) error {
	n.doc.mu.Lock()
	if n.detached {
		n.doc.mu.Unlock()
		return fmt.Errorf("fakepage: element detached")
	}
	if n.tag == "textarea" || n.tag == "input" {
		n.value += text
	} else {
		n.text += text
	}
	n.doc.mu.Unlock()
	return nil
}

// SetFiles assigns a synthetic file list. The fake host reacts the way
// the real one does: it renders one attachment chip per file, and tears
// chips down (after TeardownDelay, if set) when the list is cleared.
func (n *Node) SetFiles(files []page.File) error {
	if n.tag != "input" {
		return fmt.Errorf("fakepage: SetFiles on <%s>", n.tag)
	}
	if t, _ := n.attrs["type"]; t != "file" {
		return fmt.Errorf("fakepage: SetFiles on non-file input")
	}

	n.doc.mu.Lock()
	if n.detached {
		n.doc.mu.Unlock()
		return fmt.Errorf("fakepage: element detached")
	}
	n.files = append([]page.File(nil), files...)
	delay := n.doc.TeardownDelay
	d := n.doc
	n.doc.mu.Unlock()

	if len(files) == 0 {
		if delay > 0 {
			time.AfterFunc(delay, d.removeChips)
		} else {
			d.removeChips()
		}
		return nil
	}

	d.removeChips()
	for _, f := range files {
		chip := d.NewNode("div", "data-testid", "attachment-chip")
		chip.text = f.Name
		d.Append(d.root, chip)
	}
	return nil
}

// Files returns the input's current synthetic file list. Not part of
// page.Element; tests reach it through the concrete type.
func (n *Node) Files() []page.File {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return append([]page.File(nil), n.files...)
}

// SetValue overwrites the raw value without host notification. Test
// setup helper.
func (n *Node) SetValue(text string) {
	n.doc.mu.Lock()
	n.value = text
	n.doc.mu.Unlock()
}

func (n *Node) Click() error {
	ev := page.Event{Kind: page.Click, Target: n, Trusted: false}
	n.doc.deliver(&ev)
	return nil
}

// page.Scope on shadow roots works through the same Node methods.
var _ page.Element = (*Node)(nil)
var _ page.Document = (*Doc)(nil)
