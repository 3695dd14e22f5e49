package fakepage

import "strings"

// The selector grammar covers the subset the locator's cascade actually
// uses: tag names, "*", .class, [attr], [attr=v], [attr*=v], [attr^=v],
// :not(simple), compounds of those, the descendant combinator, and
// comma-separated groups. Anything fancier belongs in a real browser.

type simple struct {
	kind  string // "tag", "class", "attr", "not"
	name  string
	value string
	op    string  // "", "=", "*=", "^="
	inner *simple // for :not
}

type compound []simple

// group is one comma-separated alternative: a descendant chain, last
// compound matching the candidate node itself.
type group []compound

func parseSelector(sel string) []group {
	var groups []group
	for _, part := range splitTop(sel, ',') {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var g group
		for _, seg := range splitTop(part, ' ') {
			seg = strings.TrimSpace(seg)
			if seg == "" {
				continue
			}
			g = append(g, parseCompound(seg))
		}
		if len(g) > 0 {
			groups = append(groups, g)
		}
	}
	return groups
}

func parseCompound(seg string) compound {
	var c compound
	for seg != "" {
		switch seg[0] {
		case '.':
			end := nextBoundary(seg[1:])
			c = append(c, simple{kind: "class", name: seg[1 : 1+end]})
			seg = seg[1+end:]
		case '[':
			close := strings.IndexByte(seg, ']')
			if close < 0 {
				return c
			}
			c = append(c, parseAttr(seg[1:close]))
			seg = seg[close+1:]
		case ':':
			rest := seg[1:]
			if strings.HasPrefix(rest, "not(") {
				close := strings.IndexByte(rest, ')')
				if close < 0 {
					return c
				}
				inner := parseCompound(rest[4:close])
				if len(inner) > 0 {
					c = append(c, simple{kind: "not", inner: &inner[0]})
				}
				seg = rest[close+1:]
			} else {
				// Unknown pseudo-class: skip it rather than fail the
				// whole cascade.
				end := nextBoundary(rest)
				seg = rest[end:]
			}
		default:
			end := nextBoundary(seg)
			c = append(c, simple{kind: "tag", name: strings.ToLower(seg[:end])})
			seg = seg[end:]
		}
	}
	return c
}

func parseAttr(body string) simple {
	for _, op := range []string{"*=", "^=", "="} {
		if i := strings.Index(body, op); i >= 0 {
			val := strings.Trim(body[i+len(op):], `"'`)
			return simple{kind: "attr", name: body[:i], op: op, value: val}
		}
	}
	return simple{kind: "attr", name: body}
}

// nextBoundary returns the index where the current simple selector ends.
func nextBoundary(s string) int {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '.', '[', ':':
			return i
		}
	}
	return len(s)
}

// splitTop splits on sep outside of bracket/paren nesting.
func splitTop(s string, sep byte) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[', '(':
			depth++
		case ']', ')':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

func (n *Node) matchesSimple(s simple) bool {
	switch s.kind {
	case "tag":
		return s.name == "*" || n.tag == s.name
	case "class":
		cls, _ := n.attrs["class"]
		for _, c := range strings.Fields(cls) {
			if c == s.name {
				return true
			}
		}
		return false
	case "attr":
		v, ok := n.attrs[s.name]
		if !ok {
			return false
		}
		switch s.op {
		case "":
			return true
		case "=":
			return v == s.value
		case "*=":
			return strings.Contains(v, s.value)
		case "^=":
			return strings.HasPrefix(v, s.value)
		}
		return false
	case "not":
		return !n.matchesSimple(*s.inner)
	}
	return false
}

func (n *Node) matchesCompound(c compound) bool {
	for _, s := range c {
		if !n.matchesSimple(s) {
			return false
		}
	}
	return true
}

// matches reports whether the node satisfies any group of the selector.
// Ancestor compounds are resolved within the node's own tree and do not
// cross shadow boundaries.
func (n *Node) matches(sel string) bool {
	for _, g := range parseSelector(sel) {
		if n.matchesGroup(g) {
			return true
		}
	}
	return false
}

func (n *Node) matchesGroup(g group) bool {
	if len(g) == 0 {
		return false
	}
	if !n.matchesCompound(g[len(g)-1]) {
		return false
	}
	rest := g[:len(g)-1]
	anc := n.parent
	for i := len(rest) - 1; i >= 0; i-- {
		for {
			if anc == nil || anc.isShadowRoot() {
				return false
			}
			if anc.matchesCompound(rest[i]) {
				anc = anc.parent
				break
			}
			anc = anc.parent
		}
	}
	return true
}
