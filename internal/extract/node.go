package extract

import (
	"bytes"
	"encoding/xml"
)

// node is a generic XML element tree. The E2B(R3) schema is large and mostly
// irrelevant to triage, so the extractor walks a tolerant tree instead of
// binding the full HL7 v3 type system: unknown elements are simply never
// visited, which gives the forward-compatibility the contract requires.
type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []node     `xml:",any"`
}

// attr returns the value of the named attribute, ignoring namespace prefixes.
func (n *node) attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// child returns the first direct child with the given local name.
func (n *node) child(local string) *node {
	for i := range n.Children {
		if n.Children[i].XMLName.Local == local {
			return &n.Children[i]
		}
	}
	return nil
}

// walk visits every element in document order, including n itself. The
// visitor returns false to stop the walk early.
func (n *node) walk(visit func(*node) bool) bool {
	if !visit(n) {
		return false
	}
	for i := range n.Children {
		if !n.Children[i].walk(visit) {
			return false
		}
	}
	return true
}

// find returns the first descendant (or n itself) matching pred.
func (n *node) find(pred func(*node) bool) *node {
	var found *node
	n.walk(func(e *node) bool {
		if pred(e) {
			found = e
			return false
		}
		return true
	})
	return found
}

// findAll returns every descendant (including n itself) matching pred, in
// document order.
func (n *node) findAll(pred func(*node) bool) []*node {
	var out []*node
	n.walk(func(e *node) bool {
		if pred(e) {
			out = append(out, e)
		}
		return true
	})
	return out
}

// findNamed returns the first descendant with the given local element name.
func (n *node) findNamed(local string) *node {
	return n.find(func(e *node) bool { return e.XMLName.Local == local })
}

// findAllNamed returns every descendant with the given local element name.
func (n *node) findAllNamed(local string) []*node {
	return n.findAll(func(e *node) bool { return e.XMLName.Local == local })
}

// valueSibling implements the "element whose <code> child matches, take its
// <value> child" lookup that the E2B(R3) observation blocks use throughout:
// it returns the <value> child of the first element carrying a <code> child
// with the given attribute, or nil.
func (n *node) valueSibling(codeAttr, want string) *node {
	var value *node
	n.walk(func(e *node) bool {
		code := e.child("code")
		if code == nil || code.attr(codeAttr) != want {
			return true
		}
		if v := e.child("value"); v != nil {
			value = v
			return false
		}
		return true
	})
	return value
}

// parseTree decodes data into an element tree. It returns the xml package's
// error unchanged so callers can surface the offending line.
func parseTree(data []byte) (*node, error) {
	var root node
	dec := xml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&root); err != nil {
		return nil, err
	}
	return &root, nil
}
