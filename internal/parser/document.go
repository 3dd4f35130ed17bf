package parser

import (
	"encoding/xml"
	"strings"
)

// syntheticRoot encloses a container so that sibling elements without a
// common ancestor form one document.
const syntheticRoot = "root"

// Element is a generic node of a parsed fragment.
type Element struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []Element  `xml:",any"`
}

// Name returns the local tag name.
func (e Element) Name() string { return e.XMLName.Local }

// Attr returns the value of attribute name and whether it is present.
func (e Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrOr returns the value of attribute name, or def when absent.
func (e Element) AttrOr(name, def string) string {
	if v, ok := e.Attr(name); ok {
		return v
	}
	return def
}

// FindAll returns every descendant named name in document order.
func (e Element) FindAll(name string) []Element {
	var out []Element
	for _, c := range e.Children {
		if c.Name() == name {
			out = append(out, c)
		}
		out = append(out, c.FindAll(name)...)
	}
	return out
}

// Find returns the first descendant named name.
func (e Element) Find(name string) (Element, bool) {
	for _, c := range e.Children {
		if c.Name() == name {
			return c, true
		}
		if found, ok := c.Find(name); ok {
			return found, true
		}
	}
	return Element{}, false
}

// Wrap parses text under a fabricated root element, discards the root and
// returns its top-level children. Any syntax error in text is returned as is.
func Wrap(text string) ([]Element, error) {
	var root Element
	dec := xml.NewDecoder(strings.NewReader("<" + syntheticRoot + ">" + text + "</" + syntheticRoot + ">"))
	dec.Strict = true
	if err := dec.Decode(&root); err != nil {
		return nil, err
	}
	return root.Children, nil
}
