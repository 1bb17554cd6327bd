package xml

import (
	"strings"

	"github.com/beevik/etree"
)

// Element lookups in this package match on local names only, so documents
// using fe:, fac:, ns2: or no prefix at all are treated the same.

// child follows a path of local names from el, taking the first match at
// each level. Returns nil if any step is missing.
func child(el *etree.Element, path ...string) *etree.Element {
	cur := el
	for _, name := range path {
		if cur == nil {
			return nil
		}
		var next *etree.Element
		for _, c := range cur.ChildElements() {
			if c.Tag == name {
				next = c
				break
			}
		}
		cur = next
	}
	return cur
}

// children returns all direct children of el with the given local name
func children(el *etree.Element, name string) []*etree.Element {
	if el == nil {
		return nil
	}
	var out []*etree.Element
	for _, c := range el.ChildElements() {
		if c.Tag == name {
			out = append(out, c)
		}
	}
	return out
}

// text returns the trimmed text at path, or "" when the element is missing
func text(el *etree.Element, path ...string) string {
	c := child(el, path...)
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.Text())
}

// findDescendant returns the first element named localName in document
// order, including el itself.
func findDescendant(el *etree.Element, localName string) *etree.Element {
	if el == nil {
		return nil
	}
	if el.Tag == localName {
		return el
	}
	for _, c := range el.ChildElements() {
		if found := findDescendant(c, localName); found != nil {
			return found
		}
	}
	return nil
}

// countDescendants counts elements named localName below el
func countDescendants(el *etree.Element, localName string) int {
	if el == nil {
		return 0
	}
	n := 0
	for _, c := range el.ChildElements() {
		if c.Tag == localName {
			n++
		}
		n += countDescendants(c, localName)
	}
	return n
}

// joinPath builds a field path for error messages
func joinPath(parts ...string) string {
	return strings.Join(parts, "/")
}
