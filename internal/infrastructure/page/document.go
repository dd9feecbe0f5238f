// Package page holds the page container that views are swapped into
package page

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// BodyID is the id of the root container
const BodyID = "body"

var (
	// ErrElementNotFound is returned when no element has the requested id
	ErrElementNotFound = errors.New("element not found")
	// ErrNotFormControl is returned when reading or writing the value of an
	// element that has none
	ErrNotFormControl = errors.New("element is not a form control")
	// ErrNoSuchOption is returned when selecting a value a select does not offer
	ErrNoSuchOption = errors.New("select has no option with that value")
)

// Document is the client-side page: a root body element whose content is
// replaced by server-rendered HTML fragments. It is safe for concurrent use.
type Document struct {
	mu   sync.RWMutex
	root *html.Node
}

// NewDocument creates an empty page
func NewDocument() *Document {
	return &Document{
		root: &html.Node{
			Type:     html.ElementNode,
			Data:     "body",
			DataAtom: atom.Body,
			Attr:     []html.Attribute{{Key: "id", Val: BodyID}},
		},
	}
}

// Replace swaps the whole content of the container for fragment. The
// fragment is trusted and inserted without sanitising.
func (d *Document) Replace(fragment string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return setChildren(d.root, fragment)
}

// HTML renders the content of the container
func (d *Document) HTML() string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return renderChildren(d.root)
}

// Has reports whether an element with id is present
func (d *Document) Has(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return findByID(d.root, id) != nil
}

// IDs lists the ids of all elements in document order
func (d *Document) IDs() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var ids []string
	walk(d.root, func(n *html.Node) bool {
		if id, ok := attr(n, "id"); ok && id != "" {
			ids = append(ids, id)
		}
		return true
	})
	return ids
}

// Value returns the current value of an input, textarea or select
func (d *Document) Value(id string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	n, err := d.element(id)
	if err != nil {
		return "", err
	}

	switch n.DataAtom {
	case atom.Input:
		v, _ := attr(n, "value")
		return v, nil
	case atom.Textarea:
		return textContent(n), nil
	case atom.Select:
		options := optionsOf(n)
		for _, o := range options {
			if _, selected := attr(o, "selected"); selected {
				return optionValue(o), nil
			}
		}
		if len(options) > 0 {
			return optionValue(options[0]), nil
		}
		return "", nil
	default:
		return "", fmt.Errorf("%w: #%s is <%s>", ErrNotFormControl, id, n.Data)
	}
}

// SetValue changes the value of a form control, as typing or picking an
// option would
func (d *Document) SetValue(id, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, err := d.element(id)
	if err != nil {
		return err
	}

	switch n.DataAtom {
	case atom.Input:
		setAttr(n, "value", value)
		return nil
	case atom.Textarea:
		removeChildren(n)
		n.AppendChild(&html.Node{Type: html.TextNode, Data: value})
		return nil
	case atom.Select:
		var match *html.Node
		for _, o := range optionsOf(n) {
			if match == nil && optionValue(o) == value {
				match = o
			}
		}
		if match == nil {
			return fmt.Errorf("%w: #%s has no %q", ErrNoSuchOption, id, value)
		}
		for _, o := range optionsOf(n) {
			removeAttr(o, "selected")
		}
		setAttr(match, "selected", "")
		return nil
	default:
		return fmt.Errorf("%w: #%s is <%s>", ErrNotFormControl, id, n.Data)
	}
}

// InnerHTML renders the content of the element with id
func (d *Document) InnerHTML(id string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	n, err := d.element(id)
	if err != nil {
		return "", err
	}
	return renderChildren(n), nil
}

// SetInnerHTML replaces the content of the element with id
func (d *Document) SetInnerHTML(id, fragment string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, err := d.element(id)
	if err != nil {
		return err
	}
	return setChildren(n, fragment)
}

// Text returns the text content of the element with id
func (d *Document) Text(id string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	n, err := d.element(id)
	if err != nil {
		return "", err
	}
	return textContent(n), nil
}

func (d *Document) element(id string) (*html.Node, error) {
	n := findByID(d.root, id)
	if n == nil {
		return nil, fmt.Errorf("%w: #%s", ErrElementNotFound, id)
	}
	return n, nil
}

func setChildren(parent *html.Node, fragment string) error {
	context := &html.Node{Type: html.ElementNode, Data: parent.Data, DataAtom: parent.DataAtom}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), context)
	if err != nil {
		return fmt.Errorf("failed to parse fragment: %w", err)
	}

	removeChildren(parent)
	for _, n := range nodes {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		parent.AppendChild(n)
	}
	return nil
}

func renderChildren(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			break
		}
	}
	return buf.String()
}

func removeChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
	}
}

// walk visits n and its descendants depth first until fn returns false
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func findByID(root *html.Node, id string) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			if v, ok := attr(n, "id"); ok && v == id {
				found = n
				return false
			}
		}
		return true
	})
	return found
}

func optionsOf(sel *html.Node) []*html.Node {
	var options []*html.Node
	walk(sel, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Option {
			options = append(options, n)
		}
		return true
	})
	return options
}

func optionValue(o *html.Node) string {
	if v, ok := attr(o, "value"); ok {
		return v
	}
	return strings.Join(strings.Fields(textContent(o)), " ")
}

func textContent(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String()
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, value string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
}

func removeAttr(n *html.Node, key string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}
