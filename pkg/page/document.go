package page

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Element is a single node of a page
type Element interface {
	// Attr returns the attribute value and whether it is present
	Attr(name string) (string, bool)
	// Text returns the text content of the element and its descendants
	Text() string
}

// PageSource is a rendered page that can be queried.
// Query and Evaluate return the first match in document order.
type PageSource interface {
	Query(selector string) (Element, bool)
	Evaluate(xpath string) (Element, bool)
	URL() string
}

// Document is a parsed HTML page. CSS queries go through goquery and XPath
// through htmlquery, both over the same node tree.
type Document struct {
	doc *goquery.Document
	url string
}

// NewDocument parses an HTML page served at url
func NewDocument(r io.Reader, url string) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return &Document{
		doc: goquery.NewDocumentFromNode(root),
		url: url,
	}, nil
}

// NewDocumentFromString parses an HTML string served at url
func NewDocumentFromString(s string, url string) (*Document, error) {
	return NewDocument(bytes.NewBufferString(s), url)
}

// Load reads a saved page from disk. url is the address the page was saved
// from; the file itself carries no reliable record of it.
func Load(path string, url string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer f.Close()

	return NewDocument(f, url)
}

func (d *Document) URL() string {
	return d.url
}

// Query returns the first element matching a CSS selector. An invalid
// selector matches nothing.
func (d *Document) Query(selector string) (Element, bool) {
	sel := d.doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil, false
	}
	return selection{sel}, true
}

// Evaluate returns the first node matching an XPath expression. An invalid
// expression matches nothing.
func (d *Document) Evaluate(expr string) (Element, bool) {
	root := d.doc.Nodes[0]

	node, err := htmlquery.Query(root, expr)
	if err != nil || node == nil {
		return nil, false
	}

	sel := d.doc.FindNodes(node)
	if sel.Length() == 0 {
		// attribute and text results are not part of the element tree
		sel = goquery.NewDocumentFromNode(node).Selection
	}
	return selection{sel}, true
}

// selection adapts a single-node goquery selection to Element
type selection struct {
	s *goquery.Selection
}

func (e selection) Attr(name string) (string, bool) {
	return e.s.Attr(name)
}

func (e selection) Text() string {
	return e.s.Text()
}
