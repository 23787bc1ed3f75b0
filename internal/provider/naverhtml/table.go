package naverhtml

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"

	"github.com/sells-group/factsync/internal/provider"
)

// Table is a parsed HTML table indexed by row label.
type Table struct {
	rows  map[string][]string
	order []string
}

// Row returns the data cells of the first row whose label matches any of the
// given labels (compared without whitespace, case-insensitively).
func (t *Table) Row(labels ...string) ([]string, bool) {
	for _, l := range labels {
		if cells, ok := t.rows[labelKey(l)]; ok {
			return cells, true
		}
	}
	return nil, false
}

// Labels returns row labels in document order.
func (t *Table) Labels() []string {
	return t.order
}

// ParseTable decodes an HTML document (honouring its declared charset) and
// returns the first table whose caption, summary attribute or header text
// contains marker.
func ParseTable(r io.Reader, contentType, marker string) (*Table, error) {
	utf8, err := charset.NewReader(r, contentType)
	if err != nil {
		return nil, eris.Wrap(err, "naverhtml: decode charset")
	}
	doc, err := html.Parse(utf8)
	if err != nil {
		return nil, eris.Wrap(err, "naverhtml: parse html")
	}

	var found *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Table && strings.Contains(tableHeading(n), marker) {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if found == nil {
		return nil, eris.Wrapf(provider.ErrNoData, "naverhtml: table %q not found", marker)
	}
	return indexRows(found), nil
}

// tableHeading collects the text used to identify a table.
func tableHeading(table *html.Node) string {
	var b strings.Builder
	for _, a := range table.Attr {
		if a.Key == "summary" {
			b.WriteString(a.Val)
			b.WriteByte(' ')
		}
	}
	for c := table.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if c.DataAtom == atom.Caption || c.DataAtom == atom.Thead {
			b.WriteString(text(c))
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func indexRows(table *html.Node) *Table {
	t := &Table{rows: make(map[string][]string)}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Tr {
			label, cells := splitRow(n)
			if key := labelKey(label); key != "" {
				if _, dup := t.rows[key]; !dup {
					t.rows[key] = cells
					t.order = append(t.order, label)
				}
			}
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Table && n != table {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)
	return t
}

// splitRow returns the row's <th> label and its <td> texts.
func splitRow(tr *html.Node) (string, []string) {
	var label string
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.Th:
			if label == "" {
				label = text(c)
			}
		case atom.Td:
			cells = append(cells, text(c))
		}
	}
	return label, cells
}

func text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func labelKey(label string) string {
	return strings.ToUpper(strings.Join(strings.Fields(label), ""))
}
