package notes

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark/ast"
	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"shownotes/internal/models"
)

// picksMarker is matched against heading IDs, ignoring case. Authors title the
// section "Sick Picks", "Picks", "Sick Pick"... so only the common tail is required.
const picksMarker = "icks"

// sectionHeading is a level-2 heading written either as markdown or as a raw <h2> block.
type sectionHeading struct {
	id   string
	text string
	// rest is raw HTML that follows </h2> inside the same HTML block.
	rest []byte
	// ended is set when another <h2> follows within the same block.
	ended bool
}

// picksSection returns the first level-2 section whose heading ID contains
// picksMarker, rendering every block up to the next level-2 heading. A picks
// section that is not followed by another level-2 heading is not a section.
func (p *Parser) picksSection(doc ast.Node, source []byte) (*models.Section, error) {
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		heading, ok := p.level2Heading(node, source)
		if !ok || !strings.Contains(strings.ToLower(heading.id), picksMarker) {
			continue
		}

		var buf bytes.Buffer
		buf.Write(bytes.TrimLeft(heading.rest, "\r\n"))
		if heading.ended {
			return &models.Section{ID: heading.id, Heading: heading.text, BodyHTML: buf.String()}, nil
		}
		for block := node.NextSibling(); block != nil; block = block.NextSibling() {
			if _, ok := p.level2Heading(block, source); ok {
				return &models.Section{
					ID:       heading.id,
					Heading:  heading.text,
					BodyHTML: buf.String(),
				}, nil
			}
			if err := p.md.Renderer().Render(&buf, source, block); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}
	return nil, nil
}

// level2Heading reports whether node starts a level-2 section. Raw HTML blocks
// only count when they reach the rendered output, i.e. outside safe mode.
func (p *Parser) level2Heading(node ast.Node, source []byte) (sectionHeading, bool) {
	switch n := node.(type) {
	case *ast.Heading:
		if n.Level != 2 {
			return sectionHeading{}, false
		}
		return sectionHeading{id: headingID(n), text: string(n.Text(source))}, true
	case *ast.HTMLBlock:
		if !p.unsafe {
			return sectionHeading{}, false
		}
		return rawHeading(htmlBlockSource(n, source))
	default:
		return sectionHeading{}, false
	}
}

func headingID(h *ast.Heading) string {
	value, ok := h.AttributeString("id")
	if !ok {
		return ""
	}
	switch v := value.(type) {
	case []byte:
		return string(v)
	case string:
		return v
	default:
		return ""
	}
}

func htmlBlockSource(n *ast.HTMLBlock, source []byte) []byte {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		buf.Write(segment.Value(source))
	}
	if n.HasClosure() {
		buf.Write(n.ClosureLine.Value(source))
	}
	return buf.Bytes()
}

// rawHeading parses an HTML block that opens with an <h2> tag.
func rawHeading(raw []byte) (sectionHeading, bool) {
	raw = bytes.TrimLeft(raw, " \t")
	if len(raw) < 4 || !bytes.EqualFold(raw[:3], []byte("<h2")) {
		return sectionHeading{}, false
	}
	switch raw[3] {
	case '>', ' ', '\t', '\r', '\n', '/':
	default:
		return sectionHeading{}, false
	}

	z := xhtml.NewTokenizer(bytes.NewReader(raw))
	if tt := z.Next(); tt != xhtml.StartTagToken && tt != xhtml.SelfClosingTagToken {
		return sectionHeading{}, false
	}
	tok := z.Token()
	if tok.DataAtom != atom.H2 {
		return sectionHeading{}, false
	}

	var heading sectionHeading
	for _, attr := range tok.Attr {
		if attr.Key == "id" {
			heading.id = attr.Val
		}
	}

	var text strings.Builder
	closed := false
	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			break
		}
		if closed {
			if tt == xhtml.StartTagToken {
				if name, _ := z.TagName(); string(name) == "h2" {
					heading.ended = true
					break
				}
			}
			heading.rest = append(heading.rest, z.Raw()...)
			continue
		}
		switch tt {
		case xhtml.TextToken:
			text.Write(z.Text())
		case xhtml.EndTagToken:
			if name, _ := z.TagName(); string(name) == "h2" {
				closed = true
			}
		}
	}
	heading.text = strings.TrimSpace(text.String())
	return heading, true
}
