// Package notes turns episode show notes (markdown with front matter) into
// episode records.
package notes

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"shownotes/internal/models"
)

// DefaultNotesPrefix is the logical directory reported in Episode.NotesFile.
const DefaultNotesPrefix = "src/shared/shows"

// Parser converts show notes into episodes. It holds no per-document state and
// is safe for concurrent use.
type Parser struct {
	md          goldmark.Markdown
	notesPrefix string
	unsafe      bool
}

// Option configures a Parser.
type Option func(*Parser)

// WithNotesPrefix sets the directory NotesFile paths are reported under.
func WithNotesPrefix(prefix string) Option {
	return func(p *Parser) {
		p.notesPrefix = prefix
	}
}

// WithSafeMode drops raw HTML and dangerous link destinations from the output.
func WithSafeMode() Option {
	return func(p *Parser) {
		p.unsafe = false
	}
}

// NewParser builds a parser with GFM, linkify and auto heading IDs enabled.
func NewParser(opts ...Option) *Parser {
	p := &Parser{notesPrefix: DefaultNotesPrefix, unsafe: true}
	for _, opt := range opts {
		opt(p)
	}

	rendererOptions := []renderer.Option{
		renderer.WithNodeRenderers(util.Prioritized(newLinkRenderer(p.unsafe), 100)),
	}
	if p.unsafe {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}

	p.md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithAttribute(),
		),
		goldmark.WithRendererOptions(rendererOptions...),
	)
	return p
}

// Parse builds an episode from raw show notes. name is the file path relative
// to the content root. DisplayNumber is left for the caller to assign.
func (p *Parser) Parse(raw []byte, name string) (models.Episode, error) {
	meta := map[string]any{}
	body, err := frontmatter.Parse(bytes.NewReader(raw), &meta)
	if err != nil {
		return models.Episode{}, fmt.Errorf("%w: %s: front matter: %v", models.ErrMalformedEpisode, name, err)
	}

	number, err := requiredField(meta, "number", parseNumber)
	if err != nil {
		return models.Episode{}, fmt.Errorf("%w: %s: %v", models.ErrMalformedEpisode, name, err)
	}
	date, err := requiredField(meta, "date", parseDate)
	if err != nil {
		return models.Episode{}, fmt.Errorf("%w: %s: %v", models.ErrMalformedEpisode, name, err)
	}
	delete(meta, "number")
	delete(meta, "date")

	doc := p.md.Parser().Parse(text.NewReader(body))
	var buf bytes.Buffer
	if err := p.md.Renderer().Render(&buf, body, doc); err != nil {
		return models.Episode{}, fmt.Errorf("%w: %s: render: %v", models.ErrMalformedEpisode, name, err)
	}

	picks, err := p.picksSection(doc, body)
	if err != nil {
		return models.Episode{}, fmt.Errorf("%w: %s: render picks: %v", models.ErrMalformedEpisode, name, err)
	}

	return models.Episode{
		Number:      number,
		Date:        date,
		DisplayDate: FormatDisplayDate(date),
		HTML:        buf.String(),
		NotesFile:   path.Join(p.notesPrefix, path.Clean(strings.TrimPrefix(name, "/"))),
		Meta:        normalizeMap(meta),
		Picks:       picks,
	}, nil
}

func requiredField[T any](meta map[string]any, key string, parse func(any) (T, error)) (T, error) {
	var zero T
	value, ok := meta[key]
	if !ok {
		return zero, fmt.Errorf("missing %q", key)
	}
	parsed, err := parse(value)
	if err != nil {
		return zero, fmt.Errorf("field %q: %w", key, err)
	}
	return parsed, nil
}

// normalizeMap converts the map[interface{}]interface{} values produced by the
// YAML decoder into map[string]any so episodes stay JSON encodable.
func normalizeMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = normalizeValue(value)
	}
	return out
}

func normalizeValue(value any) any {
	switch v := value.(type) {
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[fmt.Sprint(key)] = normalizeValue(item)
		}
		return out
	case map[string]any:
		return normalizeMap(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}
