// Package parser turns statement documents into ordered, enriched transactions.
// Decoding is behind the Decoder interface; bank layouts implement Adapter.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/FACorreiaa/echo-statements/internal/domain/statement/layout"
)

var (
	// ErrDecodeFailed is returned when a document cannot be opened at all.
	ErrDecodeFailed = errors.New("failed to decode document")
	// ErrPageOutOfRange is returned for page numbers outside [1, NumPages].
	ErrPageOutOfRange = errors.New("page out of range")
	// ErrEmptyPage is returned for pages without a content stream.
	ErrEmptyPage = errors.New("page has no content")
)

// Document is an opened statement document with 1-based pages.
type Document interface {
	NumPages() int
	Fragments(page int) ([]layout.Fragment, error)
}

// Decoder opens raw document bytes.
type Decoder interface {
	Open(data []byte) (Document, error)
}

// Glyph merge thresholds, as multiples of the font size.
const (
	defaultWordGap   = 0.25
	defaultColumnGap = 1.2
	baselineSlack    = 0.5
)

// PDFDecoder decodes PDFs with ledongthuc/pdf and merges glyph runs into
// positioned fragments.
type PDFDecoder struct {
	wordGap   float64
	columnGap float64
}

// NewPDFDecoder creates a decoder with the default merge thresholds.
func NewPDFDecoder() *PDFDecoder {
	return &PDFDecoder{wordGap: defaultWordGap, columnGap: defaultColumnGap}
}

// Open parses the document cross-reference table. Library panics are
// reported as ErrDecodeFailed.
func (d *PDFDecoder) Open(data []byte) (doc Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("%w: pdf library crashed: %v", ErrDecodeFailed, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	if reader.NumPage() == 0 {
		return nil, fmt.Errorf("%w: document has no pages", ErrDecodeFailed)
	}
	return &pdfDocument{reader: reader, wordGap: d.wordGap, columnGap: d.columnGap}, nil
}

type pdfDocument struct {
	reader    *pdf.Reader
	wordGap   float64
	columnGap float64
}

func (p *pdfDocument) NumPages() int {
	return p.reader.NumPage()
}

func (p *pdfDocument) Fragments(n int) (fragments []layout.Fragment, err error) {
	defer func() {
		if r := recover(); r != nil {
			fragments = nil
			err = fmt.Errorf("page %d: pdf library crashed: %v", n, r)
		}
	}()

	if n < 1 || n > p.reader.NumPage() {
		return nil, fmt.Errorf("page %d: %w", n, ErrPageOutOfRange)
	}
	page := p.reader.Page(n)
	if page.V.IsNull() {
		return nil, fmt.Errorf("page %d: %w", n, ErrEmptyPage)
	}

	content := page.Content()
	glyphs := make([]glyph, 0, len(content.Text))
	for _, t := range content.Text {
		glyphs = append(glyphs, glyph{S: t.S, X: t.X, Y: t.Y, W: t.W, FontSize: t.FontSize})
	}
	return mergeGlyphs(glyphs, p.wordGap, p.columnGap), nil
}

// glyph is one positioned text run as drawn by the content stream.
type glyph struct {
	S        string
	X, Y, W  float64
	FontSize float64
}

// mergeGlyphs joins consecutive runs on the same baseline. A gap below
// wordGap×size continues the word, a gap below columnGap×size inserts a
// space, anything wider starts a new fragment.
func mergeGlyphs(glyphs []glyph, wordGap, columnGap float64) []layout.Fragment {
	var (
		out     []layout.Fragment
		text    strings.Builder
		start   glyph
		end     float64
		pending bool // whitespace glyph seen since the last visible run
		open    bool
	)

	flush := func() {
		if open {
			if s := strings.TrimSpace(text.String()); s != "" {
				out = append(out, layout.Fragment{Text: s, X: start.X, Y: start.Y})
			}
		}
		text.Reset()
		open = false
		pending = false
	}

	for _, g := range glyphs {
		if strings.TrimFunc(g.S, unicode.IsSpace) == "" {
			if open {
				pending = true
				end = math.Max(end, g.X+g.W)
			}
			continue
		}

		size := g.FontSize
		if size <= 0 {
			size = 1
		}

		if open && math.Abs(g.Y-start.Y) <= baselineSlack*size {
			gap := g.X - end
			switch {
			case gap < 0 && g.X < start.X:
				flush()
			case gap <= wordGap*size && !pending:
				text.WriteString(g.S)
				end = g.X + g.W
				continue
			case gap <= columnGap*size:
				text.WriteByte(' ')
				text.WriteString(g.S)
				end = g.X + g.W
				pending = false
				continue
			default:
				flush()
			}
		} else {
			flush()
		}

		start = g
		open = true
		text.WriteString(g.S)
		end = g.X + g.W
	}
	flush()
	return out
}
