package parser

import (
	"fmt"

	"github.com/FACorreiaa/echo-statements/internal/domain/statement/layout"
)

type fakeDocument struct {
	pages   [][]layout.Fragment
	pageErr map[int]error
}

func (d *fakeDocument) NumPages() int { return len(d.pages) }

func (d *fakeDocument) Fragments(page int) ([]layout.Fragment, error) {
	if err := d.pageErr[page]; err != nil {
		return nil, err
	}
	if page < 1 || page > len(d.pages) {
		return nil, fmt.Errorf("page %d: %w", page, ErrPageOutOfRange)
	}
	return d.pages[page-1], nil
}

type fakeDecoder struct {
	doc *fakeDocument
	err error
}

func (d fakeDecoder) Open([]byte) (Document, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.doc, nil
}

var pdfBytes = []byte("%PDF-1.7\nfake")

// line lays out one statement row at y in the reference column positions.
func line(y float64, texts ...string) []layout.Fragment {
	out := make([]layout.Fragment, 0, len(texts))
	for i, t := range texts {
		out = append(out, layout.Fragment{Text: t, X: float64(i) * 80, Y: y})
	}
	return out
}

func page(lines ...[]layout.Fragment) []layout.Fragment {
	var out []layout.Fragment
	for _, l := range lines {
		out = append(out, l...)
	}
	return out
}
