package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/echo-statements/internal/domain/statement/layout"
)

func TestMergeGlyphs(t *testing.T) {
	tests := []struct {
		name   string
		glyphs []glyph
		want   []layout.Fragment
	}{
		{
			name: "adjacent glyphs form one word",
			glyphs: []glyph{
				{S: "1", X: 10, Y: 500, W: 5, FontSize: 10},
				{S: "9", X: 15, Y: 500, W: 5, FontSize: 10},
				{S: "9", X: 20, Y: 500, W: 5, FontSize: 10},
			},
			want: []layout.Fragment{{Text: "199", X: 10, Y: 500}},
		},
		{
			name: "space glyph and small gap keep one cell",
			glyphs: []glyph{
				{S: "SALARY", X: 40, Y: 480, W: 36, FontSize: 10},
				{S: " ", X: 76, Y: 480, W: 3, FontSize: 10},
				{S: "APRIL", X: 79, Y: 480, W: 30, FontSize: 10},
			},
			want: []layout.Fragment{{Text: "SALARY APRIL", X: 40, Y: 480}},
		},
		{
			name: "wide gap splits columns",
			glyphs: []glyph{
				{S: "15-03-2024", X: 0, Y: 500, W: 50, FontSize: 10},
				{S: "UPI/NETFLIX/123", X: 80, Y: 500, W: 75, FontSize: 10},
			},
			want: []layout.Fragment{
				{Text: "15-03-2024", X: 0, Y: 500},
				{Text: "UPI/NETFLIX/123", X: 80, Y: 500},
			},
		},
		{
			name: "baseline change splits lines",
			glyphs: []glyph{
				{S: "A", X: 0, Y: 500, W: 5, FontSize: 10},
				{S: "B", X: 5, Y: 480, W: 5, FontSize: 10},
			},
			want: []layout.Fragment{{Text: "A", X: 0, Y: 500}, {Text: "B", X: 5, Y: 480}},
		},
		{
			name:   "whitespace only",
			glyphs: []glyph{{S: " ", X: 0, Y: 0, W: 3, FontSize: 10}},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mergeGlyphs(tt.glyphs, defaultWordGap, defaultColumnGap))
		})
	}
}

func TestPDFDecoder_OpenInvalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not a pdf", []byte("Date,Description,Amount\n01-01-2024,x,1\n")},
		{"truncated header", []byte("%PDF-1.7\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := NewPDFDecoder().Open(tt.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDecodeFailed)
			assert.Nil(t, doc)
		})
	}
}
