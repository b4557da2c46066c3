// Package layout rebuilds visual rows from positioned PDF text fragments.
package layout

import (
	"math"
	"sort"
	"strings"
)

// YTolerance is the maximum vertical distance between fragments on one row.
const YTolerance = 5.0

// Fragment is one positioned run of text emitted by the PDF decoder.
type Fragment struct {
	Text string  `json:"text"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Row is a set of fragments judged to sit on the same visual line, ordered by X.
type Row []Fragment

// Texts returns the fragment texts in reading order.
func (r Row) Texts() []string {
	out := make([]string, len(r))
	for i, f := range r {
		out[i] = f.Text
	}
	return out
}

// Text joins the row's fragments with single spaces.
func (r Row) Text() string {
	return strings.Join(r.Texts(), " ")
}

// GroupRows clusters fragments into rows ordered top to bottom (descending Y)
// and left to right within a row. The input slice is not modified.
func GroupRows(fragments []Fragment) []Row {
	if len(fragments) == 0 {
		return nil
	}

	sorted := make([]Fragment, len(fragments))
	copy(sorted, fragments)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Y != b.Y {
			return a.Y > b.Y
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Text < b.Text
	})

	var rows []Row
	current := Row{sorted[0]}
	lastY := math.Round(sorted[0].Y)

	for _, f := range sorted[1:] {
		y := math.Round(f.Y)
		if math.Abs(lastY-y) <= YTolerance {
			current = append(current, f)
		} else {
			rows = append(rows, current)
			current = Row{f}
		}
		lastY = y
	}
	rows = append(rows, current)

	for _, row := range rows {
		sortRow(row)
	}
	return rows
}

func sortRow(row Row) {
	sort.SliceStable(row, func(i, j int) bool {
		if row[i].X != row[j].X {
			return row[i].X < row[j].X
		}
		return row[i].Text < row[j].Text
	})
}
