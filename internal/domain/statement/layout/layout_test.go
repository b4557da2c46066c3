package layout_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/echo-statements/internal/domain/statement/layout"
	"github.com/FACorreiaa/echo-statements/internal/domain/statement/statementtest"
)

func TestGroupRows(t *testing.T) {
	t.Run("groups fragments within tolerance", func(t *testing.T) {
		rows := layout.GroupRows([]layout.Fragment{
			{Text: "DR", X: 260, Y: 500},
			{Text: "15-03-2024", X: 0, Y: 503},
			{Text: "199.00", X: 200, Y: 498},
		})
		require.Len(t, rows, 1)
		assert.Equal(t, []string{"15-03-2024", "199.00", "DR"}, rows[0].Texts())
	})

	t.Run("splits fragments beyond tolerance and orders by descending y", func(t *testing.T) {
		rows := layout.GroupRows([]layout.Fragment{
			{Text: "bottom", X: 0, Y: 100},
			{Text: "top", X: 0, Y: 200},
			{Text: "middle", X: 0, Y: 150},
		})
		require.Len(t, rows, 3)
		assert.Equal(t, "top", rows[0].Text())
		assert.Equal(t, "middle", rows[1].Text())
		assert.Equal(t, "bottom", rows[2].Text())
	})

	t.Run("boundary distance of exactly five stays together", func(t *testing.T) {
		rows := layout.GroupRows([]layout.Fragment{
			{Text: "a", X: 0, Y: 105},
			{Text: "b", X: 10, Y: 100},
		})
		require.Len(t, rows, 1)
	})

	t.Run("distance of six splits", func(t *testing.T) {
		rows := layout.GroupRows([]layout.Fragment{
			{Text: "a", X: 0, Y: 106},
			{Text: "b", X: 10, Y: 100},
		})
		require.Len(t, rows, 2)
		assert.Equal(t, "a", rows[0].Text())
	})

	t.Run("single stray fragment forms singleton row", func(t *testing.T) {
		rows := layout.GroupRows([]layout.Fragment{{Text: "alone", X: 3, Y: 42}})
		require.Len(t, rows, 1)
		assert.Equal(t, "alone", rows[0].Text())
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, layout.GroupRows(nil))
	})

	t.Run("does not mutate input", func(t *testing.T) {
		in := []layout.Fragment{{Text: "b", X: 10, Y: 1}, {Text: "a", X: 0, Y: 1}}
		layout.GroupRows(in)
		assert.Equal(t, "b", in[0].Text)
	})
}

func TestGroupRows_InsertionOrderIndependent(t *testing.T) {
	gen := statementtest.New(42)
	fragments, lines := gen.Page(25)

	want := layout.GroupRows(fragments)
	require.Len(t, want, len(lines))

	for i := 0; i < 10; i++ {
		got := layout.GroupRows(gen.Shuffle(fragments))
		assert.Equal(t, want, got, "shuffle %d", i)
	}

	for i, row := range want {
		require.Len(t, row, 4)
		assert.Equal(t, lines[i].DateText, row[0].Text)
		assert.Equal(t, lines[i].Description, row[1].Text)
		assert.Equal(t, lines[i].AmountText, row[2].Text)
		assert.Equal(t, lines[i].Type, row[3].Text)
	}
}
