package trends

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func series(term string, start int, values ...float64) *Series {
	s := &Series{Term: term}
	for i, v := range values {
		s.Points = append(s.Points, Point{Date: day(start + i), Value: v})
	}
	return s
}

func TestTable_JoinFirstSeries(t *testing.T) {
	tbl := NewTable()
	require.True(t, tbl.Empty())

	require.NoError(t, tbl.Join(series("lamp", 1, 10, 20, 30)))

	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, []string{"lamp_trend"}, tbl.Columns())
	v, ok := tbl.At(2, "lamp_trend")
	assert.True(t, ok)
	assert.Equal(t, 30.0, v)
}

func TestTable_JoinOverlapping(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Join(series("a", 1, 1, 2, 3)))
	require.NoError(t, tbl.Join(series("b", 2, 5, 6, 7)))

	assert.Equal(t, []time.Time{day(1), day(2), day(3), day(4)}, tbl.Dates())
	assert.Equal(t, []string{"a_trend", "b_trend"}, tbl.Columns())

	_, ok := tbl.At(0, "b_trend")
	assert.False(t, ok, "b has no value on day 1")
	_, ok = tbl.At(3, "a_trend")
	assert.False(t, ok, "a has no value on day 4")

	v, ok := tbl.At(1, "b_trend")
	require.True(t, ok)
	assert.Equal(t, 5.0, v)
}

func TestTable_JoinDisjoint(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Join(series("late", 10, 1, 2)))
	require.NoError(t, tbl.Join(series("early", 1, 3, 4)))

	// Rows stay sorted and existing cells move with their dates.
	assert.Equal(t, []time.Time{day(1), day(2), day(10), day(11)}, tbl.Dates())
	v, ok := tbl.At(2, "late_trend")
	require.True(t, ok)
	assert.Equal(t, 1.0, v)
	_, ok = tbl.At(0, "late_trend")
	assert.False(t, ok)
}

func TestTable_JoinDoesNotOverwrite(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Join(series("lamp", 1, 10, 20)))

	err := tbl.Join(series("lamp", 1, 99, 99))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrColumnExists))

	v, _ := tbl.At(0, "lamp_trend")
	assert.Equal(t, 10.0, v)
	assert.Len(t, tbl.Columns(), 1)
}

func TestTable_JoinEmptySeries(t *testing.T) {
	tbl := NewTable()
	assert.ErrorIs(t, tbl.Join(&Series{Term: "nothing"}), ErrEmptySeries)
	assert.ErrorIs(t, tbl.Join(nil), ErrEmptySeries)
	assert.True(t, tbl.Empty())
}

func TestTable_PartialFlag(t *testing.T) {
	s := series("lamp", 1, 10, 20)
	s.Points[1].Partial = true

	tbl := NewTable()
	require.NoError(t, tbl.Join(s))
	require.NoError(t, tbl.Join(series("desk", 0, 1)))

	assert.False(t, tbl.Partial(0))
	assert.False(t, tbl.Partial(1))
	assert.True(t, tbl.Partial(2))
	assert.False(t, tbl.Partial(5))
}

func TestColumnNameRoundTrip(t *testing.T) {
	assert.Equal(t, "vintage lamp_trend", ColumnName("vintage lamp"))
	assert.Equal(t, "vintage lamp", TermOf(ColumnName("vintage lamp")))
}
