package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestParseDate(t *testing.T) {
	got, ok := ParseDate("1/2/2021")
	require.True(t, ok)
	assert.Equal(t, d(2021, 2, 1), got)

	got, ok = ParseDate("15-07-2019")
	require.True(t, ok)
	assert.Equal(t, d(2019, 7, 15), got)

	got, ok = ParseDate("2020-03-01")
	require.True(t, ok)
	assert.Equal(t, d(2020, 3, 1), got)

	_, ok = ParseDate("no es fecha")
	assert.False(t, ok)
	_, ok = ParseDate("")
	assert.False(t, ok)
}

func TestMergeIntervalsOverlap(t *testing.T) {
	merged := MergeIntervals([]Interval{
		{Start: d(2020, 1, 1), End: d(2020, 6, 30)},
		{Start: d(2020, 3, 1), End: d(2020, 9, 30)},
	})
	require.Len(t, merged, 1)
	assert.Equal(t, d(2020, 1, 1), merged[0].Start)
	assert.Equal(t, d(2020, 9, 30), merged[0].End)
}

func TestMergeIntervalsAdjacent(t *testing.T) {
	// ends 31 Jan, next starts 1 Feb: contiguous employment, one interval
	merged := MergeIntervals([]Interval{
		{Start: d(2021, 2, 1), End: d(2021, 12, 31)},
		{Start: d(2021, 1, 1), End: d(2021, 1, 31)},
	})
	require.Len(t, merged, 1)
	assert.Equal(t, d(2021, 1, 1), merged[0].Start)
	assert.Equal(t, d(2021, 12, 31), merged[0].End)
}

func TestMergeIntervalsDisjoint(t *testing.T) {
	merged := MergeIntervals([]Interval{
		{Start: d(2020, 1, 1), End: d(2020, 1, 31)},
		{Start: d(2020, 3, 1), End: d(2020, 3, 31)},
	})
	assert.Len(t, merged, 2)
}

func TestTotalDaysInclusiveNoDoubleCount(t *testing.T) {
	days := TotalDays([]Interval{
		{Start: d(2020, 1, 1), End: d(2020, 1, 10)},
		{Start: d(2020, 1, 5), End: d(2020, 1, 20)}, // overlaps the first
	})
	assert.Equal(t, 20, days)

	assert.Equal(t, 1, TotalDays([]Interval{{Start: d(2020, 1, 1), End: d(2020, 1, 1)}}))
}

func TestFormatYMD(t *testing.T) {
	assert.Equal(t, "0 año(s), 0 mes(es), 0 día(s)", FormatYMD(0))
	assert.Equal(t, "1 año(s), 0 mes(es), 5 día(s)", FormatYMD(370))
	assert.Equal(t, "2 año(s), 1 mes(es), 2 día(s)", FormatYMD(2*365+32))
}

func TestBuildExperience(t *testing.T) {
	items := []ExperienceItem{
		{Entity: "ACME", Role: "Analista", Start: d(2020, 1, 1), End: d(2020, 12, 31)},
		{Entity: "Beta SAC", Role: "Desarrollador", Start: d(2020, 6, 1), End: d(2021, 6, 30)},
		{Entity: "Sin Fechas", Role: "Consultor"},
	}
	block := BuildExperience(items)

	// 2020-01-01..2021-06-30 merged: 366 + 181 days
	assert.Equal(t, 547, block.TotalDays)
	assert.Contains(t, block.Summary, "ACME - Analista | 01/01/2020 a 31/12/2020")
	assert.Contains(t, block.Summary, "Sin Fechas - Consultor")
	assert.Len(t, block.Items, 3)
}

func TestBuildExperienceSwapsInvertedDates(t *testing.T) {
	block := BuildExperience([]ExperienceItem{
		{Entity: "X", Start: d(2021, 12, 31), End: d(2021, 1, 1)},
	})
	assert.Equal(t, 365, block.TotalDays)
}
