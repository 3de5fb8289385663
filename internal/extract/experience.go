package extract

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

var dateLayouts = []string{"2/1/2006", "2-1-2006", "2006-01-02", "2/1/06", "2-1-06"}

// ParseDate accepts the date spellings seen in EOI forms (day-first).
func ParseDate(s string) (time.Time, bool) {
	s = Norm(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Interval is a closed date range (end inclusive).
type Interval struct {
	Start, End time.Time
}

// MergeIntervals merges overlapping and adjacent intervals. Input order does
// not matter; output is sorted by start date.
func MergeIntervals(in []Interval) []Interval {
	if len(in) == 0 {
		return nil
	}
	sorted := make([]Interval, len(in))
	copy(sorted, in)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start.Equal(sorted[j].Start) {
			return sorted[i].End.Before(sorted[j].End)
		}
		return sorted[i].Start.Before(sorted[j].Start)
	})
	merged := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		// overlap or adjacency: previous end + 1 day reaches the next start
		if !iv.Start.After(last.End.AddDate(0, 0, 1)) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// TotalDays sums inclusive day counts over merged intervals, so overlapping
// engagements are not double counted.
func TotalDays(in []Interval) int {
	total := 0
	for _, iv := range MergeIntervals(in) {
		total += int(iv.End.Sub(iv.Start).Hours()/24) + 1
	}
	return total
}

// FormatYMD renders a day count as "N año(s), M mes(es), D día(s)".
func FormatYMD(days int) string {
	if days <= 0 {
		return "0 año(s), 0 mes(es), 0 día(s)"
	}
	years := days / 365
	rem := days % 365
	months := rem / 30
	dd := rem % 30
	return fmt.Sprintf("%d año(s), %d mes(es), %d día(s)", years, months, dd)
}

// BuildExperience assembles a block from raw items: effective days over the
// dated items plus a human-readable summary in declaration order.
func BuildExperience(items []ExperienceItem) ExperienceBlock {
	var intervals []Interval
	var lines []string
	for _, it := range items {
		if !it.Start.IsZero() && !it.End.IsZero() {
			start, end := it.Start, it.End
			if end.Before(start) {
				start, end = end, start
			}
			intervals = append(intervals, Interval{Start: start, End: end})
		}
		header := strings.Trim(fmt.Sprintf("%s - %s", Norm(it.Entity), Norm(it.Role)), " -")
		if !it.Start.IsZero() || !it.End.IsZero() {
			header += fmt.Sprintf(" | %s a %s", fmtOrQuestion(it.Start), fmtOrQuestion(it.End))
		}
		if header != "" {
			lines = append(lines, header)
		}
	}
	return ExperienceBlock{
		Items:     items,
		TotalDays: TotalDays(intervals),
		Summary:   strings.Join(lines, "\n"),
	}
}

func fmtOrQuestion(t time.Time) string {
	if t.IsZero() {
		return "?"
	}
	return t.Format("02/01/2006")
}
