package model

import (
	"math"
	"sort"
)

// SortNewestFirst orders notes by CreatedAt descending. Ties keep their relative order.
func SortNewestFirst(notes []Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})
}

// Summarize counts notes, total minutes and distinct UTC days.
func Summarize(notes []Note) Summary {
	var seconds float64
	days := make(map[string]struct{})
	for _, n := range notes {
		seconds += n.DurationSeconds
		days[n.CreatedAt.UTC().Format("2006-01-02")] = struct{}{}
	}
	return Summary{
		Notes:   len(notes),
		Minutes: int(math.Round(seconds / 60)),
		Days:    len(days),
	}
}

// TotalUsage sums usage rows.
func TotalUsage(rows []TokenUsage) TokenUsage {
	var total TokenUsage
	for _, r := range rows {
		total.InputTokens += r.InputTokens
		total.OutputTokens += r.OutputTokens
	}
	return total
}
