package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestSortNewestFirst(t *testing.T) {
	notes := []Note{
		{ID: "a", CreatedAt: at("2026-02-04T13:30:00Z")},
		{ID: "b", CreatedAt: at("2026-02-09T14:30:00Z")},
		{ID: "c", CreatedAt: at("2026-02-06T08:20:00Z")},
	}
	SortNewestFirst(notes)
	assert.Equal(t, "b", notes[0].ID)
	assert.Equal(t, "c", notes[1].ID)
	assert.Equal(t, "a", notes[2].ID)
}

func TestSummarize(t *testing.T) {
	notes := []Note{
		{DurationSeconds: 98, CreatedAt: at("2026-02-09T14:30:00Z")},
		{DurationSeconds: 23, CreatedAt: at("2026-02-09T08:20:00Z")},
		{DurationSeconds: 156, CreatedAt: at("2026-02-05T20:10:00Z")},
	}
	s := Summarize(notes)
	assert.Equal(t, Summary{Notes: 3, Minutes: 5, Days: 2}, s)
	assert.Equal(t, Summary{}, Summarize(nil))
}

func TestTotalUsage(t *testing.T) {
	total := TotalUsage([]TokenUsage{
		{InputTokens: 10, OutputTokens: 3},
		{InputTokens: 5, OutputTokens: 7},
	})
	assert.Equal(t, 15, total.InputTokens)
	assert.Equal(t, 10, total.OutputTokens)
}

func TestStructuringResponseValid(t *testing.T) {
	assert.True(t, StructuringResponse{Title: "t", StructuredTranscript: "s"}.Valid())
	assert.False(t, StructuringResponse{Title: "t"}.Valid())
	assert.False(t, StructuringResponse{StructuredTranscript: "s"}.Valid())
}
