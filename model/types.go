package model

import "time"

// AudioChunk represents a chunk of audio data.
type AudioChunk []byte

// Recording is a finished capture. It is consumed once and never persisted.
type Recording struct {
	DurationSeconds float64
	Audio           []byte
	MimeType        string
}

// StructuringResponse is the model output for a recording.
type StructuringResponse struct {
	Title                string `json:"title"`
	StructuredTranscript string `json:"structured_transcript"`
}

// Valid reports whether both fields are present.
func (r StructuringResponse) Valid() bool {
	return r.Title != "" && r.StructuredTranscript != ""
}

// Note is a persisted voice note. Notes are never edited after creation.
type Note struct {
	ID                   string    `json:"id"`
	UserID               string    `json:"user_id"`
	Title                *string   `json:"title"`
	StructuredTranscript string    `json:"structured_transcript"`
	DurationSeconds      float64   `json:"duration_seconds"`
	CreatedAt            time.Time `json:"created_at"`
}

// TokenUsage is accumulated model usage for a user.
type TokenUsage struct {
	UserID       string `json:"user_id,omitempty"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// Summary aggregates a user's notes for display.
type Summary struct {
	Notes   int `json:"notes"`
	Minutes int `json:"minutes"`
	Days    int `json:"days"`
}
