package types

import "github.com/mrsingh-rishi/voice-notes/model"

// ProcessNoteRequest is the submission payload sent to the structuring service.
type ProcessNoteRequest struct {
	AudioBase64  string                 `json:"audio_base64"`
	MimeType     string                 `json:"mime_type"`
	SystemPrompt string                 `json:"system_prompt"`
	Structure    map[string]interface{} `json:"structure,omitempty"`
}

// Complete reports whether every required field is set.
func (r ProcessNoteRequest) Complete() bool {
	return r.AudioBase64 != "" && r.MimeType != "" && r.SystemPrompt != ""
}

// ErrorResponse is the body returned on any failure.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// CreateNoteRequest is the body of POST /notes.
type CreateNoteRequest struct {
	StructuredTranscript string  `json:"structured_transcript"`
	DurationSeconds      float64 `json:"duration_seconds"`
	Title                string  `json:"title,omitempty"`
}

// Session events exchanged over the /record websocket.
const (
	EventStart   = "start"
	EventStop    = "stop"
	EventDiscard = "discard"
	EventStatus  = "status"
	EventTick    = "tick"
	EventNote    = "note"
	EventError   = "error"
)

// SessionEvent is a text frame on the /record websocket. Audio travels in binary frames.
type SessionEvent struct {
	Event    string      `json:"event"`
	MimeType string      `json:"mime_type,omitempty"`
	Status   string      `json:"status,omitempty"`
	Elapsed  float64     `json:"elapsed,omitempty"`
	Note     *model.Note `json:"note,omitempty"`
	Error    string      `json:"error,omitempty"`
}
