package stt

import "context"

// Transcriber turns a finished recording into plain text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}
