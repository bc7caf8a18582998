package stt

import (
	"bytes"
	"context"
	"mime"
	"strings"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
)

// WhisperClient transcribes through OpenAI's audio transcription endpoint.
type WhisperClient struct {
	Client *openai.Client
	Model  string
}

func NewWhisperClient(client *openai.Client, model string) *WhisperClient {
	if model == "" {
		model = openai.Whisper1
	}
	return &WhisperClient{Client: client, Model: model}
}

func (w *WhisperClient) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", errors.New("empty audio")
	}
	resp, err := w.Client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.Model,
		FilePath: "recording" + extensionFor(mimeType),
		Reader:   bytes.NewReader(audio),
	})
	if err != nil {
		return "", errors.Wrap(err, "whisper transcription")
	}
	return strings.TrimSpace(resp.Text), nil
}

// extensionFor picks a file extension the transcription API recognises.
func extensionFor(mimeType string) string {
	base, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		base = mimeType
	}
	switch base {
	case "audio/webm", "video/webm":
		return ".webm"
	case "audio/ogg", "audio/opus":
		return ".ogg"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/mp4", "audio/m4a", "audio/x-m4a":
		return ".m4a"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/flac":
		return ".flac"
	}
	return ".webm"
}
