package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// UserInstruction accompanies the audio in every model request.
const UserInstruction = "Process this audio recording according to your instructions."

var (
	// ErrCredential means the short-lived service credential could not be obtained.
	ErrCredential = errors.New("service credential unavailable")
	// ErrMalformedOutput means the model answered but not with JSON.
	ErrMalformedOutput = errors.New("model output is not valid JSON")
	// ErrInvalidAudio means the submitted audio could not be decoded.
	ErrInvalidAudio = errors.New("invalid audio payload")
)

// UpstreamError is a non-2xx answer (or transport failure) from a model provider.
type UpstreamError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s API request failed: %s", e.Service, e.Body)
	}
	return fmt.Sprintf("%s API request failed with status %d: %s", e.Service, e.StatusCode, e.Body)
}

// Request is one structuring call.
type Request struct {
	AudioBase64  string
	MimeType     string
	SystemPrompt string
	// Structure optionally constrains the reply to a JSON schema.
	Structure map[string]interface{}
}

// Result is the model's JSON reply plus the tokens it consumed.
type Result struct {
	Output       json.RawMessage
	InputTokens  int
	OutputTokens int
}

// Structurer turns audio into structured JSON using a generative model.
type Structurer interface {
	Structure(ctx context.Context, req Request) (Result, error)
}

// parseOutput extracts the JSON document from raw model text.
func parseOutput(raw string) (json.RawMessage, error) {
	clean := strings.TrimSpace(raw)
	if strings.HasPrefix(clean, "```") {
		parts := strings.SplitN(clean, "\n", 2)
		if len(parts) > 1 {
			clean = parts[1]
		}
		clean = strings.TrimSuffix(strings.TrimSpace(clean), "```")
		clean = strings.TrimSpace(clean)
	}
	if !json.Valid([]byte(clean)) {
		return nil, errors.Wrapf(ErrMalformedOutput, "%q", truncate(clean, 200))
	}
	return json.RawMessage(clean), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
