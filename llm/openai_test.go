package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTranscriber struct {
	text     string
	err      error
	gotAudio []byte
	gotMime  string
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	f.gotAudio = audio
	f.gotMime = mimeType
	return f.text, f.err
}

func newTestOpenAI(t *testing.T, handler http.HandlerFunc, tr *fakeTranscriber) (*OpenAIClient, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	cfg := openai.DefaultConfig("sk-test")
	cfg.BaseURL = srv.URL + "/v1"
	c, err := NewOpenAIClient(openai.NewClientWithConfig(cfg), "", tr, nil)
	require.NoError(t, err)
	return c, srv.Close
}

func TestOpenAIStructure(t *testing.T) {
	tr := &fakeTranscriber{text: "pick up coffee beans and oat milk"}
	c, done := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
			ResponseFormat *struct {
				Type string `json:"type"`
			} `json:"response_format"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, openai.GPT4oMini, req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "be terse", req.Messages[0].Content)
		assert.Contains(t, req.Messages[1].Content, "pick up coffee beans")
		require.NotNil(t, req.ResponseFormat)
		assert.Equal(t, string(openai.ChatCompletionResponseFormatTypeJSONObject), req.ResponseFormat.Type)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id":"chatcmpl-1","object":"chat.completion","model":"gpt-4o-mini",
			"choices":[{"index":0,"message":{"role":"assistant","content":"{\"title\":\"Groceries\",\"structured_transcript\":\"- coffee\"}"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":40,"completion_tokens":12,"total_tokens":52}
		}`))
	}, tr)
	defer done()

	res, err := c.Structure(context.Background(), Request{AudioBase64: "QUJD", MimeType: "audio/webm", SystemPrompt: "be terse"})
	require.NoError(t, err)
	assert.Equal(t, "ABC", string(tr.gotAudio))
	assert.Equal(t, "audio/webm", tr.gotMime)
	assert.JSONEq(t, `{"title":"Groceries","structured_transcript":"- coffee"}`, string(res.Output))
	assert.Equal(t, 40, res.InputTokens)
	assert.Equal(t, 12, res.OutputTokens)
}

func TestOpenAIInvalidAudio(t *testing.T) {
	c, done := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {}, &fakeTranscriber{})
	defer done()

	_, err := c.Structure(context.Background(), Request{AudioBase64: "***", MimeType: "audio/webm", SystemPrompt: "p"})
	assert.True(t, errors.Is(err, ErrInvalidAudio))
}

func TestOpenAITranscriptionFailure(t *testing.T) {
	c, done := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {}, &fakeTranscriber{err: errors.New("deepgram http 500")})
	defer done()

	_, err := c.Structure(context.Background(), Request{AudioBase64: "QUJD", MimeType: "audio/webm", SystemPrompt: "p"})
	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, "Transcription", upstream.Service)
}

func TestOpenAIAPIError(t *testing.T) {
	c, done := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}, &fakeTranscriber{text: "hello"})
	defer done()

	_, err := c.Structure(context.Background(), Request{AudioBase64: "QUJD", MimeType: "audio/webm", SystemPrompt: "p"})
	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusUnauthorized, upstream.StatusCode)
	assert.Equal(t, "OpenAI", upstream.Service)
}
