package client

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"

	"github.com/mrsingh-rishi/voice-notes/llm"
	"github.com/mrsingh-rishi/voice-notes/model"
	"github.com/mrsingh-rishi/voice-notes/types"
)

// DefaultPrompt is the system prompt sent with every recording unless overridden.
//
//go:embed prompt.md
var DefaultPrompt string

const defaultMimeType = "audio/webm"

var (
	// ErrEmptyRecording is returned for a recording without audio. Nothing is sent.
	ErrEmptyRecording = errors.New("no audio was recorded")
	// ErrStructuringService covers transport failures and rejected calls.
	ErrStructuringService = errors.New("structuring service call failed")
	// ErrInvalidResponse means the service answered but not with a usable note.
	ErrInvalidResponse = errors.New("invalid response from structuring service")
)

// Invoker delivers one submission and returns the raw response body.
type Invoker interface {
	Invoke(ctx context.Context, req types.ProcessNoteRequest) ([]byte, error)
}

// Client turns finished recordings into structured notes.
type Client struct {
	invoker   Invoker
	prompt    string
	structure map[string]interface{}
	logger    *slog.Logger
}

type Option func(*Client)

// WithPrompt replaces the embedded system prompt.
func WithPrompt(prompt string) Option {
	return func(c *Client) {
		if strings.TrimSpace(prompt) != "" {
			c.prompt = prompt
		}
	}
}

// WithStructure constrains the service reply to a JSON schema.
func WithStructure(structure map[string]interface{}) Option {
	return func(c *Client) { c.structure = structure }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func New(invoker Invoker, opts ...Option) *Client {
	c := &Client{
		invoker: invoker,
		prompt:  DefaultPrompt,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "client")
	return c
}

// ProcessAudioNote sends the recording to the structuring service and
// validates the reply. It makes exactly one call and never retries.
func (c *Client) ProcessAudioNote(ctx context.Context, rec model.Recording) (model.StructuringResponse, error) {
	if len(rec.Audio) == 0 {
		return model.StructuringResponse{}, ErrEmptyRecording
	}

	req := types.ProcessNoteRequest{
		AudioBase64:  base64.StdEncoding.EncodeToString(rec.Audio),
		MimeType:     mimeTypeOf(rec),
		SystemPrompt: c.prompt,
		Structure:    c.structure,
	}

	start := time.Now()
	body, err := c.invoker.Invoke(ctx, req)
	if err != nil {
		if errors.Is(err, ErrStructuringService) {
			return model.StructuringResponse{}, err
		}
		return model.StructuringResponse{}, errors.Wrap(ErrStructuringService, err.Error())
	}
	c.logger.Debug("recording processed", "mime_type", req.MimeType, "bytes", len(rec.Audio), "took", time.Since(start))

	var resp model.StructuringResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.StructuringResponse{}, errors.Wrapf(ErrInvalidResponse, "decode: %v", err)
	}
	if !resp.Valid() {
		return model.StructuringResponse{}, errors.Wrap(ErrInvalidResponse, "missing title or structured_transcript")
	}
	return resp, nil
}

func mimeTypeOf(rec model.Recording) string {
	if rec.MimeType != "" {
		return rec.MimeType
	}
	detected := mimetype.Detect(rec.Audio)
	if strings.HasPrefix(detected.String(), "audio/") || strings.HasPrefix(detected.String(), "video/") {
		// Browsers label webm audio as video/webm when sniffed.
		return strings.Replace(strings.SplitN(detected.String(), ";", 2)[0], "video/", "audio/", 1)
	}
	return defaultMimeType
}

// HTTPInvoker posts submissions to a running structuring service.
type HTTPInvoker struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewHTTPInvoker(baseURL, token string) *HTTPInvoker {
	return &HTTPInvoker{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

func (h *HTTPInvoker) Invoke(ctx context.Context, req types.ProcessNoteRequest) ([]byte, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "encode submission")
	}
	status, body, err := do(ctx, h.HTTPClient, http.MethodPost, h.BaseURL+"/process-note", h.Token, payload)
	if err != nil {
		return nil, errors.Wrap(ErrStructuringService, err.Error())
	}
	if status < 200 || status > 299 {
		return nil, errors.Wrapf(ErrStructuringService, "status %d: %s", status, serviceMessage(body))
	}
	return body, nil
}

// LocalInvoker calls a model backend in-process.
type LocalInvoker struct {
	Structurer llm.Structurer
	// OnUsage receives the token counts of every successful call.
	OnUsage func(ctx context.Context, input, output int)
}

func (l *LocalInvoker) Invoke(ctx context.Context, req types.ProcessNoteRequest) ([]byte, error) {
	res, err := l.Structurer.Structure(ctx, llm.Request{
		AudioBase64:  req.AudioBase64,
		MimeType:     req.MimeType,
		SystemPrompt: req.SystemPrompt,
		Structure:    req.Structure,
	})
	if err != nil {
		return nil, errors.Wrap(ErrStructuringService, err.Error())
	}
	if l.OnUsage != nil {
		l.OnUsage(ctx, res.InputTokens, res.OutputTokens)
	}
	return res.Output, nil
}

func do(ctx context.Context, hc *http.Client, method, url, token string, payload []byte) (int, []byte, error) {
	var rdr io.Reader
	if payload != nil {
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return 0, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, errors.Wrap(err, "read body")
	}
	return resp.StatusCode, body, nil
}

// serviceMessage extracts the error text from a failure body.
func serviceMessage(body []byte) string {
	var e types.ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		if e.Details != "" {
			return e.Error + ": " + e.Details
		}
		return e.Error
	}
	return strings.TrimSpace(string(body))
}
