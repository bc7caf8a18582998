package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	"github.com/mrsingh-rishi/voice-notes/stt"
)

// OpenAIClient structures notes in two steps: speech-to-text, then a chat
// completion constrained to JSON.
type OpenAIClient struct {
	Client      *openai.Client
	Model       string // Model to use for OpenAI API
	Transcriber stt.Transcriber
	Logger      *slog.Logger
}

func NewOpenAIClient(client *openai.Client, model string, transcriber stt.Transcriber, logger *slog.Logger) (*OpenAIClient, error) {
	if client == nil {
		return nil, errors.New("openai client is required")
	}
	if transcriber == nil {
		return nil, errors.New("transcriber is required")
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAIClient{
		Client:      client,
		Model:       model,
		Transcriber: transcriber,
		Logger:      logger,
	}, nil
}

func (c *OpenAIClient) Structure(ctx context.Context, req Request) (Result, error) {
	audio, err := base64.StdEncoding.DecodeString(req.AudioBase64)
	if err != nil {
		return Result{}, errors.Wrap(ErrInvalidAudio, err.Error())
	}

	transcript, err := c.Transcriber.Transcribe(ctx, audio, req.MimeType)
	if err != nil {
		return Result{}, &UpstreamError{Service: "Transcription", Body: err.Error()}
	}
	c.Logger.Debug("transcribed recording", "chars", len(transcript))

	format := &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	if req.Structure != nil {
		schema, err := json.Marshal(req.Structure)
		if err != nil {
			return Result{}, errors.Wrap(err, "marshal structure")
		}
		format = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "note",
				Schema: json.RawMessage(schema),
			},
		}
	}

	resp, err := c.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "Transcript of the audio recording:\n\n" + transcript + "\n\n" + UserInstruction},
		},
		ResponseFormat: format,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return Result{}, &UpstreamError{Service: "OpenAI", StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
		}
		return Result{}, &UpstreamError{Service: "OpenAI", Body: err.Error()}
	}
	if len(resp.Choices) == 0 {
		return Result{}, errors.Wrap(ErrMalformedOutput, "no choices in chat completion response")
	}

	output, err := parseOutput(resp.Choices[0].Message.Content)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Output:       output,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}
