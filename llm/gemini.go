package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiClient calls Vertex AI generateContent with inline audio.
type GeminiClient struct {
	Project string
	Region  string
	Model   string
	// Endpoint overrides the generateContent URL derived from project and region.
	Endpoint   string
	Tokens     TokenSource
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type geminiRequest struct {
	Contents          []geminiContent  `json:"contents"`
	SystemInstruction geminiContent    `json:"system_instruction"`
	GenerationConfig  generationConfig `json:"generation_config"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	InlineData *inlineData `json:"inline_data,omitempty"`
	Text       string      `json:"text,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseMimeType string                 `json:"response_mime_type"`
	ResponseSchema   map[string]interface{} `json:"response_schema,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

func NewGeminiClient(project, region, model string, tokens TokenSource, logger *slog.Logger) (*GeminiClient, error) {
	if project == "" {
		return nil, errors.New("gcloud project is required")
	}
	if tokens == nil {
		return nil, errors.New("token source is required")
	}
	if region == "" {
		region = "us-central1"
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GeminiClient{
		Project:    project,
		Region:     region,
		Model:      model,
		Tokens:     tokens,
		HTTPClient: &http.Client{Timeout: 5 * time.Minute},
		Logger:     logger,
	}, nil
}

// URL is the generateContent endpoint for the configured model.
func (g *GeminiClient) URL() string {
	if g.Endpoint != "" {
		return g.Endpoint
	}
	return fmt.Sprintf("https://%s-aiplatform.googleapis.com/v1/projects/%s/locations/%s/publishers/google/models/%s:generateContent",
		g.Region, g.Project, g.Region, g.Model)
}

func (g *GeminiClient) Structure(ctx context.Context, req Request) (Result, error) {
	accessToken, err := g.Tokens.Token(ctx)
	if err != nil {
		return Result{}, err
	}

	body := geminiRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{InlineData: &inlineData{MimeType: req.MimeType, Data: req.AudioBase64}},
				{Text: UserInstruction},
			},
		}},
		SystemInstruction: geminiContent{Parts: []geminiPart{{Text: req.SystemPrompt}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   req.Structure,
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return Result{}, errors.Wrap(err, "marshal gemini request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.URL(), bytes.NewReader(payload))
	if err != nil {
		return Result{}, errors.Wrap(err, "build gemini request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.HTTPClient.Do(httpReq)
	if err != nil {
		return Result{}, &UpstreamError{Service: "Gemini", Body: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		g.Logger.Error("gemini API error", "status", resp.StatusCode, "body", truncate(string(b), 500))
		return Result{}, &UpstreamError{Service: "Gemini", StatusCode: resp.StatusCode, Body: string(b)}
	}

	var gr geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return Result{}, errors.Wrap(err, "decode gemini response")
	}

	var text string
	if len(gr.Candidates) > 0 && len(gr.Candidates[0].Content.Parts) > 0 {
		text = gr.Candidates[0].Content.Parts[0].Text
	}
	output, err := parseOutput(text)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Output:       output,
		InputTokens:  gr.UsageMetadata.PromptTokenCount,
		OutputTokens: gr.UsageMetadata.CandidatesTokenCount,
	}, nil
}
