package stt

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

const DeepgramEndpoint = "https://api.deepgram.com/v1/listen?model=nova-2&punctuate=true&smart_format=true"

type DeepgramClient struct {
	APIKey     string
	Endpoint   string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// TranscriptionMessage represents the JSON response from Deepgram.
type TranscriptionMessage struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// NewDeepgramClient creates a client for Deepgram's prerecorded audio API.
func NewDeepgramClient(apiKey string, logger *slog.Logger) (*DeepgramClient, error) {
	if apiKey == "" {
		return nil, errors.New("deepgram API key is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DeepgramClient{
		APIKey:     apiKey,
		Endpoint:   DeepgramEndpoint,
		HTTPClient: &http.Client{Timeout: 2 * time.Minute},
		Logger:     logger,
	}, nil
}

// Transcribe posts the whole recording and returns the first alternative.
func (dg *DeepgramClient) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", errors.New("empty audio")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, dg.Endpoint, bytes.NewReader(audio))
	if err != nil {
		return "", errors.Wrap(err, "build deepgram request")
	}
	req.Header.Set("Authorization", fmt.Sprintf("Token %s", dg.APIKey))
	req.Header.Set("Content-Type", mimeType)

	resp, err := dg.HTTPClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "deepgram request")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", errors.Errorf("deepgram http %d: %s", resp.StatusCode, string(b))
	}

	var transcription TranscriptionMessage
	if err := json.NewDecoder(resp.Body).Decode(&transcription); err != nil {
		return "", errors.Wrap(err, "parse deepgram response")
	}
	if len(transcription.Results.Channels) == 0 || len(transcription.Results.Channels[0].Alternatives) == 0 {
		dg.Logger.Warn("no transcription alternatives found in deepgram response")
		return "", nil
	}
	alt := transcription.Results.Channels[0].Alternatives[0]
	dg.Logger.Debug("deepgram transcription", "chars", len(alt.Transcript), "confidence", alt.Confidence)
	return alt.Transcript, nil
}
