package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/mrsingh-rishi/voice-notes/model"
	"github.com/mrsingh-rishi/voice-notes/types"
)

// NotesAPI talks to the notes endpoints of the service on behalf of one user.
type NotesAPI struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewNotesAPI(baseURL, token string) *NotesAPI {
	return &NotesAPI{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *NotesAPI) call(ctx context.Context, method, path string, in, out interface{}, want int) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return errors.Wrap(err, "encode request")
		}
	}
	status, body, err := do(ctx, a.HTTPClient, method, a.BaseURL+path, a.Token, payload)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	if status != want {
		return errors.Errorf("%s %s: status %d: %s", method, path, status, serviceMessage(body))
	}
	if out == nil {
		return nil
	}
	return errors.Wrapf(json.Unmarshal(body, out), "decode %s response", path)
}

// ListNotes returns the user's notes, newest first. The first call seeds sample notes.
func (a *NotesAPI) ListNotes(ctx context.Context) ([]model.Note, error) {
	var notes []model.Note
	if err := a.call(ctx, http.MethodGet, "/notes", nil, &notes, http.StatusOK); err != nil {
		return nil, err
	}
	return notes, nil
}

func (a *NotesAPI) CreateNote(ctx context.Context, transcript string, durationSeconds float64, title string) (model.Note, error) {
	var note model.Note
	in := types.CreateNoteRequest{
		StructuredTranscript: transcript,
		DurationSeconds:      durationSeconds,
		Title:                title,
	}
	if err := a.call(ctx, http.MethodPost, "/notes", in, &note, http.StatusCreated); err != nil {
		return model.Note{}, err
	}
	return note, nil
}

func (a *NotesAPI) DeleteNote(ctx context.Context, id string) error {
	return a.call(ctx, http.MethodDelete, "/notes/"+url.PathEscape(id), nil, nil, http.StatusNoContent)
}

func (a *NotesAPI) Summary(ctx context.Context) (model.Summary, error) {
	var s model.Summary
	err := a.call(ctx, http.MethodGet, "/notes/summary", nil, &s, http.StatusOK)
	return s, err
}

func (a *NotesAPI) Usage(ctx context.Context) (model.TokenUsage, error) {
	var u model.TokenUsage
	err := a.call(ctx, http.MethodGet, "/usage", nil, &u, http.StatusOK)
	return u, err
}
