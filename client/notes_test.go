package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrsingh-rishi/voice-notes/model"
	"github.com/mrsingh-rishi/voice-notes/types"
)

func TestNotesAPI(t *testing.T) {
	title := "Groceries"
	created := model.Note{ID: "n1", UserID: "u1", Title: &title, StructuredTranscript: "- milk", DurationSeconds: 13, CreatedAt: time.Date(2026, 2, 9, 14, 30, 0, 0, time.UTC)}

	mux := http.NewServeMux()
	mux.HandleFunc("/notes", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode([]model.Note{created})
		case http.MethodPost:
			var in types.CreateNoteRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.Equal(t, "- milk", in.StructuredTranscript)
			assert.Equal(t, 12.7, in.DurationSeconds)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(created)
		}
	})
	mux.HandleFunc("/notes/n1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/notes/summary", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.Summary{Notes: 1, Minutes: 0, Days: 1})
	})
	mux.HandleFunc("/usage", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"input_tokens":10,"output_tokens":4}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	api := NewNotesAPI(srv.URL, "tok")
	ctx := context.Background()

	list, err := api.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].CreatedAt.Equal(created.CreatedAt))

	note, err := api.CreateNote(ctx, "- milk", 12.7, title)
	require.NoError(t, err)
	assert.Equal(t, "n1", note.ID)

	require.NoError(t, api.DeleteNote(ctx, "n1"))

	summary, err := api.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Notes)

	usage, err := api.Usage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, usage.InputTokens)
	assert.Equal(t, 4, usage.OutputTokens)
}

func TestNotesAPIUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Unauthorized"}`))
	}))
	defer srv.Close()

	_, err := NewNotesAPI(srv.URL, "bad").ListNotes(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unauthorized")
}
