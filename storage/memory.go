package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mrsingh-rishi/voice-notes/model"
)

// Memory is a process-local repository, used for development and tests.
type Memory struct {
	mu    sync.Mutex
	notes []model.Note
	usage []model.TokenUsage
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

func (m *Memory) List(ctx context.Context, userID string) ([]model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Note
	for _, n := range m.notes {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	model.SortNewestFirst(out)
	return out, nil
}

func (m *Memory) Insert(ctx context.Context, note model.Note) (model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	note = prepare(note, m.now)
	m.notes = append(m.notes, note)
	return note, nil
}

func (m *Memory) InsertMany(ctx context.Context, notes []model.Note) ([]model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Note, 0, len(notes))
	for _, n := range notes {
		n = prepare(n, m.now)
		m.notes = append(m.notes, n)
		out = append(out, n)
	}
	return out, nil
}

func (m *Memory) Delete(ctx context.Context, userID, noteID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, n := range m.notes {
		if n.ID == noteID && n.UserID == userID {
			m.notes = append(m.notes[:i], m.notes[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *Memory) AddUsage(ctx context.Context, usage model.TokenUsage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usage = append(m.usage, usage)
	return nil
}

func (m *Memory) ListUsage(ctx context.Context, userID string) ([]model.TokenUsage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.TokenUsage
	for _, u := range m.usage {
		if u.UserID == userID {
			out = append(out, u)
		}
	}
	return out, nil
}

// prepare assigns the id and creation time a repository owns.
func prepare(note model.Note, now func() time.Time) model.Note {
	note.ID = uuid.NewString()
	if note.CreatedAt.IsZero() {
		note.CreatedAt = now()
	}
	note.CreatedAt = note.CreatedAt.UTC()
	return note
}
