package notes

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/mrsingh-rishi/voice-notes/model"
)

var (
	// ErrPersistence means the backing store rejected a read or write.
	ErrPersistence = errors.New("persistence error")
	// ErrSeeding means sample notes could not be inserted. Load swallows it.
	ErrSeeding = errors.New("seeding sample notes failed")
)

// Repository persists notes. Implementations assign ids and creation
// times, and scope every operation by user id.
type Repository interface {
	List(ctx context.Context, userID string) ([]model.Note, error)
	Insert(ctx context.Context, note model.Note) (model.Note, error)
	// InsertMany may return the inserted rows in any order.
	InsertMany(ctx context.Context, notes []model.Note) ([]model.Note, error)
	// Delete must not fail when the note does not exist.
	Delete(ctx context.Context, userID, noteID string) error
}

// UsageRepository stores token usage rows.
type UsageRepository interface {
	AddUsage(ctx context.Context, usage model.TokenUsage) error
	ListUsage(ctx context.Context, userID string) ([]model.TokenUsage, error)
}

// Store keeps every user's notes newest-first in memory on top of a Repository.
type Store struct {
	repo   Repository
	usage  UsageRepository
	logger *slog.Logger

	mu    sync.Mutex
	lists map[string][]model.Note
	users map[string]*sync.Mutex
}

// NewStore creates a Store. usage may be nil when usage accounting is not kept.
func NewStore(repo Repository, usage UsageRepository, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		repo:   repo,
		usage:  usage,
		logger: logger.With("component", "notes"),
		lists:  make(map[string][]model.Note),
		users:  make(map[string]*sync.Mutex),
	}
}

// userLock returns the lock held across a user's repository round trips.
// Loads, creates and deletes for one user apply to the in-memory list in
// the order they reached the repository.
func (s *Store) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.users[userID]
	if !ok {
		l = &sync.Mutex{}
		s.users[userID] = l
	}
	return l
}

// Load fetches the user's notes, seeding sample notes for a user that has
// none. A seeding failure leaves the user with an empty list, not an error.
func (s *Store) Load(ctx context.Context, userID string) ([]model.Note, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	loaded, _, err := s.ensureSeeded(ctx, userID)
	if errors.Is(err, ErrSeeding) {
		s.logger.Warn("seeding sample notes", "user_id", userID, "error", err)
	} else if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.lists[userID] = loaded
	s.mu.Unlock()
	return s.Notes(userID), nil
}

// EnsureSeeded inserts the sample notes when the user has no notes and
// reports whether it did.
func (s *Store) EnsureSeeded(ctx context.Context, userID string) (bool, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	loaded, seeded, err := s.ensureSeeded(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrSeeding) {
			err = errors.Wrap(ErrSeeding, err.Error())
		}
		return false, err
	}
	if seeded {
		s.mu.Lock()
		s.lists[userID] = loaded
		s.mu.Unlock()
	}
	return seeded, nil
}

// ensureSeeded lists the user's notes, inserting the samples first when
// there are none. The caller holds the user's lock.
func (s *Store) ensureSeeded(ctx context.Context, userID string) ([]model.Note, bool, error) {
	existing, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, false, errors.Wrapf(ErrPersistence, "load notes: %v", err)
	}
	if len(existing) > 0 {
		model.SortNewestFirst(existing)
		return existing, false, nil
	}
	seeded, err := s.insertSamples(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	return seeded, true, nil
}

func (s *Store) insertSamples(ctx context.Context, userID string) ([]model.Note, error) {
	seeded, err := s.repo.InsertMany(ctx, SampleNotes(userID))
	if err != nil {
		return nil, errors.Wrap(ErrSeeding, err.Error())
	}
	model.SortNewestFirst(seeded)
	s.logger.Info("seeded sample notes", "user_id", userID, "count", len(seeded))
	return seeded, nil
}

// Create persists a new note and puts it at the head of the user's list.
// The transcript is trimmed and the duration rounded to whole seconds.
func (s *Store) Create(ctx context.Context, userID, transcript string, durationSeconds float64, title string) (model.Note, error) {
	if userID == "" {
		return model.Note{}, errors.Wrap(ErrPersistence, "user id is required")
	}
	note := model.Note{
		UserID:               userID,
		StructuredTranscript: strings.TrimSpace(transcript),
		DurationSeconds:      wholeSeconds(durationSeconds),
	}
	if title != "" {
		note.Title = &title
	}

	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	saved, err := s.repo.Insert(ctx, note)
	if err != nil {
		return model.Note{}, errors.Wrapf(ErrPersistence, "create note: %v", err)
	}

	s.mu.Lock()
	s.lists[userID] = append([]model.Note{saved}, s.lists[userID]...)
	s.mu.Unlock()
	return saved, nil
}

// Delete removes a note. Deleting an unknown id is not an error.
func (s *Store) Delete(ctx context.Context, userID, noteID string) error {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	if err := s.repo.Delete(ctx, userID, noteID); err != nil {
		return errors.Wrapf(ErrPersistence, "delete note: %v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.lists[userID]
	for i, n := range list {
		if n.ID == noteID {
			s.lists[userID] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	return nil
}

// Notes returns a copy of the user's in-memory list, newest first.
func (s *Store) Notes(userID string) []model.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.lists[userID]
	out := make([]model.Note, len(list))
	copy(out, list)
	return out
}

func (s *Store) Summary(userID string) model.Summary {
	return model.Summarize(s.Notes(userID))
}

// RecordUsage appends a usage row. It is a no-op without a usage repository.
func (s *Store) RecordUsage(ctx context.Context, usage model.TokenUsage) error {
	if s.usage == nil {
		return nil
	}
	if usage.InputTokens < 0 || usage.OutputTokens < 0 {
		return errors.New("token counts must not be negative")
	}
	if err := s.usage.AddUsage(ctx, usage); err != nil {
		return errors.Wrapf(ErrPersistence, "record usage: %v", err)
	}
	return nil
}

// Usage sums the user's usage rows.
func (s *Store) Usage(ctx context.Context, userID string) (model.TokenUsage, error) {
	if s.usage == nil {
		return model.TokenUsage{}, nil
	}
	rows, err := s.usage.ListUsage(ctx, userID)
	if err != nil {
		return model.TokenUsage{}, errors.Wrapf(ErrPersistence, "load usage: %v", err)
	}
	return model.TotalUsage(rows), nil
}

func wholeSeconds(d float64) float64 {
	if math.IsNaN(d) || d < 0 {
		return 0
	}
	return math.Round(d)
}
