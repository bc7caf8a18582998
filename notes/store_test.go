package notes

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrsingh-rishi/voice-notes/model"
)

// fakeRepo hands rows back in reverse insertion order so callers cannot rely
// on the repository for ordering.
type fakeRepo struct {
	mu        sync.Mutex
	rows      []model.Note
	usage     []model.TokenUsage
	seq       int
	listErr   error
	insertErr error
	seedErr   error
	seeds     int

	// When listGate is set, List takes its snapshot, reports on listing
	// and then waits for listGate to be closed before returning it.
	listing  chan struct{}
	listGate chan struct{}
}

func (r *fakeRepo) List(ctx context.Context, userID string) ([]model.Note, error) {
	out, err := r.snapshot(userID)
	if r.listGate != nil {
		select {
		case r.listing <- struct{}{}:
		default:
		}
		<-r.listGate
	}
	return out, err
}

func (r *fakeRepo) snapshot(userID string) ([]model.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []model.Note
	for i := len(r.rows) - 1; i >= 0; i-- {
		if r.rows[i].UserID == userID {
			out = append(out, r.rows[i])
		}
	}
	return out, nil
}

func (r *fakeRepo) put(n model.Note) model.Note {
	r.seq++
	n.ID = fmt.Sprintf("note-%d", r.seq)
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Date(2026, 3, 1, 0, 0, r.seq, 0, time.UTC)
	}
	r.rows = append(r.rows, n)
	return n
}

func (r *fakeRepo) Insert(ctx context.Context, note model.Note) (model.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return model.Note{}, r.insertErr
	}
	return r.put(note), nil
}

func (r *fakeRepo) InsertMany(ctx context.Context, notes []model.Note) ([]model.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seedErr != nil {
		return nil, r.seedErr
	}
	r.seeds++
	var out []model.Note
	for _, n := range notes {
		out = append([]model.Note{r.put(n)}, out...)
	}
	return out, nil
}

func (r *fakeRepo) Delete(ctx context.Context, userID, noteID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, n := range r.rows {
		if n.ID == noteID && n.UserID == userID {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			break
		}
	}
	return nil
}

func (r *fakeRepo) AddUsage(ctx context.Context, usage model.TokenUsage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usage = append(r.usage, usage)
	return nil
}

func (r *fakeRepo) ListUsage(ctx context.Context, userID string) ([]model.TokenUsage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.TokenUsage
	for _, u := range r.usage {
		if u.UserID == userID {
			out = append(out, u)
		}
	}
	return out, nil
}

func assertNewestFirst(t *testing.T, list []model.Note) {
	t.Helper()
	for i := 1; i < len(list); i++ {
		assert.False(t, list[i].CreatedAt.After(list[i-1].CreatedAt), "note %d is newer than note %d", i, i-1)
	}
}

func TestLoadSeedsNewUser(t *testing.T) {
	repo := &fakeRepo{}
	s := NewStore(repo, repo, nil)

	list, err := s.Load(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 4)
	assertNewestFirst(t, list)
	require.NotNil(t, list[0].Title)
	assert.Equal(t, "Design system notes", *list[0].Title)
	for _, n := range list {
		assert.Equal(t, "u1", n.UserID)
	}

	again, err := s.Load(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, again, 4)
	for i := range list {
		assert.Equal(t, list[i].ID, again[i].ID)
		assert.True(t, list[i].CreatedAt.Equal(again[i].CreatedAt))
	}
	assert.Equal(t, 1, repo.seeds)

	seeded, err := s.EnsureSeeded(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, seeded)
	assert.Equal(t, 1, repo.seeds)
}

func TestLoadAfterEnsureSeeded(t *testing.T) {
	repo := &fakeRepo{}
	s := NewStore(repo, repo, nil)

	seeded, err := s.EnsureSeeded(context.Background(), "u1")
	require.NoError(t, err)
	require.True(t, seeded)
	before := s.Notes("u1")

	list, err := s.Load(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, before, list)
	assert.Equal(t, 1, repo.seeds)
}

func TestLoadKeepsWritesMadeWhileListing(t *testing.T) {
	repo := &fakeRepo{}
	existing := repo.put(model.Note{UserID: "u1", StructuredTranscript: "existing"})
	doomed := repo.put(model.Note{UserID: "u1", StructuredTranscript: "doomed"})
	repo.listing = make(chan struct{}, 1)
	repo.listGate = make(chan struct{})
	s := NewStore(repo, repo, nil)
	ctx := context.Background()

	loaded := make(chan error, 1)
	go func() {
		_, err := s.Load(ctx, "u1")
		loaded <- err
	}()
	<-repo.listing

	var created model.Note
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		created, err = s.Create(ctx, "u1", "recorded during load", 4, "")
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		assert.NoError(t, s.Delete(ctx, "u1", doomed.ID))
	}()

	time.Sleep(20 * time.Millisecond)
	close(repo.listGate)
	require.NoError(t, <-loaded)
	wg.Wait()

	list := s.Notes("u1")
	require.Len(t, list, 2)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Equal(t, existing.ID, list[1].ID)
	assert.Equal(t, 0, repo.seeds)
}

func TestLoadSeedingFailureYieldsEmptyList(t *testing.T) {
	repo := &fakeRepo{seedErr: errors.New("insert rejected")}
	s := NewStore(repo, repo, nil)

	list, err := s.Load(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestLoadListFailure(t *testing.T) {
	repo := &fakeRepo{listErr: errors.New("connection refused")}
	s := NewStore(repo, repo, nil)

	_, err := s.Load(context.Background(), "u1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPersistence))
}

func TestEnsureSeeded(t *testing.T) {
	repo := &fakeRepo{}
	s := NewStore(repo, repo, nil)

	seeded, err := s.EnsureSeeded(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, seeded)
	assert.Len(t, s.Notes("u1"), 4)

	seeded, err = s.EnsureSeeded(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, seeded)

	repo.seedErr = errors.New("insert rejected")
	_, err = s.EnsureSeeded(context.Background(), "u2")
	assert.True(t, errors.Is(err, ErrSeeding))
}

func TestCreateTrimsAndRounds(t *testing.T) {
	repo := &fakeRepo{}
	s := NewStore(repo, repo, nil)
	_, err := s.Load(context.Background(), "u1")
	require.NoError(t, err)

	note, err := s.Create(context.Background(), "u1", "  hello  ", 12.7, "")
	require.NoError(t, err)
	assert.Equal(t, "hello", note.StructuredTranscript)
	assert.Equal(t, float64(13), note.DurationSeconds)
	assert.Nil(t, note.Title)
	assert.NotEmpty(t, note.ID)

	list := s.Notes("u1")
	require.Len(t, list, 5)
	assert.Equal(t, note.ID, list[0].ID)

	titled, err := s.Create(context.Background(), "u1", "body", -3, "Groceries")
	require.NoError(t, err)
	assert.Equal(t, float64(0), titled.DurationSeconds)
	require.NotNil(t, titled.Title)
	assert.Equal(t, "Groceries", *titled.Title)
}

func TestCreateFailureLeavesListUnchanged(t *testing.T) {
	repo := &fakeRepo{}
	s := NewStore(repo, repo, nil)
	_, err := s.Load(context.Background(), "u1")
	require.NoError(t, err)

	repo.insertErr = errors.New("disk full")
	_, err = s.Create(context.Background(), "u1", "hello", 1, "")
	assert.True(t, errors.Is(err, ErrPersistence))
	assert.Len(t, s.Notes("u1"), 4)

	_, err = s.Create(context.Background(), "", "hello", 1, "")
	assert.True(t, errors.Is(err, ErrPersistence))
}

func TestDelete(t *testing.T) {
	repo := &fakeRepo{}
	s := NewStore(repo, repo, nil)
	list, err := s.Load(context.Background(), "u1")
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), "u1", list[1].ID))
	after := s.Notes("u1")
	require.Len(t, after, 3)
	assert.Equal(t, list[0].ID, after[0].ID)
	assert.Equal(t, list[2].ID, after[1].ID)

	require.NoError(t, s.Delete(context.Background(), "u1", "does-not-exist"))
	assert.Len(t, s.Notes("u1"), 3)

	// The snapshot handed out earlier is not affected.
	assert.Len(t, list, 4)
}

func TestSummary(t *testing.T) {
	repo := &fakeRepo{}
	s := NewStore(repo, repo, nil)
	_, err := s.Load(context.Background(), "u1")
	require.NoError(t, err)

	// 98 + 23 + 156 + 189 = 466 seconds
	assert.Equal(t, model.Summary{Notes: 4, Minutes: 8, Days: 4}, s.Summary("u1"))
	assert.Equal(t, model.Summary{}, s.Summary("nobody"))
}

func TestUsage(t *testing.T) {
	repo := &fakeRepo{}
	s := NewStore(repo, repo, nil)
	ctx := context.Background()

	require.NoError(t, s.RecordUsage(ctx, model.TokenUsage{UserID: "u1", InputTokens: 10, OutputTokens: 3}))
	require.NoError(t, s.RecordUsage(ctx, model.TokenUsage{UserID: "u1", InputTokens: 5, OutputTokens: 2}))
	assert.Error(t, s.RecordUsage(ctx, model.TokenUsage{UserID: "u1", InputTokens: -1}))

	total, err := s.Usage(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 15, total.InputTokens)
	assert.Equal(t, 5, total.OutputTokens)

	noUsage := NewStore(repo, nil, nil)
	require.NoError(t, noUsage.RecordUsage(ctx, model.TokenUsage{UserID: "u1", InputTokens: 1}))
	total, err = noUsage.Usage(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.TokenUsage{}, total)
}
