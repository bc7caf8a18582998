package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrsingh-rishi/voice-notes/model"
	"github.com/mrsingh-rishi/voice-notes/notes"
)

type backend interface {
	notes.Repository
	notes.UsageRepository
}

func backends(t *testing.T) map[string]backend {
	t.Helper()
	ctx := context.Background()

	db, err := OpenSQL(ctx, DriverSQLite, filepath.Join(t.TempDir(), "notes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	bolt, err := OpenBolt(filepath.Join(t.TempDir(), "notes.bolt"))
	require.NoError(t, err)
	t.Cleanup(func() { bolt.Close() })

	return map[string]backend{
		"memory":  NewMemory(),
		"sqlite3": db,
		"bolt":    bolt,
	}
}

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestRepositories(t *testing.T) {
	for name, repo := range backends(t) {
		repo := repo
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			title := "Design system notes"

			inserted, err := repo.InsertMany(ctx, []model.Note{
				{UserID: "u1", Title: &title, StructuredTranscript: "older", DurationSeconds: 98, CreatedAt: at("2026-02-04T13:30:00Z")},
				{UserID: "u1", StructuredTranscript: "newer", DurationSeconds: 23, CreatedAt: at("2026-02-09T14:30:00Z")},
				{UserID: "u2", StructuredTranscript: "someone else", CreatedAt: at("2026-02-05T20:10:00Z")},
			})
			require.NoError(t, err)
			require.Len(t, inserted, 3)
			for _, n := range inserted {
				assert.NotEmpty(t, n.ID)
			}

			list, err := repo.List(ctx, "u1")
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "newer", list[0].StructuredTranscript)
			assert.Nil(t, list[0].Title)
			assert.Equal(t, "older", list[1].StructuredTranscript)
			require.NotNil(t, list[1].Title)
			assert.Equal(t, title, *list[1].Title)
			assert.Equal(t, float64(98), list[1].DurationSeconds)
			assert.True(t, list[1].CreatedAt.Equal(at("2026-02-04T13:30:00Z")))

			created, err := repo.Insert(ctx, model.Note{UserID: "u1", StructuredTranscript: "latest"})
			require.NoError(t, err)
			assert.NotEmpty(t, created.ID)
			assert.False(t, created.CreatedAt.IsZero())

			list, err = repo.List(ctx, "u1")
			require.NoError(t, err)
			require.Len(t, list, 3)
			assert.Equal(t, created.ID, list[0].ID)

			// Another user's id does not delete anything.
			require.NoError(t, repo.Delete(ctx, "u2", created.ID))
			require.NoError(t, repo.Delete(ctx, "u1", created.ID))
			require.NoError(t, repo.Delete(ctx, "u1", created.ID))
			require.NoError(t, repo.Delete(ctx, "u1", "missing"))

			list, err = repo.List(ctx, "u1")
			require.NoError(t, err)
			assert.Len(t, list, 2)

			list, err = repo.List(ctx, "nobody")
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestUsageRepositories(t *testing.T) {
	for name, repo := range backends(t) {
		repo := repo
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, repo.AddUsage(ctx, model.TokenUsage{UserID: "u1", InputTokens: 100, OutputTokens: 20}))
			require.NoError(t, repo.AddUsage(ctx, model.TokenUsage{UserID: "u1", InputTokens: 50, OutputTokens: 5}))
			require.NoError(t, repo.AddUsage(ctx, model.TokenUsage{UserID: "u2", InputTokens: 7, OutputTokens: 7}))

			rows, err := repo.ListUsage(ctx, "u1")
			require.NoError(t, err)
			require.Len(t, rows, 2)
			assert.Equal(t, model.TokenUsage{UserID: "u1", InputTokens: 150, OutputTokens: 25}, sumUsage("u1", rows))
		})
	}
}

func TestBoltUserKeysDoNotOverlap(t *testing.T) {
	repo := backends(t)["bolt"]
	ctx := context.Background()

	// Ids that extend one another past a NUL byte.
	for _, userID := range []string{"a", "a\x00b", "a\x00"} {
		_, err := repo.Insert(ctx, model.Note{UserID: userID, StructuredTranscript: "note of " + userID})
		require.NoError(t, err)
		require.NoError(t, repo.AddUsage(ctx, model.TokenUsage{UserID: userID, InputTokens: 1}))
	}

	for _, userID := range []string{"a", "a\x00b", "a\x00"} {
		list, err := repo.List(ctx, userID)
		require.NoError(t, err)
		require.Len(t, list, 1, userID)
		assert.Equal(t, userID, list[0].UserID)
		assert.Equal(t, "note of "+userID, list[0].StructuredTranscript)

		rows, err := repo.ListUsage(ctx, userID)
		require.NoError(t, err)
		require.Len(t, rows, 1, userID)
		assert.Equal(t, userID, rows[0].UserID)
	}

	list, err := repo.List(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, "a\x00b", list[0].ID))
	list, err = repo.List(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, list, 1, "deleting with another user's id leaves the note")
}

func sumUsage(userID string, rows []model.TokenUsage) model.TokenUsage {
	total := model.TotalUsage(rows)
	total.UserID = userID
	return total
}

func TestOpenSQLUnsupportedDriver(t *testing.T) {
	_, err := OpenSQL(context.Background(), "postgres", "")
	assert.Error(t, err)
}

func TestStoreOverSQLite(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQL(ctx, DriverSQLite, filepath.Join(t.TempDir(), "notes.db"))
	require.NoError(t, err)
	defer db.Close()

	store := notes.NewStore(db, db, nil)
	list, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 4)

	// Reopening the store does not seed again.
	store = notes.NewStore(db, db, nil)
	list, err = store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 4)
}
