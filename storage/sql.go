package storage

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/mrsingh-rishi/voice-notes/model"
)

const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

var schemas = map[string][]string{
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS notes (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT,
			structured_transcript TEXT NOT NULL,
			duration_seconds REAL NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notes_user_created ON notes (user_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS token_usage (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			input_tokens INTEGER NOT NULL DEFAULT 0,
			output_tokens INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_token_usage_user ON token_usage (user_id)`,
	},
	DriverMySQL: {
		`CREATE TABLE IF NOT EXISTS notes (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			title TEXT NULL,
			structured_transcript TEXT NOT NULL,
			duration_seconds DOUBLE NOT NULL DEFAULT 0,
			created_at DATETIME(6) NOT NULL,
			INDEX idx_notes_user_created (user_id, created_at)
		)`,
		`CREATE TABLE IF NOT EXISTS token_usage (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			input_tokens INT NOT NULL DEFAULT 0,
			output_tokens INT NOT NULL DEFAULT 0,
			created_at DATETIME(6) NOT NULL,
			INDEX idx_token_usage_user (user_id)
		)`,
	},
}

// SQL stores notes in SQLite or MySQL. MySQL DSNs need parseTime=true.
type SQL struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

// OpenSQL connects, checks the connection and creates missing tables.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQL, error) {
	if _, ok := schemas[driver]; !ok {
		return nil, errors.Errorf("unsupported sql driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", driver)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "ping %s", driver)
	}

	if driver == DriverMySQL {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	} else {
		// sqlite allows a single writer
		db.SetMaxOpenConns(1)
	}

	s := &SQL{db: db, driver: driver, now: time.Now}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the notes and token_usage tables when missing.
func (s *SQL) Migrate(ctx context.Context) error {
	for _, stmt := range schemas[s.driver] {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "create tables")
		}
	}
	return nil
}

func (s *SQL) List(ctx context.Context, userID string) ([]model.Note, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, structured_transcript, duration_seconds, created_at
		FROM notes
		WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []model.Note
	for rows.Next() {
		var n model.Note
		var title sql.NullString
		if err := rows.Scan(&n.ID, &n.UserID, &title, &n.StructuredTranscript, &n.DurationSeconds, &n.CreatedAt); err != nil {
			return nil, err
		}
		if title.Valid {
			t := title.String
			n.Title = &t
		}
		n.CreatedAt = n.CreatedAt.UTC()
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertNote(ctx context.Context, ex execer, note model.Note) error {
	var title sql.NullString
	if note.Title != nil {
		title = sql.NullString{String: *note.Title, Valid: true}
	}
	_, err := ex.ExecContext(ctx,
		"INSERT INTO notes (id, user_id, title, structured_transcript, duration_seconds, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		note.ID, note.UserID, title, note.StructuredTranscript, note.DurationSeconds, note.CreatedAt,
	)
	return err
}

func (s *SQL) Insert(ctx context.Context, note model.Note) (model.Note, error) {
	note = prepare(note, s.now)
	if err := insertNote(ctx, s.db, note); err != nil {
		return model.Note{}, err
	}
	return note, nil
}

// InsertMany writes all notes in one transaction.
func (s *SQL) InsertMany(ctx context.Context, notes []model.Note) ([]model.Note, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	out := make([]model.Note, 0, len(notes))
	for _, n := range notes {
		n = prepare(n, s.now)
		if err := insertNote(ctx, tx, n); err != nil {
			tx.Rollback()
			return nil, err
		}
		out = append(out, n)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQL) Delete(ctx context.Context, userID, noteID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM notes WHERE id = ? AND user_id = ?", noteID, userID)
	return err
}

func (s *SQL) AddUsage(ctx context.Context, usage model.TokenUsage) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO token_usage (user_id, input_tokens, output_tokens, created_at) VALUES (?, ?, ?, ?)",
		usage.UserID, usage.InputTokens, usage.OutputTokens, s.now().UTC(),
	)
	return err
}

func (s *SQL) ListUsage(ctx context.Context, userID string) ([]model.TokenUsage, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT user_id, input_tokens, output_tokens FROM token_usage WHERE user_id = ?", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TokenUsage
	for rows.Next() {
		var u model.TokenUsage
		if err := rows.Scan(&u.UserID, &u.InputTokens, &u.OutputTokens); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *SQL) Close() error {
	return s.db.Close()
}
