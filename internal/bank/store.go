package bank

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS questions (
	id         TEXT PRIMARY KEY,
	text       TEXT NOT NULL,
	category   TEXT NOT NULL,
	type       TEXT NOT NULL,
	answer     TEXT NOT NULL DEFAULT '',
	source     TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS questions_category ON questions (category, created_at);
`

const (
	sourceManual    = "manual"
	sourceGenerated = "generated"
)

// Store persists user-added and generated questions in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// DefaultPath returns $XDG_DATA_HOME/rehearse/bank.sqlite (or ~/.local/share fallback).
func DefaultPath() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdg != "" {
		return filepath.Join(xdg, "rehearse", "bank.sqlite"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("unable to resolve user home for question bank")
	}
	return filepath.Join(home, ".local", "share", "rehearse", "bank.sqlite"), nil
}

// Open creates the database file and schema when missing.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create bank dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(2000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open question bank: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping question bank: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate question bank: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// AddCustom stores a user-written question with an optional model answer.
func (s *Store) AddCustom(ctx context.Context, category string, text string, answer string) (Question, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Question{}, errors.New("question text must not be empty")
	}
	if category == "" {
		category = CategoryCustom
	}
	q := Question{
		ID:       uuid.NewString(),
		Text:     text,
		Category: category,
		Type:     TypeCustom,
		Answer:   strings.TrimSpace(answer),
	}
	if err := insert(ctx, s.db, q, sourceManual, s.now()); err != nil {
		return Question{}, err
	}
	return q, nil
}

// AddGenerated stores generator drafts in the Custom category.
func (s *Store) AddGenerated(ctx context.Context, drafts []Draft) ([]Question, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now()
	out := make([]Question, 0, len(drafts))
	for i, d := range drafts {
		text := strings.TrimSpace(d.Text)
		if text == "" {
			continue
		}
		q := Question{
			ID:       "gen-" + uuid.NewString(),
			Text:     text,
			Category: CategoryCustom,
			Type:     ParseType(d.Type),
		}
		// Keep generator order stable under the created_at sort.
		at := now.Add(time.Duration(i) * time.Millisecond)
		if err := insert(ctx, tx, q, sourceGenerated, at); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit generated questions: %w", err)
	}
	return out, nil
}

// Questions returns stored questions in category, oldest first.
func (s *Store) Questions(ctx context.Context, category string) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, category, type, answer
		FROM questions
		WHERE category = ?
		ORDER BY created_at ASC
	`, category)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		var q Question
		var typ string
		if err := rows.Scan(&q.ID, &q.Text, &q.Category, &typ, &q.Answer); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Type = Type(typ)
		out = append(out, q)
	}
	return out, rows.Err()
}

// Delete removes one stored question. Built-in questions cannot be deleted.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("question %q not found", id)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insert(ctx context.Context, db execer, q Question, source string, at time.Time) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO questions (id, text, category, type, answer, source, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.Text, q.Category, string(q.Type), q.Answer, source, at.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}
