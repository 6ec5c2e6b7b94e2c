// Package historydb keeps a local copy of the user's saved analyses so
// history stays readable when the backend is unreachable.
package historydb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Patocuak64/dentalsmart-client/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS saved_analyses (
	user_email  TEXT NOT NULL,
	analysis_id INTEGER NOT NULL,
	file_name   TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	summary     TEXT,
	stats       TEXT,
	fetched_at  TEXT NOT NULL,
	PRIMARY KEY (user_email, analysis_id)
);
`

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Replace swaps the cached history for one user with a fresh snapshot
// in a single transaction.
func (s *Store) Replace(ctx context.Context, email string, analyses []domain.SavedAnalysis) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history refresh: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM saved_analyses WHERE user_email = ?`, email); err != nil {
		return fmt.Errorf("clear cached history: %w", err)
	}
	fetchedAt := time.Now().UTC().Format(time.RFC3339)
	for _, a := range analyses {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO saved_analyses (user_email, analysis_id, file_name, created_at, summary, stats, fetched_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			email, a.ID, a.FileName, a.CreatedAt, string(a.Summary), string(a.Stats), fetchedAt)
		if err != nil {
			return fmt.Errorf("cache analysis %d: %w", a.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history refresh: %w", err)
	}
	return nil
}

// List returns the cached history for one user, newest first.
func (s *Store) List(ctx context.Context, email string) ([]domain.SavedAnalysis, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT analysis_id, file_name, created_at, summary, stats
		FROM saved_analyses
		WHERE user_email = ?
		ORDER BY created_at DESC, analysis_id DESC`, email)
	if err != nil {
		return nil, fmt.Errorf("query cached history: %w", err)
	}
	defer rows.Close()

	var analyses []domain.SavedAnalysis
	for rows.Next() {
		var a domain.SavedAnalysis
		var summary, stats sql.NullString
		if err := rows.Scan(&a.ID, &a.FileName, &a.CreatedAt, &summary, &stats); err != nil {
			return nil, fmt.Errorf("scan cached analysis: %w", err)
		}
		if summary.Valid && summary.String != "" {
			a.Summary = []byte(summary.String)
		}
		if stats.Valid && stats.String != "" {
			a.Stats = []byte(stats.String)
		}
		analyses = append(analyses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read cached history: %w", err)
	}
	return analyses, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
