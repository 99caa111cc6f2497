// Package project persists editing projects in a local sqlite database.
// The cue payload is stored as a JSON document; only identity and
// timestamps get their own columns.
package project

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/subweaver/subweaver/internal/cue"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("project not found")

const schema = `
CREATE TABLE IF NOT EXISTS projects (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	data       TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_projects_updated_at ON projects (updated_at DESC);
`

type Repository struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and bootstraps the schema.
func Open(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// Summary is a projection for listings; the cue payload is not loaded.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CueCount  int       `json:"cueCount"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Save upserts the whole project document keyed by its id.
func (r *Repository) Save(ctx context.Context, p *cue.Project) error {
	if p.ID == "" {
		return errors.New("project has no id")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding project %s: %w", p.ID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			data = excluded.data,
			updated_at = excluded.updated_at;
	`,
		p.ID,
		p.Name,
		string(data),
		p.CreatedAt.UTC().Format(time.RFC3339),
		p.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// Load returns the full project document with the given id.
func (r *Repository) Load(ctx context.Context, id string) (*cue.Project, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `
		SELECT data
		FROM projects
		WHERE id = ?
		LIMIT 1;
	`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var p cue.Project
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("decoding project %s: %w", id, err)
	}
	return &p, nil
}

// Latest returns the most recently updated project, or ErrNotFound when the
// database is empty.
func (r *Repository) Latest(ctx context.Context) (*cue.Project, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		SELECT id
		FROM projects
		ORDER BY updated_at DESC
		LIMIT 1;
	`).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.Load(ctx, id)
}

// List returns summaries of all projects, most recently updated first.
func (r *Repository) List(ctx context.Context) ([]Summary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, data, created_at, updated_at
		FROM projects
		ORDER BY updated_at DESC;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]Summary, 0, 8)
	for rows.Next() {
		var s Summary
		var data string
		var createdAt string
		var updatedAt string
		if err := rows.Scan(&s.ID, &s.Name, &data, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		s.CueCount = countCues(data)
		s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		s.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}

// Delete removes the project with the given id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?;`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func countCues(data string) int {
	var partial struct {
		Cues []json.RawMessage `json:"cues"`
	}
	if err := json.Unmarshal([]byte(data), &partial); err != nil {
		return 0
	}
	return len(partial.Cues)
}
