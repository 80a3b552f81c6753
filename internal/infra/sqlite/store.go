package sqlite

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Store is a single-file durable store for forms, responses and summaries.
type Store struct {
	db *sql.DB
}

func NewStore(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		path = "formflow.db"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	store := &Store{db: db}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS forms (
			form_id TEXT PRIMARY KEY,
			data_json TEXT NOT NULL,
			created_at_unix INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS responses (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			response_id TEXT NOT NULL UNIQUE,
			form_id TEXT NOT NULL,
			answers_json TEXT NOT NULL,
			submitted_at_unix INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS summaries (
			form_id TEXT PRIMARY KEY,
			data_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_forms_created_at ON forms(created_at_unix);`,
		`CREATE INDEX IF NOT EXISTS idx_responses_form_seq ON responses(form_id, seq);`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
