// Package sqlite provides a SQLite-backed scenario repository.
//
// Records are stored one per row with the scenario serialized as JSON, so the
// schema does not change when scenario fields are added. Use ":memory:" for a
// throwaway database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/financing-forecast/internal/config"
	"github.com/iwvelando/financing-forecast/internal/repository"
	_ "github.com/mattn/go-sqlite3"
)

// timeLayout keeps a fixed width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements repository.Repository using SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ repository.Repository = (*Store)(nil)

// New opens the database at dbPath and migrates the schema.
func New(dbPath string) (*Store, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		dsn = dbPath + "?_journal_mode=WAL&_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	store := &Store{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scenarios (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		scenario_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scenarios_created_at
		ON scenarios(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save implements repository.Repository.
func (s *Store) Save(ctx context.Context, rec repository.Record) (repository.Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return repository.Record{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existing *repository.Record
	if rec.ID != uuid.Nil {
		stored, err := getRecord(ctx, tx, rec.ID)
		switch {
		case err == nil:
			existing = &stored
		case !errors.Is(err, repository.ErrNotFound):
			return repository.Record{}, err
		}
	}

	rec = repository.Prepare(rec, existing, s.now())
	payload, err := json.Marshal(rec.Scenario)
	if err != nil {
		return repository.Record{}, fmt.Errorf("failed to encode scenario: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO scenarios (id, name, scenario_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			scenario_json = excluded.scenario_json,
			updated_at = excluded.updated_at
	`, rec.ID.String(), rec.Name, string(payload),
		rec.CreatedAt.Format(timeLayout), rec.UpdatedAt.Format(timeLayout))
	if err != nil {
		return repository.Record{}, fmt.Errorf("failed to save scenario: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return repository.Record{}, fmt.Errorf("failed to commit: %w", err)
	}
	return rec, nil
}

// Get implements repository.Repository.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (repository.Record, error) {
	return getRecord(ctx, s.db, id)
}

// List implements repository.Repository.
func (s *Store) List(ctx context.Context) ([]repository.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, scenario_json, created_at, updated_at
		FROM scenarios
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	defer rows.Close()

	records := make([]repository.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Delete implements repository.Repository.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM scenarios WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete scenario: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete scenario: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func getRecord(ctx context.Context, q queryer, id uuid.UUID) (repository.Record, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, name, scenario_json, created_at, updated_at
		FROM scenarios
		WHERE id = ?
	`, id.String())

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.Record{}, repository.ErrNotFound
	}
	return rec, err
}

func scanRecord(row scanner) (repository.Record, error) {
	var (
		id, name, payload    string
		createdAt, updatedAt string
	)
	if err := row.Scan(&id, &name, &payload, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.Record{}, err
		}
		return repository.Record{}, fmt.Errorf("failed to scan scenario: %w", err)
	}

	var rec repository.Record
	var err error
	if rec.ID, err = uuid.Parse(id); err != nil {
		return repository.Record{}, fmt.Errorf("invalid scenario id %q: %w", id, err)
	}
	rec.Name = name

	var scenario config.Scenario
	if err := json.Unmarshal([]byte(payload), &scenario); err != nil {
		return repository.Record{}, fmt.Errorf("failed to decode scenario %s: %w", id, err)
	}
	rec.Scenario = scenario

	if rec.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return repository.Record{}, fmt.Errorf("invalid created_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return repository.Record{}, fmt.Errorf("invalid updated_at: %w", err)
	}
	return rec, nil
}
