// Package repository persists named scenario configurations.
package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/financing-forecast/internal/config"
)

// ErrNotFound is returned when no record exists for an id.
var ErrNotFound = errors.New("scenario not found")

// Record is a saved scenario.
type Record struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Scenario  config.Scenario `json:"scenario"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Repository stores scenario records by id.
type Repository interface {
	// Save inserts the record, assigning an id when it has none, or replaces
	// the stored record with the same id. CreatedAt survives replacement.
	Save(ctx context.Context, rec Record) (Record, error)
	Get(ctx context.Context, id uuid.UUID) (Record, error)
	// List returns every record, oldest first.
	List(ctx context.Context) ([]Record, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Prepare fills in the id, name and timestamps of rec before it is stored.
// existing is the currently stored record, if any.
func Prepare(rec Record, existing *Record, now time.Time) Record {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.Name = strings.TrimSpace(rec.Name)
	if rec.Name == "" {
		rec.Name = rec.Scenario.Name
	}
	rec.Scenario.Name = rec.Name
	rec.Scenario.ManualBalloons = cloneBalloons(rec.Scenario.ManualBalloons)

	if existing != nil {
		rec.CreatedAt = existing.CreatedAt
	} else {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	return rec
}

func cloneBalloons(in []config.ManualBalloon) []config.ManualBalloon {
	if in == nil {
		return nil
	}
	out := make([]config.ManualBalloon, len(in))
	copy(out, in)
	return out
}

// Memory is an in-process Repository.
type Memory struct {
	mu      sync.RWMutex
	records map[uuid.UUID]Record
	now     func() time.Time
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{
		records: make(map[uuid.UUID]Record),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Save implements Repository.
func (m *Memory) Save(ctx context.Context, rec Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var existing *Record
	if stored, ok := m.records[rec.ID]; ok && rec.ID != uuid.Nil {
		existing = &stored
	}
	rec = Prepare(rec, existing, m.now())
	m.records[rec.ID] = rec

	rec.Scenario.ManualBalloons = cloneBalloons(rec.Scenario.ManualBalloons)
	return rec, nil
}

// Get implements Repository.
func (m *Memory) Get(ctx context.Context, id uuid.UUID) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	rec.Scenario.ManualBalloons = cloneBalloons(rec.Scenario.ManualBalloons)
	return rec, nil
}

// List implements Repository.
func (m *Memory) List(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Record, 0, len(m.records))
	for _, rec := range m.records {
		rec.Scenario.ManualBalloons = cloneBalloons(rec.Scenario.ManualBalloons)
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// Delete implements Repository.
func (m *Memory) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return ErrNotFound
	}
	delete(m.records, id)
	return nil
}
