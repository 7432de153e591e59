// Package content persists generated educational content.
package content

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/p-n-ai/koulutus-bot/internal/credits"
	"github.com/p-n-ai/koulutus-bot/internal/education"
)

// DefaultListLimit caps ListByUser when no limit is given.
const DefaultListLimit = 50

// ErrNotFound is returned for unknown content ids.
var ErrNotFound = errors.New("content not found")

// Record is a stored row of educational_content.
type Record struct {
	ID          string                  `json:"id"`
	UserID      string                  `json:"user_id"`
	Description string                  `json:"description,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
	Data        education.StorageRecord `json:"data"`
}

// Store persists records.
type Store interface {
	// Save assigns ID and CreatedAt when they are empty.
	Save(ctx context.Context, rec Record) (Record, error)
	Get(ctx context.Context, id string) (Record, error)
	// ListByUser returns the user's records newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]Record, error)
	// UpdateSharing changes who may open a record. Only the owner may
	// change it; other users get ErrNotFound.
	UpdateSharing(ctx context.Context, id, userID string, sharing education.SharingSettings) (Record, error)
}

// Repository saves content and spends the user's credits as one unit.
type Repository interface {
	Store
	SaveWithDeduction(ctx context.Context, rec Record, cost int, details credits.Details) (Record, int, error)
}

func prepare(rec Record) (Record, error) {
	if rec.UserID == "" {
		return Record{}, fmt.Errorf("user_id is required")
	}
	if !rec.Data.ContentType.Valid() {
		return Record{}, fmt.Errorf("%w: %q", education.ErrUnknownContentType, rec.Data.ContentType)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Data.CurriculumStandards == nil {
		rec.Data.CurriculumStandards = []string{}
	}
	return rec, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > DefaultListLimit {
		return DefaultListLimit
	}
	return limit
}

// MemoryStore is an in-memory Store for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Save(_ context.Context, rec Record) (Record, error) {
	rec, err := prepare(rec)
	if err != nil {
		return Record{}, err
	}
	s.mu.Lock()
	s.records[rec.ID] = rec
	s.mu.Unlock()
	return rec, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID string, limit int) ([]Record, error) {
	s.mu.RLock()
	out := []Record{}
	for _, rec := range s.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit = clampLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) UpdateSharing(_ context.Context, id, userID string, sharing education.SharingSettings) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok || rec.UserID != userID {
		return Record{}, ErrNotFound
	}
	rec.Data.SharingSettings = sharing
	s.records[id] = rec
	return rec, nil
}

// LocalRepository pairs any Store with any Ledger. The credit check, save
// and deduction run one after another, which is only safe with a single
// writer per user.
type LocalRepository struct {
	Store
	ledger credits.Ledger
}

// NewLocalRepository creates a repository over store and ledger.
func NewLocalRepository(store Store, ledger credits.Ledger) *LocalRepository {
	return &LocalRepository{Store: store, ledger: ledger}
}

func (r *LocalRepository) SaveWithDeduction(ctx context.Context, rec Record, cost int, details credits.Details) (Record, int, error) {
	if _, err := credits.Check(ctx, r.ledger, rec.UserID, cost); err != nil {
		return Record{}, 0, err
	}
	saved, err := r.Save(ctx, rec)
	if err != nil {
		return Record{}, 0, fmt.Errorf("save content: %w", err)
	}
	details.ContentID = saved.ID
	remaining, err := r.ledger.Deduct(ctx, rec.UserID, cost, details)
	if err != nil {
		return Record{}, 0, fmt.Errorf("deduct credits: %w", err)
	}
	return saved, remaining, nil
}
