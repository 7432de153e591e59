package content

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/p-n-ai/koulutus-bot/internal/credits"
	"github.com/p-n-ai/koulutus-bot/internal/education"
	"github.com/p-n-ai/koulutus-bot/internal/platform/cache"
)

// ContentCache is the subset of *cache.Cache used by CachedStore.
type ContentCache interface {
	GetJSON(ctx context.Context, key string, v any) error
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CachedStore reads records through a cache. Cache failures are logged
// and fall through to the backing repository.
type CachedStore struct {
	Repository
	cache ContentCache
	ttl   time.Duration
}

// NewCachedStore wraps repo with cache-aside reads of single records.
func NewCachedStore(repo Repository, c ContentCache, ttl time.Duration) *CachedStore {
	return &CachedStore{Repository: repo, cache: c, ttl: ttl}
}

func cacheKey(id string) string {
	return "content:" + id
}

func (s *CachedStore) Get(ctx context.Context, id string) (Record, error) {
	var rec Record
	err := s.cache.GetJSON(ctx, cacheKey(id), &rec)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		slog.Warn("content cache read failed", "id", id, "error", err)
	}

	rec, err = s.Repository.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	s.fill(ctx, rec)
	return rec, nil
}

func (s *CachedStore) Save(ctx context.Context, rec Record) (Record, error) {
	saved, err := s.Repository.Save(ctx, rec)
	if err != nil {
		return Record{}, err
	}
	s.fill(ctx, saved)
	return saved, nil
}

func (s *CachedStore) SaveWithDeduction(ctx context.Context, rec Record, cost int, details credits.Details) (Record, int, error) {
	saved, remaining, err := s.Repository.SaveWithDeduction(ctx, rec, cost, details)
	if err != nil {
		return Record{}, 0, err
	}
	s.fill(ctx, saved)
	return saved, remaining, nil
}

// UpdateSharing changes the record in the backing store and drops the
// cached copy so readers see the new settings.
func (s *CachedStore) UpdateSharing(ctx context.Context, id, userID string, sharing education.SharingSettings) (Record, error) {
	rec, err := s.Repository.UpdateSharing(ctx, id, userID, sharing)
	if err != nil {
		return Record{}, err
	}
	s.Invalidate(ctx, id)
	return rec, nil
}

// Invalidate drops a cached record.
func (s *CachedStore) Invalidate(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, cacheKey(id)); err != nil {
		slog.Warn("content cache delete failed", "id", id, "error", err)
	}
}

func (s *CachedStore) fill(ctx context.Context, rec Record) {
	if err := s.cache.SetJSON(ctx, cacheKey(rec.ID), rec, s.ttl); err != nil {
		slog.Warn("content cache write failed", "id", rec.ID, "error", err)
	}
}
