package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopfeed/categorizer/internal/domain"
)

// store is the consumer interface for the cache repository (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error)
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo persists categorization decisions keyed by a content hash of the
// product identity.
type Repo struct {
	store            store
	protectThreshold float64

	// Serializes read-check-write sequences on cache keys.
	mu sync.Mutex
}

// New creates a cache repository. Entries with confidence at or above
// protectThreshold cannot be overwritten without force.
func New(s store, protectThreshold float64) *Repo {
	return &Repo{store: s, protectThreshold: protectThreshold}
}

// Get returns the cache entry for a content key.
func (r *Repo) Get(ctx context.Context, key string) (domain.CacheEntry, error) {
	m, err := r.store.HGetAll(ctx, cacheKey(key))
	if err != nil {
		return domain.CacheEntry{}, fmt.Errorf("hgetall cache %s: %w", key, err)
	}
	if len(m) == 0 {
		return domain.CacheEntry{}, domain.ErrNotFound
	}
	return entryFromHash(key, m), nil
}

// Touch records a cache hit: bumps the use counter and refreshes the
// last-used timestamp.
func (r *Repo) Touch(ctx context.Context, key string) error {
	redisKey := cacheKey(key)
	if _, err := r.store.HIncrBy(ctx, redisKey, "use_count", 1); err != nil {
		return fmt.Errorf("hincrby cache %s: %w", key, err)
	}
	fields := map[string]string{"last_used_at": time.Now().UTC().Format(time.RFC3339)}
	if err := r.store.HSet(ctx, redisKey, fields); err != nil {
		return fmt.Errorf("hset cache %s: %w", key, err)
	}
	return nil
}

// Put stores an entry. An existing entry at or above the protect threshold
// is only replaced when force is set. On overwrite the original CreatedAt
// and UseCount survive, as do the audit fields when the new entry lacks them.
func (r *Repo) Put(ctx context.Context, entry domain.CacheEntry, force bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	redisKey := cacheKey(entry.Key)
	existing, err := r.store.HGetAll(ctx, redisKey)
	if err != nil {
		return fmt.Errorf("hgetall cache %s: %w", entry.Key, err)
	}

	now := time.Now().UTC()
	entry.CreatedAt = now
	if len(existing) > 0 {
		old := entryFromHash(entry.Key, existing)
		if !force && old.Confidence >= r.protectThreshold {
			return domain.ErrProtected
		}
		entry.CreatedAt = old.CreatedAt
		entry.UseCount = old.UseCount
		if entry.OriginalCode == "" {
			entry.OriginalCode = old.OriginalCode
			entry.OriginalPath = old.OriginalPath
		}
	}
	entry.LastUsedAt = now

	if err := r.store.HSet(ctx, redisKey, entryToHash(entry)); err != nil {
		return fmt.Errorf("hset cache %s: %w", entry.Key, err)
	}
	return nil
}

// Delete removes a cache entry.
func (r *Repo) Delete(ctx context.Context, key string) error {
	if err := r.store.Del(ctx, cacheKey(key)); err != nil {
		return fmt.Errorf("del cache %s: %w", key, err)
	}
	return nil
}

// All returns every cache entry. Used by the analyzer and stats; the cache
// is bounded by distinct product identities, not request volume.
func (r *Repo) All(ctx context.Context) ([]domain.CacheEntry, error) {
	keys, err := r.store.Scan(ctx, cacheKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan cache: %w", err)
	}
	if len(keys) == 0 {
		return []domain.CacheEntry{}, nil
	}

	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi cache: %w", err)
	}

	entries := make([]domain.CacheEntry, 0, len(results))
	for i, m := range results {
		if len(m) == 0 {
			continue
		}
		entries = append(entries, entryFromHash(strings.TrimPrefix(keys[i], cacheKey("")), m))
	}
	return entries, nil
}

// Stats summarizes the cache contents.
func (r *Repo) Stats(ctx context.Context) (domain.CacheStats, error) {
	entries, err := r.All(ctx)
	if err != nil {
		return domain.CacheStats{}, err
	}

	stats := domain.CacheStats{
		Total:    len(entries),
		BySource: map[string]int{},
	}
	var confSum float64
	for _, e := range entries {
		stats.BySource[e.Source]++
		stats.TotalUses += e.UseCount
		confSum += e.Confidence
	}
	if len(entries) > 0 {
		stats.AvgConfidence = confSum / float64(len(entries))
	}
	return stats, nil
}

// Redis key pattern: categorizer:cache:{sha256 of title|type|vendor}

func cacheKey(key string) string {
	return fmt.Sprintf("%scache:%s", domain.KeyPrefix, key)
}
