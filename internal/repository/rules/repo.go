package rules

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopfeed/categorizer/internal/domain"
)

// store is the consumer interface for the rules repository (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo persists type rules as hashes keyed by normalized product type.
type Repo struct {
	store            store
	protectThreshold float64

	// Serializes read-check-write sequences on rule keys.
	mu sync.Mutex
}

// New creates a rules repository. Rules with confidence at or above
// protectThreshold cannot be overwritten without force.
func New(s store, protectThreshold float64) *Repo {
	return &Repo{store: s, protectThreshold: protectThreshold}
}

// Get returns the rule for a normalized product type, active or not.
func (r *Repo) Get(ctx context.Context, productType string) (domain.TypeRule, error) {
	m, err := r.store.HGetAll(ctx, ruleKey(productType))
	if err != nil {
		return domain.TypeRule{}, fmt.Errorf("hgetall rule %s: %w", productType, err)
	}
	if len(m) == 0 {
		return domain.TypeRule{}, domain.ErrNotFound
	}
	return ruleFromHash(m), nil
}

// GetActive returns the rule for a normalized product type only if it is
// active. Inactive rules behave as misses.
func (r *Repo) GetActive(ctx context.Context, productType string) (domain.TypeRule, error) {
	rule, err := r.Get(ctx, productType)
	if err != nil {
		return domain.TypeRule{}, err
	}
	if !rule.Active {
		return domain.TypeRule{}, domain.ErrNotFound
	}
	return rule, nil
}

// Create stores a new rule. Fails with ErrAlreadyExists if a rule for the
// type is already present.
func (r *Repo) Create(ctx context.Context, rule domain.TypeRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := ruleKey(rule.ProductType)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check rule exists: %w", err)
	}
	if exists {
		return domain.ErrAlreadyExists
	}

	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	if err := r.store.HSet(ctx, key, ruleToHash(rule)); err != nil {
		return fmt.Errorf("hset rule %s: %w", rule.ProductType, err)
	}
	return nil
}

// Upsert stores a rule, overwriting any existing one. An existing rule at
// or above the protect threshold is only replaced when force is set; the
// original CreatedAt and UseCount survive the overwrite.
func (r *Repo) Upsert(ctx context.Context, rule domain.TypeRule, force bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := ruleKey(rule.ProductType)
	existing, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return fmt.Errorf("hgetall rule %s: %w", rule.ProductType, err)
	}

	now := time.Now().UTC()
	rule.CreatedAt = now
	if len(existing) > 0 {
		old := ruleFromHash(existing)
		if !force && old.Confidence >= r.protectThreshold {
			return domain.ErrProtected
		}
		rule.CreatedAt = old.CreatedAt
		rule.UseCount = old.UseCount
	}
	rule.UpdatedAt = now

	if err := r.store.HSet(ctx, key, ruleToHash(rule)); err != nil {
		return fmt.Errorf("hset rule %s: %w", rule.ProductType, err)
	}
	return nil
}

// UpdateCategory changes the category of an existing rule in place.
func (r *Repo) UpdateCategory(ctx context.Context, productType, code, path string, confidence float64) (domain.TypeRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rule, err := r.Get(ctx, productType)
	if err != nil {
		return domain.TypeRule{}, err
	}
	rule.CategoryCode = code
	rule.CategoryPath = path
	rule.Confidence = confidence
	rule.UpdatedAt = time.Now().UTC()

	if err := r.store.HSet(ctx, ruleKey(productType), ruleToHash(rule)); err != nil {
		return domain.TypeRule{}, fmt.Errorf("hset rule %s: %w", productType, err)
	}
	return rule, nil
}

// SetActive toggles a rule without losing its mapping.
func (r *Repo) SetActive(ctx context.Context, productType string, active bool) (domain.TypeRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rule, err := r.Get(ctx, productType)
	if err != nil {
		return domain.TypeRule{}, err
	}
	rule.Active = active
	rule.UpdatedAt = time.Now().UTC()

	if err := r.store.HSet(ctx, ruleKey(productType), ruleToHash(rule)); err != nil {
		return domain.TypeRule{}, fmt.Errorf("hset rule %s: %w", productType, err)
	}
	return rule, nil
}

// Delete removes a rule.
func (r *Repo) Delete(ctx context.Context, productType string) error {
	key := ruleKey(productType)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check rule exists: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del rule %s: %w", productType, err)
	}
	return nil
}

// List returns all rules sorted by product type.
func (r *Repo) List(ctx context.Context) ([]domain.TypeRule, error) {
	keys, err := r.store.Scan(ctx, ruleKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan rules: %w", err)
	}
	if len(keys) == 0 {
		return []domain.TypeRule{}, nil
	}

	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi rules: %w", err)
	}

	out := make([]domain.TypeRule, 0, len(results))
	for _, m := range results {
		if len(m) == 0 {
			continue
		}
		out = append(out, ruleFromHash(m))
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ProductType < out[j].ProductType
	})
	return out, nil
}

// IncrementUse bumps a rule's use counter.
func (r *Repo) IncrementUse(ctx context.Context, productType string) error {
	if _, err := r.store.HIncrBy(ctx, ruleKey(productType), "use_count", 1); err != nil {
		return fmt.Errorf("hincrby rule %s: %w", productType, err)
	}
	return nil
}

// Redis key pattern: categorizer:rule:{normalized type}

func ruleKey(productType string) string {
	return fmt.Sprintf("%srule:%s", domain.KeyPrefix, productType)
}
