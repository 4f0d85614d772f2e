package refdata

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/icsr-triage-engine/internal/domain"
)

// CachedProvider wraps a provider with an in-memory LRU cache. Negative
// results are cached too, so a batch full of the same unknown drug hits the
// backend once.
type CachedProvider struct {
	inner domain.ReferenceProvider
	cache *lru.Cache[string, cachedEntry]
}

type cachedEntry struct {
	entry *domain.ReferenceEntry
	miss  bool
}

// NewCachedProvider creates a cache of the given size in front of inner.
func NewCachedProvider(inner domain.ReferenceProvider, size int) (*CachedProvider, error) {
	cache, err := lru.New[string, cachedEntry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create reference cache: %w", err)
	}
	return &CachedProvider{inner: inner, cache: cache}, nil
}

// Lookup implements domain.ReferenceProvider.
func (c *CachedProvider) Lookup(ctx context.Context, drugName string) (*domain.ReferenceEntry, error) {
	key := normalizeKey(drugName)

	if cached, ok := c.cache.Get(key); ok {
		if cached.miss {
			return nil, domain.ErrNoEntry
		}
		return cached.entry, nil
	}

	entry, err := c.inner.Lookup(ctx, drugName)
	if err != nil {
		if errors.Is(err, domain.ErrNoEntry) {
			c.cache.Add(key, cachedEntry{miss: true})
		}
		// Backend failures are never cached.
		return nil, err
	}

	c.cache.Add(key, cachedEntry{entry: entry})
	return entry, nil
}

// Purge empties the cache.
func (c *CachedProvider) Purge() {
	c.cache.Purge()
}
