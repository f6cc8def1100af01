package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/semscout/semscout/pkg/types"
)

// Embedder turns text into a fixed-dimension vector. Implementations may
// batch internally; failures are reported per call and wrap
// types.ErrEmbedding.
type Embedder interface {
	// Embed returns the vector for one text.
	Embed(ctx context.Context, text string) (types.Vector, error)

	// EmbedBatch returns one vector per input text, in order.
	EmbedBatch(ctx context.Context, texts []string) ([]types.Vector, error)

	// Dimension is the fixed vector width of this provider.
	Dimension() int

	// Provider names the implementation, for logging.
	Provider() string

	// Close releases any resources held by the provider.
	Close() error
}

// Cache is an LRU of vectors keyed by content hash, shared by providers to
// avoid re-embedding identical text.
type Cache struct {
	cache *lru.Cache[string, types.Vector]
}

// NewCache creates a cache holding up to maxLen vectors.
func NewCache(maxLen int) *Cache {
	if maxLen <= 0 {
		maxLen = 10000
	}
	cache, err := lru.New[string, types.Vector](maxLen)
	if err != nil {
		cache, _ = lru.New[string, types.Vector](10000)
	}
	return &Cache{cache: cache}
}

// Get returns a copy of the cached vector so caller mutations cannot reach
// the cached value.
func (c *Cache) Get(hash string) (types.Vector, bool) {
	v, ok := c.cache.Get(hash)
	if !ok {
		return nil, false
	}
	return v.Clone(), true
}

// Set stores a vector; LRU eviction is automatic at capacity.
func (c *Cache) Set(hash string, v types.Vector) {
	c.cache.Add(hash, v.Clone())
}

// Len returns the current cache size.
func (c *Cache) Len() int {
	return c.cache.Len()
}

// Purge empties the cache.
func (c *Cache) Purge() {
	c.cache.Purge()
}

// CacheKey computes the SHA-256 hex digest used to key the cache.
func CacheKey(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
