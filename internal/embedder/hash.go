package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/semscout/semscout/pkg/types"
)

// DefaultHashDimension is the vector width of the hash provider when none
// is configured.
const DefaultHashDimension = 256

// HashProvider generates deterministic pseudo-embeddings from the SHA-256
// digest of the text. It has no semantic quality but identical text always
// yields identical vectors, which is what tests and offline setups need.
type HashProvider struct {
	dimension int
	cache     *Cache
}

// NewHashProvider creates a hash provider. A nil cache disables caching.
func NewHashProvider(dimension int, cache *Cache) *HashProvider {
	if dimension <= 0 {
		dimension = DefaultHashDimension
	}
	return &HashProvider{dimension: dimension, cache: cache}
}

func (h *HashProvider) Embed(ctx context.Context, text string) (types.Vector, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrEmbedding, err)
	}

	key := CacheKey(text)
	if h.cache != nil {
		if v, ok := h.cache.Get(key); ok {
			return v, nil
		}
	}

	vector := make(types.Vector, h.dimension)
	seed := sha256.Sum256([]byte(text))
	block := seed
	for i := 0; i < h.dimension; i++ {
		off := (i * 4) % len(block)
		if i > 0 && off == 0 {
			// Re-hash to extend the byte stream past one digest.
			block = sha256.Sum256(block[:])
		}
		bits := binary.BigEndian.Uint32(block[off : off+4])
		vector[i] = (float32(bits)/float32(math.MaxUint32))*2 - 1
	}
	normalize(vector)

	if h.cache != nil {
		h.cache.Set(key, vector)
	}
	return vector, nil
}

func (h *HashProvider) EmbedBatch(ctx context.Context, texts []string) ([]types.Vector, error) {
	vectors := make([]types.Vector, len(texts))
	for i, text := range texts {
		v, err := h.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (h *HashProvider) Dimension() int {
	return h.dimension
}

func (h *HashProvider) Provider() string {
	return ProviderHash
}

func (h *HashProvider) Close() error {
	return nil
}

// normalize scales v to unit L2 norm in place; a zero vector is unchanged.
func normalize(v types.Vector) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
}
