package embedder

import (
	"fmt"
	"os"
	"strings"

	"github.com/semscout/semscout/pkg/types"
)

// Provider names accepted by the factory.
const (
	ProviderHash   = "hash"
	ProviderOpenAI = "openai"
)

// Config selects and configures a provider.
type Config struct {
	Provider  string
	Model     string
	APIKey    string
	Dimension int // hash provider only
	CacheSize int // 0 disables caching
}

// New creates a provider from explicit configuration.
func New(cfg Config) (Embedder, error) {
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderHash, "":
		return NewHashProvider(cfg.Dimension, cache), nil
	case ProviderOpenAI:
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		return NewOpenAIProvider(apiKey, cfg.Model, cache)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", types.ErrEmbedding, cfg.Provider)
	}
}

// NewFromEnv creates a provider from the environment: an explicit
// SEMSCOUT_EMBEDDING_PROVIDER wins, otherwise OpenAI when OPENAI_API_KEY is
// set, otherwise the hash provider.
func NewFromEnv() (Embedder, error) {
	provider := os.Getenv("SEMSCOUT_EMBEDDING_PROVIDER")
	if provider == "" {
		if os.Getenv("OPENAI_API_KEY") != "" {
			provider = ProviderOpenAI
		} else {
			provider = ProviderHash
		}
	}
	return New(Config{Provider: provider, CacheSize: 10000})
}
