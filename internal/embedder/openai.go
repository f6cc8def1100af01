package embedder

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/semscout/semscout/pkg/types"
)

const (
	// DefaultOpenAIModel balances cost and quality for code search.
	DefaultOpenAIModel = "text-embedding-3-small"

	// MaxBatchSize caps one embeddings API call.
	MaxBatchSize = 100
)

// OpenAIProvider implements Embedder against the OpenAI embeddings API.
type OpenAIProvider struct {
	client    *openai.Client
	model     string
	dimension int
	cache     *Cache
}

// NewOpenAIProvider creates an OpenAI-backed provider. An empty model
// selects DefaultOpenAIModel. A nil cache disables caching.
func NewOpenAIProvider(apiKey, model string, cache *Cache) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key not set", types.ErrEmbedding)
	}
	if model == "" {
		model = DefaultOpenAIModel
	}

	dimension := 1536
	if model == "text-embedding-3-large" {
		dimension = 3072
	}

	return &OpenAIProvider{
		client:    openai.NewClient(apiKey),
		model:     model,
		dimension: dimension,
		cache:     cache,
	}, nil
}

func (o *OpenAIProvider) Embed(ctx context.Context, text string) (types.Vector, error) {
	key := CacheKey(text)
	if o.cache != nil {
		if v, ok := o.cache.Get(key); ok {
			return v, nil
		}
	}

	vectors, err := o.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (o *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([]types.Vector, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if len(texts) > MaxBatchSize {
		return nil, fmt.Errorf("%w: batch of %d exceeds limit %d", types.ErrEmbedding, len(texts), MaxBatchSize)
	}

	resp, err := retryWithBackoff(ctx, DefaultRetryConfig(), func() (openai.EmbeddingResponse, error) {
		return o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: openai.EmbeddingModel(o.model),
			Input: texts,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrEmbedding, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", types.ErrEmbedding, len(resp.Data), len(texts))
	}

	vectors := make([]types.Vector, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", types.ErrEmbedding, d.Index)
		}
		v := make(types.Vector, len(d.Embedding))
		copy(v, d.Embedding)
		normalize(v)
		vectors[d.Index] = v
	}

	if o.cache != nil {
		for i, text := range texts {
			o.cache.Set(CacheKey(text), vectors[i])
		}
	}
	return vectors, nil
}

func (o *OpenAIProvider) Dimension() int {
	return o.dimension
}

func (o *OpenAIProvider) Provider() string {
	return ProviderOpenAI
}

func (o *OpenAIProvider) Close() error {
	return nil
}
