package search

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semscout/semscout/internal/embedder"
	"github.com/semscout/semscout/internal/store"
	"github.com/semscout/semscout/pkg/types"
)

type failingEmbedder struct {
	embedder.Embedder
}

func (f *failingEmbedder) Embed(ctx context.Context, text string) (types.Vector, error) {
	return nil, fmt.Errorf("%w: provider down", types.ErrEmbedding)
}

func seedStore(t *testing.T, emb embedder.Embedder) *store.Store {
	t.Helper()
	st := store.New(emb.Dimension(), nil)
	texts := map[string]string{
		"auth.go#function:Login":  "func Login(user string) error { return checkPassword(user) }",
		"auth.go#function:Logout": "func Logout(user string) error { return dropSession(user) }",
		"math.go#function:Add":    "func Add(a, b int) int { return a + b }",
	}
	for id, text := range texts {
		v, err := emb.Embed(context.Background(), text)
		require.NoError(t, err)
		require.NoError(t, st.Upsert([]types.IndexEntry{{
			Chunk: types.Chunk{
				ID:       id,
				FilePath: "auth.go",
				Language: "go",
				Kind:     types.ChunkFunction,
				Content:  text,
			},
			Vector:    v,
			IndexedAt: time.Now(),
		}}))
	}
	return st
}

func TestSearchReturnsRankedResults(t *testing.T) {
	emb := embedder.NewHashProvider(64, nil)
	st := seedStore(t, emb)
	e := New(st, emb)

	// The hash provider maps identical text to identical vectors, so
	// querying with a chunk's exact content must rank that chunk first.
	results, err := e.Search(context.Background(),
		"func Login(user string) error { return checkPassword(user) }",
		types.SearchOptions{TopK: 3})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "auth.go#function:Login", results[0].Chunk.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)

	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i].Score, results[i-1].Score)
	}
}

func TestSearchEmptyQueryAllowed(t *testing.T) {
	emb := embedder.NewHashProvider(64, nil)
	st := seedStore(t, emb)
	e := New(st, emb)

	results, err := e.Search(context.Background(), "", types.SearchOptions{TopK: 2})
	require.NoError(t, err, "empty query text embeds like any other text")
	assert.Len(t, results, 2)
}

func TestSearchInvalidOptionsRejectedBeforeEmbedding(t *testing.T) {
	emb := &failingEmbedder{}
	st := store.New(4, nil)
	e := New(st, emb)

	_, err := e.Search(context.Background(), "query", types.SearchOptions{TopK: -1})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidQuery, "option validation runs before any provider call")
}

func TestSearchEmbeddingFailurePropagates(t *testing.T) {
	inner := embedder.NewHashProvider(64, nil)
	st := seedStore(t, inner)
	e := New(st, &failingEmbedder{Embedder: inner})

	results, err := e.Search(context.Background(), "query", types.SearchOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrEmbedding)
	assert.Nil(t, results, "no partial result list on failure")
}

func TestSearchEmptyIndex(t *testing.T) {
	emb := embedder.NewHashProvider(64, nil)
	st := store.New(64, nil)
	e := New(st, emb)

	results, err := e.Search(context.Background(), "anything", types.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)
}
