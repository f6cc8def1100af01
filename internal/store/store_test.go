package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semscout/semscout/pkg/types"
)

func entry(id, filePath string, kind types.ChunkKind, vector types.Vector) types.IndexEntry {
	return types.IndexEntry{
		Chunk: types.Chunk{
			ID:       id,
			FilePath: filePath,
			Language: "go",
			Kind:     kind,
			Name:     id,
		},
		Vector:    vector,
		IndexedAt: time.Now(),
	}
}

func TestUpsertAndGet(t *testing.T) {
	s := New(3, nil)

	require.NoError(t, s.Upsert([]types.IndexEntry{
		entry("a.go#function:A", "a.go", types.ChunkFunction, types.Vector{1, 0, 0}),
	}))

	got, ok := s.Get("a.go#function:A")
	require.True(t, ok)
	assert.Equal(t, "a.go", got.Chunk.FilePath)

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestUpsertReplacesByID(t *testing.T) {
	s := New(2, nil)

	require.NoError(t, s.Upsert([]types.IndexEntry{
		entry("a.go#function:A", "a.go", types.ChunkFunction, types.Vector{1, 0}),
	}))
	require.NoError(t, s.Upsert([]types.IndexEntry{
		entry("a.go#function:A", "a.go", types.ChunkFunction, types.Vector{0, 1}),
	}))

	stats := s.Stats()
	assert.Equal(t, 1, stats.ChunkCount, "same ID must replace, not append")
	assert.Equal(t, 1, stats.FileCount)

	got, _ := s.Get("a.go#function:A")
	assert.Equal(t, types.Vector{0, 1}, got.Vector)
}

func TestUpsertDimensionMismatchRejectsWholeBatch(t *testing.T) {
	s := New(3, nil)

	err := s.Upsert([]types.IndexEntry{
		entry("a.go#function:A", "a.go", types.ChunkFunction, types.Vector{1, 0, 0}),
		entry("a.go#function:B", "a.go", types.ChunkFunction, types.Vector{1, 0}), // wrong width
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrDimensionMismatch)

	stats := s.Stats()
	assert.Zero(t, stats.ChunkCount, "no partial insert on rejection")
}

func TestUpsertClonesVectors(t *testing.T) {
	s := New(2, nil)
	v := types.Vector{1, 0}
	require.NoError(t, s.Upsert([]types.IndexEntry{
		entry("a.go#function:A", "a.go", types.ChunkFunction, v),
	}))

	v[0] = -99
	got, _ := s.Get("a.go#function:A")
	assert.Equal(t, float32(1), got.Vector[0], "caller mutation must not reach the store")
}

func TestSearchSelfSimilarity(t *testing.T) {
	s := New(3, nil)
	v := types.Vector{0.6, 0.8, 0}
	require.NoError(t, s.Upsert([]types.IndexEntry{
		entry("a.go#function:A", "a.go", types.ChunkFunction, v),
	}))

	results, err := s.Search(v, types.SearchOptions{TopK: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6, "a chunk is most similar to itself")
}

func TestSearchRankingAndTopK(t *testing.T) {
	s := New(2, nil)
	require.NoError(t, s.Upsert([]types.IndexEntry{
		entry("a.go#function:Close", "a.go", types.ChunkFunction, types.Vector{1, 0}),
		entry("a.go#function:Near", "a.go", types.ChunkFunction, types.Vector{0.9, 0.4359}),
		entry("a.go#function:Far", "a.go", types.ChunkFunction, types.Vector{0, 1}),
	}))

	results, err := s.Search(types.Vector{1, 0}, types.SearchOptions{TopK: 2})
	require.NoError(t, err)
	require.Len(t, results, 2, "topK bounds the result count")
	assert.Equal(t, "a.go#function:Close", results[0].Chunk.ID)
	assert.Equal(t, "a.go#function:Near", results[1].Chunk.ID)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestSearchTieBreaksByAscendingID(t *testing.T) {
	s := New(2, nil)
	// Identical vectors produce identical scores.
	require.NoError(t, s.Upsert([]types.IndexEntry{
		entry("z.go#function:Z", "z.go", types.ChunkFunction, types.Vector{1, 0}),
		entry("a.go#function:A", "a.go", types.ChunkFunction, types.Vector{1, 0}),
		entry("m.go#function:M", "m.go", types.ChunkFunction, types.Vector{1, 0}),
	}))

	results, err := s.Search(types.Vector{1, 0}, types.SearchOptions{TopK: 2})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a.go#function:A", results[0].Chunk.ID)
	assert.Equal(t, "m.go#function:M", results[1].Chunk.ID)
}

func TestSearchThresholdInclusive(t *testing.T) {
	s := New(2, nil)
	require.NoError(t, s.Upsert([]types.IndexEntry{
		entry("a.go#function:Exact", "a.go", types.ChunkFunction, types.Vector{1, 0}),
		entry("a.go#function:Ortho", "a.go", types.ChunkFunction, types.Vector{0, 1}),
	}))

	results, err := s.Search(types.Vector{1, 0}, types.SearchOptions{TopK: 10, Threshold: 1.0})
	require.NoError(t, err)
	require.Len(t, results, 1, "score exactly at the threshold is kept")
	assert.Equal(t, "a.go#function:Exact", results[0].Chunk.ID)
}

func TestSearchFilters(t *testing.T) {
	s := New(2, nil)
	entries := []types.IndexEntry{
		entry("a.go#function:A", "a.go", types.ChunkFunction, types.Vector{1, 0}),
		entry("a.go#method:B", "a.go", types.ChunkMethod, types.Vector{1, 0}),
		entry("b.py#function:C", "b.py", types.ChunkFunction, types.Vector{1, 0}),
	}
	entries[2].Chunk.Language = "python"
	require.NoError(t, s.Upsert(entries))

	query := types.Vector{1, 0}

	t.Run("by kind", func(t *testing.T) {
		results, err := s.Search(query, types.SearchOptions{TopK: 10, Kind: types.ChunkMethod})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "a.go#method:B", results[0].Chunk.ID)
	})

	t.Run("by language", func(t *testing.T) {
		results, err := s.Search(query, types.SearchOptions{TopK: 10, Language: "python"})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "b.py#function:C", results[0].Chunk.ID)
	})

	t.Run("by file path", func(t *testing.T) {
		results, err := s.Search(query, types.SearchOptions{TopK: 10, FilePath: "a.go"})
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("no match yields empty result", func(t *testing.T) {
		results, err := s.Search(query, types.SearchOptions{TopK: 10, Language: "rust"})
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestSearchInvalidOptions(t *testing.T) {
	s := New(2, nil)

	_, err := s.Search(types.Vector{1, 0}, types.SearchOptions{TopK: -3})
	assert.ErrorIs(t, err, types.ErrInvalidQuery)

	_, err = s.Search(types.Vector{1, 0, 0}, types.SearchOptions{})
	assert.ErrorIs(t, err, types.ErrDimensionMismatch)
}

func TestSearchEmptyStore(t *testing.T) {
	s := New(2, nil)
	results, err := s.Search(types.Vector{1, 0}, types.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDeleteByIDs(t *testing.T) {
	s := New(2, nil)
	require.NoError(t, s.Upsert([]types.IndexEntry{
		entry("a.go#function:A", "a.go", types.ChunkFunction, types.Vector{1, 0}),
		entry("a.go#function:B", "a.go", types.ChunkFunction, types.Vector{0, 1}),
	}))

	s.DeleteByIDs([]string{"a.go#function:A", "not-present"})

	stats := s.Stats()
	assert.Equal(t, 1, stats.ChunkCount)
	assert.Equal(t, 1, stats.FileCount, "file still owns one chunk")

	s.DeleteByIDs([]string{"a.go#function:B"})
	stats = s.Stats()
	assert.Zero(t, stats.ChunkCount)
	assert.Zero(t, stats.FileCount, "file leaves the census with its last chunk")
}

type staticLedger map[string][]string

func (l staticLedger) ChunksFor(filePath string) []string { return l[filePath] }

func TestDeleteByFile(t *testing.T) {
	ledger := staticLedger{"a.go": {"a.go#function:A", "a.go#function:B"}}
	s := New(2, ledger)
	require.NoError(t, s.Upsert([]types.IndexEntry{
		entry("a.go#function:A", "a.go", types.ChunkFunction, types.Vector{1, 0}),
		entry("a.go#function:B", "a.go", types.ChunkFunction, types.Vector{0, 1}),
		entry("b.go#function:C", "b.go", types.ChunkFunction, types.Vector{1, 0}),
	}))

	s.DeleteByFile("a.go")

	stats := s.Stats()
	assert.Equal(t, 1, stats.ChunkCount)
	assert.Equal(t, 1, stats.FileCount)
	_, ok := s.Get("b.go#function:C")
	assert.True(t, ok)
}

func TestClearRetainsDimension(t *testing.T) {
	s := New(4, nil)
	require.NoError(t, s.Upsert([]types.IndexEntry{
		entry("a.go#function:A", "a.go", types.ChunkFunction, types.Vector{1, 0, 0, 0}),
	}))

	s.Clear()

	stats := s.Stats()
	assert.Zero(t, stats.ChunkCount)
	assert.Zero(t, stats.FileCount)
	assert.Equal(t, 4, stats.Dimension)
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	const (
		writers   = 4
		perWriter = 50
		topK      = 5
		threshold = 0.5
	)

	upsertAll := func(s *Store) {
		var wg sync.WaitGroup
		for w := 0; w < writers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := 0; i < perWriter; i++ {
					id := fmt.Sprintf("f%d.go#function:F%d", w, i)
					assert.NoError(t, s.Upsert([]types.IndexEntry{
						entry(id, fmt.Sprintf("f%d.go", w), types.ChunkFunction, types.Vector{1, 0}),
					}))
				}
			}(w)
		}
		wg.Wait()
	}

	s := New(2, nil)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		upsertAll(s)
	}()

	// Every snapshot a reader sees mid-ingestion must already be well
	// formed: bounded, duplicate-free, fully populated, above threshold.
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				results, err := s.Search(types.Vector{1, 0}, types.SearchOptions{TopK: topK, Threshold: threshold})
				if !assert.NoError(t, err) {
					continue
				}
				assert.LessOrEqual(t, len(results), topK)
				seen := make(map[string]struct{}, len(results))
				for j, res := range results {
					assert.NotEmpty(t, res.Chunk.ID)
					assert.NotEmpty(t, res.Chunk.FilePath)
					assert.NotEmpty(t, res.Chunk.Name)
					assert.GreaterOrEqual(t, res.Score, float64(threshold))
					if j > 0 {
						assert.LessOrEqual(t, res.Score, results[j-1].Score)
					}
					_, dup := seen[res.Chunk.ID]
					assert.False(t, dup, "duplicate id %s in one result list", res.Chunk.ID)
					seen[res.Chunk.ID] = struct{}{}
				}
				_ = s.Stats()
			}
		}()
	}
	wg.Wait()

	// Once writers settle, the census matches a sequential replay of the
	// same upsert set.
	replay := New(2, nil)
	for w := 0; w < writers; w++ {
		for i := 0; i < perWriter; i++ {
			id := fmt.Sprintf("f%d.go#function:F%d", w, i)
			require.NoError(t, replay.Upsert([]types.IndexEntry{
				entry(id, fmt.Sprintf("f%d.go", w), types.ChunkFunction, types.Vector{1, 0}),
			}))
		}
	}
	assert.Equal(t, replay.Stats(), s.Stats())
}
