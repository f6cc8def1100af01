package store

import (
	"container/heap"

	"github.com/semscout/semscout/pkg/types"
)

// topK keeps the k best candidates seen so far in a bounded min-heap, with
// the current worst on top. Offering n candidates costs O(n log k).
type topK struct {
	k    int
	heap candidateHeap
}

func newTopK(k int) *topK {
	return &topK{k: k, heap: make(candidateHeap, 0, k)}
}

func (t *topK) offer(chunk types.Chunk, score float64) {
	if t.k <= 0 {
		return
	}
	c := candidate{chunk: chunk, score: score}
	if len(t.heap) < t.k {
		heap.Push(&t.heap, c)
		return
	}
	if t.heap[0].worseThan(c) {
		t.heap[0] = c
		heap.Fix(&t.heap, 0)
	}
}

// results drains the heap into a slice ordered by descending score, ties by
// ascending chunk ID.
func (t *topK) results() []types.SearchResult {
	out := make([]types.SearchResult, len(t.heap))
	for i := len(t.heap) - 1; i >= 0; i-- {
		c := heap.Pop(&t.heap).(candidate)
		out[i] = types.SearchResult{Chunk: c.chunk, Score: c.score}
	}
	return out
}

type candidate struct {
	chunk types.Chunk
	score float64
}

// worseThan orders candidates: lower score is worse; on equal scores the
// larger chunk ID is worse, so ties resolve to ascending ID.
func (c candidate) worseThan(other candidate) bool {
	if c.score != other.score {
		return c.score < other.score
	}
	return c.chunk.ID > other.chunk.ID
}

type candidateHeap []candidate

func (h candidateHeap) Len() int            { return len(h) }
func (h candidateHeap) Less(i, j int) bool  { return h[i].worseThan(h[j]) }
func (h candidateHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *candidateHeap) Push(x interface{}) { *h = append(*h, x.(candidate)) }

func (h *candidateHeap) Pop() interface{} {
	old := *h
	n := len(old)
	c := old[n-1]
	*h = old[:n-1]
	return c
}
