package types

import "fmt"

// DefaultTopK is the number of results returned when SearchOptions.TopK is
// unset.
const DefaultTopK = 5

// SearchOptions narrows and bounds a similarity search. Zero values mean
// "no filter"; TopK 0 means DefaultTopK; Threshold is an inclusive lower
// bound on the cosine score.
type SearchOptions struct {
	TopK      int       `json:"top_k"`
	Threshold float64   `json:"threshold"`
	Language  string    `json:"language,omitempty"`
	Kind      ChunkKind `json:"kind,omitempty"`
	FilePath  string    `json:"file_path,omitempty"`
}

// Normalize applies defaults and rejects malformed options.
func (o *SearchOptions) Normalize() error {
	if o.TopK < 0 {
		return fmt.Errorf("%w: topK must not be negative, got %d", ErrInvalidQuery, o.TopK)
	}
	if o.TopK == 0 {
		o.TopK = DefaultTopK
	}
	if o.Threshold < -1 || o.Threshold > 1 {
		return fmt.Errorf("%w: threshold must be within [-1, 1], got %g", ErrInvalidQuery, o.Threshold)
	}
	return nil
}

// SearchResult is one ranked hit.
type SearchResult struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// Stats describes the current index contents.
type Stats struct {
	ChunkCount int `json:"chunk_count"`
	FileCount  int `json:"file_count"`
	Dimension  int `json:"dimension"`
}

// BatchReport summarizes one batch-indexing run. A single file's failure
// never aborts the batch; it is counted and reported here instead.
type BatchReport struct {
	Succeeded          int      `json:"succeeded"`
	SkippedUnsupported int      `json:"skipped_unsupported"`
	SkippedTooLarge    int      `json:"skipped_too_large"`
	Failed             int      `json:"failed"`
	Errors             []string `json:"errors,omitempty"`
}
