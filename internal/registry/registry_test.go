package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordChunksReturnsPrevious(t *testing.T) {
	r := New()

	prev := r.RecordChunks("a.go", []string{"a.go#function:B", "a.go#function:A"})
	assert.Nil(t, prev, "first record has no previous set")

	prev = r.RecordChunks("a.go", []string{"a.go#function:A"})
	assert.Equal(t, []string{"a.go#function:A", "a.go#function:B"}, prev, "previous set is returned sorted")

	assert.Equal(t, []string{"a.go#function:A"}, r.ChunksFor("a.go"))
}

func TestChunksForUnknownFile(t *testing.T) {
	r := New()
	assert.Nil(t, r.ChunksFor("missing.go"))
}

func TestRemoveFile(t *testing.T) {
	r := New()
	r.RecordChunks("a.go", []string{"a.go#function:F", "a.go#module:a"})

	removed := r.RemoveFile("a.go")
	assert.Equal(t, []string{"a.go#function:F", "a.go#module:a"}, removed)
	assert.Nil(t, r.ChunksFor("a.go"))

	assert.Nil(t, r.RemoveFile("a.go"), "second removal is a no-op")
}

func TestAllFilesSorted(t *testing.T) {
	r := New()
	r.RecordChunks("z.go", []string{"z.go#module:z"})
	r.RecordChunks("a.go", []string{"a.go#module:a"})
	r.RecordChunks("m.py", []string{"m.py#module:m"})

	assert.Equal(t, []string{"a.go", "m.py", "z.go"}, r.AllFiles())
}

func TestGetRecord(t *testing.T) {
	r := New()
	r.RecordChunks("a.go", []string{"a.go#function:F"})

	rec, ok := r.Get("a.go")
	require.True(t, ok)
	assert.Equal(t, "a.go", rec.FilePath)
	assert.Equal(t, []string{"a.go#function:F"}, rec.ChunkIDs)
	assert.False(t, rec.LastIndexedAt.IsZero())

	_, ok = r.Get("missing.go")
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	r := New()
	r.RecordChunks("a.go", []string{"a.go#function:F"})
	r.Clear()
	assert.Empty(t, r.AllFiles())
}
