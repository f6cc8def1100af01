package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchOptionsNormalize(t *testing.T) {
	t.Run("zero topK becomes default", func(t *testing.T) {
		opts := SearchOptions{}
		require.NoError(t, opts.Normalize())
		assert.Equal(t, DefaultTopK, opts.TopK)
	})

	t.Run("explicit topK is kept", func(t *testing.T) {
		opts := SearchOptions{TopK: 17}
		require.NoError(t, opts.Normalize())
		assert.Equal(t, 17, opts.TopK)
	})

	t.Run("negative topK is rejected", func(t *testing.T) {
		opts := SearchOptions{TopK: -1}
		err := opts.Normalize()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidQuery)
	})

	t.Run("threshold bounds are inclusive", func(t *testing.T) {
		low := SearchOptions{Threshold: -1}
		assert.NoError(t, low.Normalize())
		high := SearchOptions{Threshold: 1}
		assert.NoError(t, high.Normalize())
	})

	t.Run("threshold outside range is rejected", func(t *testing.T) {
		opts := SearchOptions{Threshold: 1.5}
		assert.ErrorIs(t, opts.Normalize(), ErrInvalidQuery)
		opts = SearchOptions{Threshold: -1.01}
		assert.ErrorIs(t, opts.Normalize(), ErrInvalidQuery)
	})
}
