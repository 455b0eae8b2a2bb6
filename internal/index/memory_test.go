package index

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchEmptyIndex(t *testing.T) {
	m := NewMemory()
	assert.Empty(t, m.Search([]float32{1, 0}, 5))
}

func TestSearchOrdersByCosineSimilarity(t *testing.T) {
	m := NewMemory()
	m.Add("far", []float32{0, 1}, ChunkMeta{DocumentID: "d1"})
	m.Add("near", []float32{1, 0.1}, ChunkMeta{DocumentID: "d1"})
	m.Add("exact", []float32{2, 0}, ChunkMeta{DocumentID: "d2"})

	hits := m.Search([]float32{1, 0}, 3)
	require.Len(t, hits, 3)
	assert.Equal(t, "exact", hits[0].ChunkID)
	assert.Equal(t, "near", hits[1].ChunkID)
	assert.Equal(t, "far", hits[2].ChunkID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.InDelta(t, 0.0, hits[2].Score, 1e-6)
}

func TestSearchCosineRange(t *testing.T) {
	m := NewMemory()
	m.Add("opposite", []float32{-1, 0}, ChunkMeta{DocumentID: "d1"})

	hits := m.Search([]float32{1, 0}, 1)
	require.Len(t, hits, 1)
	assert.InDelta(t, -1.0, hits[0].Score, 1e-6)
}

func TestSearchStableTies(t *testing.T) {
	m := NewMemory()
	// Identical vectors: identical scores, insertion order must win
	m.Add("first", []float32{1, 1}, ChunkMeta{DocumentID: "d1"})
	m.Add("second", []float32{1, 1}, ChunkMeta{DocumentID: "d1"})
	m.Add("third", []float32{2, 2}, ChunkMeta{DocumentID: "d1"})

	for range 10 {
		hits := m.Search([]float32{1, 1}, 3)
		require.Len(t, hits, 3)
		assert.Equal(t, "first", hits[0].ChunkID)
		assert.Equal(t, "second", hits[1].ChunkID)
		assert.Equal(t, "third", hits[2].ChunkID)
	}
}

func TestSearchLimitsToK(t *testing.T) {
	m := NewMemory()
	for i := range 10 {
		m.Add(fmt.Sprintf("c%d", i), []float32{1, float32(i)}, ChunkMeta{DocumentID: "d1"})
	}
	assert.Len(t, m.Search([]float32{1, 0}, 4), 4)
	assert.Empty(t, m.Search([]float32{1, 0}, 0))
}

func TestSearchSkipsMismatchedDimensions(t *testing.T) {
	m := NewMemory()
	m.Add("short", []float32{1}, ChunkMeta{DocumentID: "d1"})
	m.Add("ok", []float32{1, 0}, ChunkMeta{DocumentID: "d1"})

	hits := m.Search([]float32{1, 0}, 5)
	require.Len(t, hits, 1)
	assert.Equal(t, "ok", hits[0].ChunkID)
}

func TestRemoveDocument(t *testing.T) {
	m := NewMemory()
	m.Add("a1", []float32{1, 0}, ChunkMeta{DocumentID: "doc-a", Filename: "a.csv"})
	m.Add("b1", []float32{1, 0}, ChunkMeta{DocumentID: "doc-b", Filename: "b.csv"})
	m.Add("a2", []float32{0, 1}, ChunkMeta{DocumentID: "doc-a", Filename: "a.csv"})

	m.RemoveDocument("doc-a")

	hits := m.Search([]float32{1, 0}, 10)
	require.Len(t, hits, 1)
	assert.Equal(t, "b1", hits[0].ChunkID)

	stats := m.Stats()
	assert.Equal(t, 1, stats.ChunkCount)
	assert.Equal(t, 1, stats.DocumentCount)
	assert.Equal(t, []string{"b.csv"}, stats.Sources)
}

func TestAddReplacesExistingChunk(t *testing.T) {
	m := NewMemory()
	m.Add("c1", []float32{1, 0}, ChunkMeta{DocumentID: "d1"})
	m.Add("c1", []float32{0, 1}, ChunkMeta{DocumentID: "d1"})

	assert.Equal(t, 1, m.Stats().ChunkCount)
	hits := m.Search([]float32{0, 1}, 1)
	require.Len(t, hits, 1)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
}

func TestAddCopiesVector(t *testing.T) {
	m := NewMemory()
	vec := []float32{1, 0}
	m.Add("c1", vec, ChunkMeta{DocumentID: "d1"})
	vec[0] = -1

	hits := m.Search([]float32{1, 0}, 1)
	require.Len(t, hits, 1)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
}

func TestConcurrentReadersDuringWrites(t *testing.T) {
	m := NewMemory()
	var wg sync.WaitGroup

	for w := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				id := fmt.Sprintf("w%d-c%d", w, i)
				m.Add(id, []float32{float32(i), 1}, ChunkMeta{DocumentID: fmt.Sprintf("doc-%d", w)})
			}
		}()
	}
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				for _, h := range m.Search([]float32{1, 1}, 5) {
					// A partially-written vector would produce a bogus score
					require.False(t, h.Score > 1.0001 || h.Score < -1.0001)
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 800, m.Stats().ChunkCount)
}
