package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunksShortTextSingleChunk(t *testing.T) {
	spans := collectSpans("hello world", ChunkConfig{WindowSize: 100, Overlap: 10, MinWindow: 20})
	require.Len(t, spans, 1)
	assert.Equal(t, "hello world", spans[0].Text)
	assert.Equal(t, 0, spans[0].Start)
	assert.Equal(t, 11, spans[0].End)
}

func TestChunksEmptyText(t *testing.T) {
	assert.Empty(t, collectSpans("", DefaultChunkConfig()))
}

func TestChunksFullCoverage(t *testing.T) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 60)
	cfg := ChunkConfig{WindowSize: 200, Overlap: 40, MinWindow: 80}

	spans := collectSpans(text, cfg)
	require.Greater(t, len(spans), 1)

	covered := make([]bool, len([]rune(text)))
	prevEnd := 0
	for _, s := range spans {
		assert.LessOrEqual(t, s.End-s.Start, cfg.WindowSize)
		// No gaps between consecutive spans
		assert.LessOrEqual(t, s.Start, prevEnd)
		prevEnd = s.End
		for i := s.Start; i < s.End; i++ {
			covered[i] = true
		}
	}
	for i, c := range covered {
		require.True(t, c, "rune %d not covered by any chunk", i)
	}
}

func TestChunksPreferWhitespaceBoundary(t *testing.T) {
	text := strings.Repeat("word ", 100)
	spans := collectSpans(text, ChunkConfig{WindowSize: 42, Overlap: 5, MinWindow: 10})

	for _, s := range spans[:len(spans)-1] {
		assert.True(t, strings.HasSuffix(s.Text, " "), "chunk %d cut mid-token: %q", s.Index, s.Text)
	}
}

func TestChunksHardCutWithoutWhitespace(t *testing.T) {
	text := strings.Repeat("x", 250)
	cfg := ChunkConfig{WindowSize: 100, Overlap: 20, MinWindow: 50}

	spans := collectSpans(text, cfg)
	require.NotEmpty(t, spans)
	assert.Len(t, spans[0].Text, 100)
	assert.Equal(t, 80, spans[1].Start)
}

func TestChunksEarlyStop(t *testing.T) {
	text := strings.Repeat("word ", 10_000)
	cfg := ChunkConfig{WindowSize: 50, Overlap: 10, MinWindow: 20}

	count := 0
	for range Chunks(text, cfg) {
		count++
		if count == 3 {
			break
		}
	}
	assert.Equal(t, 3, count)

	// Restartable: iterating again yields the same prefix
	first := collectSpans(text, cfg)
	second := collectSpans(text, cfg)
	require.Equal(t, len(first), len(second))
	assert.Equal(t, first[0], second[0])
}

func TestChunksMaxChunksCap(t *testing.T) {
	text := strings.Repeat("word ", 1000)
	cfg := ChunkConfig{WindowSize: 50, Overlap: 10, MinWindow: 20, MaxChunks: 4}
	assert.Len(t, collectSpans(text, cfg), 4)
}

func TestChunkConfigValidate(t *testing.T) {
	assert.NoError(t, ChunkConfig{WindowSize: 10, Overlap: 9, MinWindow: 5}.Validate())
	assert.Error(t, ChunkConfig{WindowSize: 10, Overlap: 10}.Validate())
	assert.Error(t, ChunkConfig{WindowSize: 0, Overlap: 0}.Validate())
	assert.Error(t, ChunkConfig{WindowSize: 10, Overlap: -1}.Validate())
}

func collectSpans(text string, cfg ChunkConfig) []Span {
	var spans []Span
	for s := range Chunks(text, cfg) {
		spans = append(spans, s)
	}
	return spans
}
