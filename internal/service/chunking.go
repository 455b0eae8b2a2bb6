package service

import (
	"iter"
	"unicode"

	"github.com/cloo-solutions/papyrai/internal/domain"
)

// ChunkConfig controls how normalized text is split into embedding windows.
type ChunkConfig struct {
	// WindowSize is the maximum chunk length in runes.
	WindowSize int
	// Overlap is how many runes consecutive chunks share.
	Overlap int
	// MinWindow bounds how far back a cut may move to find whitespace;
	// below it the chunk is hard-cut instead.
	MinWindow int
	// MaxChunks caps the number of chunks produced (0 = unlimited).
	MaxChunks int
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		WindowSize: 1000,
		Overlap:    200,
		MinWindow:  400,
		MaxChunks:  0,
	}
}

// Validate checks the window/overlap invariant.
func (c ChunkConfig) Validate() error {
	if c.WindowSize <= 0 || c.Overlap < 0 || c.Overlap >= c.WindowSize {
		return domain.ErrInvalidChunkConfig
	}
	return nil
}

// Span is one chunk window. Offsets are rune positions into the source text;
// consecutive spans overlap by up to Overlap runes so every rune of the
// source appears in at least one span.
type Span struct {
	Index int
	Start int
	End   int
	Text  string
}

// Chunks lazily splits text into overlapping windows, preferring whitespace
// boundaries. The sequence is finite and restartable; callers may stop
// consuming early without materializing the rest.
func Chunks(text string, cfg ChunkConfig) iter.Seq[Span] {
	return func(yield func(Span) bool) {
		if cfg.Validate() != nil {
			cfg = DefaultChunkConfig()
		}

		runes := []rune(text)
		if len(runes) == 0 {
			return
		}

		index := 0
		start := 0
		for start < len(runes) {
			if cfg.MaxChunks > 0 && index >= cfg.MaxChunks {
				return
			}

			end := start + cfg.WindowSize
			if end >= len(runes) {
				end = len(runes)
			} else {
				// Back up to the nearest whitespace so tokens are not split,
				// but never below the MinWindow tolerance.
				minCut := start + cfg.MinWindow
				if minCut >= end || minCut < start {
					minCut = start
				}
				for i := end; i > minCut; i-- {
					if unicode.IsSpace(runes[i-1]) {
						end = i
						break
					}
				}
			}

			if !yield(Span{Index: index, Start: start, End: end, Text: string(runes[start:end])}) {
				return
			}
			index++

			if end >= len(runes) {
				return
			}

			next := end - cfg.Overlap
			if next <= start {
				next = end
			}
			start = next
		}
	}
}

// ChunkText materializes all chunk texts; a convenience for callers that do
// not need spans or laziness.
func ChunkText(text string, cfg ChunkConfig) []string {
	var out []string
	for span := range Chunks(text, cfg) {
		out = append(out, span.Text)
	}
	return out
}
