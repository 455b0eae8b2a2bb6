// Package index provides the process-wide embedding index used for vector
// similarity retrieval.
package index

import (
	"math"
	"sort"
	"sync"
)

// ChunkMeta is the source information stored alongside each vector.
type ChunkMeta struct {
	DocumentID    string
	Filename      string
	SequenceIndex int
}

// Hit is one search result, ordered by descending cosine similarity.
type Hit struct {
	ChunkID string
	Score   float32
	Meta    ChunkMeta
}

// Stats describes the current index contents.
type Stats struct {
	ChunkCount    int
	DocumentCount int
	Sources       []string
}

type entry struct {
	chunkID string
	vector  []float32
	norm    float64
	meta    ChunkMeta
	seq     uint64
}

// Memory is an exact cosine-similarity index. Safe for concurrent use:
// readers proceed during writes under RWMutex and never observe a
// partially-written vector.
type Memory struct {
	mu      sync.RWMutex
	entries []entry
	byChunk map[string]int
	nextSeq uint64
}

// NewMemory creates an empty index.
func NewMemory() *Memory {
	return &Memory{byChunk: make(map[string]int)}
}

// Add stores a chunk vector. Vectors are copied so the caller cannot mutate
// indexed state; re-adding an existing chunk id replaces it in place.
func (m *Memory) Add(chunkID string, vector []float32, meta ChunkMeta) {
	if len(vector) == 0 {
		return
	}

	vec := make([]float32, len(vector))
	copy(vec, vector)

	m.mu.Lock()
	defer m.mu.Unlock()

	e := entry{
		chunkID: chunkID,
		vector:  vec,
		norm:    vectorNorm(vec),
		meta:    meta,
		seq:     m.nextSeq,
	}
	m.nextSeq++

	if pos, ok := m.byChunk[chunkID]; ok {
		m.entries[pos] = e
		return
	}
	m.byChunk[chunkID] = len(m.entries)
	m.entries = append(m.entries, e)
}

// Search returns up to k hits by descending cosine similarity. Ties are
// broken by insertion order so repeated identical queries are stable.
// An empty index yields no hits, not an error.
func (m *Memory) Search(query []float32, k int) []Hit {
	if k <= 0 || len(query) == 0 {
		return nil
	}

	queryNorm := vectorNorm(query)
	if queryNorm == 0 {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		hit Hit
		seq uint64
	}
	results := make([]scored, 0, len(m.entries))
	for _, e := range m.entries {
		if len(e.vector) != len(query) || e.norm == 0 {
			continue
		}
		var dot float64
		for i := range query {
			dot += float64(query[i]) * float64(e.vector[i])
		}
		score := float32(dot / (queryNorm * e.norm))
		results = append(results, scored{
			hit: Hit{ChunkID: e.chunkID, Score: score, Meta: e.meta},
			seq: e.seq,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].hit.Score != results[j].hit.Score {
			return results[i].hit.Score > results[j].hit.Score
		}
		return results[i].seq < results[j].seq
	})

	if len(results) > k {
		results = results[:k]
	}
	hits := make([]Hit, len(results))
	for i, r := range results {
		hits[i] = r.hit
	}
	return hits
}

// RemoveDocument evicts every chunk belonging to the document.
func (m *Memory) RemoveDocument(documentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.meta.DocumentID != documentID {
			kept = append(kept, e)
		}
	}
	m.entries = kept

	m.byChunk = make(map[string]int, len(m.entries))
	for i, e := range m.entries {
		m.byChunk[e.chunkID] = i
	}
}

// Stats reports index size and distinct sources.
func (m *Memory) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make(map[string]struct{})
	sources := make(map[string]struct{})
	for _, e := range m.entries {
		docs[e.meta.DocumentID] = struct{}{}
		if e.meta.Filename != "" {
			sources[e.meta.Filename] = struct{}{}
		}
	}

	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	return Stats{
		ChunkCount:    len(m.entries),
		DocumentCount: len(docs),
		Sources:       names,
	}
}

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
