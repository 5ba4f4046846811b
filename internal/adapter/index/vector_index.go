package index

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"docqa/internal/domain"
	"docqa/internal/port"
)

var (
	bucketEntries = []byte("entries")
	bucketMeta    = []byte("meta")
	keyModel      = []byte("model")
	keyDimension  = []byte("dimension")
)

// DefaultTopK is used when Retrieve is called with a non-positive k.
const DefaultTopK = 5

// VectorIndex owns an embedding function and a brute-force cosine
// similarity structure held in memory, persisted to a BoltDB file.
// Entries keep insertion order, which breaks similarity ties.
//
// Build/Add/Persist/Delete must not run concurrently with Retrieve;
// callers that rebuild while serving queries hold one handle per process
// and swap it atomically when idle.
type VectorIndex struct {
	embedder port.Embedder

	mu      sync.RWMutex
	entries []entry
	built   bool
}

type entry struct {
	Vector []float32    `json:"v"`
	Chunk  domain.Chunk `json:"c"`
}

// New creates an empty, unbuilt index bound to an embedder.
func New(embedder port.Embedder) *VectorIndex {
	return &VectorIndex{embedder: embedder}
}

// Build embeds the chunks and constructs the index. Each distinct chunk
// text is embedded exactly once per call.
func (x *VectorIndex) Build(chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return domain.ErrEmptyInput
	}

	entries, err := x.embedChunks(chunks)
	if err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.entries = entries
	x.built = true
	return nil
}

// Add appends chunks to an already built or restored index.
func (x *VectorIndex) Add(chunks []domain.Chunk) error {
	x.mu.RLock()
	built := x.built
	x.mu.RUnlock()
	if !built {
		return domain.ErrNoIndex
	}
	if len(chunks) == 0 {
		return nil
	}

	entries, err := x.embedChunks(chunks)
	if err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.entries = append(x.entries, entries...)
	return nil
}

// embedChunks embeds chunk texts, deduplicating so no text is embedded
// twice within one call.
func (x *VectorIndex) embedChunks(chunks []domain.Chunk) ([]entry, error) {
	seen := make(map[string]int, len(chunks))
	var unique []string
	for _, c := range chunks {
		if _, ok := seen[c.Text]; !ok {
			seen[c.Text] = len(unique)
			unique = append(unique, c.Text)
		}
	}

	vectors, err := x.embedder.Embed(unique)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(unique) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(unique))
	}

	entries := make([]entry, len(chunks))
	for i, c := range chunks {
		entries[i] = entry{
			Vector: vectors[seen[c.Text]],
			Chunk:  c,
		}
	}
	return entries, nil
}

// Retrieve embeds the query with the build-time embedder and returns the
// k most similar chunks, most similar first. Ties keep insertion order.
func (x *VectorIndex) Retrieve(query string, k int) ([]domain.ScoredChunk, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if !x.built {
		return nil, domain.ErrNoIndex
	}
	if k <= 0 {
		k = DefaultTopK
	}

	vectors, err := x.embedder.Embed([]string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedder returned no vector for query")
	}
	qv := vectors[0]

	scored := make([]domain.ScoredChunk, len(x.entries))
	for i, e := range x.entries {
		scored[i] = domain.ScoredChunk{
			Chunk: e.Chunk,
			Score: cosineSimilarity(qv, e.Vector),
		}
	}

	// Stable sort keeps insertion order between equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

// Persist writes the index to location. The file is written to a
// temporary sibling and renamed into place, so a concurrent Restore or
// Exists sees either the previous complete index or the new one.
func (x *VectorIndex) Persist(location string) error {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if !x.built {
		return domain.ErrNoIndex
	}

	if err := os.MkdirAll(filepath.Dir(location), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	tmp := location + ".tmp"
	if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear stale temp index: %w", err)
	}

	if err := x.writeBolt(tmp); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, location); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move index into place: %w", err)
	}
	return nil
}

func (x *VectorIndex) writeBolt(path string) error {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to open temp index: %w", err)
	}
	defer db.Close()

	return db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}
		if err := meta.Put(keyModel, []byte(x.embedder.ModelName())); err != nil {
			return err
		}
		dim := make([]byte, 8)
		binary.BigEndian.PutUint64(dim, uint64(x.embedder.Dimension()))
		if err := meta.Put(keyDimension, dim); err != nil {
			return err
		}

		b, err := tx.CreateBucketIfNotExists(bucketEntries)
		if err != nil {
			return err
		}
		for i, e := range x.entries {
			key := make([]byte, 8)
			binary.BigEndian.PutUint64(key, uint64(i))
			data, err := json.Marshal(e)
			if err != nil {
				return err
			}
			if err := b.Put(key, data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Restore loads a persisted index. A missing location is a normal
// first-run outcome and returns (false, nil).
func (x *VectorIndex) Restore(location string) (bool, error) {
	if _, err := os.Stat(location); os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("failed to stat index: %w", err)
	}

	db, err := bbolt.Open(location, 0600, &bbolt.Options{
		ReadOnly: true,
		Timeout:  time.Second,
	})
	if err != nil {
		return false, fmt.Errorf("failed to open index at %s: %w", location, err)
	}
	defer db.Close()

	var entries []entry
	err = db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if meta == nil {
			return fmt.Errorf("index is missing its meta bucket")
		}
		if model := string(meta.Get(keyModel)); model != x.embedder.ModelName() {
			return fmt.Errorf("index was built with embedding model %q, current model is %q", model, x.embedder.ModelName())
		}

		b := tx.Bucket(bucketEntries)
		if b == nil {
			return fmt.Errorf("index is missing its entries bucket")
		}
		// Keys are big-endian sequence numbers, so ForEach preserves
		// insertion order.
		return b.ForEach(func(k, v []byte) error {
			var e entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("corrupt index entry: %w", err)
			}
			entries = append(entries, e)
			return nil
		})
	})
	if err != nil {
		return false, err
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.entries = entries
	x.built = true
	return true, nil
}

// Exists reports whether a persisted index is present at location.
func (x *VectorIndex) Exists(location string) bool {
	info, err := os.Stat(location)
	return err == nil && !info.IsDir()
}

// Delete removes the persisted index. Deleting a missing location is not
// an error.
func (x *VectorIndex) Delete(location string) error {
	if err := os.Remove(location); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete index: %w", err)
	}
	// A stale temp file from an interrupted persist goes with it.
	if err := os.Remove(location + ".tmp"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete temp index: %w", err)
	}
	return nil
}

// Stats summarizes the in-memory index.
func (x *VectorIndex) Stats() (domain.IndexStats, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if !x.built {
		return domain.IndexStats{}, domain.ErrNoIndex
	}

	sources := make(map[string]struct{})
	for _, e := range x.entries {
		sources[e.Chunk.Metadata.Source] = struct{}{}
	}

	return domain.IndexStats{
		Chunks:    len(x.entries),
		Sources:   len(sources),
		Dimension: x.embedder.Dimension(),
		Model:     x.embedder.ModelName(),
	}, nil
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
