package index

import (
	"os"
	"path/filepath"
	"testing"

	"docqa/internal/domain"
)

// stubEmbedder returns canned vectors by exact text and counts how many
// times each text is embedded.
type stubEmbedder struct {
	vectors map[string][]float32
	calls   map[string]int
}

func newStubEmbedder(vectors map[string][]float32) *stubEmbedder {
	return &stubEmbedder{vectors: vectors, calls: make(map[string]int)}
}

func (s *stubEmbedder) Embed(texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		s.calls[t]++
		v, ok := s.vectors[t]
		if !ok {
			v = []float32{0, 0, 0}
		}
		out[i] = v
	}
	return out, nil
}

func (s *stubEmbedder) Dimension() int    { return 3 }
func (s *stubEmbedder) ModelName() string { return "stub" }

func mammalVectors() map[string][]float32 {
	return map[string][]float32{
		"cats are mammals":      {1, 0.9, 0},
		"dogs are mammals":      {0.9, 1, 0},
		"cars are vehicles":     {0, 0, 1},
		"tell me about mammals": {1, 1, 0},
	}
}

func chunksOf(texts ...string) []domain.Chunk {
	chunks := make([]domain.Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = domain.Chunk{Text: t, Metadata: domain.Metadata{Source: "test.txt"}}
	}
	return chunks
}

func TestBuildEmptyInput(t *testing.T) {
	x := New(newStubEmbedder(nil))
	if err := x.Build(nil); err != domain.ErrEmptyInput {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}

func TestOperationsBeforeBuild(t *testing.T) {
	x := New(newStubEmbedder(nil))

	if err := x.Add(chunksOf("a")); err != domain.ErrNoIndex {
		t.Errorf("Add: expected ErrNoIndex, got %v", err)
	}
	if err := x.Persist(filepath.Join(t.TempDir(), "index.db")); err != domain.ErrNoIndex {
		t.Errorf("Persist: expected ErrNoIndex, got %v", err)
	}
	if _, err := x.Retrieve("q", 5); err != domain.ErrNoIndex {
		t.Errorf("Retrieve: expected ErrNoIndex, got %v", err)
	}
	if _, err := x.Stats(); err != domain.ErrNoIndex {
		t.Errorf("Stats: expected ErrNoIndex, got %v", err)
	}
}

func TestMammalScenario(t *testing.T) {
	x := New(newStubEmbedder(mammalVectors()))
	if err := x.Build(chunksOf("cats are mammals", "dogs are mammals", "cars are vehicles")); err != nil {
		t.Fatal(err)
	}

	results, err := x.Retrieve("tell me about mammals", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	got := map[string]bool{}
	for _, r := range results {
		got[r.Chunk.Text] = true
	}
	if !got["cats are mammals"] || !got["dogs are mammals"] {
		t.Errorf("expected both mammal chunks, got %v", got)
	}
	if got["cars are vehicles"] {
		t.Error("vehicle chunk should be excluded")
	}
	if results[0].Score < results[1].Score {
		t.Error("results not ordered by non-increasing similarity")
	}
}

func TestRetrieveKBoundAndDeterminism(t *testing.T) {
	x := New(newStubEmbedder(mammalVectors()))
	if err := x.Build(chunksOf("cats are mammals", "dogs are mammals", "cars are vehicles")); err != nil {
		t.Fatal(err)
	}

	results, err := x.Retrieve("tell me about mammals", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) > 3 {
		t.Errorf("expected at most 3 results, got %d", len(results))
	}

	first, err := x.Retrieve("tell me about mammals", 3)
	if err != nil {
		t.Fatal(err)
	}
	second, err := x.Retrieve("tell me about mammals", 3)
	if err != nil {
		t.Fatal(err)
	}
	for i := range first {
		if first[i].Chunk.Text != second[i].Chunk.Text {
			t.Errorf("retrieval not deterministic at position %d", i)
		}
	}
}

func TestTiesKeepInsertionOrder(t *testing.T) {
	vectors := map[string][]float32{
		"first":  {1, 0, 0},
		"second": {1, 0, 0},
		"third":  {1, 0, 0},
		"query":  {1, 0, 0},
	}
	x := New(newStubEmbedder(vectors))
	if err := x.Build(chunksOf("first", "second", "third")); err != nil {
		t.Fatal(err)
	}

	results, err := x.Retrieve("query", 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"first", "second", "third"}
	for i, w := range want {
		if results[i].Chunk.Text != w {
			t.Errorf("position %d: expected %q, got %q", i, w, results[i].Chunk.Text)
		}
	}
}

func TestBuildDeduplicatesEmbeddings(t *testing.T) {
	emb := newStubEmbedder(mammalVectors())
	x := New(emb)

	err := x.Build(chunksOf("cats are mammals", "cats are mammals", "dogs are mammals"))
	if err != nil {
		t.Fatal(err)
	}
	if emb.calls["cats are mammals"] != 1 {
		t.Errorf("expected duplicate text embedded once, got %d", emb.calls["cats are mammals"])
	}

	stats, err := x.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Chunks != 3 {
		t.Errorf("duplicates are still separate entries, expected 3 chunks, got %d", stats.Chunks)
	}
}

func TestPersistRestoreRoundTrip(t *testing.T) {
	location := filepath.Join(t.TempDir(), "index.db")

	x := New(newStubEmbedder(mammalVectors()))
	if err := x.Build(chunksOf("cats are mammals", "dogs are mammals", "cars are vehicles")); err != nil {
		t.Fatal(err)
	}

	before, err := x.Retrieve("tell me about mammals", 3)
	if err != nil {
		t.Fatal(err)
	}

	if x.Exists(location) {
		t.Error("index should not exist before persist")
	}
	if err := x.Persist(location); err != nil {
		t.Fatal(err)
	}
	if !x.Exists(location) {
		t.Error("index should exist after persist")
	}

	restored := New(newStubEmbedder(mammalVectors()))
	found, err := restored.Restore(location)
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("expected index to be found")
	}

	after, err := restored.Retrieve("tell me about mammals", 3)
	if err != nil {
		t.Fatal(err)
	}

	if len(before) != len(after) {
		t.Fatalf("result count changed across round trip: %d vs %d", len(before), len(after))
	}
	for i := range before {
		if before[i].Chunk.Text != after[i].Chunk.Text {
			t.Errorf("ordering changed at position %d: %q vs %q", i, before[i].Chunk.Text, after[i].Chunk.Text)
		}
	}
}

func TestRestoreMissingLocation(t *testing.T) {
	x := New(newStubEmbedder(nil))
	found, err := x.Restore(filepath.Join(t.TempDir(), "absent.db"))
	if err != nil {
		t.Errorf("missing location should not error, got %v", err)
	}
	if found {
		t.Error("expected found=false for missing location")
	}
}

func TestRestoreCorruptLocation(t *testing.T) {
	location := filepath.Join(t.TempDir(), "index.db")
	if err := os.WriteFile(location, []byte("not a bolt database at all"), 0600); err != nil {
		t.Fatal(err)
	}

	x := New(newStubEmbedder(nil))
	if _, err := x.Restore(location); err == nil {
		t.Error("expected error for corrupt index file")
	}
}

func TestRestoreModelMismatch(t *testing.T) {
	location := filepath.Join(t.TempDir(), "index.db")

	x := New(newStubEmbedder(mammalVectors()))
	if err := x.Build(chunksOf("cats are mammals")); err != nil {
		t.Fatal(err)
	}
	if err := x.Persist(location); err != nil {
		t.Fatal(err)
	}

	other := New(&renamedEmbedder{newStubEmbedder(nil)})
	if _, err := other.Restore(location); err == nil {
		t.Error("expected error restoring with a different embedding model")
	}
}

type renamedEmbedder struct{ *stubEmbedder }

func (r *renamedEmbedder) ModelName() string { return "other-model" }

func TestAddThenRetrieve(t *testing.T) {
	x := New(newStubEmbedder(mammalVectors()))
	if err := x.Build(chunksOf("cars are vehicles")); err != nil {
		t.Fatal(err)
	}
	if err := x.Add(chunksOf("cats are mammals", "dogs are mammals")); err != nil {
		t.Fatal(err)
	}

	results, err := x.Retrieve("tell me about mammals", 2)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if r.Chunk.Text == "cars are vehicles" {
			t.Error("added mammal chunks should outrank the vehicle chunk")
		}
	}

	// Adding nothing is a no-op, not an error.
	if err := x.Add(nil); err != nil {
		t.Errorf("Add(nil) on built index: %v", err)
	}
}

func TestDeleteIdempotent(t *testing.T) {
	location := filepath.Join(t.TempDir(), "index.db")

	x := New(newStubEmbedder(mammalVectors()))
	if err := x.Build(chunksOf("cats are mammals")); err != nil {
		t.Fatal(err)
	}
	if err := x.Persist(location); err != nil {
		t.Fatal(err)
	}

	if err := x.Delete(location); err != nil {
		t.Fatal(err)
	}
	if x.Exists(location) {
		t.Error("index should not exist after delete")
	}
	if err := x.Delete(location); err != nil {
		t.Errorf("second delete should be a no-op, got %v", err)
	}
}

func TestStats(t *testing.T) {
	x := New(newStubEmbedder(mammalVectors()))
	chunks := []domain.Chunk{
		{Text: "cats are mammals", Metadata: domain.Metadata{Source: "animals.txt"}},
		{Text: "dogs are mammals", Metadata: domain.Metadata{Source: "animals.txt"}},
		{Text: "cars are vehicles", Metadata: domain.Metadata{Source: "machines.txt"}},
	}
	if err := x.Build(chunks); err != nil {
		t.Fatal(err)
	}

	stats, err := x.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Chunks != 3 {
		t.Errorf("expected 3 chunks, got %d", stats.Chunks)
	}
	if stats.Sources != 2 {
		t.Errorf("expected 2 sources, got %d", stats.Sources)
	}
	if stats.Model != "stub" {
		t.Errorf("expected model stub, got %s", stats.Model)
	}
}
