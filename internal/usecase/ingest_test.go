package usecase

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"docqa/internal/adapter/embedding"
	"docqa/internal/adapter/index"
	"docqa/internal/adapter/loader"
	"docqa/internal/adapter/splitter"
	"docqa/internal/domain"
)

func writeDocs(t *testing.T, dir string, files map[string]string) []string {
	t.Helper()
	var paths []string
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, path)
	}
	return paths
}

func newPipeline(t *testing.T, location string) *IngestUseCase {
	t.Helper()
	split, err := splitter.New(100, 20)
	if err != nil {
		t.Fatal(err)
	}
	idx := index.New(embedding.NewMockEmbedder(8))
	return NewIngestUseCase(loader.New(loader.Options{}), split, idx, location, nil)
}

func TestIngestBuildsFreshIndex(t *testing.T) {
	dir := t.TempDir()
	location := filepath.Join(dir, "index.db")
	sources := writeDocs(t, dir, map[string]string{
		"a.txt": "retrieval augmented generation combines search and language models",
	})

	result, err := newPipeline(t, location).Ingest(sources)
	if err != nil {
		t.Fatal(err)
	}

	if result.DocumentsLoaded != 1 {
		t.Errorf("DocumentsLoaded = %d", result.DocumentsLoaded)
	}
	if result.ChunksCreated == 0 {
		t.Error("expected chunks to be created")
	}
	if result.Extended {
		t.Error("first ingest should build, not extend")
	}
	if _, err := os.Stat(location); err != nil {
		t.Errorf("index not persisted: %v", err)
	}
}

func TestIngestExtendsExistingIndex(t *testing.T) {
	dir := t.TempDir()
	location := filepath.Join(dir, "index.db")

	first := writeDocs(t, dir, map[string]string{"a.txt": "first document about vectors"})
	result, err := newPipeline(t, location).Ingest(first)
	if err != nil {
		t.Fatal(err)
	}
	firstChunks := result.Stats.Chunks

	second := writeDocs(t, dir, map[string]string{"b.txt": "second document about indexes"})
	result, err = newPipeline(t, location).Ingest(second)
	if err != nil {
		t.Fatal(err)
	}

	if !result.Extended {
		t.Error("second ingest should extend the existing index")
	}
	if result.Stats.Chunks <= firstChunks {
		t.Errorf("chunk count did not grow: %d -> %d", firstChunks, result.Stats.Chunks)
	}
	if result.Stats.Sources != 2 {
		t.Errorf("Sources = %d, want 2", result.Stats.Sources)
	}
}

func TestIngestNoChunksFails(t *testing.T) {
	dir := t.TempDir()
	location := filepath.Join(dir, "index.db")

	_, err := newPipeline(t, location).Ingest([]string{filepath.Join(dir, "missing.txt")})
	if !errors.Is(err, domain.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}
