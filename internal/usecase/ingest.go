package usecase

import (
	"fmt"
	"log/slog"

	"docqa/internal/domain"
	"docqa/internal/port"
)

// IngestUseCase loads sources, splits them into chunks, and folds the
// chunks into the persistent index.
type IngestUseCase struct {
	loader   port.Loader
	splitter port.Splitter
	index    port.Index
	location string
	logger   *slog.Logger
}

func NewIngestUseCase(
	loader port.Loader,
	splitter port.Splitter,
	index port.Index,
	location string,
	logger *slog.Logger,
) *IngestUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestUseCase{
		loader:   loader,
		splitter: splitter,
		index:    index,
		location: location,
		logger:   logger,
	}
}

// IngestResult contains the results of an ingestion run.
type IngestResult struct {
	DocumentsLoaded int
	ChunksCreated   int
	// Extended reports whether new chunks were added to an existing
	// index rather than building a fresh one.
	Extended bool
	Stats    domain.IndexStats
}

// Ingest runs the full pipeline: load, split, embed, persist. When an
// index already exists at the configured location the new chunks extend
// it; otherwise a fresh index is built.
func (u *IngestUseCase) Ingest(sources []string) (*IngestResult, error) {
	docs := u.loader.Load(sources)
	chunks := u.splitter.Split(docs)
	u.logger.Info("sources split", "documents", len(docs), "chunks", len(chunks))

	result := &IngestResult{
		DocumentsLoaded: len(docs),
		ChunksCreated:   len(chunks),
	}

	if u.index.Exists(u.location) {
		restored, err := u.index.Restore(u.location)
		if err != nil {
			return nil, fmt.Errorf("failed to restore index: %w", err)
		}
		if restored {
			result.Extended = true
			if err := u.index.Add(chunks); err != nil {
				return nil, fmt.Errorf("failed to extend index: %w", err)
			}
		}
	}
	if !result.Extended {
		if err := u.index.Build(chunks); err != nil {
			return nil, fmt.Errorf("failed to build index: %w", err)
		}
	}

	if err := u.index.Persist(u.location); err != nil {
		return nil, fmt.Errorf("failed to persist index: %w", err)
	}

	stats, err := u.index.Stats()
	if err != nil {
		return nil, fmt.Errorf("failed to read index stats: %w", err)
	}
	result.Stats = stats

	u.logger.Info("ingestion complete",
		"chunks", stats.Chunks, "sources", stats.Sources, "extended", result.Extended)
	return result, nil
}
