package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"docqa/config"
	"docqa/internal/adapter/index"
	"docqa/internal/adapter/loader"
	"docqa/internal/adapter/splitter"
	"docqa/internal/usecase"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [source...]",
	Short: "Ingest documents into the index",
	Long: `Ingest documents into the persistent vector index. Sources can be
PDF files, plain text files, URLs, or directories (scanned for PDFs).
When an index already exists, new chunks are added to it.

Examples:
  docqa ingest paper.pdf                  # Ingest a single PDF
  docqa ingest ./papers/ notes.txt        # Ingest a directory and a text file
  docqa ingest https://example.com/post   # Ingest a web page`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	rootDir := GetRootDir()

	if err := config.EnsureDataDir(rootDir); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}
	progress := newProgressEmbedder(embedder)

	split, err := splitter.New(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	if err != nil {
		return fmt.Errorf("invalid chunking config: %w", err)
	}

	load := loader.New(loader.Options{
		ExtractImages: cfg.Ingest.ExtractImages,
		FetchTimeout:  time.Duration(cfg.Ingest.FetchTimeoutSecs) * time.Second,
		Logger:        slog.Default(),
	})

	location := config.IndexPath(rootDir)
	ingestUC := usecase.NewIngestUseCase(load, split, index.New(progress), location, slog.Default())

	fmt.Printf("Ingesting %d source(s)...\n", len(args))

	result, err := ingestUC.Ingest(args)
	progress.finish()
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("\nIngestion complete:\n")
	fmt.Printf("  Documents loaded: %d\n", result.DocumentsLoaded)
	fmt.Printf("  Chunks created:   %d\n", result.ChunksCreated)
	if result.Extended {
		fmt.Printf("  Index extended (total chunks: %d)\n", result.Stats.Chunks)
	} else {
		fmt.Printf("  Index built (total chunks: %d)\n", result.Stats.Chunks)
	}
	fmt.Printf("\nIndex stored at: %s\n", location)
	return nil
}
