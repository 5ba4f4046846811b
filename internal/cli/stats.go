package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docqa/config"
	"docqa/internal/adapter/index"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	rootDir := GetRootDir()

	location := config.IndexPath(rootDir)
	if _, err := os.Stat(location); os.IsNotExist(err) {
		return fmt.Errorf("no index found. Run 'docqa ingest' first")
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	idx := index.New(embedder)
	restored, err := idx.Restore(location)
	if err != nil {
		return fmt.Errorf("failed to restore index: %w", err)
	}
	if !restored {
		return fmt.Errorf("no index found. Run 'docqa ingest' first")
	}

	stats, err := idx.Stats()
	if err != nil {
		return fmt.Errorf("failed to read index stats: %w", err)
	}

	fmt.Printf("Index statistics:\n")
	fmt.Printf("  Chunks:    %d\n", stats.Chunks)
	fmt.Printf("  Sources:   %d\n", stats.Sources)
	fmt.Printf("  Dimension: %d\n", stats.Dimension)
	fmt.Printf("  Model:     %s\n", stats.Model)
	fmt.Printf("\nIndex stored at: %s\n", location)
	return nil
}
