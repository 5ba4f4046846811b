package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"docqa/config"
	"docqa/internal/adapter/embedding"
	"docqa/internal/adapter/index"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete the index",
	Long:  `Delete the persistent index. Purging a missing index is not an error.`,
	RunE:  runPurge,
}

func init() {
	rootCmd.AddCommand(purgeCmd)
}

func runPurge(cmd *cobra.Command, args []string) error {
	location := config.IndexPath(GetRootDir())

	// Deleting files needs no embedding backend.
	idx := index.New(embedding.NewMockEmbedder(1))
	if err := idx.Delete(location); err != nil {
		return fmt.Errorf("failed to delete index: %w", err)
	}

	fmt.Printf("Index deleted: %s\n", location)
	return nil
}
