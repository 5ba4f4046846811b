package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"docqa/config"
	"docqa/internal/adapter/index"
	"docqa/internal/adapter/search"
	"docqa/internal/usecase"
)

var (
	askQuestion    string
	askShowSources bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask a question about the ingested documents",
	Long: `Ask a question. The answer is produced by an agentic loop that can
search the document index and, when the documents cannot answer, the web.

Examples:
  docqa ask -q "what are the key findings?"
  docqa ask -q "who wrote the paper?" --sources`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuestion, "question", "q", "", "question to ask (required)")
	askCmd.Flags().BoolVar(&askShowSources, "sources", false, "print the retrieved chunks")
	askCmd.MarkFlagRequired("question")
}

func runAsk(cmd *cobra.Command, args []string) error {
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

	chat, err := buildChatModel(cfg)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	searcher := search.NewTavilyClient(cfg.WebSearch.APIKeyEnv, cfg.WebSearch.BaseURL)

	resp := usecase.NewResponder(chat, idx, searcher,
		cfg.LLM.MaxSteps, cfg.Retrieve.ToolTopK, cfg.WebSearch.MaxResults, slog.Default())
	workflow := usecase.NewWorkflow(idx, resp, cfg.Retrieve.TopK, slog.Default())

	state := workflow.Run(askQuestion)

	fmt.Println(state.Answer)

	if askShowSources && len(state.RetrievedDocs) > 0 {
		fmt.Printf("\nSources:\n")
		for i, chunk := range state.RetrievedDocs {
			loc := chunk.Metadata.Source
			if chunk.Metadata.Page != nil {
				loc = fmt.Sprintf("%s (page %d)", loc, *chunk.Metadata.Page+1)
			}
			fmt.Printf("  [%d] %s\n", i+1, loc)
		}
	}
	return nil
}
