package cli

import (
	"fmt"

	"github.com/schollz/progressbar/v3"

	"docqa/config"
	"docqa/internal/adapter/embedding"
	"docqa/internal/adapter/llm"
	"docqa/internal/port"
)

func buildEmbedder(cfg *config.Config) (port.Embedder, error) {
	e := cfg.Embedding
	switch e.Provider {
	case "openai":
		if e.BaseURL != "" {
			return embedding.NewOpenAICompatibleEmbedder(e.APIKeyEnv, e.Model, e.BaseURL, e.BatchSize)
		}
		return embedding.NewOpenAIEmbedder(e.APIKeyEnv, e.Model, e.BatchSize)
	case "ollama":
		return embedding.NewOllamaEmbedder(e.Model, e.BaseURL, e.BatchSize)
	case "mock":
		return embedding.NewMockEmbedder(e.Dimension), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", e.Provider)
	}
}

func buildChatModel(cfg *config.Config) (port.ChatModel, error) {
	l := cfg.LLM
	switch l.Provider {
	case "openai":
		if l.BaseURL != "" {
			return llm.NewOpenAICompatibleChat(l.APIKeyEnv, l.Model, l.BaseURL)
		}
		return llm.NewOpenAIChat(l.APIKeyEnv, l.Model)
	case "ollama":
		return llm.NewOllamaChat(l.Model, l.BaseURL)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", l.Provider)
	}
}

// progressEmbedder wraps an embedder and advances a spinner per embedded
// text so long ingestion runs show activity.
type progressEmbedder struct {
	inner port.Embedder
	bar   *progressbar.ProgressBar
}

func newProgressEmbedder(inner port.Embedder) *progressEmbedder {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Embedding"),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
	)
	return &progressEmbedder{inner: inner, bar: bar}
}

func (p *progressEmbedder) Embed(texts []string) ([][]float32, error) {
	vectors, err := p.inner.Embed(texts)
	if err == nil {
		p.bar.Add(len(texts))
	}
	return vectors, err
}

func (p *progressEmbedder) Dimension() int {
	return p.inner.Dimension()
}

func (p *progressEmbedder) ModelName() string {
	return p.inner.ModelName()
}

func (p *progressEmbedder) finish() {
	p.bar.Finish()
	fmt.Println()
}
