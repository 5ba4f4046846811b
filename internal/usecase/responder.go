package usecase

import (
	"fmt"
	"log/slog"
	"strings"

	"docqa/internal/domain"
	"docqa/internal/port"
)

const (
	toolIndexSearch = "index_search"
	toolWebSearch   = "web_search"

	// noAnswer is returned when the model finishes without producing text.
	noAnswer = "No answer found."

	systemPrompt = `You are a helpful assistant that answers questions about documents.

You have two tools:
- index_search: searches the user's ingested documents. Always prefer this tool for questions about the documents.
- web_search: searches the web. Use it only for general knowledge or current events the documents cannot cover.

Call a tool when you need information. When you have enough information, respond with the final answer directly and do not call any more tools.`

	wrapUpPrompt = "Answer now using the information gathered so far. Do not call any more tools."
)

// Responder runs the bounded tool-calling loop that turns a question into
// an answer, consulting the document index and the web as the model asks.
type Responder struct {
	chat      port.ChatModel
	retriever port.Retriever
	searcher  port.WebSearcher
	maxSteps  int
	toolTopK  int
	webMax    int
	logger    *slog.Logger
}

func NewResponder(
	chat port.ChatModel,
	retriever port.Retriever,
	searcher port.WebSearcher,
	maxSteps, toolTopK, webMax int,
	logger *slog.Logger,
) *Responder {
	if maxSteps <= 0 {
		maxSteps = 6
	}
	if toolTopK <= 0 {
		toolTopK = 8
	}
	if webMax <= 0 {
		webMax = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{
		chat:      chat,
		retriever: retriever,
		searcher:  searcher,
		maxSteps:  maxSteps,
		toolTopK:  toolTopK,
		webMax:    webMax,
		logger:    logger,
	}
}

var toolSpecs = []port.ToolSpec{
	{Name: toolIndexSearch, Description: "Search the ingested documents for passages relevant to the query."},
	{Name: toolWebSearch, Description: "Search the web for general knowledge or current information."},
}

// Respond runs up to maxSteps tool rounds and returns the final answer and
// the trace of tool calls that produced it. A model error aborts the loop;
// a tool error is reported back to the model as the tool's output. A panic
// inside the loop degrades to the no-answer sentinel.
func (r *Responder) Respond(question string) (answer string, trace []domain.ToolCall, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("responder loop panicked", "panic", rec)
			answer, err = noAnswer, nil
		}
	}()

	turns := []port.Turn{{Role: "user", Content: question}}

	for step := 0; step < r.maxSteps; step++ {
		decision, err := r.chat.Decide(systemPrompt, turns, toolSpecs)
		if err != nil {
			return "", trace, fmt.Errorf("failed to generate response: %w", err)
		}

		if decision.Tool == "" {
			return finalAnswer(decision.Answer), trace, nil
		}

		output := r.runTool(decision.Tool, decision.Input)
		r.logger.Debug("tool call", "step", step, "tool", decision.Tool, "input", decision.Input)

		trace = append(trace, domain.ToolCall{
			Tool:   decision.Tool,
			Input:  decision.Input,
			Output: output,
		})
		turns = append(turns,
			port.Turn{Role: "assistant", Tool: decision.Tool, Input: decision.Input, CallID: decision.CallID},
			port.Turn{Role: "tool", Content: output, CallID: decision.CallID},
		)
	}

	// Step budget exhausted: force a final answer with no tools on offer.
	turns = append(turns, port.Turn{Role: "user", Content: wrapUpPrompt})
	decision, err := r.chat.Decide(systemPrompt, turns, nil)
	if err != nil {
		return "", trace, fmt.Errorf("failed to generate response: %w", err)
	}
	return finalAnswer(decision.Answer), trace, nil
}

func (r *Responder) runTool(tool, input string) string {
	switch tool {
	case toolIndexSearch:
		return r.searchIndex(input)
	case toolWebSearch:
		return r.searchWeb(input)
	default:
		return fmt.Sprintf("unknown tool: %s", tool)
	}
}

func (r *Responder) searchIndex(query string) string {
	scored, err := r.retriever.Retrieve(query, r.toolTopK)
	if err != nil {
		return fmt.Sprintf("index_search failed: %v", err)
	}
	if len(scored) == 0 {
		return "No documents found"
	}

	parts := make([]string, 0, len(scored))
	for i, s := range scored {
		parts = append(parts, fmt.Sprintf("[%d] %s\n%s", i+1, s.Chunk.Metadata.Source, s.Chunk.Text))
	}
	return strings.Join(parts, "\n")
}

func (r *Responder) searchWeb(query string) string {
	results, err := r.searcher.Search(query, r.webMax)
	if err != nil {
		return fmt.Sprintf("web_search failed: %v", err)
	}
	if len(results) == 0 {
		return "No search results found"
	}

	lines := make([]string, 0, len(results))
	for _, res := range results {
		lines = append(lines, fmt.Sprintf("- %s: %s", res.Title, res.Content))
	}
	return strings.Join(lines, "\n")
}

func finalAnswer(answer string) string {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return noAnswer
	}
	return answer
}
