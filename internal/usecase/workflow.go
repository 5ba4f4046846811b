package usecase

import (
	"log/slog"

	"docqa/internal/domain"
	"docqa/internal/port"
)

// responder generates an answer for a question, returning the tool-call
// trace alongside it.
type responder interface {
	Respond(question string) (string, []domain.ToolCall, error)
}

// Workflow is the two-stage query pipeline: retrieve the top chunks, then
// let the responder answer. The workflow always terminates with a
// non-empty answer; stage failures become answer text.
type Workflow struct {
	retriever port.Retriever
	responder responder
	topK      int
	logger    *slog.Logger
}

func NewWorkflow(retriever port.Retriever, responder responder, topK int, logger *slog.Logger) *Workflow {
	if topK <= 0 {
		topK = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Workflow{
		retriever: retriever,
		responder: responder,
		topK:      topK,
		logger:    logger,
	}
}

// Run executes both stages for a question. A retrieval failure leaves
// RetrievedDocs empty and records a placeholder answer, but the responder
// stage still runs and replaces it on success. The returned state always
// has a non-empty Answer.
func (w *Workflow) Run(question string) domain.State {
	state := domain.State{Question: question}

	scored, err := w.retriever.Retrieve(question, w.topK)
	if err != nil {
		w.logger.Error("retrieval failed", "error", err)
		state.Answer = "Error retrieving documents: " + err.Error()
	} else {
		for _, s := range scored {
			state.RetrievedDocs = append(state.RetrievedDocs, s.Chunk)
		}
	}

	answer, trace, err := w.responder.Respond(question)
	if err != nil {
		w.logger.Error("response generation failed", "error", err)
		if state.Answer == "" {
			state.Answer = "Error generating answer: " + err.Error()
		}
		return state
	}

	for _, call := range trace {
		w.logger.Debug("tool call", "tool", call.Tool, "input", call.Input)
	}
	state.Answer = answer
	return state
}
