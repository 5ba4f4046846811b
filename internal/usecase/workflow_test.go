package usecase

import (
	"errors"
	"strings"
	"testing"

	"docqa/internal/domain"
)

type stubRetriever struct {
	chunks []domain.ScoredChunk
	err    error
	gotK   int
}

func (s *stubRetriever) Retrieve(query string, k int) ([]domain.ScoredChunk, error) {
	s.gotK = k
	return s.chunks, s.err
}

type stubResponder struct {
	answer string
	trace  []domain.ToolCall
	err    error
	called bool
}

func (s *stubResponder) Respond(question string) (string, []domain.ToolCall, error) {
	s.called = true
	return s.answer, s.trace, s.err
}

func TestWorkflowRun(t *testing.T) {
	retriever := &stubRetriever{
		chunks: []domain.ScoredChunk{
			{Chunk: domain.Chunk{Text: "context", Metadata: domain.Metadata{Source: "a.txt"}}, Score: 0.9},
		},
	}
	resp := &stubResponder{answer: "the answer"}

	state := NewWorkflow(retriever, resp, 5, nil).Run("question")

	if state.Question != "question" {
		t.Errorf("Question = %q", state.Question)
	}
	if len(state.RetrievedDocs) != 1 || state.RetrievedDocs[0].Text != "context" {
		t.Errorf("RetrievedDocs = %+v", state.RetrievedDocs)
	}
	if state.Answer != "the answer" {
		t.Errorf("Answer = %q", state.Answer)
	}
	if retriever.gotK != 5 {
		t.Errorf("retriever called with k=%d, want 5", retriever.gotK)
	}
}

func TestWorkflowRetrievalFailureStillAnswers(t *testing.T) {
	retriever := &stubRetriever{err: errors.New("backend down")}
	resp := &stubResponder{answer: "best effort"}

	state := NewWorkflow(retriever, resp, 5, nil).Run("question")

	if len(state.RetrievedDocs) != 0 {
		t.Errorf("expected empty RetrievedDocs, got %d", len(state.RetrievedDocs))
	}
	if !resp.called {
		t.Error("responder should still run after a retrieval failure")
	}
	if state.Answer != "best effort" {
		t.Errorf("Answer = %q", state.Answer)
	}
}

func TestWorkflowBothStagesFail(t *testing.T) {
	retriever := &stubRetriever{err: errors.New("backend down")}
	resp := &stubResponder{err: errors.New("model offline")}

	state := NewWorkflow(retriever, resp, 5, nil).Run("question")

	if state.Answer == "" {
		t.Fatal("terminal state must carry a non-empty answer")
	}
	if !strings.Contains(state.Answer, "backend down") {
		t.Errorf("Answer should describe the failure, got %q", state.Answer)
	}
}

func TestWorkflowResponderFailure(t *testing.T) {
	retriever := &stubRetriever{}
	resp := &stubResponder{err: errors.New("model offline")}

	state := NewWorkflow(retriever, resp, 5, nil).Run("question")

	if !strings.HasPrefix(state.Answer, "Error generating answer: ") {
		t.Errorf("Answer = %q", state.Answer)
	}
}

func TestWorkflowStateIsFreshPerRun(t *testing.T) {
	retriever := &stubRetriever{
		chunks: []domain.ScoredChunk{{Chunk: domain.Chunk{Text: "c1"}}},
	}
	resp := &stubResponder{answer: "a1"}
	w := NewWorkflow(retriever, resp, 5, nil)

	first := w.Run("q1")
	retriever.chunks = nil
	second := w.Run("q2")

	if len(first.RetrievedDocs) != 1 || len(second.RetrievedDocs) != 0 {
		t.Errorf("state leaked between runs: first=%d second=%d",
			len(first.RetrievedDocs), len(second.RetrievedDocs))
	}
}
