package domain

// Metadata describes where a document came from. It is set by the loader
// and copied unmodified onto every chunk derived from the document.
type Metadata struct {
	Source     string `json:"source"`
	Page       *int   `json:"page,omitempty"`
	HasImages  bool   `json:"has_images"`
	ImageCount int    `json:"image_count"`
}

// Document is one loaded unit of text: a web page, a PDF page, or a text
// file. Immutable once created.
type Document struct {
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// Chunk is a bounded-length slice of a document's text. Chunks are the
// unit of embedding and retrieval.
type Chunk struct {
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// ScoredChunk pairs a chunk with its similarity to a query.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// State carries one question through the workflow. A fresh State is
// created per question and discarded after the terminal node returns.
// Answer is never empty once the workflow returns.
type State struct {
	Question      string
	RetrievedDocs []Chunk
	Answer        string
}

// ToolCall records one tool invocation made by the responder while
// answering a single question. The trace is not persisted.
type ToolCall struct {
	Tool   string
	Input  string
	Output string
}

// IndexStats summarizes the contents of a vector index.
type IndexStats struct {
	Chunks    int
	Sources   int
	Dimension int
	Model     string
}
