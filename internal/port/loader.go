package port

import "docqa/internal/domain"

// Loader converts heterogeneous sources (URLs, text files, PDF files,
// directories of PDFs) into documents. Per-source failures are logged and
// skipped; Load never fails as a whole, it only returns fewer documents.
type Loader interface {
	Load(sources []string) []domain.Document
}

// Splitter cuts documents into bounded, overlapping chunks, copying each
// document's metadata onto every chunk derived from it. Deterministic.
type Splitter interface {
	Split(docs []domain.Document) []domain.Chunk
}
