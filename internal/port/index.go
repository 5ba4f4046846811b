package port

import "docqa/internal/domain"

// Index owns an embedding function and a similarity structure over chunks.
// Build, Persist and Restore are separate and explicit: embedding is the
// dominant cost and must not be repeated on process restart when a valid
// persisted index is available.
type Index interface {
	// Build embeds the chunks and constructs the similarity structure.
	// Returns domain.ErrEmptyInput when chunks is empty.
	Build(chunks []domain.Chunk) error

	// Add appends chunks to an already built or restored index.
	// Returns domain.ErrNoIndex before Build/Restore.
	Add(chunks []domain.Chunk) error

	// Persist serializes the index to location. A concurrent Restore or
	// Exists observes either the previous complete state or the new one,
	// never a partial write. Returns domain.ErrNoIndex before Build/Restore.
	Persist(location string) error

	// Restore loads a persisted index. A missing location is a normal
	// outcome (first run) and returns (false, nil); only a corrupt or
	// unreadable existing location returns an error.
	Restore(location string) (bool, error)

	// Exists reports whether a persisted index is present at location
	// without loading it.
	Exists(location string) bool

	// Delete removes persisted state. Idempotent: deleting a missing
	// location is not an error.
	Delete(location string) error

	// Retrieve embeds the query and returns the k most similar chunks,
	// most similar first, ties broken by insertion order.
	Retrieve(query string, k int) ([]domain.ScoredChunk, error)

	// Stats summarizes the in-memory index contents.
	Stats() (domain.IndexStats, error)
}

// Retriever is the read-only slice of Index used at query time.
type Retriever interface {
	Retrieve(query string, k int) ([]domain.ScoredChunk, error)
}
