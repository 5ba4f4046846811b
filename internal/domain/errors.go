package domain

import "errors"

var (
	// ErrEmptyInput is returned when an index build is attempted with no
	// chunks. Building an index over nothing is a caller error, not a
	// degenerate empty index.
	ErrEmptyInput = errors.New("no chunks provided for indexing")

	// ErrNoIndex is returned when an index operation requires a built or
	// restored index and neither has happened yet.
	ErrNoIndex = errors.New("no index built or restored")
)
