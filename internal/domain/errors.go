package domain

import (
	"errors"
	"fmt"
)

// ErrIndexNotInitialized is returned when search runs before any successful
// store. It signals a sequencing error, not an empty knowledge base.
var ErrIndexNotInitialized = errors.New("vector index not initialized")

// ErrNoContent is returned when ingestion yields no usable text.
var ErrNoContent = errors.New("no content extracted from source")

// DimensionMismatchError reports an embedding whose dimension does not match
// the index.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: want %d, got %d", e.Want, e.Got)
}
