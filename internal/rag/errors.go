package rag

import (
	"errors"
	"fmt"
)

var (
	// ErrStorage wraps every failure reported by the underlying vector store,
	// including metadata the store refuses to accept.
	ErrStorage = errors.New("storage error")

	// ErrInvalidLimit is returned by Engine.Search for a non-positive limit.
	ErrInvalidLimit = errors.New("rag: search limit must be positive")
)

// MetadataError reports an extension metadata key that cannot be stored.
type MetadataError struct {
	// Key is the offending extension key.
	Key string
}

func (e *MetadataError) Error() string {
	if e.Key == "" {
		return "malformed metadata: empty extension key"
	}
	return fmt.Sprintf("malformed metadata: extension key %q is reserved", e.Key)
}

// storageErr tags err as an ErrStorage while keeping it unwrappable.
func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
