package artifact

import "fmt"

var (
	// ErrNotFound is returned when the named artifact does not exist in the
	// underlying store.
	ErrNotFound = fmt.Errorf("artifact not found")

	// ErrImmutableArtifact is returned when a caller attempts to persist
	// different content for an artifact that has been finalized.
	ErrImmutableArtifact = fmt.Errorf("artifact is finalized and immutable")
)
