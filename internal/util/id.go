package util

import "github.com/google/uuid"

// NewID returns a new random identifier for runs and sessions.
func NewID() string { return uuid.NewString() }
