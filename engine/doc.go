// Package engine implements the turn scheduler: the state machine that
// decides which agent runs next, feeds it the accumulated session context,
// merges validated results back into the session, and drives each story
// from outline entry to durably written artifact.
//
// A run proceeds phase by phase with no parallel agent calls within a
// phase: agent outputs depend on accumulated prior state, so sequencing is
// required for correctness. Cancellation is honored before every phase
// transition; already-written artifacts survive an abort.
package engine
