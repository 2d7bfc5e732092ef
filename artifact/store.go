package artifact

// Store persists named artifacts for one run.
//
// Contract:
//   - Persist is atomic: a reader never observes a partially written artifact
//   - Persisting identical content for a finalized artifact is a no-op
//   - Persisting different content for a finalized artifact returns
//     ErrImmutableArtifact
//   - Finalize marks an artifact immutable; finalizing a missing artifact
//     returns ErrNotFound
type Store interface {
	Persist(name string, data []byte) error
	Finalize(name string) error
	Get(name string) ([]byte, error)
	List() ([]string, error)
}
