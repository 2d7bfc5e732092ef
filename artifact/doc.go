// Package artifact persists run output: the outline and the per-story text
// files. Stores write atomically (temp file + rename) so a crash mid-write
// never corrupts an existing artifact, and enforce immutability of finalized
// artifacts: re-persisting identical content is a no-op, different content
// is rejected with ErrImmutableArtifact.
//
// FileStore is the durable implementation writing plain text files to the
// configured output directory; InMemoryStore backs tests.
package artifact
