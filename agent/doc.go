// Package agent wraps a single role behind the uniform Adapter contract the
// turn scheduler and retry gate work against: one model call per invocation,
// no hidden retries, a bounded context slice, and role-specific system
// instructions carrying the structural markers the validators check for.
package agent
