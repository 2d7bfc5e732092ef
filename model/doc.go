// Package model defines the minimal interface StoryMesh requires from a text
// generation capability and a deterministic mock for tests. Provider
// implementations live in subpackages (openai, anthropic, azure) and adapt
// the normalized Request/Response structures to the vendor SDKs.
//
// The orchestration core treats a model as an opaque (prompt) -> text
// function with possible transport failure; it owns no protocol detail of
// the underlying service.
package model
