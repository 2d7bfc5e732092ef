// Package core defines the shared vocabulary of the StoryMesh orchestration
// loop: agent roles, scheduler phases, the mutable Session that accumulates
// run state, story drafts with their lifecycle status, and the immutable
// request/response and validation value types exchanged between the turn
// scheduler, agent adapters and the retry gate.
//
// Higher-level packages (agent, gate, engine, session) depend on core; core
// depends on nothing but the standard library. Keeping the vocabulary here
// avoids import cycles between the orchestration packages.
package core
