package core

import "fmt"

// Role identifies one of the specialized agents participating in a run.
// The set is closed; the scheduler and the adapters reject unknown roles.
type Role int

const (
	// RolePlanner produces the high-level story arc for the whole series.
	RolePlanner Role = iota
	// RoleWorldBuilder establishes settings and locations shared by the series.
	RoleWorldBuilder
	// RoleMemoryKeeper summarizes finalized stories and flags continuity issues.
	RoleMemoryKeeper
	// RoleWriter drafts and revises story prose.
	RoleWriter
	// RoleEditor reviews drafts and returns actionable feedback.
	RoleEditor
	// RoleOutliner turns the arc and world material into a per-story outline.
	RoleOutliner
)

// Roles returns all known roles in scheduler invocation order.
func Roles() []Role {
	return []Role{RolePlanner, RoleWorldBuilder, RoleMemoryKeeper, RoleWriter, RoleEditor, RoleOutliner}
}

// String returns the canonical lower-snake name used in logs and prompts.
func (r Role) String() string {
	switch r {
	case RolePlanner:
		return "story_planner"
	case RoleWorldBuilder:
		return "world_builder"
	case RoleMemoryKeeper:
		return "memory_keeper"
	case RoleWriter:
		return "writer"
	case RoleEditor:
		return "editor"
	case RoleOutliner:
		return "outline_creator"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Valid reports whether r is one of the six known roles.
func (r Role) Valid() bool {
	return r >= RolePlanner && r <= RoleOutliner
}

// ParseRole maps a canonical role name back to its Role value.
func ParseRole(s string) (Role, error) {
	for _, r := range Roles() {
		if r.String() == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", s)
}
