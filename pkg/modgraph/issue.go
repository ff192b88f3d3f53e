package modgraph

import "fmt"

// IssueKind classifies an advisory resolution issue.
type IssueKind int

const (
	// IssueMissingDependency flags a hard dependency whose target is not in
	// the pool.
	IssueMissingDependency IssueKind = iota

	// IssueVersionMismatch flags an installed dependency older than the
	// declared constraint.
	IssueVersionMismatch

	// IssueIncompatibility flags a declared incompatibility whose target is
	// present in the pool.
	IssueIncompatibility
)

// String returns the issue kind name.
func (k IssueKind) String() string {
	switch k {
	case IssueMissingDependency:
		return "missing-dependency"
	case IssueVersionMismatch:
		return "version-mismatch"
	case IssueIncompatibility:
		return "incompatibility"
	default:
		return "unknown"
	}
}

// Issue is one advisory problem found while building the constraint graph.
// Issues are collected, never thrown; the caller decides how to surface them.
type Issue struct {
	Kind     IssueKind
	ModuleID string // the module declaring the constraint
	TargetID string // the constraint's target
	Message  string
}

// String renders the issue for logs and CLI output.
func (i Issue) String() string {
	return fmt.Sprintf("%s: %s -> %s: %s", i.Kind, i.ModuleID, i.TargetID, i.Message)
}
