package orgtree

// DiagnosticKind classifies a data-quality finding.
type DiagnosticKind string

const (
	// KindCyclicHierarchy marks an organization that is (transitively) its own ancestor.
	KindCyclicHierarchy DiagnosticKind = "CyclicHierarchy"
	// KindDanglingParent marks an organization whose parent id does not exist.
	KindDanglingParent DiagnosticKind = "DanglingParentReference"
	// KindDuplicateID marks an id that appeared more than once in the input.
	KindDuplicateID DiagnosticKind = "DuplicateID"
	// KindLevelMismatch marks a stored level that differs from the computed depth.
	KindLevelMismatch DiagnosticKind = "LevelMismatch"
)

// Diagnostic is a non-fatal finding surfaced to administrative tooling.
type Diagnostic struct {
	Kind           DiagnosticKind `json:"kind"`
	OrganizationID uint           `json:"organizationId"`
	Detail         string         `json:"detail"`
}

// Count returns the number of diagnostics of the given kind.
func (f *Forest) Count(kind DiagnosticKind) int {
	n := 0

	for _, d := range f.diagnostics {
		if d.Kind == kind {
			n++
		}
	}

	return n
}

// Malformed reports whether the forest contains a cycle.
func (f *Forest) Malformed() bool {
	return f.Count(KindCyclicHierarchy) > 0
}

// Summary is the hierarchy health overview shown to administrators.
type Summary struct {
	Organizations int                    `json:"organizations"`
	Roots         int                    `json:"roots"`
	Malformed     bool                   `json:"malformed"`
	Counts        map[DiagnosticKind]int `json:"counts"`
	Diagnostics   []Diagnostic           `json:"diagnostics"`
}

// Summarize returns the counts and findings of the forest.
func (f *Forest) Summarize() Summary {
	s := Summary{
		Organizations: f.Len(),
		Roots:         len(f.roots),
		Malformed:     f.Malformed(),
		Counts:        make(map[DiagnosticKind]int),
		Diagnostics:   f.Diagnostics(),
	}

	for _, d := range f.diagnostics {
		s.Counts[d.Kind]++
	}

	return s
}
