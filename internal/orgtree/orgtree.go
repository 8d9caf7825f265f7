// Package orgtree builds the organization forest from flat parent-pointer records.
//
// Nodes live in a flat arena indexed by position; parent and children links are
// arena indices. A built Forest is never mutated, so one snapshot can be shared by
// concurrent readers while a newer one is being built.
package orgtree

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

const noParent = -1

var (
	// ErrCyclicHierarchy is returned when a traversal revisits a node before reaching a root.
	ErrCyclicHierarchy = errors.New("organization hierarchy is malformed")

	// ErrUnknownOrganization is returned when an id is not part of the forest.
	ErrUnknownOrganization = errors.New("unknown organization")
)

// Record is the flat input shape of one organization.
type Record struct {
	ID          uint
	ParentID    *uint
	Name        string
	Level       int
	Status      string
	Description string
}

// Node is an arena entry.
type Node struct {
	Record

	// Depth is recomputed from the parent chain (roots are 1). Zero means the node
	// is not reachable from any root because it sits on or below a cycle.
	Depth int

	parent   int
	children []int
}

// Forest is an immutable organization forest.
type Forest struct {
	nodes       []Node
	index       map[uint]int
	roots       []int
	diagnostics []Diagnostic
}

// Build converts records into a forest.
//
// Duplicate ids: the last record wins and the earlier ones are dropped entirely.
// Records whose parent is missing become roots. Children and roots keep input order.
func Build(records []Record) *Forest {
	f := &Forest{
		index: make(map[uint]int, len(records)),
	}

	// pass 1: id -> winning record position
	winner := make(map[uint]int, len(records))

	for i, rec := range records {
		if prev, dup := winner[rec.ID]; dup {
			f.addDiagnostic(KindDuplicateID, rec.ID,
				fmt.Sprintf("record at position %d replaces record at position %d", i, prev))
		}

		winner[rec.ID] = i
	}

	f.nodes = make([]Node, 0, len(winner))

	for i, rec := range records {
		if winner[rec.ID] != i {
			continue
		}

		f.index[rec.ID] = len(f.nodes)
		f.nodes = append(f.nodes, Node{Record: rec, parent: noParent})
	}

	// pass 2: link parents
	for i := range f.nodes {
		n := &f.nodes[i]

		if n.ParentID == nil {
			f.roots = append(f.roots, i)
			continue
		}

		p, ok := f.index[*n.ParentID]
		if !ok {
			f.roots = append(f.roots, i)
			f.addDiagnostic(KindDanglingParent, n.ID,
				fmt.Sprintf("parent %d does not exist", *n.ParentID))

			log.Warn().Uint("organization_id", n.ID).Uint("parent_id", *n.ParentID).
				Msg("organization references a nonexistent parent")

			continue
		}

		n.parent = p
		f.nodes[p].children = append(f.nodes[p].children, i)
	}

	f.computeDepth()
	f.detectCycles()

	return f
}

// computeDepth assigns depths breadth-first from the roots.
func (f *Forest) computeDepth() {
	queue := make([]int, 0, len(f.nodes))

	for _, r := range f.roots {
		f.nodes[r].Depth = 1
		queue = append(queue, r)
	}

	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]

		for _, c := range f.nodes[i].children {
			if f.nodes[c].Depth != 0 {
				continue
			}

			f.nodes[c].Depth = f.nodes[i].Depth + 1
			queue = append(queue, c)
		}
	}

	for i := range f.nodes {
		n := &f.nodes[i]
		if n.Depth > 0 && n.Level > 0 && n.Level != n.Depth {
			f.addDiagnostic(KindLevelMismatch, n.ID,
				fmt.Sprintf("stored level %d, computed depth %d", n.Level, n.Depth))
		}
	}
}

// detectCycles records one diagnostic per cycle among nodes unreachable from a root.
func (f *Forest) detectCycles() {
	done := make([]bool, len(f.nodes))

	for start := range f.nodes {
		if f.nodes[start].Depth > 0 || done[start] {
			continue
		}

		onPath := make(map[int]struct{})
		i := start

		for i != noParent && !done[i] {
			if _, seen := onPath[i]; seen {
				f.reportCycle(i)
				break
			}

			onPath[i] = struct{}{}
			i = f.nodes[i].parent
		}

		for j := range onPath {
			done[j] = true
		}
	}
}

func (f *Forest) reportCycle(entry int) {
	members := []uint{f.nodes[entry].ID}

	for i := f.nodes[entry].parent; i != entry; i = f.nodes[i].parent {
		members = append(members, f.nodes[i].ID)
	}

	f.addDiagnostic(KindCyclicHierarchy, f.nodes[entry].ID, fmt.Sprintf("cycle through %v", members))

	log.Error().Uints("organization_ids", members).Msg("organization hierarchy contains a cycle")
}

// Len returns the number of organizations in the forest.
func (f *Forest) Len() int {
	return len(f.nodes)
}

// Roots returns root ids in input order.
func (f *Forest) Roots() []uint {
	out := make([]uint, len(f.roots))
	for i, r := range f.roots {
		out[i] = f.nodes[r].ID
	}

	return out
}

// Node returns a copy of the node for id.
func (f *Forest) Node(id uint) (Node, bool) {
	i, ok := f.index[id]
	if !ok {
		return Node{}, false
	}

	n := f.nodes[i]
	n.children = nil

	return n, true
}

// Children returns the direct children of id in input order.
func (f *Forest) Children(id uint) []uint {
	i, ok := f.index[id]
	if !ok {
		return nil
	}

	out := make([]uint, len(f.nodes[i].children))
	for k, c := range f.nodes[i].children {
		out[k] = f.nodes[c].ID
	}

	return out
}

// AncestorsOf returns the ancestor chain of id, nearest parent first.
// On a cycle the partial chain is returned together with ErrCyclicHierarchy.
func (f *Forest) AncestorsOf(id uint) ([]uint, error) {
	i, ok := f.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOrganization, id)
	}

	visited := map[int]struct{}{i: {}}
	out := make([]uint, 0)

	for p := f.nodes[i].parent; p != noParent; p = f.nodes[p].parent {
		if _, seen := visited[p]; seen {
			return out, fmt.Errorf("%w: ancestor walk of %d revisits %d", ErrCyclicHierarchy, id, f.nodes[p].ID)
		}

		visited[p] = struct{}{}
		out = append(out, f.nodes[p].ID)
	}

	return out, nil
}

// DescendantsOf returns every descendant of id breadth-first, excluding id itself.
// On a cycle the partial set is returned together with ErrCyclicHierarchy.
func (f *Forest) DescendantsOf(id uint) ([]uint, error) {
	i, ok := f.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOrganization, id)
	}

	visited := map[int]struct{}{i: {}}
	queue := append([]int(nil), f.nodes[i].children...)
	out := make([]uint, 0)

	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]

		if _, seen := visited[c]; seen {
			return out, fmt.Errorf("%w: descendant walk of %d revisits %d", ErrCyclicHierarchy, id, f.nodes[c].ID)
		}

		visited[c] = struct{}{}
		out = append(out, f.nodes[c].ID)
		queue = append(queue, f.nodes[c].children...)
	}

	return out, nil
}

// InScope reports whether target lies in the subtree rooted at scope (scope included).
func (f *Forest) InScope(scope, target uint) bool {
	if _, ok := f.index[target]; !ok {
		return false
	}

	if scope == target {
		return true
	}

	ancestors, err := f.AncestorsOf(target)
	if err != nil {
		return false
	}

	for _, a := range ancestors {
		if a == scope {
			return true
		}
	}

	return false
}

// Diagnostics returns data-quality findings recorded during Build.
func (f *Forest) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(f.diagnostics))
	copy(out, f.diagnostics)

	return out
}

func (f *Forest) addDiagnostic(kind DiagnosticKind, id uint, detail string) {
	f.diagnostics = append(f.diagnostics, Diagnostic{Kind: kind, OrganizationID: id, Detail: detail})
}
