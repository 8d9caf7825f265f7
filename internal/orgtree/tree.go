package orgtree

// TreeNode is a value copy of one node and its subtree, used for rendering.
type TreeNode struct {
	ID          uint       `json:"id"`
	ParentID    *uint      `json:"parentId"`
	Name        string     `json:"name"`
	Level       int        `json:"level"`
	Status      string     `json:"status"`
	Description string     `json:"description"`
	Children    []TreeNode `json:"children"`
}

// Tree returns the forest as nested values. Nodes unreachable from a root
// (cycles) are left out; see Diagnostics.
func (f *Forest) Tree() []TreeNode {
	out := make([]TreeNode, 0, len(f.roots))
	for _, r := range f.roots {
		out = append(out, f.subtree(r))
	}

	return out
}

// Subtree returns the subtree rooted at id.
func (f *Forest) Subtree(id uint) (TreeNode, bool) {
	i, ok := f.index[id]
	if !ok || f.nodes[i].Depth == 0 {
		return TreeNode{}, false
	}

	return f.subtree(i), true
}

func (f *Forest) subtree(i int) TreeNode {
	n := f.nodes[i]

	t := TreeNode{
		ID:          n.ID,
		ParentID:    n.ParentID,
		Name:        n.Name,
		Level:       n.Depth,
		Status:      n.Status,
		Description: n.Description,
		Children:    make([]TreeNode, 0, len(n.children)),
	}

	for _, c := range n.children {
		t.Children = append(t.Children, f.subtree(c))
	}

	return t
}
