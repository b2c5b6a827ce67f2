package domain

// Kind classifies a node's role in the hierarchy.
type Kind string

const (
	// KindRoot is the single top of the tree.
	KindRoot Kind = "root"
	// KindBranch nodes may hold children.
	KindBranch Kind = "branch"
	// KindLeaf nodes are endpoints. Not structurally enforced.
	KindLeaf Kind = "leaf"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindRoot, KindBranch, KindLeaf:
		return true
	}
	return false
}

// Status is purely descriptive; no transitions are enforced.
type Status string

const (
	StatusActive       Status = "active"
	StatusExperimental Status = "experimental"
	StatusDeprecated   Status = "deprecated"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusExperimental, StatusDeprecated:
		return true
	}
	return false
}

// Node is one entry in the identifier tree.
//
// Nodes reachable from a published Snapshot are treated as immutable: every change
// goes through tree.AppendChild, which rebuilds the path to the parent and shares
// the untouched subtrees with the previous value.
type Node struct {
	ID          string   `json:"id" yaml:"id"`
	Identifier  string   `json:"identifier" yaml:"identifier"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Kind        Kind     `json:"kind" yaml:"kind"`
	Status      Status   `json:"status" yaml:"status"`
	UseCases    []string `json:"useCases,omitempty" yaml:"useCases,omitempty"`

	// Children keeps insertion order. The order decides the next trailing arc.
	Children []*Node `json:"children,omitempty" yaml:"children,omitempty"`
}

// HasChildren reports whether the node holds at least one child.
func (n *Node) HasChildren() bool {
	return n != nil && len(n.Children) > 0
}

// LastChild returns the most recently appended child, or nil.
func (n *Node) LastChild() *Node {
	if !n.HasChildren() {
		return nil
	}
	return n.Children[len(n.Children)-1]
}

// ShallowCopy returns a copy of n whose Children slice is a new backing array
// holding the same child pointers.
func (n *Node) ShallowCopy() *Node {
	if n == nil {
		return nil
	}
	cp := *n
	if n.UseCases != nil {
		cp.UseCases = append([]string(nil), n.UseCases...)
	}
	if n.Children != nil {
		cp.Children = make([]*Node, len(n.Children), len(n.Children)+1)
		copy(cp.Children, n.Children)
	}
	return &cp
}
