package tree

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/aretw0/oidtree/pkg/domain"
)

var identifierPattern = regexp.MustCompile(`^(\d+\.)+\d+$`)

// FindByID returns the first node in pre-order whose ID equals id, or nil.
func FindByID(root *domain.Node, id string) *domain.Node {
	return find(root, func(n *domain.Node) bool { return n.ID == id })
}

// FindByIdentifier returns the first node in pre-order whose Identifier equals identifier, or nil.
func FindByIdentifier(root *domain.Node, identifier string) *domain.Node {
	return find(root, func(n *domain.Node) bool { return n.Identifier == identifier })
}

func find(n *domain.Node, match func(*domain.Node) bool) *domain.Node {
	if n == nil {
		return nil
	}
	if match(n) {
		return n
	}
	for _, child := range n.Children {
		if found := find(child, match); found != nil {
			return found
		}
	}
	return nil
}

// NextChildIdentifier computes the identifier the next appended child of parent receives.
// A trailing arc that does not parse as an integer counts as 0.
func NextChildIdentifier(parent *domain.Node) string {
	if parent == nil {
		return ""
	}
	last := parent.LastChild()
	if last == nil {
		return parent.Identifier + ".1"
	}
	n, err := strconv.Atoi(domain.TrailingArc(last.Identifier))
	if err != nil {
		n = 0
	}
	return parent.Identifier + "." + strconv.Itoa(n+1)
}

// Search collects, in pre-order, every node whose name, description or id contains
// query case-insensitively, or whose identifier contains query verbatim.
// The empty query matches every node. The result is never nil.
func Search(root *domain.Node, query string) []*domain.Node {
	results := []*domain.Node{}
	lower := strings.ToLower(query)
	Walk(root, func(n *domain.Node, _ int) bool {
		if matches(n, query, lower) {
			results = append(results, n)
		}
		return true
	})
	return results
}

func matches(n *domain.Node, query, lower string) bool {
	return strings.Contains(strings.ToLower(n.Name), lower) ||
		strings.Contains(strings.ToLower(n.Description), lower) ||
		strings.Contains(n.Identifier, query) ||
		strings.Contains(strings.ToLower(n.ID), lower)
}

// Path returns the nodes from root to the node with targetID, both inclusive.
// It returns an empty slice when no node has that id.
func Path(root *domain.Node, targetID string) []*domain.Node {
	path := []*domain.Node{}
	var visit func(n *domain.Node) bool
	visit = func(n *domain.Node) bool {
		path = append(path, n)
		if n.ID == targetID {
			return true
		}
		for _, child := range n.Children {
			if visit(child) {
				return true
			}
		}
		path = path[:len(path)-1]
		return false
	}
	if root == nil || !visit(root) {
		return []*domain.Node{}
	}
	return path
}

// ValidateIdentifier reports whether identifier is dotted-numeric and lives under ns.Root.
func ValidateIdentifier(ns domain.Namespace, identifier string) bool {
	return identifierPattern.MatchString(identifier) && ns.Contains(identifier)
}

// AppendChild returns a tree equal to root except that child is appended to the
// children of the first pre-order node with parentID. Only the nodes on the path
// from root to that parent are copied; all other subtrees are shared.
//
// When no node matches, root itself is returned with ok=false.
func AppendChild(root *domain.Node, parentID string, child *domain.Node) (*domain.Node, bool) {
	path := Path(root, parentID)
	if len(path) == 0 {
		return root, false
	}

	// Rebuild bottom-up: the parent gets the new child, each ancestor gets the
	// rebuilt node in place of the old one.
	rebuilt := path[len(path)-1].ShallowCopy()
	rebuilt.Children = append(rebuilt.Children, child)

	for i := len(path) - 2; i >= 0; i-- {
		ancestor := path[i].ShallowCopy()
		for j, c := range ancestor.Children {
			if c == path[i+1] {
				ancestor.Children[j] = rebuilt
				break
			}
		}
		rebuilt = ancestor
	}
	return rebuilt, true
}

// Walk visits the tree in pre-order. Returning false from fn skips the node's children.
func Walk(root *domain.Node, fn func(n *domain.Node, depth int) bool) {
	var visit func(n *domain.Node, depth int)
	visit = func(n *domain.Node, depth int) {
		if n == nil {
			return
		}
		if !fn(n, depth) {
			return
		}
		for _, child := range n.Children {
			visit(child, depth+1)
		}
	}
	visit(root, 0)
}

// Count returns the number of nodes in the tree.
func Count(root *domain.Node) int {
	count := 0
	Walk(root, func(*domain.Node, int) bool {
		count++
		return true
	})
	return count
}

// Parent returns the parent of the node with id, or nil for the root or a miss.
func Parent(root *domain.Node, id string) *domain.Node {
	path := Path(root, id)
	if len(path) < 2 {
		return nil
	}
	return path[len(path)-2]
}

// Clone returns a deep copy of the tree sharing no nodes with root.
func Clone(root *domain.Node) *domain.Node {
	if root == nil {
		return nil
	}
	cp := root.ShallowCopy()
	for i, child := range cp.Children {
		cp.Children[i] = Clone(child)
	}
	return cp
}

// IDs returns every id in pre-order, duplicates included.
func IDs(root *domain.Node) []string {
	var ids []string
	Walk(root, func(n *domain.Node, _ int) bool {
		ids = append(ids, n.ID)
		return true
	})
	return ids
}

// Depth returns the number of edges between the root and the node with id, or -1.
func Depth(root *domain.Node, id string) int {
	return len(Path(root, id)) - 1
}
