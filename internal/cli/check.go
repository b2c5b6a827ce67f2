package cli

import (
	"fmt"
	"strings"

	"github.com/aretw0/oidtree/pkg/domain"
	"github.com/aretw0/oidtree/pkg/tree"
)

// Problem is one integrity failure found by CheckTree.
type Problem struct {
	NodeID  string `json:"node_id"`
	Message string `json:"message"`
}

// CheckTree reports nodes whose identifier is outside ns, is not one arc below
// the parent's, or repeats an earlier identifier, and ids used more than once.
func CheckTree(ns domain.Namespace, root *domain.Node) []Problem {
	var problems []Problem
	if root == nil {
		return problems
	}
	if root.Identifier != ns.Root {
		problems = append(problems, Problem{root.ID, fmt.Sprintf("root identifier %s differs from namespace root %s", root.Identifier, ns.Root)})
	}

	ids := map[string]bool{}
	identifiers := map[string]string{}
	var visit func(parent, n *domain.Node)
	visit = func(parent, n *domain.Node) {
		if ids[n.ID] {
			problems = append(problems, Problem{n.ID, "duplicate id"})
		}
		ids[n.ID] = true

		if other, seen := identifiers[n.Identifier]; seen {
			problems = append(problems, Problem{n.ID, fmt.Sprintf("identifier %s already used by %s", n.Identifier, other)})
		} else {
			identifiers[n.Identifier] = n.ID
		}

		if parent != nil {
			switch {
			case !tree.ValidateIdentifier(ns, n.Identifier):
				problems = append(problems, Problem{n.ID, fmt.Sprintf("identifier %s is outside namespace %s", n.Identifier, ns.Root)})
			case !isDirectChild(parent.Identifier, n.Identifier):
				problems = append(problems, Problem{n.ID, fmt.Sprintf("identifier %s is not one arc below parent %s", n.Identifier, parent.Identifier)})
			}
		}
		for _, c := range n.Children {
			visit(n, c)
		}
	}
	visit(nil, root)
	return problems
}

func isDirectChild(parent, child string) bool {
	rest, ok := strings.CutPrefix(child, parent+".")
	return ok && rest != "" && !strings.Contains(rest, ".")
}
