package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/oidtree/pkg/domain"
	"github.com/aretw0/oidtree/pkg/tree"
)

// GraphOverlay contains session state to highlight on the graph.
type GraphOverlay struct {
	// PathNodes are styled as the route from the root to the selection.
	PathNodes []string
	// Selected is the node styled as current.
	Selected string
}

// OverlayFor builds the overlay of a selection: the path to it and the node itself.
func OverlayFor(root *domain.Node, selectedID string) *GraphOverlay {
	o := &GraphOverlay{Selected: selectedID}
	for _, n := range tree.Path(root, selectedID) {
		o.PathNodes = append(o.PathNodes, n.ID)
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of the registry tree.
// It applies semantic styling:
// - Root: ((Circle))
// - Branch: [Rectangle]
// - Leaf: (Rounded)
// Edges are labelled with the child's trailing arc; edges into deprecated
// nodes are dotted. Overlay styles (Path/Selected) are applied if provided.
func GenerateMermaid(root *domain.Node, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	var experimental, deprecated []string
	tree.Walk(root, func(n *domain.Node, _ int) bool {
		safeID := sanitizeMermaidID(n.ID)

		opener, closer := "(", ")"
		switch n.Kind {
		case domain.KindRoot:
			opener, closer = "((", "))"
		case domain.KindBranch:
			opener, closer = "[", "]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s<br/>%s\"%s\n", safeID, opener, escapeLabel(n.Name), n.Identifier, closer)

		for _, c := range n.Children {
			arrow := fmt.Sprintf("-- %s -->", domain.TrailingArc(c.Identifier))
			if c.Status == domain.StatusDeprecated {
				arrow = fmt.Sprintf("-. %s .->", domain.TrailingArc(c.Identifier))
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", safeID, arrow, sanitizeMermaidID(c.ID))
		}

		switch n.Status {
		case domain.StatusExperimental:
			experimental = append(experimental, safeID)
		case domain.StatusDeprecated:
			deprecated = append(deprecated, safeID)
		}
		return true
	})

	if len(experimental) > 0 || len(deprecated) > 0 {
		sb.WriteString("\n    %% Status Styles\n")
		sb.WriteString("    classDef experimental stroke-dasharray:5 5;\n")
		sb.WriteString("    classDef deprecated fill:#eeeeee,color:#888888;\n")
		for _, id := range experimental {
			fmt.Fprintf(&sb, "    class %s experimental;\n", id)
		}
		for _, id := range deprecated {
			fmt.Fprintf(&sb, "    class %s deprecated;\n", id)
		}
	}

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef path fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.PathNodes {
			safeID := sanitizeMermaidID(id)
			if !seen[safeID] && safeID != "" && id != overlay.Selected {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s path;\n", safeID)
			}
		}

		if overlay.Selected != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.Selected))
		}
	}

	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
