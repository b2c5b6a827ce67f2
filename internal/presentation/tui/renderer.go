package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/oidtree/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// Style follows the terminal background; plain drops colors for pipes and tests.
func NewRenderer(plain bool) func(string) (string, error) {
	style := glamour.WithAutoStyle()
	if plain {
		style = glamour.WithStandardStyle("notty")
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(100))
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// NodeMarkdown describes node as a markdown document. path, when given, is
// rendered as a breadcrumb from the root.
func NodeMarkdown(node *domain.Node, path []*domain.Node, info domain.IdentifierInfo) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", node.Name)
	if len(path) > 1 {
		names := make([]string, len(path))
		for i, p := range path {
			names[i] = p.Name
		}
		fmt.Fprintf(&sb, "_%s_\n\n", strings.Join(names, " › "))
	}
	if node.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", node.Description)
	}

	sb.WriteString("| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&sb, "| ID | `%s` |\n", node.ID)
	fmt.Fprintf(&sb, "| OID | `%s` |\n", node.Identifier)
	fmt.Fprintf(&sb, "| URN | `%s` |\n", info.URN)
	fmt.Fprintf(&sb, "| Kind | %s |\n", node.Kind)
	fmt.Fprintf(&sb, "| Status | %s |\n", node.Status)
	fmt.Fprintf(&sb, "| Depth | %d |\n", info.Depth)
	fmt.Fprintf(&sb, "| Children | %d |\n", len(node.Children))

	if len(node.UseCases) > 0 {
		sb.WriteString("\n## Use Cases\n\n")
		for _, uc := range node.UseCases {
			fmt.Fprintf(&sb, "- %s\n", uc)
		}
	}
	if len(node.Children) > 0 {
		sb.WriteString("\n## Children\n\n")
		for _, c := range node.Children {
			fmt.Fprintf(&sb, "- `%s` %s\n", c.Identifier, c.Name)
		}
	}
	return sb.String()
}
