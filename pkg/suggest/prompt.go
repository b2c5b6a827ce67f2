package suggest

import (
	"fmt"
	"strings"

	"github.com/aretw0/oidtree/pkg/domain"
)

const systemPrompt = `You design Object Identifier (OID) registries for an enterprise namespace.
Answer with JSON only, no prose.`

// BuildPrompt renders the user message for req.
func BuildPrompt(req domain.SuggestRequest) string {
	var sb strings.Builder
	p := req.Parent

	sb.WriteString("Propose exactly 3 new child nodes for the parent below that serve this use case:\n")
	sb.WriteString(strings.TrimSpace(req.UseCase))
	sb.WriteString("\n\nParent node:\n")
	fmt.Fprintf(&sb, "- name: %s\n", p.Name)
	fmt.Fprintf(&sb, "- identifier: %s\n", p.Identifier)
	fmt.Fprintf(&sb, "- description: %s\n", p.Description)
	if len(p.UseCases) > 0 {
		sb.WriteString("- use cases:\n")
		for _, uc := range p.UseCases {
			fmt.Fprintf(&sb, "  - %s\n", uc)
		}
	}
	if len(p.Children) > 0 {
		sb.WriteString("- existing children (do not repeat):\n")
		for _, c := range p.Children {
			fmt.Fprintf(&sb, "  - %s\n", c.Name)
		}
	}

	sb.WriteString(`
Respond with a JSON object of this shape:
{"suggestions": [{"name": "...", "description": "...", "useCases": ["..."], "kind": "branch" | "leaf"}]}
`)
	return sb.String()
}
