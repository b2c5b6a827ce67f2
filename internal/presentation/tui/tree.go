package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/oidtree/pkg/domain"
	"github.com/muesli/termenv"
)

// TreeOptions controls PrintTree.
type TreeOptions struct {
	// Highlight marks node ids (search hits, a selection) in bold.
	Highlight map[string]bool
	// MaxDepth limits the printed levels; 0 prints everything.
	MaxDepth int
	// Profile selects the color profile; nil detects it from stdout.
	Profile *termenv.Profile
}

// PrintTree writes the registry as an indented tree with box-drawing guides.
func PrintTree(w io.Writer, root *domain.Node, opts TreeOptions) {
	p := termenv.ColorProfile()
	if opts.Profile != nil {
		p = *opts.Profile
	}
	if root == nil {
		return
	}
	fmt.Fprintln(w, formatNode(p, root, opts.Highlight[root.ID]))
	printChildren(w, p, root, "", 1, opts)
}

func printChildren(w io.Writer, p termenv.Profile, n *domain.Node, prefix string, depth int, opts TreeOptions) {
	if opts.MaxDepth > 0 && depth > opts.MaxDepth {
		return
	}
	for i, c := range n.Children {
		last := i == len(n.Children)-1
		branch, next := "├── ", "│   "
		if last {
			branch, next = "└── ", "    "
		}
		fmt.Fprintln(w, prefix+branch+formatNode(p, c, opts.Highlight[c.ID]))
		printChildren(w, p, c, prefix+next, depth+1, opts)
	}
}

func formatNode(p termenv.Profile, n *domain.Node, highlight bool) string {
	name := termenv.String(n.Name)
	if highlight {
		name = name.Bold().Foreground(p.Color("#facc15"))
	}
	ident := termenv.String(n.Identifier).Foreground(p.Color("#818cf8"))

	var sb strings.Builder
	sb.WriteString(name.String())
	sb.WriteString(" ")
	sb.WriteString(ident.String())
	if n.Status != "" && n.Status != domain.StatusActive {
		sb.WriteString(" ")
		sb.WriteString(termenv.String("[" + string(n.Status) + "]").Foreground(statusColor(p, n.Status)).String())
	}
	return sb.String()
}

func statusColor(p termenv.Profile, s domain.Status) termenv.Color {
	if s == domain.StatusDeprecated {
		return p.Color("#9ca3af")
	}
	return p.Color("#fb923c")
}
