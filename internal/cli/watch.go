package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/oidtree"
	"github.com/aretw0/oidtree/internal/presentation/tui"
	"github.com/aretw0/oidtree/pkg/domain"
	"github.com/aretw0/oidtree/pkg/tree"
)

// WatchOptions controls RunWatch.
type WatchOptions struct {
	Query    string
	MaxDepth int
	// Clear emits the ANSI clear-screen sequence before each redraw.
	Clear bool
}

// RunWatch prints the tree and redraws it whenever the registry publishes a
// new snapshot, until ctx is done. The store must support watching.
func RunWatch(ctx context.Context, reg *oidtree.Registry, w io.Writer, opts WatchOptions) error {
	updates, unsubscribe := reg.Session().Subscribe()
	defer unsubscribe()

	if err := reg.Watch(ctx); err != nil {
		return err
	}

	draw := func(snap *domain.Snapshot) {
		if opts.Clear {
			fmt.Fprint(w, "\033[H\033[2J")
		}
		PrintSystemMessage(w, "Registry %q version %d (%d nodes)", reg.Session().Key(), snap.Version, tree.Count(snap.Root))
		tui.PrintTree(w, snap.Root, tui.TreeOptions{
			Highlight: highlightSet(snap.Root, opts.Query),
			MaxDepth:  opts.MaxDepth,
		})
	}

	draw(reg.Snapshot())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			draw(snap)
		}
	}
}

// highlightSet returns the ids matching query, or nil for an empty query.
func highlightSet(root *domain.Node, query string) map[string]bool {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	set := make(map[string]bool)
	for _, n := range tree.Search(root, query) {
		set[n.ID] = true
	}
	return set
}

// HighlightSet is highlightSet for command implementations.
func HighlightSet(root *domain.Node, query string) map[string]bool {
	return highlightSet(root, query)
}
