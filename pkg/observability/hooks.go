package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/oidtree/pkg/domain"
)

// LoggingHooks logs every lifecycle event at info level.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSnapshotLoaded: func(ctx context.Context, e *domain.SnapshotEvent) {
			logger.InfoContext(ctx, "snapshot_loaded",
				"version", e.Version,
				"seeded", e.Seeded,
				"nodes", e.Nodes,
			)
		},
		OnNodeAdded: func(ctx context.Context, e *domain.NodeEvent) {
			logger.InfoContext(ctx, "node_added",
				"node_id", e.NodeID,
				"identifier", e.Identifier,
				"parent_id", e.ParentID,
				"kind", e.Kind,
				"version", e.Version,
			)
		},
		OnSelectionCleared: func(ctx context.Context, e *domain.SelectionEvent) {
			logger.InfoContext(ctx, "selection_cleared", "node_id", e.NodeID, "version", e.Version)
		},
	}
}

// Combine returns hooks that call each non-nil callback of sets in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		if f := h.OnSnapshotLoaded; f != nil {
			prev := out.OnSnapshotLoaded
			out.OnSnapshotLoaded = func(ctx context.Context, e *domain.SnapshotEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				f(ctx, e)
			}
		}
		if f := h.OnNodeAdded; f != nil {
			prev := out.OnNodeAdded
			out.OnNodeAdded = func(ctx context.Context, e *domain.NodeEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				f(ctx, e)
			}
		}
		if f := h.OnSelectionCleared; f != nil {
			prev := out.OnSelectionCleared
			out.OnSelectionCleared = func(ctx context.Context, e *domain.SelectionEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				f(ctx, e)
			}
		}
	}
	return out
}
