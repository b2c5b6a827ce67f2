package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventSnapshotLoaded   EventType = "snapshot_loaded"
	EventNodeAdded        EventType = "node_added"
	EventSelectionCleared EventType = "selection_cleared"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Version   uint64    `json:"version"`
}

// SnapshotEvent is emitted whenever a session publishes a snapshot read from the store
// or from the seed.
type SnapshotEvent struct {
	EventBase
	Seeded bool `json:"seeded"`
	Nodes  int  `json:"nodes"`
}

// NodeEvent is emitted after a node has been appended and persisted.
type NodeEvent struct {
	EventBase
	NodeID     string `json:"node_id"`
	Identifier string `json:"identifier"`
	ParentID   string `json:"parent_id"`
	Kind       Kind   `json:"kind"`
}

// SelectionEvent is emitted when a selected node vanished from a reloaded tree.
type SelectionEvent struct {
	EventBase
	NodeID string `json:"node_id"`
}

// LifecycleHooks defines callbacks for session observability.
type LifecycleHooks struct {
	OnSnapshotLoaded   func(context.Context, *SnapshotEvent)
	OnNodeAdded        func(context.Context, *NodeEvent)
	OnSelectionCleared func(context.Context, *SelectionEvent)
}
