package domain

import "time"

// DefaultRegistryKey is the key the whole tree is persisted under.
const DefaultRegistryKey = "oid-registry"

// Snapshot is one published version of the tree.
// It is the opaque value handed to a SnapshotStore.
type Snapshot struct {
	Version uint64    `json:"version"`
	SavedAt time.Time `json:"saved_at"`
	Root    *Node     `json:"root"`
}

// Next returns the snapshot that follows s with root as its tree.
func (s *Snapshot) Next(root *Node, now time.Time) *Snapshot {
	var v uint64
	if s != nil {
		v = s.Version
	}
	return &Snapshot{
		Version: v + 1,
		SavedAt: now.UTC(),
		Root:    root,
	}
}
