package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/oidtree/pkg/domain"
	"github.com/aretw0/oidtree/pkg/tree"
)

// snapshotEvent is the payload of one "snapshot" message.
type snapshotEvent struct {
	Version uint64    `json:"version"`
	SavedAt time.Time `json:"saved_at"`
	Nodes   int       `json:"nodes"`
}

// eventStream serves GET /events as text/event-stream.
// Clients get a "ping" on connect and a "snapshot" message per published version.
type eventStream struct {
	registry  Registry
	logger    *slog.Logger
	keepAlive time.Duration
}

func (e *eventStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	updates, unsubscribe := e.registry.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, "ping", map[string]any{"version": currentVersion(e.registry)}); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		e.logger.Warn("event stream cannot flush", "err", err)
		return
	}

	ticker := time.NewTicker(e.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := writeEvent(w, "snapshot", toEvent(snap)); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}

func toEvent(snap *domain.Snapshot) snapshotEvent {
	return snapshotEvent{Version: snap.Version, SavedAt: snap.SavedAt, Nodes: tree.Count(snap.Root)}
}

func currentVersion(reg Registry) uint64 {
	if snap := reg.Snapshot(); snap != nil {
		return snap.Version
	}
	return 0
}
