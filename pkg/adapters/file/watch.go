package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events one atomic save produces.
const DefaultDebounce = 200 * time.Millisecond

// Watch implements ports.Watchable. It watches BasePath and signals, debounced,
// whenever a registry file is written, replaced or removed.
func (s *Store) Watch(ctx context.Context) (<-chan struct{}, error) {
	return s.WatchDebounced(ctx, DefaultDebounce)
}

// WatchDebounced is Watch with an explicit debounce interval.
func (s *Store) WatchDebounced(ctx context.Context, debounce time.Duration) (<-chan struct{}, error) {
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to ensure registry directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if err := fsw.Add(s.BasePath); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching directory %s: %w", s.BasePath, err)
	}

	out := make(chan struct{}, 1)
	go watchLoop(ctx, fsw, debounce, out)
	return out, nil
}

func watchLoop(ctx context.Context, fsw *fsnotify.Watcher, debounce time.Duration, out chan<- struct{}) {
	defer close(out)
	defer fsw.Close()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !isRelevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			// Non-blocking: one pending signal is enough.
			select {
			case out <- struct{}{}:
			default:
			}

		case _, ok := <-fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

func isRelevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(event.Name)
	return filepath.Ext(base) == ".json" && !strings.HasPrefix(base, tmpPrefix)
}
