package observability_test

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/oidtree/internal/logging"
	"github.com/aretw0/oidtree/pkg/domain"
	"github.com/aretw0/oidtree/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	m := observability.NewMetrics()
	h := m.Hooks()
	ctx := context.Background()

	h.OnSnapshotLoaded(ctx, &domain.SnapshotEvent{EventBase: domain.EventBase{Version: 0}, Seeded: true, Nodes: 22})
	h.OnNodeAdded(ctx, &domain.NodeEvent{EventBase: domain.EventBase{Version: 1}, Kind: domain.KindLeaf})
	h.OnNodeAdded(ctx, &domain.NodeEvent{EventBase: domain.EventBase{Version: 2}, Kind: domain.KindBranch})
	h.OnSelectionCleared(ctx, &domain.SelectionEvent{NodeID: "docker"})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SnapshotsLoaded.WithLabelValues("seed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NodesAdded.WithLabelValues("leaf")))
	assert.Equal(t, 24.0, testutil.ToFloat64(m.TreeNodes))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TreeVersion))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SelectionsCleared))
}

type stubSuggester struct{ err error }

func (s stubSuggester) Suggest(context.Context, domain.SuggestRequest) ([]domain.Suggestion, error) {
	return nil, s.err
}

func TestMetrics_InstrumentSuggester(t *testing.T) {
	m := observability.NewMetrics()

	_, _ = m.InstrumentSuggester(stubSuggester{}, nil).Suggest(context.Background(), domain.SuggestRequest{})
	_, _ = m.InstrumentSuggester(stubSuggester{err: errors.New("x")}, nil).Suggest(context.Background(), domain.SuggestRequest{})
	_, _ = m.InstrumentSuggester(stubSuggester{err: context.Canceled}, nil).Suggest(context.Background(), domain.SuggestRequest{})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Suggestions.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Suggestions.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Suggestions.WithLabelValues("canceled")))
}

func TestMetrics_Handler(t *testing.T) {
	m := observability.NewMetrics()
	m.ObserveSnippet("fhir")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `oidtree_snippets_rendered_total{format="fhir"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestCombine(t *testing.T) {
	var order []string
	a := domain.LifecycleHooks{OnNodeAdded: func(context.Context, *domain.NodeEvent) { order = append(order, "a") }}
	b := domain.LifecycleHooks{
		OnNodeAdded:      func(context.Context, *domain.NodeEvent) { order = append(order, "b") },
		OnSnapshotLoaded: func(context.Context, *domain.SnapshotEvent) { order = append(order, "loaded") },
	}

	h := observability.Combine(a, domain.LifecycleHooks{}, b)
	h.OnNodeAdded(context.Background(), &domain.NodeEvent{})
	h.OnSnapshotLoaded(context.Background(), &domain.SnapshotEvent{})

	assert.Equal(t, []string{"a", "b", "loaded"}, order)
	assert.Nil(t, h.OnSelectionCleared)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithFormat(&buf, 0, logging.FormatText)

	h := observability.LoggingHooks(logger)
	h.OnNodeAdded(context.Background(), &domain.NodeEvent{NodeID: "test-module", Identifier: "1.3.6.1.4.1.61026.5"})

	require.Contains(t, buf.String(), "node_added")
	assert.Contains(t, buf.String(), "identifier=1.3.6.1.4.1.61026.5")
}

func TestMetrics_ObserveStore(t *testing.T) {
	m := observability.NewMetrics()
	m.ObserveStore("load", time.Millisecond, domain.ErrSnapshotNotFound)
	m.ObserveStore("save", time.Millisecond, nil)
	m.ObserveStore("save", time.Millisecond, errors.New("disk full"))

	assert.Equal(t, 3, testutil.CollectAndCount(m.StoreOps))
}
