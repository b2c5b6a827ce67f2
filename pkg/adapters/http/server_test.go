package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/oidtree"
	api "github.com/aretw0/oidtree/pkg/adapters/http"
	"github.com/aretw0/oidtree/pkg/adapters/memory"
	"github.com/aretw0/oidtree/pkg/domain"
	"github.com/aretw0/oidtree/pkg/observability"
	"github.com/aretw0/oidtree/pkg/persistence/middleware"
	"github.com/aretw0/oidtree/pkg/suggest"
	"github.com/aretw0/oidtree/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, regOpts []oidtree.Option, opts ...api.Option) (*oidtree.Registry, *httptest.Server) {
	t.Helper()
	reg := oidtree.New(regOpts...)
	require.NoError(t, reg.Open(context.Background()))
	t.Cleanup(func() { _ = reg.Close() })

	srv := httptest.NewServer(api.NewHandler(reg, append([]api.Option{api.WithKeepAlive(time.Hour)}, opts...)...))
	t.Cleanup(srv.Close)
	return reg, srv
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rdr)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func TestServer_HealthAndInfo(t *testing.T) {
	_, srv := newServer(t, nil, api.WithVersion("1.2.3\n"))

	resp, body := do(t, http.MethodGet, srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","version":0}`, string(body))

	resp, body = do(t, http.MethodGet, srv.URL+"/info", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	info := decode[map[string]any](t, body)
	assert.Equal(t, "1.2.3", info["version"])
	assert.NotEqual(t, "unknown", info["api_version"])
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServer_BrowseTree(t *testing.T) {
	_, srv := newServer(t, nil)

	resp, body := do(t, http.MethodGet, srv.URL+"/tree", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap := decode[domain.Snapshot](t, body)
	assert.Equal(t, 22, tree.Count(snap.Root))

	resp, body = do(t, http.MethodGet, srv.URL+"/nodes/crewai", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1.3.6.1.4.1.61026.3.3.1", decode[domain.Node](t, body).Identifier)

	_, body = do(t, http.MethodGet, srv.URL+"/nodes/crewai/path", "")
	path := decode[[]domain.Node](t, body)
	require.NotEmpty(t, path)
	assert.Equal(t, "root", path[0].ID)
	for _, n := range path {
		assert.Nil(t, n.Children, "path entries are flat")
	}

	_, body = do(t, http.MethodGet, srv.URL+"/search?q=nphies", "")
	ids := []string{}
	for _, n := range decode[[]domain.Node](t, body) {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"healthcare-platform", "sbs-signer", "nphies-connector"}, ids)

	_, body = do(t, http.MethodGet, srv.URL+"/nodes/root/next-identifier", "")
	assert.JSONEq(t, `{"parent":"root","identifier":"1.3.6.1.4.1.61026.5","valid":true}`, string(body))
}

func TestServer_NotFound(t *testing.T) {
	_, srv := newServer(t, nil)

	for _, path := range []string{"/nodes/missing", "/nodes/missing/path", "/nodes/crewai/snippets/cobol"} {
		resp, body := do(t, http.MethodGet, srv.URL+path, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		assert.Contains(t, string(body), `"error"`)
	}
}

func TestServer_AddChild(t *testing.T) {
	reg, srv := newServer(t, nil)

	resp, body := do(t, http.MethodPost, srv.URL+"/nodes/root/children", `{"name":"Test Module","description":"x"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	added := decode[domain.Node](t, body)
	assert.Equal(t, "test-module", added.ID)
	assert.Equal(t, "1.3.6.1.4.1.61026.5", added.Identifier)
	assert.Equal(t, "/nodes/test-module", resp.Header.Get("Location"))
	assert.Equal(t, uint64(1), reg.Snapshot().Version)

	cases := []struct {
		name   string
		parent string
		body   string
		status int
		code   string
	}{
		{"blank name", "root", `{"name":"  ","description":"x"}`, http.StatusUnprocessableEntity, "validation"},
		{"missing parent", "nope", `{"name":"A","description":"x"}`, http.StatusNotFound, "not_found"},
		{"duplicate id", "root", `{"name":"Test Module","description":"again"}`, http.StatusConflict, "duplicate_id"},
		{"bad json", "root", `{"name":`, http.StatusBadRequest, "bad_request"},
		{"unknown field", "root", `{"title":"A"}`, http.StatusBadRequest, "bad_request"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := do(t, http.MethodPost, srv.URL+"/nodes/"+tc.parent+"/children", tc.body)
			assert.Equal(t, tc.status, resp.StatusCode, string(body))
			assert.Equal(t, tc.code, decode[map[string]any](t, body)["code"])
		})
	}
	assert.Equal(t, uint64(1), reg.Snapshot().Version, "rejected requests do not publish")
}

func TestServer_ReadOnlyStore(t *testing.T) {
	reg, srv := newServer(t, []oidtree.Option{oidtree.WithStore(middleware.ReadOnly()(memory.NewStore()))})

	resp, body := do(t, http.MethodPost, srv.URL+"/nodes/root/children", `{"name":"Blocked","description":"x"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, string(body))
	assert.Equal(t, "read_only", decode[map[string]any](t, body)["code"])
	assert.Equal(t, uint64(0), reg.Snapshot().Version)
}

func TestServer_Snippets(t *testing.T) {
	_, srv := newServer(t, nil)

	_, body := do(t, http.MethodGet, srv.URL+"/formats", "")
	assert.Len(t, decode[[]map[string]any](t, body), 6)

	_, body = do(t, http.MethodGet, srv.URL+"/nodes/crewai/snippets", "")
	assert.Len(t, decode[[]map[string]any](t, body), 6)

	resp, body := do(t, http.MethodGet, srv.URL+"/nodes/crewai/snippets/fhir", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, decode[map[string]string](t, body)["code"], "urn:oid:1.3.6.1.4.1.61026.3.3.1")

	resp, body = do(t, http.MethodGet, srv.URL+"/nodes/crewai/export", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="crewai-implementations.txt"`, resp.Header.Get("Content-Disposition"))
	assert.Contains(t, string(body), "1.3.6.1.4.1.61026.3.3.1")
}

func TestServer_InspectIdentifier(t *testing.T) {
	_, srv := newServer(t, nil)

	_, body := do(t, http.MethodGet, srv.URL+"/identifiers/1.3.6.1.4.1.61026.3.3.1", "")
	report := decode[struct {
		Info domain.IdentifierInfo `json:"info"`
		Node *domain.Node          `json:"node"`
	}](t, body)
	assert.True(t, report.Info.InNamespace)
	require.NotNil(t, report.Node)
	assert.Equal(t, "crewai", report.Node.ID)

	_, body = do(t, http.MethodGet, srv.URL+"/identifiers/2.25.1", "")
	assert.NotContains(t, string(body), `"node"`)
}

type failingSuggester struct{ err error }

func (f failingSuggester) Suggest(context.Context, domain.SuggestRequest) ([]domain.Suggestion, error) {
	return nil, f.err
}

func TestServer_Suggest(t *testing.T) {
	_, srv := newServer(t, nil)

	resp, body := do(t, http.MethodPost, srv.URL+"/nodes/healthcare-platform/suggestions", `{"use_case":"lab results"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Len(t, decode[[]domain.Suggestion](t, body), domain.SuggestionCount)

	resp, _ = do(t, http.MethodPost, srv.URL+"/nodes/healthcare-platform/suggestions", `{"use_case":" "}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	_, failing := newServer(t, []oidtree.Option{
		oidtree.WithSuggester(failingSuggester{err: suggest.NewFatalError(errors.New("401 unauthorized"))}),
	})
	resp, body = do(t, http.MethodPost, failing.URL+"/nodes/root/suggestions", `{"use_case":"x"}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "upstream", decode[map[string]any](t, body)["code"])
}

func TestServer_OpenAPIAndMetrics(t *testing.T) {
	m := observability.NewMetrics()
	_, srv := newServer(t, []oidtree.Option{oidtree.WithMetrics(m)}, api.WithMetrics(m))

	resp, body := do(t, http.MethodGet, srv.URL+"/openapi.yaml", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "operationId: addChild")

	do(t, http.MethodGet, srv.URL+"/nodes/crewai", "")
	_, body = do(t, http.MethodGet, srv.URL+"/metrics", "")
	assert.Contains(t, string(body), `route="/nodes/{id}"`)
}

func TestServer_CORSAllowList(t *testing.T) {
	_, srv := newServer(t, nil, api.WithCORSOrigins([]string{"https://ok.example"}))

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/tree", nil)
	req.Header.Set("Origin", "https://ok.example")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "https://ok.example", resp.Header.Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "https://evil.example")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServer_Events(t *testing.T) {
	reg, srv := newServer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 16)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	next := func() string {
		select {
		case l := <-lines:
			return l
		case <-time.After(3 * time.Second):
			t.Fatal("timed out waiting for event")
			return ""
		}
	}
	assert.Equal(t, "event: ping", next())
	next() // data
	next() // blank

	_, err = reg.AddChild(context.Background(), "root", tree.Draft{Name: "Live", Description: "x"})
	require.NoError(t, err)

	assert.Equal(t, "event: snapshot", next())
	data := strings.TrimPrefix(next(), "data: ")
	ev := decode[map[string]any](t, []byte(data))
	assert.EqualValues(t, 1, ev["version"])
	assert.EqualValues(t, 23, ev["nodes"])
}
