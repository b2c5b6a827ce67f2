// Package http exposes a registry over a JSON API described by openapi.yaml.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/oidtree/internal/logging"
	"github.com/aretw0/oidtree/pkg/domain"
	"github.com/aretw0/oidtree/pkg/observability"
	"github.com/aretw0/oidtree/pkg/snippet"
	"github.com/aretw0/oidtree/pkg/suggest"
	"github.com/aretw0/oidtree/pkg/tree"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Registry is the subset of *oidtree.Registry the server needs.
type Registry interface {
	Namespace() domain.Namespace
	Snapshot() *domain.Snapshot
	Search(query string) []*domain.Node
	Node(id string) (*domain.Node, error)
	NodeByIdentifier(identifier string) (*domain.Node, error)
	Path(id string) ([]*domain.Node, error)
	NextIdentifier(id string) (string, error)
	ValidateIdentifier(identifier string) bool
	InspectIdentifier(identifier string) domain.IdentifierInfo
	AddChild(ctx context.Context, parentID string, d tree.Draft) (*domain.Node, error)
	Snippet(id string, format snippet.Format) (snippet.Snippet, error)
	Snippets(id string) ([]snippet.Snippet, error)
	Export(id string) (filename, content string, err error)
	Suggest(ctx context.Context, parentID, useCase string) ([]domain.Suggestion, error)
	Subscribe() (<-chan *domain.Snapshot, func())
}

// Server implements ServerInterface on top of a Registry.
type Server struct {
	Registry Registry
	Version  string
	logger   *slog.Logger
}

// Ensure Server implements ServerInterface
var _ ServerInterface = (*Server)(nil)

// Option configures NewHandler.
type Option func(*handlerConfig)

type handlerConfig struct {
	logger      *slog.Logger
	metrics     *observability.Metrics
	corsOrigins []string
	version     string
	keepAlive   time.Duration
}

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *handlerConfig) { c.logger = logger }
}

// WithMetrics records request latency and serves /metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *handlerConfig) { c.metrics = m }
}

// WithCORSOrigins restricts Access-Control-Allow-Origin. Empty allows any origin.
func WithCORSOrigins(origins []string) Option {
	return func(c *handlerConfig) { c.corsOrigins = origins }
}

// WithVersion sets the application version reported by /info.
func WithVersion(v string) Option {
	return func(c *handlerConfig) { c.version = strings.TrimSpace(v) }
}

// WithKeepAlive sets the interval of SSE comment pings (default 15s).
func WithKeepAlive(d time.Duration) Option {
	return func(c *handlerConfig) { c.keepAlive = d }
}

// NewHandler creates the HTTP handler for reg.
func NewHandler(reg Registry, opts ...Option) http.Handler {
	cfg := handlerConfig{logger: logging.NewNop(), version: "dev", keepAlive: 15 * time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}

	server := &Server{Registry: reg, Version: cfg.version, logger: cfg.logger}
	events := &eventStream{registry: reg, logger: cfg.logger, keepAlive: cfg.keepAlive}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(cfg.logger))
	if cfg.metrics != nil {
		r.Use(instrument(cfg.metrics))
		r.Method(http.MethodGet, "/metrics", cfg.metrics.Handler())
	}

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		spec, err := rawSpec()
		if err != nil {
			http.Error(w, "Failed to load spec", http.StatusInternalServerError)
			cfg.logger.Error("Failed to load OpenAPI spec", "err", err)
			return
		}
		_, _ = w.Write(spec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})

	handler := HandlerFromMux(&streamingServer{Server: server, events: events}, r)
	return enableCORS(handler, cfg.corsOrigins)
}

// streamingServer routes SubscribeEvents to the event stream.
type streamingServer struct {
	*Server
	events *eventStream
}

func (s *streamingServer) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	s.events.ServeHTTP(w, r)
}

func enableCORS(next http.Handler, origins []string) http.Handler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case len(allowed) == 0:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case allowed[origin]:
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>oidtree API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	if snap := s.Registry.Snapshot(); snap != nil {
		resp["version"] = snap.Version
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"app":         "oidtree-http",
		"version":     s.Version,
		"api_version": apiVersion,
		"namespace":   s.Registry.Namespace(),
	})
}

// ListFormats handles GET /formats.
func (s *Server) ListFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, snippet.Catalogue())
}

// GetTree handles GET /tree.
func (s *Server) GetTree(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Registry.Snapshot())
}

// SearchNodes handles GET /search.
func (s *Server) SearchNodes(w http.ResponseWriter, r *http.Request, params SearchNodesParams) {
	q := ""
	if params.Q != nil {
		q = *params.Q
	}
	writeJSON(w, http.StatusOK, flat(s.Registry.Search(q)))
}

// GetNode handles GET /nodes/{id}.
func (s *Server) GetNode(w http.ResponseWriter, r *http.Request, id string) {
	n, err := s.Registry.Node(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// GetPath handles GET /nodes/{id}/path.
func (s *Server) GetPath(w http.ResponseWriter, r *http.Request, id string) {
	p, err := s.Registry.Path(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, flat(p))
}

// GetNextIdentifier handles GET /nodes/{id}/next-identifier.
func (s *Server) GetNextIdentifier(w http.ResponseWriter, r *http.Request, id string) {
	next, err := s.Registry.NextIdentifier(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"parent":     id,
		"identifier": next,
		"valid":      s.Registry.ValidateIdentifier(next),
	})
}

// AddChild handles POST /nodes/{id}/children.
func (s *Server) AddChild(w http.ResponseWriter, r *http.Request, id string) {
	var draft tree.Draft
	if err := decodeBody(w, r, &draft); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Code: "bad_request"})
		return
	}

	added, err := s.Registry.AddChild(r.Context(), id, draft)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/nodes/"+added.ID)
	writeJSON(w, http.StatusCreated, added)
}

// ListSnippets handles GET /nodes/{id}/snippets.
func (s *Server) ListSnippets(w http.ResponseWriter, r *http.Request, id string) {
	out, err := s.Registry.Snippets(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GetSnippet handles GET /nodes/{id}/snippets/{format}.
func (s *Server) GetSnippet(w http.ResponseWriter, r *http.Request, id string, format string) {
	out, err := s.Registry.Snippet(id, snippet.Format(format))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ExportNode handles GET /nodes/{id}/export.
func (s *Server) ExportNode(w http.ResponseWriter, r *http.Request, id string) {
	name, content, err := s.Registry.Export(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = w.Write([]byte(content))
}

// SuggestChildren handles POST /nodes/{id}/suggestions.
func (s *Server) SuggestChildren(w http.ResponseWriter, r *http.Request, id string) {
	var body struct {
		UseCase string `json:"use_case"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Code: "bad_request"})
		return
	}
	if strings.TrimSpace(body.UseCase) == "" {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "use_case is required", Code: "validation"})
		return
	}

	out, err := s.Registry.Suggest(r.Context(), id, body.UseCase)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// InspectIdentifier handles GET /identifiers/{identifier}.
func (s *Server) InspectIdentifier(w http.ResponseWriter, r *http.Request, identifier string) {
	resp := map[string]any{"info": s.Registry.InspectIdentifier(identifier)}
	if n, err := s.Registry.NodeByIdentifier(identifier); err == nil {
		resp["node"] = n.ShallowCopy()
	}
	writeJSON(w, http.StatusOK, resp)
}

// SubscribeEvents is served by the event stream; see NewHandler.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "Streaming not configured", http.StatusNotImplemented)
}

// -- Helpers --

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// writeError maps domain errors onto status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, "internal"
	switch {
	case tree.IsValidation(err):
		status, code = http.StatusUnprocessableEntity, "validation"
	case errors.Is(err, domain.ErrNodeNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, snippet.ErrUnknownFormat):
		status, code = http.StatusNotFound, "unknown_format"
	case errors.Is(err, domain.ErrDuplicateID):
		status, code = http.StatusConflict, "duplicate_id"
	case errors.Is(err, domain.ErrReadOnly):
		status, code = http.StatusForbidden, "read_only"
	case errors.Is(err, context.Canceled):
		status, code = 499, "canceled"
	case errors.Is(err, suggest.ErrMalformedResponse), suggest.IsTransient(err), suggest.IsFatal(err):
		status, code = http.StatusBadGateway, "upstream"
	}

	if status >= 500 {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error(), Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// flat drops children so list responses stay small.
func flat(nodes []*domain.Node) []*domain.Node {
	out := make([]*domain.Node, len(nodes))
	for i, n := range nodes {
		cp := n.ShallowCopy()
		cp.Children = nil
		out[i] = cp
	}
	return out
}
