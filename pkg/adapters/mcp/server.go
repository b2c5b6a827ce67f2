// Package mcp exposes a registry to MCP clients as tools and resources.
package mcp

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
	"github.com/aretw0/oidtree/pkg/snippet"
	"github.com/aretw0/oidtree/pkg/tree"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegistryURI addresses the whole published snapshot.
const RegistryURI = "oidtree://registry"

// nodeURIPrefix addresses single nodes, oidtree://nodes/{id}.
const nodeURIPrefix = "oidtree://nodes/"

// Registry is the subset of *oidtree.Registry the MCP server needs.
type Registry interface {
	Snapshot() *domain.Snapshot
	Search(query string) []*domain.Node
	Node(id string) (*domain.Node, error)
	NodeByIdentifier(identifier string) (*domain.Node, error)
	Path(id string) ([]*domain.Node, error)
	NextIdentifier(id string) (string, error)
	InspectIdentifier(identifier string) domain.IdentifierInfo
	AddChild(ctx context.Context, parentID string, d tree.Draft) (*domain.Node, error)
	Snippet(id string, format snippet.Format) (snippet.Snippet, error)
	Export(id string) (filename, content string, err error)
	Suggest(ctx context.Context, parentID, useCase string) ([]domain.Suggestion, error)
}

// Server wraps a Registry and exposes it as an MCP Server.
type Server struct {
	registry  Registry
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures NewServer.
type Option func(*Server)

// WithLogger sets the logger for tool failures and transport events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer creates a new MCP Server instance.
func NewServer(reg Registry, version string, opts ...Option) *Server {
	s := &Server{
		registry:  reg,
		mcpServer: server.NewMCPServer("oidtree-mcp", strings.TrimSpace(version), server.WithResourceCapabilities(false, false)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server, for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(RegistryURI, "OID registry snapshot",
		mcp.WithResourceDescription("The whole published registry tree with its version."),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonResource(RegistryURI, s.registry.Snapshot())
	})

	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(nodeURIPrefix+"{id}", "Registry node",
		mcp.WithTemplateDescription("One node and its subtree."),
		mcp.WithTemplateMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		uri := request.Params.URI
		n, err := s.registry.Node(strings.TrimPrefix(uri, nodeURIPrefix))
		if err != nil {
			return nil, err
		}
		return jsonResource(uri, n)
	})
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{URI: uri, MIMEType: "application/json", Text: string(data)},
	}, nil
}
