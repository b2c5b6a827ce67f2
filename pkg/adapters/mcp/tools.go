package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/oidtree/pkg/domain"
	"github.com/aretw0/oidtree/pkg/snippet"
	"github.com/aretw0/oidtree/pkg/tree"
	"github.com/mark3labs/mcp-go/mcp"
)

// NodeList is the result of tools returning several flat nodes.
type NodeList struct {
	Nodes []*domain.Node `json:"nodes" jsonschema_description:"Matching nodes without their children"`
}

// NodeResult wraps a single node.
type NodeResult struct {
	Node *domain.Node `json:"node"`
}

// NextIdentifierResult is the identifier the next child of a parent would get.
type NextIdentifierResult struct {
	Parent     string `json:"parent"`
	Identifier string `json:"identifier"`
}

// ExportResult is a "download all" bundle.
type ExportResult struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// IdentifierReport decodes an identifier and names the node holding it, if any.
type IdentifierReport struct {
	Info domain.IdentifierInfo `json:"info"`
	Node *domain.Node          `json:"node,omitempty"`
}

// SuggestionList holds generated child proposals.
type SuggestionList struct {
	Suggestions []domain.Suggestion `json:"suggestions"`
}

type searchArgs struct {
	Query string `json:"query"`
}

type nodeArgs struct {
	NodeID     string `json:"node_id"`
	Identifier string `json:"identifier"`
}

type addChildArgs struct {
	ParentID    string   `json:"parent_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Kind        string   `json:"kind"`
	Status      string   `json:"status"`
	UseCases    []string `json:"use_cases"`
}

type snippetArgs struct {
	NodeID string `json:"node_id"`
	Format string `json:"format"`
}

type suggestArgs struct {
	ParentID string `json:"parent_id"`
	UseCase  string `json:"use_case"`
}

func (s *Server) registerTools() {
	formats := make([]string, 0, 6)
	for _, f := range snippet.Formats() {
		formats = append(formats, string(f))
	}

	s.mcpServer.AddTool(mcp.NewTool("search_nodes",
		mcp.WithDescription("Search nodes by name, identifier, description or use case. An empty query lists every node."),
		mcp.WithString("query", mcp.Description("Case-insensitive search text")),
		mcp.WithOutputSchema[NodeList](),
	), mcp.NewStructuredToolHandler(s.handleSearch))

	s.mcpServer.AddTool(mcp.NewTool("get_node",
		mcp.WithDescription("Get one node with its subtree, by id or by dotted identifier."),
		mcp.WithString("node_id", mcp.Description("Node id, e.g. crewai")),
		mcp.WithString("identifier", mcp.Description("Dotted identifier, e.g. 1.3.6.1.4.1.61026.3.3.1")),
		mcp.WithOutputSchema[NodeResult](),
	), mcp.NewStructuredToolHandler(s.handleGetNode))

	s.mcpServer.AddTool(mcp.NewTool("get_path",
		mcp.WithDescription("List the nodes from the root down to a node."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node id")),
		mcp.WithOutputSchema[NodeList](),
	), mcp.NewStructuredToolHandler(s.handleGetPath))

	s.mcpServer.AddTool(mcp.NewTool("next_identifier",
		mcp.WithDescription("Preview the identifier the next child of a node would receive."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Parent node id")),
		mcp.WithOutputSchema[NextIdentifierResult](),
	), mcp.NewStructuredToolHandler(s.handleNextIdentifier))

	s.mcpServer.AddTool(mcp.NewTool("add_child",
		mcp.WithDescription("Register a new child under a parent. The identifier is assigned automatically."),
		mcp.WithString("parent_id", mcp.Required(), mcp.Description("Parent node id")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Display name; the id is derived from it")),
		mcp.WithString("description", mcp.Required(), mcp.Description("What the component does")),
		mcp.WithString("kind", mcp.Enum(string(domain.KindBranch), string(domain.KindLeaf)), mcp.Description("Defaults to leaf")),
		mcp.WithString("status", mcp.Enum(string(domain.StatusActive), string(domain.StatusExperimental), string(domain.StatusDeprecated)), mcp.Description("Defaults to active")),
		mcp.WithArray("use_cases", mcp.WithStringItems(), mcp.Description("Free-form use case tags")),
		mcp.WithOutputSchema[NodeResult](),
	), mcp.NewStructuredToolHandler(s.handleAddChild))

	s.mcpServer.AddTool(mcp.NewTool("generate_snippet",
		mcp.WithDescription("Render an implementation snippet for a node."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node id")),
		mcp.WithString("format", mcp.Required(), mcp.Enum(formats...), mcp.Description("Snippet format")),
		mcp.WithOutputSchema[snippet.Snippet](),
	), mcp.NewStructuredToolHandler(s.handleSnippet))

	s.mcpServer.AddTool(mcp.NewTool("export_node",
		mcp.WithDescription("Render every snippet format of a node as one text bundle."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node id")),
		mcp.WithOutputSchema[ExportResult](),
	), mcp.NewStructuredToolHandler(s.handleExport))

	s.mcpServer.AddTool(mcp.NewTool("inspect_identifier",
		mcp.WithDescription("Decode a dotted identifier against the registry namespace."),
		mcp.WithString("identifier", mcp.Required(), mcp.Description("Dotted identifier")),
		mcp.WithOutputSchema[IdentifierReport](),
	), mcp.NewStructuredToolHandler(s.handleInspect))

	s.mcpServer.AddTool(mcp.NewTool("suggest_children",
		mcp.WithDescription("Propose three candidate children for a parent. Nothing is added to the tree."),
		mcp.WithString("parent_id", mcp.Required(), mcp.Description("Parent node id")),
		mcp.WithString("use_case", mcp.Required(), mcp.Description("What the new component should do")),
		mcp.WithOutputSchema[SuggestionList](),
	), mcp.NewStructuredToolHandler(s.handleSuggest))
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest, args searchArgs) (NodeList, error) {
	return NodeList{Nodes: flat(s.registry.Search(args.Query))}, nil
}

func (s *Server) handleGetNode(ctx context.Context, request mcp.CallToolRequest, args nodeArgs) (NodeResult, error) {
	var (
		n   *domain.Node
		err error
	)
	switch {
	case args.NodeID != "":
		n, err = s.registry.Node(args.NodeID)
	case args.Identifier != "":
		n, err = s.registry.NodeByIdentifier(args.Identifier)
	default:
		return NodeResult{}, fmt.Errorf("one of node_id or identifier is required")
	}
	if err != nil {
		return NodeResult{}, err
	}
	return NodeResult{Node: n}, nil
}

func (s *Server) handleGetPath(ctx context.Context, request mcp.CallToolRequest, args nodeArgs) (NodeList, error) {
	path, err := s.registry.Path(args.NodeID)
	if err != nil {
		return NodeList{}, err
	}
	return NodeList{Nodes: flat(path)}, nil
}

func (s *Server) handleNextIdentifier(ctx context.Context, request mcp.CallToolRequest, args nodeArgs) (NextIdentifierResult, error) {
	next, err := s.registry.NextIdentifier(args.NodeID)
	if err != nil {
		return NextIdentifierResult{}, err
	}
	return NextIdentifierResult{Parent: args.NodeID, Identifier: next}, nil
}

func (s *Server) handleAddChild(ctx context.Context, request mcp.CallToolRequest, args addChildArgs) (NodeResult, error) {
	added, err := s.registry.AddChild(ctx, args.ParentID, tree.Draft{
		Name:        args.Name,
		Description: args.Description,
		Kind:        domain.Kind(args.Kind),
		Status:      domain.Status(args.Status),
		UseCases:    args.UseCases,
	})
	if err != nil {
		s.logger.Warn("MCP add_child rejected", "parent_id", args.ParentID, "err", err)
		return NodeResult{}, err
	}
	return NodeResult{Node: added}, nil
}

func (s *Server) handleSnippet(ctx context.Context, request mcp.CallToolRequest, args snippetArgs) (snippet.Snippet, error) {
	return s.registry.Snippet(args.NodeID, snippet.Format(strings.ToLower(args.Format)))
}

func (s *Server) handleExport(ctx context.Context, request mcp.CallToolRequest, args nodeArgs) (ExportResult, error) {
	name, content, err := s.registry.Export(args.NodeID)
	if err != nil {
		return ExportResult{}, err
	}
	return ExportResult{Filename: name, Content: content}, nil
}

func (s *Server) handleInspect(ctx context.Context, request mcp.CallToolRequest, args nodeArgs) (IdentifierReport, error) {
	report := IdentifierReport{Info: s.registry.InspectIdentifier(args.Identifier)}
	if n, err := s.registry.NodeByIdentifier(args.Identifier); err == nil {
		report.Node = flat([]*domain.Node{n})[0]
	}
	return report, nil
}

func (s *Server) handleSuggest(ctx context.Context, request mcp.CallToolRequest, args suggestArgs) (SuggestionList, error) {
	if strings.TrimSpace(args.UseCase) == "" {
		return SuggestionList{}, fmt.Errorf("use_case is required")
	}
	out, err := s.registry.Suggest(ctx, args.ParentID, args.UseCase)
	if err != nil {
		s.logger.Error("MCP suggest_children failed", "parent_id", args.ParentID, "err", err)
		return SuggestionList{}, err
	}
	return SuggestionList{Suggestions: out}, nil
}

func flat(nodes []*domain.Node) []*domain.Node {
	out := make([]*domain.Node, len(nodes))
	for i, n := range nodes {
		cp := n.ShallowCopy()
		cp.Children = nil
		out[i] = cp
	}
	return out
}
