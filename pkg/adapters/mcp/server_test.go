package mcp_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/oidtree"
	oidmcp "github.com/aretw0/oidtree/pkg/adapters/mcp"
	"github.com/aretw0/oidtree/pkg/domain"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*oidtree.Registry, *client.Client) {
	t.Helper()
	ctx := context.Background()

	reg := oidtree.New()
	require.NoError(t, reg.Open(ctx))
	t.Cleanup(func() { _ = reg.Close() })

	srv := oidmcp.NewServer(reg, "0.0.0-test")
	c, err := client.NewInProcessClient(srv.MCPServer())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	require.NoError(t, c.Start(ctx))
	_, err = c.Initialize(ctx, mcp.InitializeRequest{Params: mcp.InitializeParams{
		ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
		ClientInfo:      mcp.Implementation{Name: "test", Version: "1"},
	}})
	require.NoError(t, err)
	return reg, c
}

func call(t *testing.T, c *client.Client, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := c.CallTool(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err)
	return res
}

func structured[T any](t *testing.T, res *mcp.CallToolResult) T {
	t.Helper()
	require.False(t, res.IsError, text(res))
	data, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	var v T
	require.NoError(t, json.Unmarshal(data, &v))
	return v
}

func text(res *mcp.CallToolResult) string {
	for _, c := range res.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestMCP_ListsTools(t *testing.T) {
	_, c := newClient(t)

	tools, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
	require.NoError(t, err)

	names := []string{}
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"search_nodes", "get_node", "get_path", "next_identifier", "add_child",
		"generate_snippet", "export_node", "inspect_identifier", "suggest_children",
	}, names)
}

func TestMCP_Browse(t *testing.T) {
	_, c := newClient(t)

	list := structured[oidmcp.NodeList](t, call(t, c, "search_nodes", map[string]any{"query": "nphies"}))
	require.Len(t, list.Nodes, 3)
	assert.Equal(t, "nphies-connector", list.Nodes[2].ID)

	byIdent := structured[oidmcp.NodeResult](t, call(t, c, "get_node", map[string]any{"identifier": "1.3.6.1.4.1.61026.3.3.1"}))
	assert.Equal(t, "crewai", byIdent.Node.ID)

	path := structured[oidmcp.NodeList](t, call(t, c, "get_path", map[string]any{"node_id": "crewai"}))
	assert.Equal(t, "root", path.Nodes[0].ID)

	res := call(t, c, "get_node", map[string]any{"node_id": "missing"})
	assert.True(t, res.IsError)
	assert.Contains(t, text(res), "not found")
}

func TestMCP_AddChild(t *testing.T) {
	reg, c := newClient(t)

	next := structured[oidmcp.NextIdentifierResult](t, call(t, c, "next_identifier", map[string]any{"node_id": "root"}))
	assert.Equal(t, "1.3.6.1.4.1.61026.5", next.Identifier)

	added := structured[oidmcp.NodeResult](t, call(t, c, "add_child", map[string]any{
		"parent_id":   "root",
		"name":        "Test Module",
		"description": "x",
		"kind":        "branch",
		"use_cases":   []string{"testing"},
	}))
	assert.Equal(t, "test-module", added.Node.ID)
	assert.Equal(t, next.Identifier, added.Node.Identifier)
	assert.Equal(t, domain.KindBranch, added.Node.Kind)
	assert.Equal(t, uint64(1), reg.Snapshot().Version)

	res := call(t, c, "add_child", map[string]any{"parent_id": "root", "name": " ", "description": "x"})
	assert.True(t, res.IsError)
	assert.Equal(t, uint64(1), reg.Snapshot().Version)
}

func TestMCP_SnippetsAndInspect(t *testing.T) {
	_, c := newClient(t)

	sn := structured[map[string]any](t, call(t, c, "generate_snippet", map[string]any{"node_id": "crewai", "format": "FHIR"}))
	assert.Contains(t, sn["code"], "urn:oid:1.3.6.1.4.1.61026.3.3.1")

	bundle := structured[oidmcp.ExportResult](t, call(t, c, "export_node", map[string]any{"node_id": "crewai"}))
	assert.Equal(t, "crewai-implementations.txt", bundle.Filename)

	report := structured[oidmcp.IdentifierReport](t, call(t, c, "inspect_identifier", map[string]any{"identifier": "1.3.6.1.4.1.61026.3.3.1"}))
	assert.True(t, report.Info.InNamespace)
	require.NotNil(t, report.Node)
	assert.Equal(t, "crewai", report.Node.ID)
}

func TestMCP_Suggest(t *testing.T) {
	reg, c := newClient(t)

	out := structured[oidmcp.SuggestionList](t, call(t, c, "suggest_children", map[string]any{
		"parent_id": "healthcare-platform",
		"use_case":  "lab results",
	}))
	assert.Len(t, out.Suggestions, domain.SuggestionCount)
	assert.Equal(t, uint64(0), reg.Snapshot().Version, "suggesting never edits the tree")

	res := call(t, c, "suggest_children", map[string]any{"parent_id": "root", "use_case": ""})
	assert.True(t, res.IsError)
}

func TestMCP_Resources(t *testing.T) {
	_, c := newClient(t)
	ctx := context.Background()

	res, err := c.ReadResource(ctx, mcp.ReadResourceRequest{Params: mcp.ReadResourceParams{URI: oidmcp.RegistryURI}})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	body := res.Contents[0].(mcp.TextResourceContents)
	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal([]byte(body.Text), &snap))
	assert.Equal(t, "root", snap.Root.ID)

	res, err = c.ReadResource(ctx, mcp.ReadResourceRequest{Params: mcp.ReadResourceParams{URI: "oidtree://nodes/crewai"}})
	require.NoError(t, err)
	assert.Contains(t, res.Contents[0].(mcp.TextResourceContents).Text, `"id":"crewai"`)
}
