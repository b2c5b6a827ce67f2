package snippet_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/oidtree/pkg/domain"
	"github.com/aretw0/oidtree/pkg/snippet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 1, 2, 3, 4, 5, 6_000_000, time.UTC)

func testContext() snippet.Context {
	return snippet.Context{Namespace: domain.DefaultNamespace(), Now: fixedNow}
}

func normalizer() *domain.Node {
	return &domain.Node{
		ID:          "ai-normalizer",
		Identifier:  "1.3.6.1.4.1.61026.3.2.1",
		Name:        "AI Normalizer Service",
		Description: "AI-powered clinical coding and claim normalization engine.",
		Kind:        domain.KindLeaf,
		Status:      domain.StatusActive,
	}
}

func hostile() *domain.Node {
	return &domain.Node{
		ID:          "quote-node",
		Identifier:  "1.3.6.1.4.1.61026.9",
		Name:        `O'Brien "Gateway" $HOME`,
		Description: "line one\nline two with \\ and ' and \"",
		Kind:        domain.KindLeaf,
		Status:      domain.StatusDeprecated,
	}
}

func render(t *testing.T, format snippet.Format, node *domain.Node) string {
	t.Helper()
	s, err := snippet.Render(format, node, testContext())
	require.NoError(t, err)
	return s.Code
}

func TestCatalogueOrder(t *testing.T) {
	assert.Equal(t, []snippet.Format{
		snippet.FormatFHIR, snippet.FormatMCP, snippet.FormatX509,
		snippet.FormatAPI, snippet.FormatDatabase, snippet.FormatQRCode,
	}, snippet.Formats())

	for _, g := range snippet.Catalogue() {
		assert.NotEmpty(t, g.Title)
		assert.NotEmpty(t, g.Language)
	}
}

func TestLookup(t *testing.T) {
	g, ok := snippet.Lookup(snippet.FormatX509)
	require.True(t, ok)
	assert.Equal(t, "X.509 Certificate", g.Title)

	_, ok = snippet.Lookup("pdf")
	assert.False(t, ok)

	_, err := snippet.Render("pdf", normalizer(), testContext())
	assert.ErrorIs(t, err, snippet.ErrUnknownFormat)

	_, err = snippet.Render(snippet.FormatFHIR, nil, testContext())
	assert.ErrorIs(t, err, snippet.ErrNoNode)
}

func TestFHIR(t *testing.T) {
	expected := `{
  "extension": [
    {
      "url": "http://brainsait.com/fhir/StructureDefinition/provenance",
      "valueIdentifier": {
        "system": "urn:oid:1.3.6.1.4.1.61026.3.2.1",
        "value": "AI Normalizer Service",
        "assigner": {
          "display": "BrainSAIT Enterprise"
        }
      }
    }
  ]
}`
	assert.Equal(t, expected, render(t, snippet.FormatFHIR, normalizer()))
}

func TestMCP(t *testing.T) {
	code := render(t, snippet.FormatMCP, normalizer())

	var doc struct {
		Tools []struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			Metadata    struct {
				URN      string `json:"urn"`
				Provider string `json:"provider"`
				Version  string `json:"version"`
			} `json:"metadata"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal([]byte(code), &doc))
	require.Len(t, doc.Tools, 1)
	assert.Equal(t, "ai_normalizer", doc.Tools[0].Name)
	assert.Equal(t, "urn:oid:1.3.6.1.4.1.61026.3.2.1", doc.Tools[0].Metadata.URN)
	assert.Equal(t, "BrainSAIT Enterprise", doc.Tools[0].Metadata.Provider)
	assert.Equal(t, "1.0.0", doc.Tools[0].Metadata.Version)
}

func TestJSONFormatsStayValid(t *testing.T) {
	node := hostile()
	for _, format := range []snippet.Format{snippet.FormatFHIR, snippet.FormatMCP, snippet.FormatQRCode} {
		t.Run(string(format), func(t *testing.T) {
			code := render(t, format, node)
			assert.True(t, json.Valid([]byte(code)), code)
		})
	}

	var mcp map[string][]map[string]any
	require.NoError(t, json.Unmarshal([]byte(render(t, snippet.FormatMCP, node)), &mcp))
	assert.Equal(t, node.Description, mcp["tools"][0]["description"])
}

func TestX509(t *testing.T) {
	code := render(t, snippet.FormatX509, normalizer())

	assert.Contains(t, code, "[ brainsait_extension ]")
	assert.Contains(t, code, "subjectAltName = otherName:1.3.6.1.4.1.61026.3.2.1;UTF8:AI Normalizer Service")
	assert.Contains(t, code, "certificatePolicies = 1.3.6.1.4.1.61026.3.2.1")
	assert.Contains(t, code, "1.3.6.1.4.1.61026 = ASN1:UTF8String:BrainSAIT Enterprise")
	assert.Contains(t, code, "# Generated: 2025-01-02T03:04:05.006Z")
	assert.Contains(t, code, "-extensions brainsait_extension")
}

func TestX509_SingleLineValues(t *testing.T) {
	node := hostile()
	node.Name = "two\nlines # not a comment"
	code := render(t, snippet.FormatX509, node)

	assert.Contains(t, code, `UTF8:two lines \# not a comment`)
	for _, line := range strings.Split(code, "\n") {
		assert.NotEqual(t, "lines", strings.TrimSpace(line))
	}
}

func TestAPI(t *testing.T) {
	code := render(t, snippet.FormatAPI, normalizer())

	assert.Contains(t, code, "'X-BrainSAIT-OID': '1.3.6.1.4.1.61026.3.2.1'")
	assert.Contains(t, code, "'X-BrainSAIT-Service': 'AI Normalizer Service'")
	assert.Contains(t, code, "'X-BrainSAIT-Provider': 'BrainSAIT Enterprise'")
	assert.Contains(t, code, "fetch('https://api.brainsait.com/endpoint'")
	assert.Contains(t, code, `-H "X-BrainSAIT-OID: 1.3.6.1.4.1.61026.3.2.1"`)
}

func TestAPI_Escaping(t *testing.T) {
	code := render(t, snippet.FormatAPI, hostile())

	assert.Contains(t, code, `'X-BrainSAIT-Service': 'O\'Brien "Gateway" $HOME'`)
	assert.Contains(t, code, `-H "X-BrainSAIT-Service: O'Brien \"Gateway\" \$HOME"`)
}

func TestDatabase(t *testing.T) {
	code := render(t, snippet.FormatDatabase, normalizer())

	assert.Contains(t, code, "CREATE TABLE brainsait_assets (")
	assert.Contains(t, code, "DEFAULT '1.3.6.1.4.1.61026.3.2.1'")
	assert.Contains(t, code, "CHECK (oid LIKE '1.3.6.1.4.1.61026.%')")
	assert.Contains(t, code, "CREATE INDEX idx_oid ON brainsait_assets(oid);")
	assert.Contains(t, code, `'{"status": "active", "description": "AI-powered clinical coding and claim normalization engine."}'::jsonb`)
}

func TestDatabase_Escaping(t *testing.T) {
	code := render(t, snippet.FormatDatabase, hostile())

	assert.Contains(t, code, `'O''Brien "Gateway" $HOME',`)
	assert.Contains(t, code, `"description": "line one\nline two with \\ and '' and \""}'::jsonb`)
}

func TestQRCode(t *testing.T) {
	code := render(t, snippet.FormatQRCode, normalizer())

	expected := `{
  "oid": "1.3.6.1.4.1.61026.3.2.1",
  "name": "AI Normalizer Service",
  "issuer": "BrainSAIT Enterprise",
  "pen": "61026",
  "timestamp": "2025-01-02T03:04:05.006Z"
}`
	assert.Equal(t, expected, code)
}

func TestDeterministicWithInjectedTime(t *testing.T) {
	a, err := snippet.RenderAll(normalizer(), testContext())
	require.NoError(t, err)
	b, err := snippet.RenderAll(normalizer(), testContext())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCustomNamespace(t *testing.T) {
	ctx := snippet.Context{
		Namespace: domain.Namespace{
			Root:         "1.3.6.1.4.1.99999",
			Organization: "Acme Labs",
			Domain:       "acme.io",
			HeaderPrefix: "X-Acme",
		},
		Now: fixedNow,
	}
	node := &domain.Node{ID: "svc", Identifier: "1.3.6.1.4.1.99999.1", Name: "Svc", Status: domain.StatusActive}

	api, err := snippet.Render(snippet.FormatAPI, node, ctx)
	require.NoError(t, err)
	assert.Contains(t, api.Code, "'X-Acme-OID': '1.3.6.1.4.1.99999.1'")

	db, err := snippet.Render(snippet.FormatDatabase, node, ctx)
	require.NoError(t, err)
	assert.Contains(t, db.Code, "CREATE TABLE acme_assets")
	assert.Contains(t, db.Code, "LIKE '1.3.6.1.4.1.99999.%'")

	qr, err := snippet.Render(snippet.FormatQRCode, node, ctx)
	require.NoError(t, err)
	assert.Contains(t, qr.Code, `"pen": "99999"`)
}
