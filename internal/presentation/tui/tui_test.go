package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/oidtree/pkg/domain"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *domain.Node {
	return &domain.Node{
		ID: "root", Identifier: "1.2", Name: "Root", Kind: domain.KindRoot, Status: domain.StatusActive,
		Children: []*domain.Node{
			{
				ID: "a", Identifier: "1.2.1", Name: "Alpha", Kind: domain.KindBranch, Status: domain.StatusActive,
				Children: []*domain.Node{
					{ID: "a1", Identifier: "1.2.1.1", Name: "Alpha One", Kind: domain.KindLeaf, Status: domain.StatusExperimental},
				},
			},
			{ID: "b", Identifier: "1.2.2", Name: "Beta", Kind: domain.KindLeaf, Status: domain.StatusDeprecated},
		},
	}
}

func TestPrintTree_Ascii(t *testing.T) {
	var buf bytes.Buffer
	profile := termenv.Ascii
	PrintTree(&buf, sample(), TreeOptions{Profile: &profile})

	want := strings.Join([]string{
		"Root 1.2",
		"├── Alpha 1.2.1",
		"│   └── Alpha One 1.2.1.1 [experimental]",
		"└── Beta 1.2.2 [deprecated]",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestPrintTree_MaxDepth(t *testing.T) {
	var buf bytes.Buffer
	profile := termenv.Ascii
	PrintTree(&buf, sample(), TreeOptions{Profile: &profile, MaxDepth: 1})

	assert.NotContains(t, buf.String(), "Alpha One")
	assert.Contains(t, buf.String(), "Beta")
}

func TestNodeMarkdown(t *testing.T) {
	root := sample()
	a := root.Children[0]
	md := NodeMarkdown(a, []*domain.Node{root, a}, domain.InspectIdentifier(domain.Namespace{Root: "1.2"}, a.Identifier))

	assert.Contains(t, md, "# Alpha\n")
	assert.Contains(t, md, "_Root › Alpha_")
	assert.Contains(t, md, "| OID | `1.2.1` |")
	assert.Contains(t, md, "| URN | `urn:oid:1.2.1` |")
	assert.Contains(t, md, "- `1.2.1.1` Alpha One")
}

func TestNewRenderer_Plain(t *testing.T) {
	render := NewRenderer(true)
	out, err := render("# Title\n\nbody")
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "body")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "0.1.0\n")
	assert.Contains(t, buf.String(), "v0.1.0")
}
