package snippet_test

import (
	"strings"
	"testing"

	"github.com/aretw0/oidtree/pkg/snippet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundle(t *testing.T) {
	node := normalizer()
	bundle, err := snippet.Bundle(node, testContext())
	require.NoError(t, err)

	rule := strings.Repeat("=", 60)
	fhir := render(t, snippet.FormatFHIR, node)
	assert.True(t, strings.HasPrefix(bundle, rule+"\nFHIR EXTENSION\n"+rule+"\n\n"+fhir+"\n\n\n"+rule+"\nMCP TOOL URN\n"))

	titles := []string{"FHIR EXTENSION", "MCP TOOL URN", "X.509 CERTIFICATE", "API HEADERS", "DATABASE SCHEMA", "QR CODE DATA"}
	last := -1
	for _, title := range titles {
		idx := strings.Index(bundle, rule+"\n"+title+"\n"+rule)
		require.NotEqual(t, -1, idx, title)
		assert.Greater(t, idx, last, "sections must follow catalogue order")
		last = idx
	}

	qr := render(t, snippet.FormatQRCode, node)
	assert.True(t, strings.HasSuffix(bundle, qr+"\n\n"))
}

func TestBundleFilename(t *testing.T) {
	assert.Equal(t, "ai-normalizer-implementations.txt", snippet.BundleFilename(normalizer()))
}
