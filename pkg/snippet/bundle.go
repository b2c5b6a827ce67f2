package snippet

import (
	"strings"

	"github.com/aretw0/oidtree/pkg/domain"
)

var rule = strings.Repeat("=", 60)

// Bundle renders every generator into one plain-text document, one titled
// section per format in catalogue order.
func Bundle(node *domain.Node, ctx Context) (string, error) {
	snippets, err := RenderAll(node, ctx)
	if err != nil {
		return "", err
	}

	sections := make([]string, 0, len(snippets))
	for _, s := range snippets {
		sections = append(sections, rule+"\n"+strings.ToUpper(s.Title)+"\n"+rule+"\n\n"+s.Code+"\n\n")
	}
	return strings.Join(sections, "\n"), nil
}

// BundleFilename is the suggested download name for node's bundle.
func BundleFilename(node *domain.Node) string {
	return node.ID + "-implementations.txt"
}
