package suggest

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/aretw0/oidtree/pkg/domain"
)

// Static proposes children without calling any service. It is the offline
// provider used when no endpoint is configured, and it is deterministic: the
// same request always yields the same three records.
type Static struct{}

// NewStatic returns the offline provider.
func NewStatic() *Static { return &Static{} }

var staticShapes = []struct {
	suffix string
	desc   string
	kind   domain.Kind
}{
	{"Services", "Grouping arc for %s services under %s", domain.KindBranch},
	{"Gateway", "Integration gateway handling %s for %s", domain.KindLeaf},
	{"Audit Log", "Audit trail of %s activity in %s", domain.KindLeaf},
}

// Suggest implements ports.Suggester.
func (s *Static) Suggest(ctx context.Context, req domain.SuggestRequest) ([]domain.Suggestion, error) {
	if req.Parent == nil {
		return nil, ErrNoParent
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	topic := titleCase(req.UseCase)
	if topic == "" {
		topic = req.Parent.Name
	}
	useCase := strings.TrimSpace(req.UseCase)
	if useCase == "" {
		useCase = strings.ToLower(req.Parent.Name)
	}

	out := make([]domain.Suggestion, 0, len(staticShapes))
	for _, shape := range staticShapes {
		out = append(out, domain.Suggestion{
			Name:        topic + " " + shape.suffix,
			Description: fmt.Sprintf(shape.desc, useCase, req.Parent.Name),
			UseCases:    []string{useCase},
			Kind:        shape.kind,
		})
	}
	return out, nil
}

// titleCase upper-cases the first letter of each word and keeps at most four words.
func titleCase(s string) string {
	words := strings.Fields(s)
	if len(words) > 4 {
		words = words[:4]
	}
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
