package ports

import (
	"context"

	"github.com/aretw0/oidtree/pkg/domain"
)

// Suggester proposes candidate children for a parent node.
// Implementations return exactly domain.SuggestionCount records or an error,
// and never touch the tree.
type Suggester interface {
	Suggest(ctx context.Context, req domain.SuggestRequest) ([]domain.Suggestion, error)
}
