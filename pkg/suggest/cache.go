package suggest

import (
	"context"
	"strings"
	"time"

	"github.com/aretw0/oidtree/pkg/domain"
	"github.com/aretw0/oidtree/pkg/ports"
	gocache "github.com/patrickmn/go-cache"
)

const (
	// DefaultCacheTTL is how long a successful answer is reused.
	DefaultCacheTTL = 10 * time.Minute
	cleanupInterval = 5 * time.Minute
)

// Cached memoizes successful answers of another Suggester. Entries are keyed by
// the parent identifier and the normalised use case; failures are never cached.
type Cached struct {
	next  ports.Suggester
	cache *gocache.Cache
	ttl   time.Duration
}

// NewCached wraps next. A non-positive ttl uses DefaultCacheTTL.
func NewCached(next ports.Suggester, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cached{
		next:  next,
		cache: gocache.New(ttl, cleanupInterval),
		ttl:   ttl,
	}
}

// Suggest implements ports.Suggester.
func (c *Cached) Suggest(ctx context.Context, req domain.SuggestRequest) ([]domain.Suggestion, error) {
	if req.Parent == nil {
		return nil, ErrNoParent
	}
	key := cacheKey(req)
	if v, found := c.cache.Get(key); found {
		if cached, ok := v.([]domain.Suggestion); ok {
			return clone(cached), nil
		}
	}

	out, err := c.next.Suggest(ctx, req)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, clone(out), c.ttl)
	return out, nil
}

// Len reports the number of cached answers.
func (c *Cached) Len() int {
	return c.cache.ItemCount()
}

// Flush drops every cached answer.
func (c *Cached) Flush() {
	c.cache.Flush()
}

func cacheKey(req domain.SuggestRequest) string {
	useCase := strings.ToLower(strings.Join(strings.Fields(req.UseCase), " "))
	return req.Parent.Identifier + "|" + useCase
}

func clone(in []domain.Suggestion) []domain.Suggestion {
	out := make([]domain.Suggestion, len(in))
	for i, s := range in {
		s.UseCases = append([]string(nil), s.UseCases...)
		out[i] = s
	}
	return out
}
