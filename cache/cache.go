package cache

import (
	"context"
	"time"

	"github.com/cartloom/taxbridge/types/api/responses"
)

// DefaultTTL is the idle lifetime of a cached tax response.
const DefaultTTL = 5 * time.Minute

// ComputeFunc produces a tax response on a cache miss.
type ComputeFunc func(ctx context.Context) (*responses.GetTaxResponse, error)

// TaxCache is a read-through cache for whole-order tax responses. Two
// concurrent computations for the same key may both miss and both compute;
// that is acceptable (the external lookup is an idempotent read), but a
// completed write from either must be visible to subsequent readers before
// the idle window expires. No single-process affinity is assumed.
type TaxCache interface {
	GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute ComputeFunc) (*responses.GetTaxResponse, error)
}
