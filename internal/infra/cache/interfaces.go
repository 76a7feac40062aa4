package cache

import (
	"context"

	"trinket-service/internal/domain"
)

// ProductCacheInterface is a best-effort cache: failures are logged and
// reported as misses, never returned to the caller.
//
// A fill reads Version before loading the product and passes it to Set. Set
// drops the write when Invalidate ran for that id in between, so a row read
// before a mutation never outlives the mutation's invalidation.
type ProductCacheInterface interface {
	Get(ctx context.Context, id uint64) (*domain.Product, bool)
	Version(ctx context.Context, id uint64) int64
	Set(ctx context.Context, p *domain.Product, version int64)
	Invalidate(ctx context.Context, ids ...uint64)
}

var (
	_ ProductCacheInterface = (*ProductCache)(nil)
	_ ProductCacheInterface = NopProductCache{}
)
