package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/congrego/congrego/internal/cache"
	"github.com/congrego/congrego/internal/event/domain"
)

// eventTTL bounds how long a cached event can lag behind writers in other
// processes. Local writes invalidate immediately.
const eventTTL = 30 * time.Second

type cachedRepository struct {
	inner domain.Repository
	cache cache.Cache[snowflake.ID, domain.Event]
}

// ProvideCached wraps the gorm repository with a short-lived read cache.
// Payment creation checks the target event on every request; the row itself
// almost never changes.
func ProvideCached() domain.Repository {
	return &cachedRepository{
		inner: Provide(),
		cache: cache.NewTTLCache[snowflake.ID, domain.Event](),
	}
}

func (r *cachedRepository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Event, error) {
	if cached, ok := r.cache.Get(id); ok {
		copied := cached
		return &copied, nil
	}
	event, err := r.inner.FindByID(ctx, db, id)
	if err != nil || event == nil {
		return event, err
	}
	r.cache.Set(id, *event, eventTTL)
	copied := *event
	return &copied, nil
}

func (r *cachedRepository) IncrementAmountCollected(ctx context.Context, db *gorm.DB, id snowflake.ID, delta decimal.Decimal) error {
	r.cache.Delete(id)
	return r.inner.IncrementAmountCollected(ctx, db, id, delta)
}

func (r *cachedRepository) IncrementQuantityParticipants(ctx context.Context, db *gorm.DB, id snowflake.ID, n int64) error {
	r.cache.Delete(id)
	return r.inner.IncrementQuantityParticipants(ctx, db, id, n)
}
