package usecase

import (
	"context"
	"math"
	"testing"

	"FolioPull/internal/domain/identity"
	"FolioPull/internal/domain/models"
	domrepo "FolioPull/internal/domain/repository"
	"FolioPull/internal/repository"
	"FolioPull/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitFixture(t *testing.T) (*LimitService, []models.Entity) {
	t.Helper()
	mc := cache.NewMemoryCache(cache.WithMemoryCleanup(0))
	t.Cleanup(func() { _ = mc.Close() })

	registry := repository.NewMemoryEntityRegistry()
	entities := testCatalog().Entities(onlineSnapshot())
	require.NoError(t, registry.Register(context.Background(), entities...))
	return NewLimitService(mc, registry, "e1"), entities
}

func TestLimitSetAndGet(t *testing.T) {
	ctx := context.Background()
	svc, _ := newLimitFixture(t)
	id := "ghostfolio_holding_low_limit_a1_aapl_e1"

	_, ok, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	e, err := svc.Set(ctx, id, 120.5)
	require.NoError(t, err)
	assert.Equal(t, string(identity.KindHoldingLowLimit), e.Kind)

	v, ok, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 120.5, v)
}

func TestLimitSetRejects(t *testing.T) {
	ctx := context.Background()
	svc, _ := newLimitFixture(t)

	_, err := svc.Set(ctx, "ghostfolio_holding_low_limit_a1_aapl_e1", -1)
	assert.ErrorIs(t, err, ErrInvalidLimit)

	_, err = svc.Set(ctx, "ghostfolio_holding_low_limit_a1_aapl_e1", math.NaN())
	assert.ErrorIs(t, err, ErrInvalidLimit)

	_, err = svc.Set(ctx, "ghostfolio_total_value_e1", 10)
	assert.ErrorIs(t, err, ErrNotLimitEntity)

	_, err = svc.Set(ctx, "ghostfolio_holding_low_limit_a1_nope_e1", 10)
	assert.ErrorIs(t, err, domrepo.ErrEntityNotFound)
}

func TestLimitForAndForget(t *testing.T) {
	ctx := context.Background()
	svc, entities := newLimitFixture(t)

	_, err := svc.Set(ctx, "ghostfolio_watchlist_high_limit_msft_e1", 500)
	require.NoError(t, err)
	_, err = svc.Set(ctx, "ghostfolio_holding_high_limit_a1_aapl_e1", 0)
	require.NoError(t, err)

	limits, err := svc.For(ctx, entities)
	require.NoError(t, err)
	assert.Equal(t, Limits{
		"ghostfolio_watchlist_high_limit_msft_e1":  500,
		"ghostfolio_holding_high_limit_a1_aapl_e1": 0,
	}, limits)

	require.NoError(t, svc.Forget(ctx, "ghostfolio_watchlist_high_limit_msft_e1"))
	_, ok, err := svc.Get(ctx, "ghostfolio_watchlist_high_limit_msft_e1")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, svc.Forget(ctx))
}
