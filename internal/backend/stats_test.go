package backend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veganchecker/vcadmin/internal/cache"
)

func statsCaller() *fakeCaller {
	return newFakeCaller().
		respond("admin_get_ingredient_stats", `{
			"total_ingredients": 227000, "with_classification": 200000, "without_classification": 27000,
			"class_distribution": [{"class": "vegan", "count": 120000, "percentage": 52.9}],
			"primary_class_distribution": [{"primary_class": "vegan", "count": 150000, "percentage": 66.1}]}`).
		respond("admin_get_product_stats", `{
			"total_products": 410000, "classified_products": 300000, "unclassified_products": 110000,
			"vegan_products": 85000, "vegetarian_products": 65000,
			"classification_distribution": [{"classification": "vegan", "count": 85000, "percentage": 21}],
			"brand_distribution": [{"brand": "Oatly", "count": 120, "percentage": 0.03}]}`).
		respond("admin_user_stats", `[
			{"stat_type": "total_users", "count": 15000},
			{"stat_type": "email_users", "count": 9000},
			{"stat_type": "recent_users_30d", "count": 700}]`).
		respond("admin_actionlog_recent", `[{"id": "1", "type": "scan", "created_at": "2026-03-01T11:00:00Z"}]`)
}

func TestStats_Assembles(t *testing.T) {
	caller := statsCaller()
	c := newTestClient(t, caller)

	stats, err := c.Stats(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 227000, stats.Ingredients.Total)
	require.Len(t, stats.Ingredients.ClassDistribution, 1)
	assert.Equal(t, "vegan", stats.Ingredients.ClassDistribution[0].Label)
	assert.Equal(t, "vegan", stats.Ingredients.PrimaryClassDistribution[0].Label)
	assert.Equal(t, 85000, stats.Products.Vegan)
	assert.Equal(t, "Oatly", stats.Products.BrandDistribution[0].Label)
	assert.InDelta(t, 21.0, stats.Products.ClassificationDistribution[0].Percentage, 0.001)
	assert.Equal(t, UserStats{Total: 15000, EmailUsers: 9000, RecentUsers: 700}, stats.Users)
	assert.Len(t, stats.RecentActivity, 1)
	assert.False(t, stats.Cached)

	recent := caller.last(t, "admin_actionlog_recent")
	assert.Equal(t, 10, recent.Params["limit_count"])
}

func TestStats_FailureFailsSummary(t *testing.T) {
	boom := errors.New("timeout")
	caller := statsCaller().fail("admin_user_stats", boom)
	c := newTestClient(t, caller)

	_, err := c.Stats(context.Background(), false)
	require.ErrorIs(t, err, boom)
}

func TestStats_Cache(t *testing.T) {
	store, err := cache.NewFileStore(t.TempDir(), true)
	require.NoError(t, err)

	caller := statsCaller()
	c := newTestClient(t, caller, WithStatsCache(store, time.Minute))
	ctx := context.Background()

	first, err := c.Stats(ctx, false)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := c.Stats(ctx, false)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Products.Total, second.Products.Total)
	assert.Equal(t, "vegan", second.Ingredients.ClassDistribution[0].Label)
	assert.Len(t, caller.callsTo("admin_get_product_stats"), 1)

	third, err := c.Stats(ctx, true)
	require.NoError(t, err)
	assert.False(t, third.Cached)
	assert.Len(t, caller.callsTo("admin_get_product_stats"), 2)
}

func TestStats_DisabledCache(t *testing.T) {
	store, err := cache.NewFileStore("", false)
	require.NoError(t, err)

	caller := statsCaller()
	c := newTestClient(t, caller, WithStatsCache(store, time.Minute))

	_, err = c.Stats(context.Background(), false)
	require.NoError(t, err)
	_, err = c.Stats(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, caller.callsTo("admin_get_ingredient_stats"), 2)
}
