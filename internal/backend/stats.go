package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/veganchecker/vcadmin/internal/cache"
	"github.com/veganchecker/vcadmin/internal/rpc"
)

// Statistics procedures.
//
//nolint:gochecknoglobals // Procedure descriptors.
var (
	procIngredientStats = rpc.Scalar("admin_get_ingredient_stats")
	procProductStats    = rpc.Scalar("admin_get_product_stats")
	procUserStats       = rpc.SetOf("admin_user_stats")
	procRecentActivity  = rpc.SetOf("admin_actionlog_recent")
)

const (
	statsCacheKey       = "stats:dashboard"
	recentActivityLimit = 10
)

// Share is one bucket of a distribution.
type Share struct {
	Label      string  `json:"label"      yaml:"label"`
	Count      int     `json:"count"      yaml:"count"`
	Percentage float64 `json:"percentage" yaml:"percentage"`
}

// UnmarshalJSON accepts the per-distribution label keys the backend uses.
func (s *Share) UnmarshalJSON(data []byte) error {
	var raw struct {
		Label          *string `json:"label"`
		Class          *string `json:"class"`
		PrimaryClass   *string `json:"primary_class"`
		Classification *string `json:"classification"`
		Brand          *string `json:"brand"`
		Count          int     `json:"count"`
		Percentage     float64 `json:"percentage"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, label := range []*string{raw.Label, raw.Class, raw.PrimaryClass, raw.Classification, raw.Brand} {
		if label != nil {
			s.Label = *label
			break
		}
	}
	s.Count = raw.Count
	s.Percentage = raw.Percentage
	return nil
}

// IngredientStats summarizes the ingredient table.
type IngredientStats struct {
	Total                    int     `json:"total_ingredients"          yaml:"total_ingredients"`
	WithClassification       int     `json:"with_classification"        yaml:"with_classification"`
	WithoutClassification    int     `json:"without_classification"     yaml:"without_classification"`
	ClassDistribution        []Share `json:"class_distribution"         yaml:"class_distribution"`
	PrimaryClassDistribution []Share `json:"primary_class_distribution" yaml:"primary_class_distribution"`
}

// ProductStats summarizes the product table.
type ProductStats struct {
	Total                      int     `json:"total_products"              yaml:"total_products"`
	Classified                 int     `json:"classified_products"         yaml:"classified_products"`
	Unclassified               int     `json:"unclassified_products"       yaml:"unclassified_products"`
	Vegan                      int     `json:"vegan_products"              yaml:"vegan_products"`
	Vegetarian                 int     `json:"vegetarian_products"         yaml:"vegetarian_products"`
	ClassificationDistribution []Share `json:"classification_distribution" yaml:"classification_distribution"`
	BrandDistribution          []Share `json:"brand_distribution"          yaml:"brand_distribution"`
}

// UserStats counts app users.
type UserStats struct {
	Total       int `json:"total_users"      yaml:"total_users"`
	EmailUsers  int `json:"email_users"      yaml:"email_users"`
	RecentUsers int `json:"recent_users_30d" yaml:"recent_users_30d"`
}

// DashboardStats is the admin dashboard summary.
type DashboardStats struct {
	Ingredients    IngredientStats `json:"ingredients"     yaml:"ingredients"`
	Products       ProductStats    `json:"products"        yaml:"products"`
	Users          UserStats       `json:"users"           yaml:"users"`
	RecentActivity []ActivityEntry `json:"recent_activity" yaml:"recent_activity"`
	FetchedAt      time.Time       `json:"fetched_at"      yaml:"fetched_at"`

	// Cached is set when the result came from the statistics cache.
	Cached bool `json:"-" yaml:"-"`
}

type userStat struct {
	StatType string `json:"stat_type"`
	Count    int    `json:"count"`
}

// Stats returns the dashboard summary, reusing a cached copy younger than the
// configured TTL unless refresh is set. The four procedures run concurrently; any
// failure fails the whole summary.
func (c *Client) Stats(ctx context.Context, refresh bool) (*DashboardStats, error) {
	if c.stats != nil && !refresh {
		if cached, ok := cache.GetJSON[DashboardStats](c.stats, statsCacheKey); ok {
			cached.Cached = true
			return &cached, nil
		}
	}

	var (
		stats = &DashboardStats{}
		users []userStat
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.call(gctx, procIngredientStats, nil, &stats.Ingredients)
	})
	g.Go(func() error {
		return c.call(gctx, procProductStats, nil, &stats.Products)
	})
	g.Go(func() error {
		return c.call(gctx, procUserStats, nil, &users)
	})
	g.Go(func() error {
		return c.call(gctx, procRecentActivity, rpc.Params{"limit_count": recentActivityLimit}, &stats.RecentActivity)
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching dashboard stats: %w", err)
	}

	for _, u := range users {
		switch u.StatType {
		case "total_users":
			stats.Users.Total = u.Count
		case "email_users":
			stats.Users.EmailUsers = u.Count
		case "recent_users_30d":
			stats.Users.RecentUsers = u.Count
		}
	}
	stats.RecentActivity = nonNil(stats.RecentActivity)
	stats.FetchedAt = c.now().UTC()

	if c.stats != nil && c.stats.IsEnabled() {
		if err := cache.SetJSON(c.stats, statsCacheKey, stats, c.statsTTL); err != nil {
			c.logger.Warn().Ctx(ctx).
				Str("operation", "stats").
				Err(err).
				Msg("failed to cache dashboard stats")
		}
	}
	return stats, nil
}
