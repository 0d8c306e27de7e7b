package cli

import (
	"context"
	"slices"

	"github.com/veganchecker/vcadmin/internal/backend"
	"github.com/veganchecker/vcadmin/internal/logging"
	"github.com/veganchecker/vcadmin/internal/search"
)

// ParseScreenFilters parses --filter "dim=v1,v2" expressions for a screen.
//
// Every dimension must be one the screen's procedure accepts. Values outside the
// screen's known option list are passed through but logged, since the backend
// may offer values this build does not know about.
func ParseScreenFilters(
	ctx context.Context,
	info backend.ScreenInfo,
	exprs []string,
) (search.FilterSet, error) {
	log := logging.FromContext(ctx)

	fs, err := search.ParseFilters(exprs)
	if err != nil {
		log.Warn().Ctx(ctx).
			Str("component", "cli").
			Str("operation", "parse_filters").
			Strs("filters", exprs).
			Err(err).
			Msg("invalid filter expression")
		return search.FilterSet{}, err
	}

	if err = info.CheckFilters(fs); err != nil {
		return search.FilterSet{}, err
	}

	for _, dim := range fs.Dimensions() {
		known, _ := info.Dimension(dim)
		for _, v := range fs.Values(dim) {
			if !slices.Contains(known.Values, v) {
				log.Warn().Ctx(ctx).
					Str("component", "cli").
					Str("operation", "parse_filters").
					Str("dimension", dim).
					Str("value", v).
					Strs("known_values", known.Values).
					Msg("filter value not in the known option list")
			}
		}
	}

	log.Debug().Ctx(ctx).
		Str("component", "cli").
		Str("operation", "parse_filters").
		Str("screen", string(info.Screen)).
		Str("filters", fs.String()).
		Msg("parsed filters")

	return fs, nil
}
