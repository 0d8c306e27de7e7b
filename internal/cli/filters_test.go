package cli_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veganchecker/vcadmin/internal/backend"
	"github.com/veganchecker/vcadmin/internal/cli"
	"github.com/veganchecker/vcadmin/internal/search"
)

func TestParseScreenFilters(t *testing.T) {
	t.Parallel()

	ingredients, err := backend.LookupScreen("ingredients")
	require.NoError(t, err)
	products, err := backend.LookupScreen("products")
	require.NoError(t, err)

	tests := []struct {
		name    string
		info    backend.ScreenInfo
		filters []string
		want    map[string][]string
		wantErr error
	}{
		{
			name:    "no filters",
			info:    ingredients,
			filters: nil,
			want:    map[string][]string{},
		},
		{
			name:    "multi-valued class with null",
			info:    ingredients,
			filters: []string{"class=vegan,null", "primary_class=vegetarian"},
			want:    map[string][]string{"class": {"null", "vegan"}, "primary_class": {"vegetarian"}},
		},
		{
			name:    "unknown value passes through",
			info:    ingredients,
			filters: []string{"class=brand-new-class"},
			want:    map[string][]string{"class": {"brand-new-class"}},
		},
		{
			name:    "dimension not accepted by screen",
			info:    products,
			filters: []string{"class=vegan"},
			wantErr: backend.ErrUnsupportedFilter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fs, err := cli.ParseScreenFilters(context.Background(), tt.info, tt.filters)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, fs.Map())
		})
	}
}

func TestParseScreenFilters_Malformed(t *testing.T) {
	t.Parallel()

	info, err := backend.LookupScreen("subscriptions")
	require.NoError(t, err)

	_, err = cli.ParseScreenFilters(context.Background(), info, []string{"level"})
	require.Error(t, err)

	var fe *search.FilterError
	assert.True(t, errors.As(err, &fe))
}
