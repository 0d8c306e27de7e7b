package backend

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/veganchecker/vcadmin/internal/events"
	"github.com/veganchecker/vcadmin/internal/search"
)

// Screen names a list view.
type Screen string

// Screens served by the backend.
const (
	ScreenIngredients   Screen = "ingredients"
	ScreenProducts      Screen = "products"
	ScreenSubscriptions Screen = "subscriptions"
	ScreenProfiles      Screen = "profiles"
	ScreenActivity      Screen = "activity"
	ScreenNewest        Screen = "newest"
	ScreenUnclassified  Screen = "unclassified"
)

// Filter dimensions.
const (
	DimClass        = "class"
	DimPrimaryClass = "primary_class"
	DimLevel        = "level"
	DimType         = "type"
)

// Screen errors.
var (
	ErrUnknownScreen     = errors.New("unknown screen")
	ErrUnsupportedFilter = errors.New("unsupported filter dimension")
)

// Dimension is a filter a screen accepts, with the values the backend offers.
type Dimension struct {
	Name   string
	Values []string
}

// ScreenInfo describes how a screen searches.
type ScreenInfo struct {
	Screen Screen
	Title  string

	// Entity is the event entity whose mutations invalidate this screen.
	Entity string

	// ListAll screens fetch every record when the query is empty.
	ListAll bool

	// Searchable screens send the query text to the backend.
	Searchable bool

	// EstimatedTotal screens only learn whether a next page exists, so their
	// total count is a lower bound while more rows remain.
	EstimatedTotal bool

	Dimensions []Dimension
}

//nolint:gochecknoglobals // Read-only screen registry.
var screens = []ScreenInfo{
	{
		Screen:         ScreenIngredients,
		Title:          "Ingredients",
		Entity:         events.EntityIngredient,
		Searchable:     true,
		EstimatedTotal: true,
		Dimensions:     []Dimension{
			{Name: DimClass, Values: withNull(IngredientClasses)},
			{Name: DimPrimaryClass, Values: withNull(PrimaryClasses)},
		},
	},
	{
		Screen:         ScreenProducts,
		Title:          "Products",
		Entity:         events.EntityProduct,
		Searchable:     true,
		EstimatedTotal: true,
	},
	{
		Screen:         ScreenSubscriptions,
		Title:          "User subscriptions",
		Entity:         events.EntitySubscription,
		ListAll:        true,
		Searchable:     true,
		EstimatedTotal: true,
		Dimensions:     []Dimension{{Name: DimLevel, Values: SubscriptionLevels}},
	},
	{
		Screen:         ScreenProfiles,
		Title:          "Freebie profiles",
		Entity:         events.EntityProfile,
		ListAll:        true,
		Searchable:     true,
		EstimatedTotal: true,
	},
	{
		Screen:     ScreenActivity,
		Title:      "Activity log",
		ListAll:    true,
		Searchable: true,
		Dimensions: []Dimension{{Name: DimType, Values: ActivityTypes}},
	},
	{
		Screen:  ScreenNewest,
		Title:   "Newest ingredients",
		Entity:  events.EntityIngredient,
		ListAll: true,
	},
	{
		Screen:  ScreenUnclassified,
		Title:   "Unclassified ingredients",
		Entity:  events.EntityIngredient,
		ListAll: true,
	},
}

// Screens returns every screen in display order.
func Screens() []ScreenInfo {
	return slices.Clone(screens)
}

// ScreenNames returns the screen names in display order.
func ScreenNames() []string {
	names := make([]string, len(screens))
	for i, s := range screens {
		names[i] = string(s.Screen)
	}
	return names
}

// LookupScreen finds a screen by name.
func LookupScreen(name string) (ScreenInfo, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, s := range screens {
		if string(s.Screen) == name {
			return s, nil
		}
	}
	return ScreenInfo{}, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownScreen, name, strings.Join(ScreenNames(), ", "))
}

// Dimension returns the named dimension.
func (s ScreenInfo) Dimension(name string) (Dimension, bool) {
	for _, d := range s.Dimensions {
		if d.Name == name {
			return d, true
		}
	}
	return Dimension{}, false
}

// CheckFilters rejects dimensions the screen's procedure does not accept.
func (s ScreenInfo) CheckFilters(fs search.FilterSet) error {
	for _, dim := range fs.Dimensions() {
		if _, ok := s.Dimension(dim); !ok {
			return fmt.Errorf("%w: %s does not filter by %q", ErrUnsupportedFilter, s.Screen, dim)
		}
	}
	return nil
}

func mustScreen(screen Screen) ScreenInfo {
	info, err := LookupScreen(string(screen))
	if err != nil {
		panic(err)
	}
	return info
}

func withNull(values []string) []string {
	return append(slices.Clone(values), NullFilterValue)
}
