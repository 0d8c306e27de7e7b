package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veganchecker/vcadmin/internal/search"
)

func ingredientRows(n int) string {
	rows := make([]string, n)
	for i := range rows {
		rows[i] = fmt.Sprintf(`{"title":"ingredient %d","class":"vegan","primary_class":null,"productcount":%d,`+
			`"lastupdated":"2025-01-02T03:04:05.123456+00:00","created":"2024-06-01"}`, i, i)
	}
	return "[" + strings.Join(rows, ",") + "]"
}

func request(t *testing.T, text string, filters search.FilterSet, offset, limit int) search.Request {
	t.Helper()
	q, _ := search.NormalizeQuery(text)
	return search.Request{Query: q, Filters: filters, Offset: offset, Limit: limit}
}

func TestSearchIngredients_Params(t *testing.T) {
	caller := newFakeCaller().respond("admin_search_ingredients_exact", ingredientRows(2))
	c := newTestClient(t, caller)

	filters := search.NewFilterSet().With(DimClass, "vegan", NullFilterValue)
	page, err := c.SearchIngredients(context.Background(), request(t, "soy*", filters, 40, 20))
	require.NoError(t, err)

	call := caller.last(t, "admin_search_ingredients_exact")
	assert.True(t, call.Proc.Set)
	assert.Equal(t, "soy%", call.Params["query"])
	assert.Equal(t, "starts_with", call.Params["search_type"])
	assert.Equal(t, 21, call.Params["limit_count"])
	assert.Equal(t, 40, call.Params["page_offset"])
	assert.Equal(t, []string{"null", "vegan"}, call.Params["class_filter"])
	assert.Nil(t, call.Params["primary_class_filter"])

	require.Len(t, page.Items, 2)
	assert.Equal(t, 42, page.TotalCount)
	first := page.Items[0]
	assert.Equal(t, "ingredient 0", first.Title)
	assert.Equal(t, "vegan", Deref(first.Class))
	assert.Nil(t, first.PrimaryClass)
	assert.Equal(t, 2025, first.LastUpdated.Year())
	assert.Equal(t, 2024, first.Created.Year())
}

func TestProbePage(t *testing.T) {
	tests := []struct {
		name      string
		rows      int
		offset    int
		limit     int
		wantItems int
		wantTotal int
	}{
		{"extra row means next page", 11, 0, 10, 10, 11},
		{"exact page is last", 10, 0, 10, 10, 10},
		{"short page", 3, 20, 10, 3, 23},
		{"empty page", 0, 0, 10, 0, 0},
		{"empty page past start", 0, 30, 10, 0, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := make([]int, tt.rows)
			page := probePage(rows, tt.offset, tt.limit)
			assert.Len(t, page.Items, tt.wantItems)
			assert.NotNil(t, page.Items)
			assert.Equal(t, tt.wantTotal, page.TotalCount)
		})
	}
}

func TestSearchIngredients_UnsupportedFilter(t *testing.T) {
	caller := newFakeCaller()
	c := newTestClient(t, caller)

	_, err := c.SearchIngredients(context.Background(), request(t, "x", search.NewFilterSet().With(DimLevel, "free"), 0, 10))
	require.ErrorIs(t, err, ErrUnsupportedFilter)
	assert.Empty(t, caller.callsTo("admin_search_ingredients_exact"))
}

func TestSearchProducts(t *testing.T) {
	caller := newFakeCaller().respond("admin_search_products",
		`[{"ean13":"0123456789012","product_name":"Oat Drink","brand":"Oatly","upc":null,"classification":"vegan"}]`)
	c := newTestClient(t, caller)

	page, err := c.SearchProducts(context.Background(), request(t, "oat", search.NewFilterSet(), 0, 20))
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Oat Drink", page.Items[0].Name)
	assert.Empty(t, page.Items[0].UPC)
	assert.Equal(t, 1, page.TotalCount)

	call := caller.last(t, "admin_search_products")
	assert.Equal(t, "oat", call.Params["query"])
	assert.Equal(t, "exact", call.Params["search_type"])
}

func TestSearchSubscriptions_ListAll(t *testing.T) {
	caller := newFakeCaller().respond("admin_user_subscription_search", `[{
		"id":"6f1c8f0e-3f61-4c1a-9e53-7f0a4d8f9b21",
		"user_id":"0d8a2c55-9a57-4f5c-8b0e-2e1f0c3d4b5a",
		"user_email":"a@example.com",
		"subscription_level":"premium",
		"created_at":"2025-01-01T00:00:00Z",
		"updated_at":"2025-01-02T00:00:00Z",
		"expires_at":null,
		"is_active":true}]`)
	c := newTestClient(t, caller)

	req := search.Request{
		Query:   search.Query{Type: search.SearchAll},
		Filters: search.NewFilterSet().With(DimLevel, "premium"),
		Limit:   50,
	}
	page, err := c.SearchSubscriptions(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	sub := page.Items[0]
	assert.Equal(t, "6f1c8f0e-3f61-4c1a-9e53-7f0a4d8f9b21", sub.ID.String())
	assert.Nil(t, sub.ExpiresAt)
	assert.True(t, sub.IsActive)

	call := caller.last(t, "admin_user_subscription_search")
	assert.Empty(t, call.Params["query"])
	assert.Equal(t, []string{"premium"}, call.Params["level_filter"])
	assert.Equal(t, 51, call.Params["limit_count"])
}

func TestSearchProfiles(t *testing.T) {
	caller := newFakeCaller().respond("admin_search_profiles",
		`[{"id":"6f1c8f0e-3f61-4c1a-9e53-7f0a4d8f9b21","email":"b@example.com","subscription_level":"standard",`+
			`"expires_at":"2026-12-31T00:00:00+00:00","created_at":"2025-01-01 10:00:00.5+00","updated_at":"2025-01-01"}]`)
	c := newTestClient(t, caller)

	page, err := c.SearchProfiles(context.Background(), request(t, "b@", search.NewFilterSet(), 0, 100))
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.NotNil(t, page.Items[0].ExpiresAt)
	assert.Equal(t, 2026, page.Items[0].ExpiresAt.Year())
	assert.Equal(t, 10, page.Items[0].CreatedAt.Hour())
}

func TestSearchActivity_Envelope(t *testing.T) {
	caller := newFakeCaller().respond("admin_actionlog_paginated", `{
		"activities":[{"id":"17","type":"scan","input":"0123456789012","userid":null,"user_email":"",
			"created_at":"2025-03-01T10:00:00Z","result":"vegan","metadata":{"app":"ios"},"deviceid":"d1"}],
		"total_count":57,"page_size":20,"page_offset":40,"has_more":false}`)
	c := newTestClient(t, caller)

	req := search.Request{
		Query:   search.Query{Type: search.SearchAll},
		Filters: search.NewFilterSet().With(DimType, "scan"),
		Offset:  40,
		Limit:   20,
	}
	page, err := c.SearchActivity(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 57, page.TotalCount)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "ios", page.Items[0].Metadata["app"])
	assert.Equal(t, "vegan", Deref(page.Items[0].Result))

	call := caller.last(t, "admin_actionlog_paginated")
	assert.False(t, call.Proc.Set)
	assert.Equal(t, 20, call.Params["page_size"])
	assert.Equal(t, 40, call.Params["page_offset"])
	assert.Nil(t, call.Params["query"])
	assert.Equal(t, []string{"scan"}, call.Params["type_filter"])
}

func TestIngredientEnvelopes(t *testing.T) {
	caller := newFakeCaller().
		respond("admin_get_newest_ingredients", `{"ingredients":`+ingredientRows(3)+`,"total_count":120}`).
		respond("admin_get_unclassified_ingredients", `{"ingredients":null,"total_count":0}`)
	c := newTestClient(t, caller)
	req := search.Request{Query: search.Query{Type: search.SearchAll}, Offset: 20, Limit: 20}

	newest, err := c.NewestIngredients(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, newest.Items, 3)
	assert.Equal(t, 120, newest.TotalCount)

	unclassified, err := c.UnclassifiedIngredients(context.Background(), req)
	require.NoError(t, err)
	assert.NotNil(t, unclassified.Items)
	assert.Empty(t, unclassified.Items)

	call := caller.last(t, "admin_get_newest_ingredients")
	assert.Equal(t, 20, call.Params["page_size"])
	assert.Equal(t, 20, call.Params["page_offset"])
}

func TestSearch_ErrorsAreWrapped(t *testing.T) {
	boom := errors.New("connection reset")
	caller := newFakeCaller().fail("admin_search_products", boom)
	c := newTestClient(t, caller)

	_, err := c.SearchProducts(context.Background(), request(t, "x", search.NewFilterSet(), 0, 10))
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "searching products")
}

func TestSearchIngredients_DrivesController(t *testing.T) {
	caller := newFakeCaller().respond("admin_search_ingredients_exact", ingredientRows(6))
	c := newTestClient(t, caller)

	ctrl, err := search.New(c.SearchIngredients, search.WithPageSize(5), search.WithDebounce(0))
	require.NoError(t, err)
	defer ctrl.Close()

	ctrl.SetQuery("*milk*")
	ctrl.Flush()
	snap, err := ctrl.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, search.StateLoaded, snap.State)
	assert.Len(t, snap.Items, 5)
	assert.Equal(t, 2, snap.TotalPages)
	assert.Equal(t, "contains", caller.last(t, "admin_search_ingredients_exact").Params["search_type"])
}

func TestLookupScreen(t *testing.T) {
	info, err := LookupScreen(" Subscriptions ")
	require.NoError(t, err)
	assert.True(t, info.ListAll)
	_, ok := info.Dimension(DimLevel)
	assert.True(t, ok)

	_, err = LookupScreen("orders")
	assert.ErrorIs(t, err, ErrUnknownScreen)

	assert.Len(t, ScreenNames(), len(Screens()))

	ingredients, err := LookupScreen("ingredients")
	require.NoError(t, err)
	class, ok := ingredients.Dimension(DimClass)
	require.True(t, ok)
	assert.Contains(t, class.Values, NullFilterValue)
	assert.True(t, ingredients.EstimatedTotal)

	activity, err := LookupScreen("activity")
	require.NoError(t, err)
	assert.False(t, activity.EstimatedTotal, "activity reports a real total")
}
