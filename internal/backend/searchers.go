package backend

import (
	"context"
	"fmt"

	"github.com/veganchecker/vcadmin/internal/rpc"
	"github.com/veganchecker/vcadmin/internal/search"
)

// Search procedures.
//
//nolint:gochecknoglobals // Procedure descriptors.
var (
	procSearchIngredients      = rpc.SetOf("admin_search_ingredients_exact")
	procSearchProducts         = rpc.SetOf("admin_search_products")
	procSearchSubscriptions    = rpc.SetOf("admin_user_subscription_search")
	procSearchProfiles         = rpc.SetOf("admin_search_profiles")
	procActivityPaginated      = rpc.Scalar("admin_actionlog_paginated")
	procNewestIngredients      = rpc.Scalar("admin_get_newest_ingredients")
	procUnclassifiedIngredient = rpc.Scalar("admin_get_unclassified_ingredients")
)

// SearchIngredients matches ingredient titles with optional class filters.
func (c *Client) SearchIngredients(ctx context.Context, req search.Request) (search.Page[Ingredient], error) {
	if err := mustScreen(ScreenIngredients).CheckFilters(req.Filters); err != nil {
		return search.Page[Ingredient]{}, err
	}
	params := rpc.Params{
		"query":                req.Query.Pattern,
		"search_type":          searchType(req.Query),
		"class_filter":         filterParam(req.Filters, DimClass),
		"primary_class_filter": filterParam(req.Filters, DimPrimaryClass),
	}
	page, err := probe[Ingredient](ctx, c, procSearchIngredients, params, req)
	if err != nil {
		return page, fmt.Errorf("searching ingredients: %w", err)
	}
	return page, nil
}

// SearchProducts matches products by name, brand or code.
func (c *Client) SearchProducts(ctx context.Context, req search.Request) (search.Page[Product], error) {
	if err := mustScreen(ScreenProducts).CheckFilters(req.Filters); err != nil {
		return search.Page[Product]{}, err
	}
	params := rpc.Params{
		"query":       req.Query.Pattern,
		"search_type": searchType(req.Query),
	}
	page, err := probe[Product](ctx, c, procSearchProducts, params, req)
	if err != nil {
		return page, fmt.Errorf("searching products: %w", err)
	}
	return page, nil
}

// SearchSubscriptions lists subscriptions, narrowed by email query and level.
func (c *Client) SearchSubscriptions(ctx context.Context, req search.Request) (search.Page[Subscription], error) {
	if err := mustScreen(ScreenSubscriptions).CheckFilters(req.Filters); err != nil {
		return search.Page[Subscription]{}, err
	}
	params := rpc.Params{
		"query":        req.Query.Pattern,
		"level_filter": filterParam(req.Filters, DimLevel),
	}
	page, err := probe[Subscription](ctx, c, procSearchSubscriptions, params, req)
	if err != nil {
		return page, fmt.Errorf("searching subscriptions: %w", err)
	}
	return page, nil
}

// SearchProfiles lists profiles, narrowed by email query.
func (c *Client) SearchProfiles(ctx context.Context, req search.Request) (search.Page[Profile], error) {
	if err := mustScreen(ScreenProfiles).CheckFilters(req.Filters); err != nil {
		return search.Page[Profile]{}, err
	}
	params := rpc.Params{"query": req.Query.Pattern}
	page, err := probe[Profile](ctx, c, procSearchProfiles, params, req)
	if err != nil {
		return page, fmt.Errorf("searching profiles: %w", err)
	}
	return page, nil
}

// SearchActivity pages through the action log, newest first.
func (c *Client) SearchActivity(ctx context.Context, req search.Request) (search.Page[ActivityEntry], error) {
	if err := mustScreen(ScreenActivity).CheckFilters(req.Filters); err != nil {
		return search.Page[ActivityEntry]{}, err
	}
	params := rpc.Params{
		"page_size":   req.Limit,
		"page_offset": req.Offset,
		"type_filter": filterParam(req.Filters, DimType),
		"query":       optional(req.Query.Pattern),
	}
	var out activityPage
	if err := c.call(ctx, procActivityPaginated, params, &out); err != nil {
		return search.Page[ActivityEntry]{}, fmt.Errorf("listing activity: %w", err)
	}
	return search.Page[ActivityEntry]{Items: nonNil(out.Activities), TotalCount: out.TotalCount}, nil
}

// NewestIngredients pages through ingredients by creation date, newest first.
func (c *Client) NewestIngredients(ctx context.Context, req search.Request) (search.Page[Ingredient], error) {
	page, err := c.ingredientEnvelope(ctx, ScreenNewest, procNewestIngredients, req)
	if err != nil {
		return page, fmt.Errorf("listing newest ingredients: %w", err)
	}
	return page, nil
}

// UnclassifiedIngredients pages through ingredients with no class.
func (c *Client) UnclassifiedIngredients(ctx context.Context, req search.Request) (search.Page[Ingredient], error) {
	page, err := c.ingredientEnvelope(ctx, ScreenUnclassified, procUnclassifiedIngredient, req)
	if err != nil {
		return page, fmt.Errorf("listing unclassified ingredients: %w", err)
	}
	return page, nil
}

func (c *Client) ingredientEnvelope(
	ctx context.Context,
	screen Screen,
	proc rpc.Procedure,
	req search.Request,
) (search.Page[Ingredient], error) {
	if err := mustScreen(screen).CheckFilters(req.Filters); err != nil {
		return search.Page[Ingredient]{}, err
	}
	params := rpc.Params{
		"page_size":   req.Limit,
		"page_offset": req.Offset,
	}
	var out ingredientPage
	if err := c.call(ctx, proc, params, &out); err != nil {
		return search.Page[Ingredient]{}, err
	}
	return search.Page[Ingredient]{Items: nonNil(out.Ingredients), TotalCount: out.TotalCount}, nil
}

// probe calls a set-returning procedure that reports no total. It asks for one row
// more than the page holds; receiving it proves a next page exists.
func probe[T any](ctx context.Context, c *Client, proc rpc.Procedure, params rpc.Params, req search.Request) (search.Page[T], error) {
	params["limit_count"] = req.Limit + 1
	params["page_offset"] = req.Offset

	var rows []T
	if err := c.call(ctx, proc, params, &rows); err != nil {
		return search.Page[T]{}, err
	}
	return probePage(rows, req.Offset, req.Limit), nil
}

func probePage[T any](rows []T, offset, limit int) search.Page[T] {
	rows = nonNil(rows)
	if limit > 0 && len(rows) > limit {
		return search.Page[T]{Items: rows[:limit], TotalCount: offset + limit + 1}
	}
	return search.Page[T]{Items: rows, TotalCount: offset + len(rows)}
}

func searchType(q search.Query) string {
	if q.Type == "" || q.Type == search.SearchAll {
		return string(search.SearchContains)
	}
	return string(q.Type)
}

// filterParam returns nil (SQL NULL, no restriction) or the accepted values.
func filterParam(fs search.FilterSet, dim string) any {
	values := fs.Values(dim)
	if len(values) == 0 {
		return nil
	}
	return values
}

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
