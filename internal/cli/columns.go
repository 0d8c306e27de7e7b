package cli

import (
	"strconv"

	"github.com/veganchecker/vcadmin/internal/backend"
	"github.com/veganchecker/vcadmin/internal/tui"
)

// Column widths used by the interactive browser.
const (
	colWidthTitle = 32
	colWidthEmail = 30
	colWidthClass = 14
	colWidthLevel = 10
	colWidthTime  = 16
	colWidthCount = 8
	colWidthEAN   = 14
	colWidthBrand = 18
	colWidthType  = 9
	colWidthUUID  = 36
)

const displayTimeLayout = "2006-01-02 15:04"

func formatTime(t backend.Timestamp) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(displayTimeLayout)
}

func formatOptionalTime(t *backend.Timestamp) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

//nolint:gochecknoglobals // Read-only column layouts.
var (
	ingredientColumns = []tui.Column[backend.Ingredient]{
		{Title: "TITLE", Width: colWidthTitle, Value: func(i backend.Ingredient) string { return i.Title }},
		{Title: "CLASS", Width: colWidthClass, Value: func(i backend.Ingredient) string { return backend.Deref(i.Class) }},
		{
			Title: "PRIMARY", Width: colWidthClass,
			Value: func(i backend.Ingredient) string { return backend.Deref(i.PrimaryClass) },
		},
		{
			Title: "PRODUCTS", Width: colWidthCount,
			Value: func(i backend.Ingredient) string { return strconv.Itoa(i.ProductCount) },
		},
		{Title: "UPDATED", Width: colWidthTime, Value: func(i backend.Ingredient) string { return formatTime(i.LastUpdated) }},
	}

	productColumns = []tui.Column[backend.Product]{
		{Title: "EAN13", Width: colWidthEAN, Value: func(p backend.Product) string { return p.EAN13 }},
		{Title: "NAME", Width: colWidthTitle, Value: func(p backend.Product) string { return p.Name }},
		{Title: "BRAND", Width: colWidthBrand, Value: func(p backend.Product) string { return p.Brand }},
		{Title: "CLASSIFICATION", Width: colWidthClass, Value: func(p backend.Product) string { return p.Classification }},
		{Title: "UPDATED", Width: colWidthTime, Value: func(p backend.Product) string { return formatTime(p.LastUpdated) }},
	}

	subscriptionColumns = []tui.Column[backend.Subscription]{
		{Title: "EMAIL", Width: colWidthEmail, Value: func(s backend.Subscription) string { return s.UserEmail }},
		{Title: "LEVEL", Width: colWidthLevel, Value: func(s backend.Subscription) string { return s.Level }},
		{Title: "ACTIVE", Width: 6, Value: func(s backend.Subscription) string { return strconv.FormatBool(s.IsActive) }},
		{
			Title: "EXPIRES", Width: colWidthTime,
			Value: func(s backend.Subscription) string { return formatOptionalTime(s.ExpiresAt) },
		},
		{Title: "ID", Width: colWidthUUID, Value: func(s backend.Subscription) string { return s.ID.String() }},
	}

	profileColumns = []tui.Column[backend.Profile]{
		{Title: "EMAIL", Width: colWidthEmail, Value: func(p backend.Profile) string { return p.Email }},
		{Title: "LEVEL", Width: colWidthLevel, Value: func(p backend.Profile) string { return p.Level }},
		{Title: "EXPIRES", Width: colWidthTime, Value: func(p backend.Profile) string { return formatOptionalTime(p.ExpiresAt) }},
		{Title: "ID", Width: colWidthUUID, Value: func(p backend.Profile) string { return p.ID.String() }},
	}

	activityColumns = []tui.Column[backend.ActivityEntry]{
		{Title: "TIME", Width: colWidthTime, Value: func(a backend.ActivityEntry) string { return formatTime(a.CreatedAt) }},
		{Title: "TYPE", Width: colWidthType, Value: func(a backend.ActivityEntry) string { return a.Type }},
		{Title: "INPUT", Width: colWidthTitle, Value: func(a backend.ActivityEntry) string { return a.Input }},
		{Title: "USER", Width: colWidthEmail, Value: func(a backend.ActivityEntry) string { return a.UserEmail }},
		{Title: "RESULT", Width: colWidthBrand, Value: func(a backend.ActivityEntry) string { return backend.Deref(a.Result) }},
	}
)
