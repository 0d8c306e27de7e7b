package backend

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// ErrEmptyPatch is returned when an update names no fields.
var ErrEmptyPatch = errors.New("update must change at least one field")

// Patch holds the changed fields of an update, keyed by backend column name.
type Patch map[string]any

// Fields returns the patched field names.
func (p Patch) Fields() []string {
	fields := make([]string, 0, len(p))
	for k := range p {
		fields = append(fields, k)
	}
	return fields
}

// ValidationError is one schema violation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects every violation found in a document.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (e *ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, v := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", v.Field, v.Message))
	}
	return "invalid input: " + strings.Join(msgs, "; ")
}

// IsValidationError reports whether err carries ValidationErrors.
func IsValidationError(err error) bool {
	var ve *ValidationErrors
	return errors.As(err, &ve)
}

const productPatchSchema = `{
	"type": "object",
	"minProperties": 1,
	"additionalProperties": false,
	"properties": {
		"product_name": {"type": "string", "maxLength": 500},
		"brand":        {"type": "string", "maxLength": 200},
		"upc":          {"type": "string", "pattern": "^[0-9]{6,14}$"},
		"ingredients":  {"type": "string"},
		"analysis":     {"type": "string"},
		"imageurl":     {"type": "string", "pattern": "^(https?://.+)?$"}
	}
}`

const subscriptionPatchSchema = `{
	"type": "object",
	"minProperties": 1,
	"additionalProperties": false,
	"properties": {
		"subscription_level": {"enum": ["free", "standard", "premium"]},
		"is_active":          {"type": "boolean"},
		"expires_at":         {"type": ["string", "null"], "format": "date-time"}
	}
}`

const ingredientSchema = `{
	"type": "object",
	"required": ["ingredient_title"],
	"properties": {
		"ingredient_title": {"type": "string", "minLength": 1, "maxLength": 300},
		"class": {"enum": [null, "ignore", "may be non-vegetarian", "non-vegetarian",
			"typically vegan", "typically vegetarian", "vegan", "vegetarian"]},
		"primary_class": {"enum": [null, "non-vegetarian", "undetermined", "vegan", "vegetarian"]}
	}
}`

const profileSchema = `{
	"type": "object",
	"properties": {
		"user_email":             {"type": "string", "format": "email"},
		"new_subscription_level": {"enum": ["free", "standard", "premium"]},
		"new_expires_at":         {"type": ["string", "null"], "format": "date-time"}
	}
}`

type schemaSet struct {
	product      *gojsonschema.Schema
	subscription *gojsonschema.Schema
	ingredient   *gojsonschema.Schema
	profile      *gojsonschema.Schema
}

//nolint:gochecknoglobals // Compiled once on first use.
var loadSchemas = sync.OnceValues(func() (*schemaSet, error) {
	var set schemaSet
	for _, s := range []struct {
		dst    **gojsonschema.Schema
		source string
	}{
		{&set.product, productPatchSchema},
		{&set.subscription, subscriptionPatchSchema},
		{&set.ingredient, ingredientSchema},
		{&set.profile, profileSchema},
	} {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s.source))
		if err != nil {
			return nil, fmt.Errorf("compiling schema: %w", err)
		}
		*s.dst = schema
	}
	return &set, nil
})

func validate(pick func(*schemaSet) *gojsonschema.Schema, doc any) error {
	set, err := loadSchemas()
	if err != nil {
		return err
	}
	result, err := pick(set).Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validating input: %w", err)
	}
	if result.Valid() {
		return nil
	}

	ve := &ValidationErrors{}
	for _, desc := range result.Errors() {
		ve.Errors = append(ve.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}
	return ve
}

// ValidateProductPatch checks a product update before it is sent.
func ValidateProductPatch(p Patch) error {
	if len(p) == 0 {
		return ErrEmptyPatch
	}
	return validate(func(s *schemaSet) *gojsonschema.Schema { return s.product }, map[string]any(p))
}

// ValidateSubscriptionPatch checks a subscription update before it is sent.
func ValidateSubscriptionPatch(p Patch) error {
	if len(p) == 0 {
		return ErrEmptyPatch
	}
	return validate(func(s *schemaSet) *gojsonschema.Schema { return s.subscription }, map[string]any(p))
}
