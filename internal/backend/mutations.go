package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"github.com/veganchecker/vcadmin/internal/events"
	"github.com/veganchecker/vcadmin/internal/logging"
	"github.com/veganchecker/vcadmin/internal/rpc"
)

// Mutation procedures.
//
//nolint:gochecknoglobals // Procedure descriptors.
var (
	procCreateIngredient      = rpc.Scalar("admin_create_ingredient")
	procUpdateIngredient      = rpc.Scalar("admin_update_ingredient")
	procDeleteIngredient      = rpc.Scalar("admin_delete_ingredient")
	procUpdateProduct         = rpc.Scalar("admin_update_product")
	procClassifyUPC           = rpc.Scalar("classify_upc")
	procUpdateSubscription    = rpc.Scalar("admin_update_user_subscription")
	procCreateOrUpdateProfile = rpc.Scalar("admin_create_or_update_profile_by_email")
	procUpdateProfile         = rpc.Scalar("admin_update_profile")
)

// Mutation errors.
var (
	ErrEmptyTitle = errors.New("ingredient title cannot be empty")
	ErrEmptyEAN   = errors.New("product EAN-13 cannot be empty")
	ErrNilID      = errors.New("id cannot be the nil UUID")
	ErrEmptyLevel = errors.New("subscription level cannot be empty")
)

// IngredientInput is the data of a new or edited ingredient. A nil class clears it.
type IngredientInput struct {
	Title        string
	Class        *string
	PrimaryClass *string
}

func (in IngredientInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return ErrEmptyTitle
	}
	return validate(func(s *schemaSet) *gojsonschema.Schema { return s.ingredient }, map[string]any{
		"ingredient_title": strings.TrimSpace(in.Title),
		"class":            optionalPtr(in.Class),
		"primary_class":    optionalPtr(in.PrimaryClass),
	})
}

// mutation describes one admin write.
type mutation struct {
	command string
	entity  string
	action  string
	key     string
	proc    rpc.Procedure
	params  rpc.Params
	out     any
	changes map[string]any
}

// CreateIngredient adds an ingredient.
func (c *Client) CreateIngredient(ctx context.Context, in IngredientInput) error {
	if err := in.validate(); err != nil {
		return err
	}
	title := strings.TrimSpace(in.Title)
	return c.mutate(ctx, mutation{
		command: "ingredient add",
		entity:  events.EntityIngredient,
		action:  events.ActionCreated,
		key:     title,
		proc:    procCreateIngredient,
		params: rpc.Params{
			"ingredient_title":         title,
			"ingredient_class":         optionalPtr(in.Class),
			"ingredient_primary_class": optionalPtr(in.PrimaryClass),
		},
		changes: classChanges(in),
	})
}

// UpdateIngredient replaces the classes of the ingredient titled in.Title.
func (c *Client) UpdateIngredient(ctx context.Context, in IngredientInput) error {
	if err := in.validate(); err != nil {
		return err
	}
	title := strings.TrimSpace(in.Title)
	return c.mutate(ctx, mutation{
		command: "ingredient edit",
		entity:  events.EntityIngredient,
		action:  events.ActionUpdated,
		key:     title,
		proc:    procUpdateIngredient,
		params: rpc.Params{
			"ingredient_title":  title,
			"new_class":         optionalPtr(in.Class),
			"new_primary_class": optionalPtr(in.PrimaryClass),
		},
		changes: classChanges(in),
	})
}

// DeleteIngredient removes the ingredient with the given title.
func (c *Client) DeleteIngredient(ctx context.Context, title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}
	return c.mutate(ctx, mutation{
		command: "ingredient delete",
		entity:  events.EntityIngredient,
		action:  events.ActionDeleted,
		key:     title,
		proc:    procDeleteIngredient,
		params:  rpc.Params{"ingredient_title": title},
	})
}

// UpdateProduct applies patch to the product and then asks the backend to
// reclassify it. A failed reclassification is logged, not returned.
func (c *Client) UpdateProduct(ctx context.Context, ean13 string, patch Patch) error {
	if strings.TrimSpace(ean13) == "" {
		return ErrEmptyEAN
	}
	if err := ValidateProductPatch(patch); err != nil {
		return err
	}
	err := c.mutate(ctx, mutation{
		command: "product edit",
		entity:  events.EntityProduct,
		action:  events.ActionUpdated,
		key:     ean13,
		proc:    procUpdateProduct,
		params: rpc.Params{
			"product_ean13": ean13,
			"updates":       map[string]any(patch),
		},
		changes: patch,
	})
	if err != nil {
		return err
	}

	if err = c.call(ctx, procClassifyUPC, rpc.Params{"upc_code": ean13}, nil); err != nil {
		c.logger.Warn().Ctx(ctx).
			Str("operation", "classify_upc").
			Str("ean13", ean13).
			Err(err).
			Msg("product updated but classification failed")
	}
	return nil
}

// UpdateSubscription applies patch to the subscription with id.
func (c *Client) UpdateSubscription(ctx context.Context, id uuid.UUID, patch Patch) error {
	if id == uuid.Nil {
		return ErrNilID
	}
	if err := ValidateSubscriptionPatch(patch); err != nil {
		return err
	}
	return c.mutate(ctx, mutation{
		command: "subscription edit",
		entity:  events.EntitySubscription,
		action:  events.ActionUpdated,
		key:     id.String(),
		proc:    procUpdateSubscription,
		params: rpc.Params{
			"subscription_id": id,
			"updates":         map[string]any(patch),
		},
		changes: patch,
	})
}

// CreateOrUpdateProfile grants level to the account registered with email. The
// backend fails with a "not found" message when no such account exists. The
// procedure's own result is returned as-is.
func (c *Client) CreateOrUpdateProfile(
	ctx context.Context,
	email, level string,
	expiresAt *time.Time,
) (json.RawMessage, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrEmptyEmail
	}
	if err := validateProfile(email, level, expiresAt); err != nil {
		return nil, err
	}

	var result json.RawMessage
	err := c.mutate(ctx, mutation{
		command: "profile add",
		entity:  events.EntityProfile,
		action:  events.ActionUpdated,
		key:     email,
		proc:    procCreateOrUpdateProfile,
		params: rpc.Params{
			"user_email":             email,
			"new_subscription_level": level,
			"new_expires_at":         formatExpiry(expiresAt),
		},
		out:     &result,
		changes: profileChanges(level, expiresAt),
	})
	return result, err
}

// UpdateProfile changes the level and expiry of the profile with id. A nil
// expiresAt means the grant never expires.
func (c *Client) UpdateProfile(ctx context.Context, id uuid.UUID, level string, expiresAt *time.Time) error {
	if id == uuid.Nil {
		return ErrNilID
	}
	if err := validateProfile("", level, expiresAt); err != nil {
		return err
	}
	return c.mutate(ctx, mutation{
		command: "profile edit",
		entity:  events.EntityProfile,
		action:  events.ActionUpdated,
		key:     id.String(),
		proc:    procUpdateProfile,
		params: rpc.Params{
			"profile_id":             id,
			"new_subscription_level": level,
			"new_expires_at":         formatExpiry(expiresAt),
		},
		changes: profileChanges(level, expiresAt),
	})
}

func (c *Client) mutate(ctx context.Context, m mutation) error {
	if err := c.requireAdmin(ctx); err != nil {
		return err
	}

	entry := logging.NewAuditEntry(m.command, m.entity, m.key).WithParams(auditParams(m.params))
	err := c.call(ctx, m.proc, m.params, m.out)
	logging.AuditLoggerFromContext(ctx).Log(ctx, entry.Finish(err))
	if err != nil {
		return fmt.Errorf("%s %q: %w", m.command, m.key, err)
	}

	c.logger.Info().Ctx(ctx).
		Str("operation", m.command).
		Str("key", m.key).
		Msg("mutation applied")
	c.publish(ctx, m.entity, m.action, m.key, m.changes)
	return nil
}

// publish sends the mutation event. The write already succeeded, so a failure is
// only logged.
func (c *Client) publish(ctx context.Context, entity, action, key string, changes map[string]any) {
	event := events.Event{
		Entity:     entity,
		Action:     action,
		Key:        key,
		Changes:    changes,
		TraceID:    logging.TraceIDFromContext(ctx),
		OccurredAt: c.now().UTC(),
	}
	topic := events.Topic(c.prefix, entity, action)
	if err := c.publisher.Publish(ctx, topic, event); err != nil {
		c.logger.Warn().Ctx(ctx).
			Str("operation", "publish").
			Str("topic", topic).
			Err(err).
			Msg("failed to publish mutation event")
	}
}

func validateProfile(email, level string, expiresAt *time.Time) error {
	if level == "" {
		return ErrEmptyLevel
	}
	doc := map[string]any{
		"new_subscription_level": level,
		"new_expires_at":         formatExpiry(expiresAt),
	}
	if email != "" {
		doc["user_email"] = email
	}
	return validate(func(s *schemaSet) *gojsonschema.Schema { return s.profile }, doc)
}

func classChanges(in IngredientInput) map[string]any {
	return map[string]any{
		"class":         optionalPtr(in.Class),
		"primary_class": optionalPtr(in.PrimaryClass),
	}
}

func profileChanges(level string, expiresAt *time.Time) map[string]any {
	return map[string]any{
		"subscription_level": level,
		"expires_at":         formatExpiry(expiresAt),
	}
}

// formatExpiry renders an expiry as RFC 3339, or nil for "never".
func formatExpiry(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// optionalPtr maps nil or blank strings to nil (SQL NULL).
func optionalPtr(s *string) any {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return strings.TrimSpace(*s)
}

func auditParams(params rpc.Params) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		switch val := v.(type) {
		case nil:
			out[k] = "null"
		case string:
			out[k] = val
		case fmt.Stringer:
			out[k] = val.String()
		default:
			data, err := json.Marshal(val)
			if err != nil {
				out[k] = fmt.Sprint(val)
				continue
			}
			out[k] = string(data)
		}
	}
	return out
}
