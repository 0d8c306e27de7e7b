package backend

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veganchecker/vcadmin/internal/events"
	"github.com/veganchecker/vcadmin/internal/logging"
	"github.com/veganchecker/vcadmin/internal/rpc"
)

func strPtr(s string) *string { return &s }

func TestCreateIngredient(t *testing.T) {
	caller := newFakeCaller()
	pub := &recordingPublisher{}
	c := newTestClient(t, caller, WithPublisher(pub, "test"))

	err := c.CreateIngredient(context.Background(), IngredientInput{
		Title:        "  pea protein ",
		Class:        strPtr("vegan"),
		PrimaryClass: strPtr(""),
	})
	require.NoError(t, err)

	call := caller.last(t, "admin_create_ingredient")
	assert.Equal(t, "pea protein", call.Params["ingredient_title"])
	assert.Equal(t, "vegan", call.Params["ingredient_class"])
	assert.Nil(t, call.Params["ingredient_primary_class"])

	require.Len(t, pub.events, 1)
	assert.Equal(t, "test.ingredient.created", pub.topics[0])
	assert.Equal(t, "pea protein", pub.events[0].Key)
	assert.Equal(t, "vegan", pub.events[0].Changes["class"])
}

func TestIngredientValidation(t *testing.T) {
	caller := newFakeCaller()
	c := newTestClient(t, caller)
	ctx := context.Background()

	assert.ErrorIs(t, c.CreateIngredient(ctx, IngredientInput{Title: " "}), ErrEmptyTitle)
	assert.ErrorIs(t, c.DeleteIngredient(ctx, ""), ErrEmptyTitle)

	err := c.UpdateIngredient(ctx, IngredientInput{Title: "x", Class: strPtr("carnivore")})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Empty(t, caller.calls)
}

func TestUpdateAndDeleteIngredient(t *testing.T) {
	caller := newFakeCaller()
	pub := &recordingPublisher{}
	c := newTestClient(t, caller, WithPublisher(pub, ""))
	ctx := context.Background()

	require.NoError(t, c.UpdateIngredient(ctx, IngredientInput{Title: "honey", PrimaryClass: strPtr("vegetarian")}))
	call := caller.last(t, "admin_update_ingredient")
	assert.Equal(t, "honey", call.Params["ingredient_title"])
	assert.Nil(t, call.Params["new_class"])
	assert.Equal(t, "vegetarian", call.Params["new_primary_class"])

	require.NoError(t, c.DeleteIngredient(ctx, "honey"))
	assert.Equal(t, []string{"vcadmin.ingredient.updated", "vcadmin.ingredient.deleted"}, pub.topics)
}

func TestMutation_FailureIsNotPublished(t *testing.T) {
	backendErr := &rpc.Error{Procedure: "admin_delete_ingredient", Code: "P0001", Message: "ingredient not found"}
	caller := newFakeCaller().fail("admin_delete_ingredient", backendErr)
	pub := &recordingPublisher{}
	c := newTestClient(t, caller, WithPublisher(pub, ""))

	err := c.DeleteIngredient(context.Background(), "ghost")
	require.Error(t, err)
	rpcErr, ok := rpc.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "ingredient not found", rpcErr.Message)
	assert.Empty(t, pub.topics)
}

func TestMutation_PublishFailureIsIgnored(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("nats down")}
	c := newTestClient(t, newFakeCaller(), WithPublisher(pub, ""))

	assert.NoError(t, c.DeleteIngredient(context.Background(), "x"))
	assert.Len(t, pub.topics, 1)
}

func TestUpdateProduct(t *testing.T) {
	caller := newFakeCaller()
	pub := &recordingPublisher{}
	c := newTestClient(t, caller, WithPublisher(pub, ""))

	patch := Patch{"brand": "Oatly", "upc": "0123456789"}
	require.NoError(t, c.UpdateProduct(context.Background(), "7394376616501", patch))

	update := caller.last(t, "admin_update_product")
	assert.Equal(t, "7394376616501", update.Params["product_ean13"])
	assert.Equal(t, map[string]any{"brand": "Oatly", "upc": "0123456789"}, update.Params["updates"])

	classify := caller.last(t, "classify_upc")
	assert.Equal(t, "7394376616501", classify.Params["upc_code"])
	assert.Equal(t, []string{"vcadmin.product.updated"}, pub.topics)
}

func TestUpdateProduct_ClassificationFailureIsWarning(t *testing.T) {
	caller := newFakeCaller().fail("classify_upc", errors.New("classifier offline"))
	c := newTestClient(t, caller)

	assert.NoError(t, c.UpdateProduct(context.Background(), "7394376616501", Patch{"brand": "Oatly"}))
}

func TestUpdateProduct_Validation(t *testing.T) {
	caller := newFakeCaller()
	c := newTestClient(t, caller)
	ctx := context.Background()

	assert.ErrorIs(t, c.UpdateProduct(ctx, "", Patch{"brand": "x"}), ErrEmptyEAN)
	assert.ErrorIs(t, c.UpdateProduct(ctx, "1", Patch{}), ErrEmptyPatch)

	err := c.UpdateProduct(ctx, "1", Patch{"upc": "abc", "colour": "green"})
	require.Error(t, err)
	var ve *ValidationErrors
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 2)
	assert.Empty(t, caller.calls)
}

func TestUpdateSubscription(t *testing.T) {
	caller := newFakeCaller()
	c := newTestClient(t, caller)
	id := uuid.New()

	patch := Patch{"subscription_level": "premium", "is_active": true, "expires_at": nil}
	require.NoError(t, c.UpdateSubscription(context.Background(), id, patch))

	call := caller.last(t, "admin_update_user_subscription")
	assert.Equal(t, id, call.Params["subscription_id"])

	assert.ErrorIs(t, c.UpdateSubscription(context.Background(), uuid.Nil, patch), ErrNilID)
	err := c.UpdateSubscription(context.Background(), id, Patch{"subscription_level": "gold"})
	assert.True(t, IsValidationError(err))
	err = c.UpdateSubscription(context.Background(), id, Patch{"expires_at": "tomorrow"})
	assert.True(t, IsValidationError(err))
}

func TestProfiles(t *testing.T) {
	caller := newFakeCaller().respond("admin_create_or_update_profile_by_email", `{"action":"created"}`)
	pub := &recordingPublisher{}
	c := newTestClient(t, caller, WithPublisher(pub, ""))
	ctx := context.Background()
	expiry := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)

	result, err := c.CreateOrUpdateProfile(ctx, " friend@example.com ", "premium", &expiry)
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"created"}`, string(result))

	call := caller.last(t, "admin_create_or_update_profile_by_email")
	assert.Equal(t, "friend@example.com", call.Params["user_email"])
	assert.Equal(t, "2026-12-31T00:00:00Z", call.Params["new_expires_at"])

	id := uuid.New()
	require.NoError(t, c.UpdateProfile(ctx, id, "free", nil))
	call = caller.last(t, "admin_update_profile")
	assert.Equal(t, id, call.Params["profile_id"])
	assert.Nil(t, call.Params["new_expires_at"])

	assert.Equal(t, []string{"vcadmin.profile.updated", "vcadmin.profile.updated"}, pub.topics)

	_, err = c.CreateOrUpdateProfile(ctx, "", "free", nil)
	assert.ErrorIs(t, err, ErrEmptyEmail)
	_, err = c.CreateOrUpdateProfile(ctx, "not-an-email", "free", nil)
	assert.True(t, IsValidationError(err))
	assert.ErrorIs(t, c.UpdateProfile(ctx, id, "", nil), ErrEmptyLevel)
	assert.ErrorIs(t, c.UpdateProfile(ctx, uuid.Nil, "free", nil), ErrNilID)
}

func TestMutation_AdminGate(t *testing.T) {
	t.Run("not admin", func(t *testing.T) {
		caller := newFakeCaller().respond("admin_check_user_access", `false`)
		c := newTestClient(t, caller, WithAdminEmail("ops@example.com"))

		err := c.DeleteIngredient(context.Background(), "x")
		require.ErrorIs(t, err, ErrNotAdmin)
		assert.Empty(t, caller.callsTo("admin_delete_ingredient"))
	})

	t.Run("admin verified once", func(t *testing.T) {
		caller := newFakeCaller().respond("admin_check_user_access", `true`)
		c := newTestClient(t, caller, WithAdminEmail("ops@example.com"))

		require.NoError(t, c.DeleteIngredient(context.Background(), "x"))
		require.NoError(t, c.DeleteIngredient(context.Background(), "y"))
		assert.Len(t, caller.callsTo("admin_check_user_access"), 1)
	})
}

func TestMutation_WritesAuditEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	audit := logging.NewAuditLogger(logging.AuditLoggerConfig{Enabled: true, File: path})
	ctx := logging.ContextWithAuditLogger(context.Background(), audit)
	ctx = logging.ContextWithTraceID(ctx, "01HTRACE")

	caller := newFakeCaller().fail("admin_update_ingredient", errors.New("denied"))
	c := newTestClient(t, caller)

	require.NoError(t, c.DeleteIngredient(ctx, "gelatin"))
	require.Error(t, c.UpdateIngredient(ctx, IngredientInput{Title: "casein"}))
	require.NoError(t, audit.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var entries []logging.AuditEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e logging.AuditEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		entries = append(entries, e)
	}
	require.Len(t, entries, 2)

	assert.Equal(t, "ingredient delete", entries[0].Command)
	assert.Equal(t, "gelatin", entries[0].Key)
	assert.True(t, entries[0].Success)
	assert.Equal(t, "01HTRACE", entries[0].TraceID)
	assert.Equal(t, "gelatin", entries[0].Params["ingredient_title"])

	assert.False(t, entries[1].Success)
	assert.Equal(t, "denied", entries[1].Error)
	assert.Equal(t, "null", entries[1].Params["new_class"])
}

func TestPublishedEventCarriesTrace(t *testing.T) {
	pub := &recordingPublisher{}
	c := newTestClient(t, newFakeCaller(), WithPublisher(pub, ""))
	ctx := logging.ContextWithTraceID(context.Background(), "01HTRACE")

	require.NoError(t, c.DeleteIngredient(ctx, "x"))
	require.Len(t, pub.events, 1)
	ev := pub.events[0]
	assert.Equal(t, "01HTRACE", ev.TraceID)
	assert.Equal(t, events.EntityIngredient, ev.Entity)
	assert.Equal(t, events.ActionDeleted, ev.Action)
	assert.Equal(t, 2026, ev.OccurredAt.Year())
}
