package cli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veganchecker/vcadmin/internal/backend"
)

func statsBackend(t *testing.T) *fakeBackend {
	t.Helper()
	return newFakeBackend(t).
		respond("admin_get_ingredient_stats", `{
			"total_ingredients": 12345, "with_classification": 12000, "without_classification": 345,
			"class_distribution": [{"class": "vegan", "count": 9000, "percentage": 72.9},
			                       {"class": null, "count": 345, "percentage": 2.8}],
			"primary_class_distribution": []}`).
		respond("admin_get_product_stats", `{
			"total_products": 800, "classified_products": 700, "unclassified_products": 100,
			"vegan_products": 400, "vegetarian_products": 150,
			"classification_distribution": [], "brand_distribution": [{"brand": "Oatly", "count": 12, "percentage": 1.5}]}`).
		respond("admin_user_stats", `[
			{"stat_type": "total_users", "count": 2500},
			{"stat_type": "email_users", "count": 1800},
			{"stat_type": "recent_users_30d", "count": 75}]`).
		respond("admin_actionlog_recent", `[
			{"id": "1", "type": "scan", "input": "0012345678905", "user_email": "a@example.com",
			 "created_at": "2025-03-01T09:15:00Z"}]`)
}

func TestStats_Table(t *testing.T) {
	setupCLITest(t)
	fb := statsBackend(t)

	output, err := run(t, "stats")
	require.NoError(t, err)

	assert.Contains(t, output, "INGREDIENTS")
	assert.Contains(t, output, "12,345")
	assert.Contains(t, output, "72.9%")
	assert.Contains(t, output, "Oatly")
	assert.Contains(t, output, "2,500")
	assert.Contains(t, output, "RECENT ACTIVITY")
	assert.Contains(t, output, "2025-03-01 09:15")
	assert.Contains(t, output, "(live)")
	assert.InDelta(t, 10, fb.last("admin_actionlog_recent")["limit_count"], 0)

	output, err = run(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, output, "(cached)")
	assert.Len(t, fb.callsTo("admin_get_ingredient_stats"), 1)

	output, err = run(t, "stats", "--refresh")
	require.NoError(t, err)
	assert.Contains(t, output, "(live)")
	assert.Len(t, fb.callsTo("admin_get_ingredient_stats"), 2)
}

func TestStats_JSON(t *testing.T) {
	setupCLITest(t)
	statsBackend(t)

	output, err := run(t, "stats", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, output, `"total_ingredients": 12345`)
	assert.Contains(t, output, `"recent_users_30d": 75`)
}

func TestStats_FailsAsAWhole(t *testing.T) {
	setupCLITest(t)
	statsBackend(t).fail("admin_get_product_stats", 500)

	output, err := run(t, "stats")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching dashboard stats")
	assert.NotContains(t, output, "INGREDIENTS")
}

func TestAccessCheck(t *testing.T) {
	setupCLITest(t)
	fb := newFakeBackend(t).respond("admin_check_user_access", `true`)

	output, err := run(t, "access", "check", "admin@example.com")
	require.NoError(t, err)
	assert.Contains(t, output, "admin@example.com is an administrator")
	assert.Equal(t, "admin@example.com", fb.last("admin_check_user_access")["user_email"])

	fb.respond("admin_check_user_access", `false`)
	output, err = run(t, "access", "check", "user@example.com", "-o", "json")
	require.ErrorIs(t, err, backend.ErrNotAdmin)
	assert.Contains(t, output, `"is_admin": false`)
}

func TestAccessCheck_UsesConfiguredEmail(t *testing.T) {
	setupCLITest(t)
	fb := newFakeBackend(t).respond("admin_check_user_access", `true`)
	t.Setenv("VCADMIN_ADMIN_EMAIL", "boss@example.com")

	_, err := run(t, "access", "check")
	require.NoError(t, err)
	assert.Equal(t, "boss@example.com", fb.last("admin_check_user_access")["user_email"])
}

func TestMutations_RequireConfiguredAdmin(t *testing.T) {
	setupCLITest(t)
	fb := newFakeBackend(t).respond("admin_check_user_access", `false`)
	t.Setenv("VCADMIN_ADMIN_EMAIL", "someone@example.com")

	_, err := run(t, "ingredient", "add", "oat", "--class", "vegan")
	require.ErrorIs(t, err, backend.ErrNotAdmin)
	assert.Empty(t, fb.callsTo("admin_create_ingredient"))
}

const (
	userA = "11111111-1111-4111-8111-111111111111"
	userB = "22222222-2222-4222-8222-222222222222"
	userC = "33333333-3333-4333-8333-333333333333"
)

func TestNotifySend(t *testing.T) {
	setupCLITest(t)
	fb := newFakeBackend(t).respond("push", `{"message":"ok","sent":1,"total":1}`)

	output, err := run(t, "notify", "send", userA,
		"--title", "Hello", "--body", "World", "--type", "account_update", "--data", "count=3", "--data", "tag=new")
	require.NoError(t, err)
	assert.Contains(t, output, "Sent 1 of 1 notifications")

	call := fb.last("push")
	assert.Equal(t, userA, call["userId"])
	assert.Equal(t, "account_update", call["type"])
	assert.Equal(t, map[string]any{"count": float64(3), "tag": "new"}, call["data"])
}

func TestNotifySend_Invalid(t *testing.T) {
	setupCLITest(t)
	fb := newFakeBackend(t)

	_, err := run(t, "notify", "send", userA, "--title", "x", "--body", "y", "--type", "spam")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid notification type")

	_, err = run(t, "notify", "send", userA, "--title", "x")
	require.Error(t, err)

	t.Setenv("VCADMIN_ADMIN_API_KEY", "")
	_, err = run(t, "notify", "send", userA, "--title", "x", "--body", "y")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin API key")

	assert.Empty(t, fb.callsTo("push"))
}

func TestNotifyBroadcast_FromFile(t *testing.T) {
	setupCLITest(t)
	fb := newFakeBackend(t).respond("push", `{"message":"ok","sent":3,"total":3}`)

	path := filepath.Join(t.TempDir(), "users.txt")
	require.NoError(t, os.WriteFile(path, []byte("# recipients\n"+userA+"\n\n"+userB+"\n"+userA+"\n"), 0o600))

	output, err := run(t, "notify", "broadcast", userC, "--file", path,
		"--type", "maintenance", "--title", "Maintenance", "--body", "Back soon")
	require.NoError(t, err)
	assert.Contains(t, output, "Sent 3 of 3 notifications")

	calls := fb.callsTo("push")
	require.Len(t, calls, 1)
	assert.ElementsMatch(t, []any{userA, userB, userC}, calls[0]["userIds"])
}

func TestNotifyBroadcast_Stdin(t *testing.T) {
	setupCLITest(t)
	fb := newFakeBackend(t).respond("push", `{"message":"ok","sent":2,"total":2}`)

	_, err := runWithInput(t, userA+"\n"+userB+"\n", "notify", "broadcast", "--file", "-",
		"--title", "Hi", "--body", "There", "-o", "yaml")
	require.NoError(t, err)
	assert.ElementsMatch(t, []any{userA, userB}, fb.last("push")["userIds"])
}

func TestNotifyBroadcast_NoRecipients(t *testing.T) {
	setupCLITest(t)
	newFakeBackend(t)

	_, err := run(t, "notify", "broadcast", "--title", "Hi", "--body", "There")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one recipient")
}
