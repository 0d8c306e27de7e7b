package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/veganchecker/vcadmin/internal/rpc"
)

//nolint:gochecknoglobals // Procedure descriptor.
var procCheckAccess = rpc.Scalar("admin_check_user_access")

// CheckAdmin asks the backend whether email belongs to an administrator.
func (c *Client) CheckAdmin(ctx context.Context, email string) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return false, ErrEmptyEmail
	}
	var isAdmin *bool
	if err := c.call(ctx, procCheckAccess, rpc.Params{"user_email": email}, &isAdmin); err != nil {
		return false, fmt.Errorf("checking admin access for %s: %w", email, err)
	}
	return isAdmin != nil && *isAdmin, nil
}

// IsAdmin is CheckAdmin with failures treated as "not an admin".
func (c *Client) IsAdmin(ctx context.Context, email string) bool {
	ok, err := c.CheckAdmin(ctx, email)
	if err != nil {
		c.logger.Warn().Ctx(ctx).
			Str("operation", "check_admin").
			Str("email", email).
			Err(err).
			Msg("admin check failed")
		return false
	}
	return ok
}

// requireAdmin verifies the configured admin email once per client.
func (c *Client) requireAdmin(ctx context.Context) error {
	if c.adminEmail == "" {
		return nil
	}

	c.adminMu.Lock()
	defer c.adminMu.Unlock()
	if c.adminVerified {
		return nil
	}
	ok, err := c.CheckAdmin(ctx, c.adminEmail)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotAdmin, c.adminEmail)
	}
	c.adminVerified = true
	return nil
}
