package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veganchecker/vcadmin/internal/backend"
	"github.com/veganchecker/vcadmin/internal/config"
)

func newAccessCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "access", Short: "Check administrator access"}
	cmd.AddCommand(newAccessCheckCmd())
	return cmd
}

// accessResult is the structured output of access check.
type accessResult struct {
	Email   string `json:"email"    yaml:"email"`
	IsAdmin bool   `json:"is_admin" yaml:"is_admin"`
}

func newAccessCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [email]",
		Short: "Check whether an account is an administrator",
		Long: `Asks the backend whether the email belongs to an administrator. Without an
argument the configured backend.admin_email is checked. The command fails when
the account is not an administrator.`,
		Example: `  vcadmin access check admin@example.com`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				email := a.cfg.Backend.AdminEmail
				if len(args) == 1 {
					email = args[0]
				}
				if strings.TrimSpace(email) == "" {
					return requireArgsError(cmd, "email")
				}

				ok, cerr := a.client.CheckAdmin(ctx, email)
				if cerr != nil {
					return cerr
				}

				res := accessResult{Email: strings.TrimSpace(email), IsAdmin: ok}
				if format != config.FormatTable {
					if werr := writeStructured(cmd.OutOrStdout(), format, res); werr != nil {
						return werr
					}
				} else if ok {
					cmd.Printf("✅ %s is an administrator\n", res.Email)
				} else {
					cmd.Printf("❌ %s is not an administrator\n", res.Email)
				}

				if !ok {
					return fmt.Errorf("%w: %s", backend.ErrNotAdmin, res.Email)
				}
				return nil
			})
		},
	}
	return cmd
}
