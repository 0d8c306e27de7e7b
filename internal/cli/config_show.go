package cli

import (
	"github.com/spf13/cobra"

	"github.com/veganchecker/vcadmin/internal/config"
)

// NewConfigShowCmd creates the config show command that prints the effective configuration.
func NewConfigShowCmd() *cobra.Command {
	var showSecrets bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long: `Prints the configuration after the config file, project overlay and
VCADMIN_* environment variables were applied. Secrets are redacted unless
--show-secrets is given.`,
		Example: `  vcadmin config show
  vcadmin config show -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			if format == config.FormatTable {
				format = config.FormatYAML
			}

			cfg := *config.GetGlobalConfig()
			if !showSecrets {
				redactSecrets(&cfg)
			}
			return writeStructured(cmd.OutOrStdout(), format, &cfg)
		},
	}

	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "print keys and tokens in full")
	return cmd
}

// redactSecrets masks every credential in cfg. Unset values stay empty.
func redactSecrets(cfg *config.Config) {
	for _, s := range []*string{
		&cfg.Backend.AnonKey,
		&cfg.Backend.AccessToken,
		&cfg.Backend.DatabaseURL,
		&cfg.Notifications.APIKey,
	} {
		if *s != "" {
			*s = redact(*s)
		}
	}
}
