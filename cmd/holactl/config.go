package main

import (
	"github.com/spf13/cobra"

	"github.com/arreyder/holaspirit-mcp/internal/holaspirit"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the resolved configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Load the configuration and print it with the token redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, cfg, err := loadAccessor(cmd)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), redactedConfig(cfg))
		},
	})
	return cmd
}

func redactedConfig(cfg holaspirit.Config) map[string]any {
	token := "[REDACTED]"
	if cfg.Token == "" {
		token = ""
	}
	return map[string]any{
		"base_url":         cfg.BaseURL,
		"organization_id":  cfg.OrganizationID,
		"token":            token,
		"timeout":          cfg.Timeout.String(),
		"max_retries":      cfg.MaxRetries,
		"retry_base_delay": cfg.RetryBaseDelay.String(),
		"retry_max_delay":  cfg.RetryMaxDelay.String(),
		"rate_limit_rps":   cfg.RateLimitRPS,
		"rate_limit_burst": cfg.RateLimitBurst,
	}
}
