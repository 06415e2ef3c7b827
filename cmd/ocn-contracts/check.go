package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/ocn-network/ocn-common-go/health"
)

func newCheckCmd(a *app) *cobra.Command {
	var timeout time.Duration

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Compile every schema and report health as JSON",
		Long: `Compile every mandate schema on disk and the schema of every registered
CloudEvent type. Exits non-zero when any schema is missing or invalid.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := health.NewRegistry()
			registry.SetMetadata("service", a.cfg.Service.Name)
			registry.SetMetadata("version", version)
			registry.Register(health.NewSchemaChecker(a.cache, a.validator.Registry()))

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			result := registry.Check(ctx)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
			if result.Status == health.StatusUnhealthy {
				return errInvalid
			}
			return nil
		},
	}
	checkCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Maximum time for all checks")

	return checkCmd
}
