package main

import (
	"encoding/json"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	slogctx "github.com/veqryn/slog-context"

	"github.com/arreyder/holaspirit-mcp/internal/holaspirit"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "holactl",
		Short:         "Run Holaspirit MCP tools from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
			logger := slog.New(slogctx.NewHandler(handler, nil))
			cmd.SetContext(slogctx.NewCtx(cmd.Context(), logger))
		},
	}
	cmd.PersistentFlags().String("config", "", "optional YAML config file; environment variables override it")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "log tool calls to stderr")

	cmd.AddCommand(newToolsCmd())
	cmd.AddCommand(newConfigCmd())
	return cmd
}

func loadAccessor(cmd *cobra.Command) (holaspirit.Accessor, holaspirit.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := holaspirit.LoadConfig(path)
	if err != nil {
		return holaspirit.Accessor{}, holaspirit.Config{}, exitError(exitConfig, "%s", err)
	}
	acc, err := holaspirit.NewAccessor(cfg)
	if err != nil {
		return holaspirit.Accessor{}, holaspirit.Config{}, exitError(exitConfig, "%s", err)
	}
	return acc, cfg, nil
}

func writeJSON(out io.Writer, payload any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}
