package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/arreyder/holaspirit-mcp/internal/holaspirit"
	"github.com/arreyder/holaspirit-mcp/internal/tools"
)

func newToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List, inspect and call Holaspirit tools",
	}
	cmd.AddCommand(newToolsListCmd())
	cmd.AddCommand(newToolsSchemaCmd())
	cmd.AddCommand(newToolsCallCmd())
	return cmd
}

// offlineRegistry builds the catalog without credentials. Its tools must not
// be executed.
func offlineRegistry() (*tools.Registry, error) {
	return tools.NewCatalogRegistry(holaspirit.Accessor{})
}

func newToolsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tools in catalog order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, err := offlineRegistry()
			if err != nil {
				return err
			}
			asJSON, _ := cmd.Flags().GetBool("json")
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), registry.Definitions())
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDESCRIPTION")
			for _, def := range registry.Definitions() {
				fmt.Fprintf(w, "%s\t%s\n", def.Name, def.Description)
			}
			return w.Flush()
		},
	}
	cmd.Flags().Bool("json", false, "print full definitions as JSON")
	return cmd
}

func newToolsSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema <name>",
		Short: "Print the input schema of a tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := offlineRegistry()
			if err != nil {
				return err
			}
			for _, def := range registry.Definitions() {
				if def.Name == args[0] {
					return writeJSON(cmd.OutOrStdout(), def.InputSchema)
				}
			}
			return exitError(exitValidation, "%s: %s", tools.ErrUnknownTool, args[0])
		},
	}
}

func newToolsCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <name>",
		Short: "Call a tool against the configured organization",
		Args:  cobra.ExactArgs(1),
		RunE:  runToolsCall,
	}
	cmd.Flags().String("args", "{}", "tool arguments as a JSON object")
	return cmd
}

func runToolsCall(cmd *cobra.Command, args []string) error {
	rawArgs, _ := cmd.Flags().GetString("args")
	rawArgs = strings.TrimSpace(rawArgs)
	if rawArgs == "" {
		rawArgs = "{}"
	}
	if !json.Valid([]byte(rawArgs)) {
		return exitError(exitValidation, "--args must be a JSON object")
	}

	acc, _, err := loadAccessor(cmd)
	if err != nil {
		return err
	}
	registry, err := tools.NewCatalogRegistry(acc)
	if err != nil {
		return err
	}
	dispatcher := tools.NewDispatcher(registry)
	res, err := dispatcher.Invoke(cmd.Context(), &mcp.CallToolParamsRaw{
		Name:      args[0],
		Arguments: json.RawMessage(rawArgs),
	})
	if err != nil {
		var toolErr *tools.ToolError
		if errors.As(err, &toolErr) {
			return exitError(exitCodeFor(toolErr.Code), "%s", toolErr.Message)
		}
		return err
	}

	out := cmd.OutOrStdout()
	for _, content := range res.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			fmt.Fprintln(out, text.Text)
		}
	}
	return nil
}
