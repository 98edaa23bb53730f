// Package tools holds the Holaspirit tool catalog and the machinery that
// registers, advertises and dispatches it.
package tools

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/arreyder/holaspirit-mcp/internal/schema"
)

// ExecuteFunc runs a tool with the raw argument object from the caller.
type ExecuteFunc func(ctx context.Context, args json.RawMessage) (*mcp.CallToolResult, error)

// InputContract is what the registry needs from a tool's argument contract.
type InputContract interface {
	Name() string
	Document() map[string]any
}

// Tool describes one callable operation. Tools are built once and never
// modified afterwards.
type Tool struct {
	Name        string
	Description string
	Input       InputContract
	Execute     ExecuteFunc
}

// newTool binds a typed run function to the input contract reflected from In.
// Arguments are validated before run is called, so no request goes upstream
// with arguments the contract rejects.
func newTool[In any](name, description string, run func(context.Context, In) (*mcp.CallToolResult, error)) Tool {
	contract := schema.MustInputContract[In]()
	return Tool{
		Name:        name,
		Description: description,
		Input:       contract,
		Execute: func(ctx context.Context, args json.RawMessage) (*mcp.CallToolResult, error) {
			in, err := contract.Parse(args)
			if err != nil {
				return nil, err
			}
			return run(ctx, in)
		},
	}
}
