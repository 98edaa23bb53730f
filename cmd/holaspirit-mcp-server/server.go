package main

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/arreyder/holaspirit-mcp/internal/tools"
)

const instructions = "Read-only access to a Holaspirit organization: circles, roles, meetings, tensions, members and more."

// newServer registers every tool with the SDK and routes tools/list and
// tools/call through the dispatcher so listing keeps catalog order and
// failures share one error shape.
func newServer(registry *tools.Registry, dispatcher *tools.Dispatcher) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, &mcp.ServerOptions{
		Instructions: instructions,
	})
	for _, tool := range registry.Tools() {
		server.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return dispatcher.Invoke(ctx, req.Params)
		})
	}
	server.AddReceivingMiddleware(dispatchMiddleware(dispatcher))
	return server
}

func dispatchMiddleware(dispatcher *tools.Dispatcher) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			switch method {
			case "tools/list":
				return dispatcher.List(ctx), nil
			case "tools/call":
				call, ok := req.(*mcp.CallToolRequest)
				if !ok {
					return next(ctx, method, req)
				}
				res, err := dispatcher.Invoke(ctx, call.Params)
				if err != nil {
					return nil, err
				}
				return res, nil
			}
			return next(ctx, method, req)
		}
	}
}
