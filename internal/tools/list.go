package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/arreyder/holaspirit-mcp/internal/holaspirit"
	"github.com/arreyder/holaspirit-mcp/internal/schema"
)

type queryArgs interface {
	query() map[string]any
}

func (a PageArgs) query() map[string]any {
	return map[string]any{"page": a.Page, "count": a.Count}
}

func (a ListFilteredArgs) query() map[string]any {
	q := a.PageArgs.query()
	q["member"] = a.Member
	q["circle"] = a.Circle
	return q
}

// listTool fetches one page of a collection endpoint and returns
// {pagination, items}.
func listTool[In queryArgs, T any](acc holaspirit.Accessor, name, description, path, what string) Tool {
	items := schema.MustOutputContract[[]T]()
	result := schema.MustOutputContract[ListResult[T]]()
	return newTool(name, description, func(ctx context.Context, in In) (*mcp.CallToolResult, error) {
		resp, err := acc.Client.Get(ctx, path, holaspirit.RequestOptions{
			Path:  orgParams(acc),
			Query: in.query(),
		})
		if err != nil {
			return nil, err
		}
		list, err := NormalizePaginated(resp, items, what)
		if err != nil {
			return nil, err
		}
		return respond(result, list)
	})
}
