package tools

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/arreyder/holaspirit-mcp/internal/holaspirit"
	"github.com/arreyder/holaspirit-mcp/internal/schema"
)

const (
	searchPageSize = 100
	searchMaxPages = 100
)

func searchMemberTool(acc holaspirit.Accessor) Tool {
	contract := schema.MustOutputContract[Member]()
	return newTool(NameSearchMember, "Search for a member by email", func(ctx context.Context, in SearchMemberArgs) (*mcp.CallToolResult, error) {
		target := strings.ToLower(in.Email)
		for page := 1; page <= searchMaxPages; page++ {
			resp, err := acc.Client.Get(ctx, pathMembers, holaspirit.RequestOptions{
				Path:  orgParams(acc),
				Query: map[string]any{"page": page, "count": searchPageSize},
			})
			if err != nil {
				return nil, err
			}
			if !resp.HasData() {
				break
			}
			value, err := decodeJSON(resp.Data)
			if err != nil {
				return nil, err
			}
			members, ok := value.([]any)
			if !ok {
				break
			}
			if found := findByEmail(members, target); found != nil {
				member, err := contract.ParseValue(found)
				if err != nil {
					return nil, err
				}
				return respond(contract, member)
			}
			if lastPage(resp.Pagination) {
				break
			}
		}
		return EmptyResponse(), nil
	})
}

func findByEmail(members []any, target string) map[string]any {
	for _, m := range members {
		obj, ok := m.(map[string]any)
		if !ok {
			continue
		}
		email, ok := obj["email"].(string)
		if ok && strings.ToLower(email) == target {
			return obj
		}
	}
	return nil
}

func lastPage(p *holaspirit.Pagination) bool {
	return p == nil || p.PagesCount == 0 || p.CurrentPage >= p.PagesCount
}
