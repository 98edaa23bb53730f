package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/arreyder/holaspirit-mcp/internal/holaspirit"
	"github.com/arreyder/holaspirit-mcp/internal/schema"
)

func getCircleTool(acc holaspirit.Accessor) Tool {
	contract := schema.MustOutputContract[CircleDetail]()
	return newTool(NameGetCircle, "Get details of a specific circle", func(ctx context.Context, in GetCircleArgs) (*mcp.CallToolResult, error) {
		resp, err := acc.Client.Get(ctx, pathCircle, holaspirit.RequestOptions{
			Path: orgParams(acc, "circle_id", in.CircleID),
		})
		if err != nil {
			return nil, err
		}
		detail, err := mergeLinked(resp, contract, "Circle", "roles")
		if err != nil {
			return nil, err
		}
		return respond(contract, detail)
	})
}

func getRoleTool(acc holaspirit.Accessor) Tool {
	contract := schema.MustOutputContract[Role]()
	return newTool(NameGetRole, "Get details of a specific role", func(ctx context.Context, in GetRoleArgs) (*mcp.CallToolResult, error) {
		resp, err := acc.Client.Get(ctx, pathRole, holaspirit.RequestOptions{
			Path: orgParams(acc, "role_id", in.RoleID),
		})
		if err != nil {
			return nil, err
		}
		role, err := NormalizeSingle(resp, contract, "Role")
		if err != nil {
			return nil, err
		}
		return respond(contract, role)
	})
}

func getMeetingTool(acc holaspirit.Accessor) Tool {
	contract := schema.MustOutputContract[MeetingDetail]()
	return newTool(NameGetMeeting, "Get details of a specific meeting", func(ctx context.Context, in GetMeetingArgs) (*mcp.CallToolResult, error) {
		resp, err := acc.Client.Get(ctx, pathMeeting, holaspirit.RequestOptions{
			Path: orgParams(acc, "meeting_id", in.MeetingID),
		})
		if err != nil {
			return nil, err
		}
		detail, err := mergeLinked(resp, contract, "Meeting", "tensions")
		if err != nil {
			return nil, err
		}
		return respond(contract, detail)
	})
}

func getMemberFeedTool(acc holaspirit.Accessor) Tool {
	contract := schema.MustOutputContract[[]FeedItem]()
	return newTool(NameGetMemberFeed, "Get member feed", func(ctx context.Context, in GetMemberFeedArgs) (*mcp.CallToolResult, error) {
		resp, err := acc.Client.Get(ctx, pathMemberFeed, holaspirit.RequestOptions{
			Path: orgParams(acc, "member_id", in.MemberID),
			Query: map[string]any{
				"activityType": in.ActivityType,
				"event":        in.Event,
				"minTime":      in.MinTime,
				"maxTime":      in.MaxTime,
				"count":        in.Count,
			},
		})
		if err != nil {
			return nil, err
		}
		feed, err := NormalizeSingle(resp, contract, "Member feed")
		if err != nil {
			return nil, err
		}
		if feed == nil {
			feed = []FeedItem{}
		}
		return respond(contract, feed)
	})
}

// mergeLinked moves resp.linked[key] under the entity's own "linked" member
// and drops the entity's reference list of the same name.
func mergeLinked[T any](resp *holaspirit.Response, contract *schema.Contract[T], what, key string) (T, error) {
	var zero T
	if !resp.HasData() {
		return zero, notFound(what)
	}
	value, err := decodeJSON(resp.Data)
	if err != nil {
		return zero, err
	}
	entity, ok := value.(map[string]any)
	if !ok {
		return zero, notFound(what)
	}
	delete(entity, key)

	linked := map[string]any{}
	if raw, ok := resp.Linked[key]; ok {
		value, err := decodeJSON(raw)
		if err != nil {
			return zero, err
		}
		linked[key] = value
	}
	entity["linked"] = linked
	return contract.ParseValue(entity)
}
