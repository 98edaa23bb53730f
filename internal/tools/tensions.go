package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/arreyder/holaspirit-mcp/internal/holaspirit"
	"github.com/arreyder/holaspirit-mcp/internal/schema"
)

type tensionFetch struct {
	resp *holaspirit.Response
	err  error
}

func getTensionsTool(acc holaspirit.Accessor) Tool {
	contract := schema.MustOutputContract[TensionsResult]()
	return newTool(NameGetTensions, "Get tensions for a meeting or meetings", func(ctx context.Context, in GetTensionsArgs) (*mcp.CallToolResult, error) {
		fetches := fetchTensions(ctx, acc, in.MeetingIDs)

		tensions := []any{}
		failures := []any{}
		succeeded := 0
		for i, id := range in.MeetingIDs {
			f := fetches[i]
			if f.err != nil {
				failures = append(failures, map[string]any{"meetingId": id, "error": f.err.Error()})
				continue
			}
			succeeded++
			items, err := tensionItems(f.resp)
			if err != nil {
				return nil, err
			}
			for _, item := range items {
				tensions = append(tensions, tagMeeting(item, id))
			}
		}
		if succeeded == 0 && len(failures) > 0 {
			return nil, fmt.Errorf("No tensions found or %w", ErrAllRequestsFailed)
		}

		result, err := contract.ParseValue(map[string]any{"tensions": tensions, "failures": failures})
		if err != nil {
			return nil, err
		}
		return respond(contract, result)
	})
}

// fetchTensions issues one concurrent request per meeting. Every outcome lands
// at the index of its meeting id; no request cancels another. The client's
// pacer keeps large batches inside the API quota.
func fetchTensions(ctx context.Context, acc holaspirit.Accessor, meetingIDs []string) []tensionFetch {
	fetches := make([]tensionFetch, len(meetingIDs))
	var g errgroup.Group
	for i, id := range meetingIDs {
		g.Go(func() error {
			resp, err := acc.Client.Get(ctx, pathTensions, holaspirit.RequestOptions{
				Path:  orgParams(acc),
				Query: map[string]any{"meeting": id},
			})
			fetches[i] = tensionFetch{resp: resp, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return fetches
}

// tensionItems returns the data array of resp. Anything other than an array
// contributes no tensions.
func tensionItems(resp *holaspirit.Response) ([]any, error) {
	if !resp.HasData() {
		return nil, nil
	}
	value, err := decodeJSON(resp.Data)
	if err != nil {
		return nil, err
	}
	items, _ := value.([]any)
	return items, nil
}

// tagMeeting copies a tension object and records the meeting it came from.
// Non-object items are left alone so the output contract rejects them.
func tagMeeting(item any, meetingID string) any {
	obj, ok := item.(map[string]any)
	if !ok {
		return item
	}
	tagged := make(map[string]any, len(obj)+1)
	for k, v := range obj {
		tagged[k] = v
	}
	tagged["meetingId"] = meetingID
	return tagged
}
