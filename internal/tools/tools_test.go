package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arreyder/holaspirit-mcp/internal/holaspirit"
	"github.com/arreyder/holaspirit-mcp/internal/schema"
)

var expectedToolOrder = []string{
	"holaspirit_list_tasks",
	"holaspirit_list_metrics",
	"holaspirit_list_circles",
	"holaspirit_get_circle",
	"holaspirit_list_roles",
	"holaspirit_get_role",
	"holaspirit_list_domains",
	"holaspirit_list_policies",
	"holaspirit_list_meetings",
	"holaspirit_get_meeting",
	"holaspirit_get_member_feed",
	"holaspirit_get_tensions",
	"holaspirit_search_member",
}

func TestCatalogOrderAndDefinitions(t *testing.T) {
	acc, _ := newFakeAccessor(nil)
	reg, err := NewCatalogRegistry(acc)
	require.NoError(t, err)

	assert.Equal(t, expectedToolOrder, reg.Names())
	defs := reg.Definitions()
	require.Len(t, defs, len(expectedToolOrder))
	for i, def := range defs {
		assert.Equal(t, expectedToolOrder[i], def.Name)
		assert.NotEmpty(t, def.Description, def.Name)
		assert.Equal(t, "object", def.InputSchema["type"], def.Name)
		_, ok := reg.Handler(def.Name)
		assert.True(t, ok, "definition %s has no handler", def.Name)
	}
	for i, tool := range reg.Tools() {
		assert.Equal(t, defs[i].Name, tool.Name)
		assert.Equal(t, defs[i].InputSchema, tool.InputSchema)
	}
}

func TestCatalogAdvertisedSchemaMatchesValidation(t *testing.T) {
	payloads := []string{
		`{}`,
		`{"page":0}`,
		`{"page":2,"count":50}`,
		`{"count":101}`,
		`{"unexpected":true}`,
		`{"circleId":"c1"}`,
		`{"circleId":""}`,
		`{"roleId":"r1"}`,
		`{"meetingId":"m1"}`,
		`{"memberId":"u1","count":10}`,
		`{"meetingIds":[]}`,
		`{"meetingIds":["m1","m2"]}`,
		`{"meetingIds":"m1"}`,
		`{"email":"someone@example.com"}`,
		`{"email":"not-an-email"}`,
		`{"member":"u1","circle":"c1"}`,
	}

	upstreamDown := errors.New("upstream down")
	acc, _ := newFakeAccessor(func(string, holaspirit.RequestOptions) (*holaspirit.Response, error) {
		return nil, upstreamDown
	})

	for _, tool := range Catalog(acc) {
		compiled := compileIndependently(t, tool.Name, tool.Input.Document())
		for _, payload := range payloads {
			t.Run(tool.Name+"/"+payload, func(t *testing.T) {
				value, err := schema.DecodeJSON(strings.NewReader(payload))
				require.NoError(t, err)
				advertisedAccepts := compiled.Validate(value) == nil

				_, callErr := tool.Execute(t.Context(), json.RawMessage(payload))
				var verr *schema.ValidationError
				rejected := errors.As(callErr, &verr)
				assert.Equal(t, advertisedAccepts, !rejected, "call error: %v", callErr)
			})
		}
	}
}

func compileIndependently(t *testing.T, name string, doc map[string]any) *jsonschema.Schema {
	t.Helper()
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	url := fmt.Sprintf("https://example.test/%s.json", name)
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true
	require.NoError(t, compiler.AddResource(url, bytes.NewReader(raw)))
	compiled, err := compiler.Compile(url)
	require.NoError(t, err)
	return compiled
}

func TestListToolDefaultsPagination(t *testing.T) {
	acc, fake := newFakeAccessor(func(string, holaspirit.RequestOptions) (*holaspirit.Response, error) {
		return &holaspirit.Response{Data: json.RawMessage(`[{"id":"t1","title":"Write docs","extra":{"a":1}}]`)}, nil
	})

	res, err := callTool(t, acc, NameListTasks, map[string]any{"page": 2, "count": 10})
	require.NoError(t, err)

	var out ListResult[Task]
	decodeResult(t, res, &out)
	assert.Equal(t, holaspirit.Pagination{CurrentPage: 1, PagesCount: 1}, out.Pagination)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "t1", out.Items[0].ID)
	require.NotNil(t, out.Items[0].Title)
	assert.Equal(t, "Write docs", *out.Items[0].Title)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, pathTasks, calls[0].Path)
	assert.Equal(t, testOrg, calls[0].Opts.Path["organization_id"])
	assert.Equal(t, "count=10&page=2", holaspirit.EncodeQuery(calls[0].Opts.Query))
}

func TestListToolKeepsUpstreamPagination(t *testing.T) {
	acc, fake := newFakeAccessor(func(string, holaspirit.RequestOptions) (*holaspirit.Response, error) {
		return &holaspirit.Response{
			Data:       json.RawMessage(`[{"id":"c1","name":"General"},{"id":"c2","name":null}]`),
			Pagination: &holaspirit.Pagination{CurrentPage: 2, PagesCount: 5},
		}, nil
	})

	res, err := callTool(t, acc, NameListCircles, map[string]any{"member": "u1", "circle": "c0"})
	require.NoError(t, err)

	var out ListResult[Circle]
	decodeResult(t, res, &out)
	assert.Equal(t, holaspirit.Pagination{CurrentPage: 2, PagesCount: 5}, out.Pagination)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "General", out.Items[0].Name)
	assert.Equal(t, "circle=c0&member=u1", holaspirit.EncodeQuery(fake.Calls()[0].Opts.Query))
}

func TestListToolRejectsMalformedItems(t *testing.T) {
	acc, _ := newFakeAccessor(func(string, holaspirit.RequestOptions) (*holaspirit.Response, error) {
		return &holaspirit.Response{Data: json.RawMessage(`[{"name":"no id"}]`)}, nil
	})

	_, err := callTool(t, acc, NameListRoles, nil)
	var verr *schema.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, schema.Output, verr.Direction)
	assert.Equal(t, "[0].id", verr.Field)
}

func TestNullDataIsNotFound(t *testing.T) {
	cases := []struct {
		tool string
		args map[string]any
		msg  string
	}{
		{NameGetRole, map[string]any{"roleId": "r1"}, "Role not found or invalid response format"},
		{NameGetCircle, map[string]any{"circleId": "c1"}, "Circle not found or invalid response format"},
		{NameGetMeeting, map[string]any{"meetingId": "m1"}, "Meeting not found or invalid response format"},
		{NameGetMemberFeed, map[string]any{"memberId": "u1"}, "Member feed not found or invalid response format"},
		{NameListPolicies, nil, "Policies not found or invalid response format"},
	}
	for _, tc := range cases {
		t.Run(tc.tool, func(t *testing.T) {
			acc, _ := newFakeAccessor(func(string, holaspirit.RequestOptions) (*holaspirit.Response, error) {
				return &holaspirit.Response{Data: json.RawMessage(`null`)}, nil
			})
			_, err := callTool(t, acc, tc.tool, tc.args)
			require.Error(t, err)
			assert.Equal(t, tc.msg, err.Error())
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestGetCircleMergesLinkedRoles(t *testing.T) {
	acc, fake := newFakeAccessor(func(string, holaspirit.RequestOptions) (*holaspirit.Response, error) {
		return &holaspirit.Response{
			Data: json.RawMessage(`{"id":"c1","name":"General","roles":["r1","r2"]}`),
			Linked: map[string]json.RawMessage{
				"roles":   json.RawMessage(`[{"id":"r1","name":"Lead Link"},{"id":"r2","name":"Secretary"}]`),
				"members": json.RawMessage(`[{"id":"u1"}]`),
			},
		}, nil
	})

	res, err := callTool(t, acc, NameGetCircle, map[string]any{"circleId": "c1"})
	require.NoError(t, err)

	var out map[string]any
	decodeResult(t, res, &out)
	assert.Equal(t, "c1", out["id"])
	assert.NotContains(t, out, "roles")
	linked, ok := out["linked"].(map[string]any)
	require.True(t, ok)
	roles, ok := linked["roles"].([]any)
	require.True(t, ok)
	assert.Len(t, roles, 2)
	assert.NotContains(t, linked, "members")

	call := fake.Calls()[0]
	assert.Equal(t, pathCircle, call.Path)
	assert.Equal(t, "c1", call.Opts.Path["circle_id"])
}

func TestGetMeetingWithoutLinkedTensions(t *testing.T) {
	acc, _ := newFakeAccessor(func(string, holaspirit.RequestOptions) (*holaspirit.Response, error) {
		return &holaspirit.Response{Data: json.RawMessage(`{"id":"m1","status":"closed"}`)}, nil
	})

	res, err := callTool(t, acc, NameGetMeeting, map[string]any{"meetingId": "m1"})
	require.NoError(t, err)

	var out MeetingDetail
	decodeResult(t, res, &out)
	assert.Equal(t, "m1", out.ID)
	assert.Empty(t, out.Linked.Tensions)
}

func TestGetMemberFeedForwardsFilters(t *testing.T) {
	acc, fake := newFakeAccessor(func(string, holaspirit.RequestOptions) (*holaspirit.Response, error) {
		return &holaspirit.Response{Data: json.RawMessage(`[{"id":"f1","event":"role.assigned"}]`)}, nil
	})

	res, err := callTool(t, acc, NameGetMemberFeed, map[string]any{
		"memberId":     "u1",
		"activityType": "governance",
		"count":        5,
	})
	require.NoError(t, err)

	var out []FeedItem
	decodeResult(t, res, &out)
	require.Len(t, out, 1)
	assert.Equal(t, "f1", out[0].ID)

	call := fake.Calls()[0]
	assert.Equal(t, "u1", call.Opts.Path["member_id"])
	assert.Equal(t, "activityType=governance&count=5", holaspirit.EncodeQuery(call.Opts.Query))
}

func TestGetTensionsCollectsPartialFailures(t *testing.T) {
	acc, fake := newFakeAccessor(func(_ string, opts holaspirit.RequestOptions) (*holaspirit.Response, error) {
		switch opts.Query["meeting"] {
		case "m1":
			return &holaspirit.Response{Data: json.RawMessage(`[{"id":"t1","title":"Budget"}]`)}, nil
		case "m2":
			return &holaspirit.Response{Data: json.RawMessage(`[{"id":"t2"}]`)}, nil
		default:
			return nil, &holaspirit.APIError{Method: http.MethodGet, Path: "/tensions", Status: http.StatusBadGateway}
		}
	})

	res, err := callTool(t, acc, NameGetTensions, map[string]any{"meetingIds": []string{"m1", "m2", "m3"}})
	require.NoError(t, err)

	var out TensionsResult
	decodeResult(t, res, &out)
	require.Len(t, out.Tensions, 2)
	assert.Equal(t, "t1", out.Tensions[0].ID)
	assert.Equal(t, "m1", out.Tensions[0].MeetingID)
	assert.Equal(t, "t2", out.Tensions[1].ID)
	assert.Equal(t, "m2", out.Tensions[1].MeetingID)
	require.Len(t, out.Failures, 1)
	assert.Equal(t, "m3", out.Failures[0].MeetingID)
	assert.Contains(t, out.Failures[0].Error, "status 502")
	assert.Len(t, fake.Calls(), 3)
}

func TestGetTensionsAllFailed(t *testing.T) {
	acc, _ := newFakeAccessor(func(string, holaspirit.RequestOptions) (*holaspirit.Response, error) {
		return nil, errors.New("connection refused")
	})

	_, err := callTool(t, acc, NameGetTensions, map[string]any{"meetingIds": []string{"m1", "m2"}})
	require.Error(t, err)
	assert.Equal(t, "No tensions found or all requests failed", err.Error())
	assert.ErrorIs(t, err, ErrAllRequestsFailed)
}

func TestGetTensionsNoMeetings(t *testing.T) {
	acc, fake := newFakeAccessor(nil)

	res, err := callTool(t, acc, NameGetTensions, map[string]any{"meetingIds": []string{}})
	require.NoError(t, err)

	text, ok := ResultText(res)
	require.True(t, ok)
	assert.JSONEq(t, `{"tensions":[],"failures":[]}`, text)
	assert.Empty(t, fake.Calls())
}

func TestGetTensionsRequestsEveryMeeting(t *testing.T) {
	acc, fake := newFakeAccessor(func(_ string, opts holaspirit.RequestOptions) (*holaspirit.Response, error) {
		return &holaspirit.Response{Data: json.RawMessage(fmt.Sprintf(`[{"id":"t-%v"}]`, opts.Query["meeting"]))}, nil
	})

	ids := make([]string, 20)
	for i := range ids {
		ids[i] = fmt.Sprintf("m%02d", i)
	}
	res, err := callTool(t, acc, NameGetTensions, map[string]any{"meetingIds": ids})
	require.NoError(t, err)

	var out TensionsResult
	decodeResult(t, res, &out)
	require.Len(t, out.Tensions, len(ids))
	for i, id := range ids {
		assert.Equal(t, id, out.Tensions[i].MeetingID)
		assert.Equal(t, "t-"+id, out.Tensions[i].ID)
	}
	assert.Empty(t, out.Failures)
	assert.Len(t, fake.Calls(), len(ids))
}

func TestGetTensionsSuccessWithoutItems(t *testing.T) {
	acc, _ := newFakeAccessor(func(string, holaspirit.RequestOptions) (*holaspirit.Response, error) {
		return &holaspirit.Response{Data: json.RawMessage(`{"unexpected":"object"}`)}, nil
	})

	res, err := callTool(t, acc, NameGetTensions, map[string]any{"meetingIds": []string{"m1"}})
	require.NoError(t, err)

	text, ok := ResultText(res)
	require.True(t, ok)
	assert.JSONEq(t, `{"tensions":[],"failures":[]}`, text)
}

func membersPage(t *testing.T, page, pages int, emails ...string) *holaspirit.Response {
	t.Helper()
	members := make([]map[string]any, 0, len(emails))
	for i, email := range emails {
		members = append(members, map[string]any{"id": fmt.Sprintf("u%d-%d", page, i), "email": email})
	}
	resp := dataResponse(t, members)
	resp.Pagination = &holaspirit.Pagination{CurrentPage: page, PagesCount: pages}
	return resp
}

func TestSearchMemberFindsMatchOnSecondPage(t *testing.T) {
	filler := func(page int) []string {
		emails := make([]string, 100)
		for i := range emails {
			emails[i] = fmt.Sprintf("person%d-%d@example.com", page, i)
		}
		return emails
	}
	acc, fake := newFakeAccessor(func(_ string, opts holaspirit.RequestOptions) (*holaspirit.Response, error) {
		page := opts.Query["page"].(int)
		emails := filler(page)
		if page == 2 {
			emails[42] = "Target@Example.com"
		}
		return membersPage(t, page, 2, emails...), nil
	})

	res, err := callTool(t, acc, NameSearchMember, map[string]any{"email": "target@example.com"})
	require.NoError(t, err)

	var member Member
	decodeResult(t, res, &member)
	assert.Equal(t, "u2-42", member.ID)
	assert.Equal(t, "Target@Example.com", member.Email)

	calls := fake.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, 100, calls[0].Opts.Query["count"])
	assert.Equal(t, 2, calls[1].Opts.Query["page"])
}

func TestSearchMemberNoMatch(t *testing.T) {
	acc, fake := newFakeAccessor(func(_ string, opts holaspirit.RequestOptions) (*holaspirit.Response, error) {
		return membersPage(t, 1, 1, "a@example.com", "b@example.com"), nil
	})

	res, err := callTool(t, acc, NameSearchMember, map[string]any{"email": "c@example.com"})
	require.NoError(t, err)
	assert.Empty(t, res.Content)
	assert.Len(t, fake.Calls(), 1)
}

func TestSearchMemberStopsWithoutPagination(t *testing.T) {
	acc, fake := newFakeAccessor(func(string, holaspirit.RequestOptions) (*holaspirit.Response, error) {
		return dataResponse(t, []map[string]any{{"id": "u1", "email": "a@example.com"}}), nil
	})

	res, err := callTool(t, acc, NameSearchMember, map[string]any{"email": "z@example.com"})
	require.NoError(t, err)
	assert.Empty(t, res.Content)
	assert.Len(t, fake.Calls(), 1)
}

func TestInvalidArgumentsNeverReachUpstream(t *testing.T) {
	cases := []struct {
		tool string
		args string
	}{
		{NameGetCircle, `{}`},
		{NameListTasks, `{"count":500}`},
		{NameGetTensions, `{}`},
		{NameSearchMember, `{"email":"nope"}`},
		{NameListMeetings, `{"bogus":1}`},
		{NameGetRole, `not json`},
	}
	for _, tc := range cases {
		t.Run(tc.tool, func(t *testing.T) {
			acc, fake := newFakeAccessor(nil)
			tool := findTool(t, Catalog(acc), tc.tool)
			_, err := tool.Execute(t.Context(), json.RawMessage(tc.args))
			var verr *schema.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, schema.Input, verr.Direction)
			assert.Empty(t, fake.Calls())
		})
	}
}

func TestToolCallsAreRepeatable(t *testing.T) {
	acc, _ := newFakeAccessor(func(string, holaspirit.RequestOptions) (*holaspirit.Response, error) {
		return &holaspirit.Response{Data: json.RawMessage(`{"id":"r1","name":"Facilitator"}`)}, nil
	})

	first, err := callTool(t, acc, NameGetRole, map[string]any{"roleId": "r1"})
	require.NoError(t, err)
	second, err := callTool(t, acc, NameGetRole, map[string]any{"roleId": "r1"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestUpstreamErrorsPassThrough(t *testing.T) {
	apiErr := &holaspirit.APIError{Method: http.MethodGet, Path: "/x", Status: http.StatusUnauthorized}
	acc, _ := newFakeAccessor(func(string, holaspirit.RequestOptions) (*holaspirit.Response, error) {
		return nil, apiErr
	})

	_, err := callTool(t, acc, NameListDomains, nil)
	assert.ErrorIs(t, err, apiErr)
}
