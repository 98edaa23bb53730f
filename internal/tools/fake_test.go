package tools

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/arreyder/holaspirit-mcp/internal/holaspirit"
)

const testOrg = "org-1"

type recordedCall struct {
	Path string
	Opts holaspirit.RequestOptions
}

type fakeRequester struct {
	mu      sync.Mutex
	calls   []recordedCall
	respond func(path string, opts holaspirit.RequestOptions) (*holaspirit.Response, error)
}

func (f *fakeRequester) Get(_ context.Context, path string, opts holaspirit.RequestOptions) (*holaspirit.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{Path: path, Opts: opts})
	f.mu.Unlock()
	if f.respond == nil {
		return &holaspirit.Response{Data: json.RawMessage(`[]`)}, nil
	}
	return f.respond(path, opts)
}

func (f *fakeRequester) Calls() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]recordedCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func newFakeAccessor(respond func(string, holaspirit.RequestOptions) (*holaspirit.Response, error)) (holaspirit.Accessor, *fakeRequester) {
	fake := &fakeRequester{respond: respond}
	return holaspirit.Accessor{Client: fake, OrganizationID: testOrg}, fake
}

func rawJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func dataResponse(t *testing.T, data any) *holaspirit.Response {
	t.Helper()
	return &holaspirit.Response{Data: rawJSON(t, data)}
}

func findTool(t *testing.T, tools []Tool, name string) Tool {
	t.Helper()
	for _, tool := range tools {
		if tool.Name == name {
			return tool
		}
	}
	t.Fatalf("tool %s not in catalog", name)
	return Tool{}
}

func callTool(t *testing.T, acc holaspirit.Accessor, name string, args any) (*mcp.CallToolResult, error) {
	t.Helper()
	tool := findTool(t, Catalog(acc), name)
	var raw json.RawMessage
	if args != nil {
		raw = rawJSON(t, args)
	}
	return tool.Execute(context.Background(), raw)
}

func decodeResult(t *testing.T, res *mcp.CallToolResult, out any) {
	t.Helper()
	text, ok := ResultText(res)
	require.True(t, ok, "expected a text content block")
	require.NoError(t, json.Unmarshal([]byte(text), out))
}
