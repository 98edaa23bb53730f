package tools

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ErrDuplicateTool is returned by NewRegistry when two tools share a name.
var ErrDuplicateTool = errors.New("duplicate tool name")

// Some MCP clients reject dots and other punctuation in tool names.
var toolNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Definition is the advertised form of a tool.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// Registry stores tools by name and remembers construction order, which is
// the order tools are listed in. It is immutable once built.
type Registry struct {
	order    []string
	handlers map[string]ExecuteFunc
	defs     []Definition
	mcpTools []*mcp.Tool
}

// NewRegistry indexes tools in the order given. Empty, malformed or repeated
// names are rejected.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{
		order:    make([]string, 0, len(tools)),
		handlers: make(map[string]ExecuteFunc, len(tools)),
		defs:     make([]Definition, 0, len(tools)),
		mcpTools: make([]*mcp.Tool, 0, len(tools)),
	}
	for _, tool := range tools {
		if tool.Name == "" {
			return nil, fmt.Errorf("tool name cannot be empty")
		}
		if !toolNamePattern.MatchString(tool.Name) {
			return nil, fmt.Errorf("tool name %q must match %s", tool.Name, toolNamePattern)
		}
		if tool.Execute == nil || tool.Input == nil {
			return nil, fmt.Errorf("tool %q is missing its input contract or handler", tool.Name)
		}
		if _, exists := r.handlers[tool.Name]; exists {
			return nil, fmt.Errorf("%w %q", ErrDuplicateTool, tool.Name)
		}
		// One clone per tool; Definitions and Tools share it read-only.
		doc := tool.Input.Document()
		r.order = append(r.order, tool.Name)
		r.handlers[tool.Name] = tool.Execute
		r.defs = append(r.defs, Definition{Name: tool.Name, Description: tool.Description, InputSchema: doc})
		r.mcpTools = append(r.mcpTools, &mcp.Tool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: doc,
			Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
		})
	}
	return r, nil
}

// Handler returns the handler registered under name.
func (r *Registry) Handler(name string) (ExecuteFunc, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Definitions returns tool definitions in registration order.
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Tools returns the MCP form of the definitions in registration order.
func (r *Registry) Tools() []*mcp.Tool {
	out := make([]*mcp.Tool, len(r.mcpTools))
	copy(out, r.mcpTools)
	return out
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.order)
}
