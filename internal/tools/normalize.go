package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/arreyder/holaspirit-mcp/internal/holaspirit"
	"github.com/arreyder/holaspirit-mcp/internal/schema"
)

var (
	ErrMalformedResponse = errors.New("invalid response format")
	ErrAllRequestsFailed = errors.New("all requests failed")
)

// DefaultPagination is used when the upstream omits pagination metadata.
var DefaultPagination = holaspirit.Pagination{CurrentPage: 1, PagesCount: 1}

// ListResult is the shape every list tool returns.
type ListResult[T any] struct {
	Pagination holaspirit.Pagination `json:"pagination"`
	Items      []T                   `json:"items"`
}

func notFound(what string) error {
	return fmt.Errorf("%s not found or %w", what, ErrMalformedResponse)
}

// NormalizeSingle validates the data member of a single-item response.
func NormalizeSingle[T any](resp *holaspirit.Response, contract *schema.Contract[T], what string) (T, error) {
	var zero T
	if !resp.HasData() {
		return zero, notFound(what)
	}
	return contract.Parse(resp.Data)
}

// NormalizePaginated validates the data member of a list response and pairs
// it with the pagination metadata, defaulting to a single page.
func NormalizePaginated[T any](resp *holaspirit.Response, items *schema.Contract[[]T], what string) (ListResult[T], error) {
	if !resp.HasData() {
		return ListResult[T]{}, notFound(what)
	}
	parsed, err := items.Parse(resp.Data)
	if err != nil {
		return ListResult[T]{}, err
	}
	if parsed == nil {
		parsed = []T{}
	}
	pagination := DefaultPagination
	if resp.Pagination != nil {
		pagination = *resp.Pagination
	}
	return ListResult[T]{Pagination: pagination, Items: parsed}, nil
}

// respond checks a finished result against its output contract before
// wrapping it. A mismatch here is a bug in the tool, so it is reported rather
// than coerced.
func respond[T any](contract *schema.Contract[T], result T) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", contract.Name(), err)
	}
	value, err := decodeJSON(raw)
	if err != nil {
		return nil, err
	}
	if err := contract.Validate(value); err != nil {
		return nil, err
	}
	return FormatResponse(result)
}

func decodeJSON(raw []byte) (any, error) {
	value, err := schema.DecodeJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return value, nil
}
