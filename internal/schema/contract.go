// Package schema derives JSON Schema contracts from Go types and validates
// JSON payloads against them.
//
// A Contract is reflected once from a tagged struct, serialized into a plain
// JSON document, and compiled from that same document. The document is what
// gets advertised to MCP clients, so whatever the advertised schema accepts is
// exactly what the contract accepts.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"reflect"
	"strings"

	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Direction controls how a contract treats unknown properties and null values.
type Direction int

const (
	// Input contracts are closed: unknown properties and nulls are rejected.
	Input Direction = iota
	// Output contracts are open: unknown properties are tolerated and
	// dropped on decode, and null members are treated as absent.
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// Contract validates and decodes JSON values into T.
type Contract[T any] struct {
	name      string
	direction Direction
	reflected *invopop.Schema
	document  map[string]any
	compiled  *jsonschema.Schema
}

// NewInputContract reflects a closed contract for argument objects.
func NewInputContract[T any]() (*Contract[T], error) {
	return newContract[T](Input)
}

// NewOutputContract reflects an open contract for upstream payloads.
func NewOutputContract[T any]() (*Contract[T], error) {
	return newContract[T](Output)
}

// MustInputContract is NewInputContract for package-level contracts.
func MustInputContract[T any]() *Contract[T] {
	c, err := NewInputContract[T]()
	if err != nil {
		panic(err)
	}
	return c
}

// MustOutputContract is NewOutputContract for package-level contracts.
func MustOutputContract[T any]() *Contract[T] {
	c, err := NewOutputContract[T]()
	if err != nil {
		panic(err)
	}
	return c
}

func newContract[T any](direction Direction) (*Contract[T], error) {
	var zero T
	typ := reflect.TypeOf(zero)
	if typ == nil {
		return nil, fmt.Errorf("schema: contract type must not be an interface")
	}
	name := typeName(typ)

	reflector := &invopop.Reflector{
		ExpandedStruct:            typ.Kind() == reflect.Struct,
		DoNotReference:            true,
		Anonymous:                 true,
		AllowAdditionalProperties: direction == Output,
	}
	reflected := reflector.Reflect(zero)

	document, err := ToDocument(reflected)
	if err != nil {
		return nil, fmt.Errorf("schema: %s contract %s: %w", direction, name, err)
	}
	compiled, err := compileDocument(name, document)
	if err != nil {
		return nil, fmt.Errorf("schema: %s contract %s: %w", direction, name, err)
	}

	return &Contract[T]{
		name:      name,
		direction: direction,
		reflected: reflected,
		document:  document,
		compiled:  compiled,
	}, nil
}

// ToDocument converts a reflected schema into the generic interchange form
// advertised to clients.
func ToDocument(s *invopop.Schema) (map[string]any, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// DecodeJSON reads exactly one JSON value in the form the validator works on:
// objects become map[string]any and numbers stay json.Number.
func DecodeJSON(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after top-level value")
	}
	return value, nil
}

func compileDocument(name string, document map[string]any) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(document)
	if err != nil {
		return nil, err
	}
	location := "https://holaspirit-mcp.local/contracts/" + url.PathEscape(name) + ".json"
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true
	if err := compiler.AddResource(location, bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return compiler.Compile(location)
}

// Name is the Go type name the contract was reflected from.
func (c *Contract[T]) Name() string {
	return c.name
}

// Reflected returns the schema as produced by reflection.
func (c *Contract[T]) Reflected() *invopop.Schema {
	return c.reflected
}

// Document returns a deep copy of the interchange document.
func (c *Contract[T]) Document() map[string]any {
	return cloneMap(c.document)
}

// Validate checks a decoded JSON value against the contract.
func (c *Contract[T]) Validate(value any) error {
	if c.direction == Output {
		value = dropNulls(value)
	}
	if err := c.compiled.Validate(value); err != nil {
		return c.convertError(err, value)
	}
	return nil
}

// Parse validates raw JSON and decodes it into T. Empty input and a literal
// null are treated as an empty object.
func (c *Contract[T]) Parse(raw json.RawMessage) (T, error) {
	var out T
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		trimmed = []byte("{}")
	}
	value, err := DecodeJSON(bytes.NewReader(trimmed))
	if err != nil {
		return out, &ValidationError{
			Direction: c.direction,
			Message:   fmt.Sprintf("invalid %s: malformed JSON: %v", c.subject(), err),
			Expected:  "JSON object",
			Received:  redactValue("", string(trimmed)),
		}
	}
	return c.ParseValue(value)
}

// ParseValue validates an already decoded JSON value and decodes it into T.
func (c *Contract[T]) ParseValue(value any) (T, error) {
	var out T
	if c.direction == Output {
		value = dropNulls(value)
	}
	if err := c.compiled.Validate(value); err != nil {
		return out, c.convertError(err, value)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return out, fmt.Errorf("schema: re-encode %s: %w", c.name, err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &ValidationError{
			Direction: c.direction,
			Message:   fmt.Sprintf("invalid %s: %v", c.subject(), err),
			Expected:  c.name,
			Received:  redactValue("", value),
		}
	}
	return out, nil
}

func (c *Contract[T]) subject() string {
	if c.direction == Output {
		return "response"
	}
	return "arguments"
}

func typeName(typ reflect.Type) string {
	for typ.Kind() == reflect.Pointer || typ.Kind() == reflect.Slice {
		typ = typ.Elem()
	}
	name := typ.Name()
	if name == "" {
		name = strings.ReplaceAll(typ.String(), " ", "")
	}
	return name
}

// dropNulls removes null members from objects, recursively. Upstream APIs
// routinely emit null for unset optional fields.
func dropNulls(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			if item == nil {
				continue
			}
			out[key] = dropNulls(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = dropNulls(item)
		}
		return out
	default:
		return value
	}
}

func cloneMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		return cloneMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
