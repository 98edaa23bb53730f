package schema

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidationError describes the first contract violation found in a payload.
// Direction tells a bad argument apart from a bad upstream response.
type ValidationError struct {
	Direction Direction
	Field     string
	Message   string
	Expected  string
	Received  string
	Hint      string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Detail renders the message with its expected/received/hint lines, the way
// it is shown to operators.
func (e *ValidationError) Detail() string {
	msg := e.Message
	if e.Expected != "" {
		msg += "\nExpected: " + e.Expected
	}
	if e.Received != "" {
		msg += "\nReceived: " + e.Received
	}
	if e.Hint != "" {
		msg += "\nHint: " + e.Hint
	}
	return strings.TrimSpace(msg)
}

var quotedName = regexp.MustCompile(`'([^']*)'`)

func (c *Contract[T]) convertError(err error, value any) error {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Errorf("schema: validate %s: %w", c.name, err)
	}
	leaf := deepestCause(verr)
	field := pointerToField(leaf.InstanceLocation)
	keyword := lastSegment(leaf.KeywordLocation)
	subject := "argument"
	if c.direction == Output {
		subject = "response field"
	}

	switch keyword {
	case "required":
		missing := firstQuoted(leaf.Message)
		field = joinPath(field, missing)
		return &ValidationError{
			Direction: c.direction,
			Field:     field,
			Message:   fmt.Sprintf("missing required %s %q", subject, field),
			Expected:  "required field",
			Received:  "<missing>",
			Hint:      fmt.Sprintf("Provide a value for %q.", field),
		}
	case "additionalProperties":
		unknown := firstQuoted(leaf.Message)
		field = joinPath(field, unknown)
		return &ValidationError{
			Direction: c.direction,
			Field:     field,
			Message:   fmt.Sprintf("unknown %s %q", subject, field),
			Expected:  c.expectedProperties(leaf.InstanceLocation),
			Received:  redactValue(field, lookupPointer(value, leaf.InstanceLocation+"/"+unknown)),
			Hint:      fmt.Sprintf("Remove %q or check the tool schema.", field),
		}
	}

	if field == "" {
		field = "(root)"
	}
	return &ValidationError{
		Direction: c.direction,
		Field:     field,
		Message:   fmt.Sprintf("invalid %s %q: %s", subject, field, leaf.Message),
		Expected:  keyword,
		Received:  redactValue(field, lookupPointer(value, leaf.InstanceLocation)),
		Hint:      fmt.Sprintf("Check the schema for %q.", field),
	}
}

func (c *Contract[T]) expectedProperties(instance string) string {
	if instance != "" {
		return "known field"
	}
	props, _ := c.document["properties"].(map[string]any)
	if len(props) == 0 {
		return "no arguments"
	}
	return "one of: " + strings.Join(sortedKeys(props), ", ")
}

func deepestCause(err *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(err.Causes) > 0 {
		err = err.Causes[0]
	}
	return err
}

func firstQuoted(msg string) string {
	m := quotedName.FindStringSubmatch(msg)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func lastSegment(pointer string) string {
	idx := strings.LastIndex(pointer, "/")
	if idx < 0 {
		return pointer
	}
	return pointer[idx+1:]
}

// pointerToField turns "/meetingIds/0" into "meetingIds[0]".
func pointerToField(pointer string) string {
	if pointer == "" || pointer == "/" {
		return ""
	}
	field := ""
	for _, seg := range strings.Split(strings.TrimPrefix(pointer, "/"), "/") {
		seg = unescapePointer(seg)
		if _, err := strconv.Atoi(seg); err == nil {
			field += "[" + seg + "]"
			continue
		}
		field = joinPath(field, seg)
	}
	return field
}

func lookupPointer(value any, pointer string) any {
	if pointer == "" || pointer == "/" {
		return value
	}
	current := value
	for _, seg := range strings.Split(strings.TrimPrefix(pointer, "/"), "/") {
		seg = unescapePointer(seg)
		switch typed := current.(type) {
		case map[string]any:
			current = typed[seg]
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(typed) {
				return nil
			}
			current = typed[idx]
		default:
			return nil
		}
	}
	return current
}

func unescapePointer(seg string) string {
	seg = strings.ReplaceAll(seg, "~1", "/")
	return strings.ReplaceAll(seg, "~0", "~")
}

func joinPath(parent, child string) string {
	if parent == "" {
		return child
	}
	if child == "" {
		return parent
	}
	return parent + "." + child
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func redactValue(field string, value any) string {
	if value == nil {
		return "null"
	}
	lower := strings.ToLower(field)
	if strings.Contains(lower, "key") || strings.Contains(lower, "token") || strings.Contains(lower, "secret") || strings.Contains(lower, "password") {
		return "[REDACTED]"
	}
	switch v := value.(type) {
	case string:
		if len(v) > 200 {
			return v[:200] + "...(truncated)"
		}
		return v
	case []any:
		return fmt.Sprintf("array(len=%d)", len(v))
	case map[string]any:
		return fmt.Sprintf("object(len=%d)", len(v))
	default:
		return fmt.Sprintf("%v", v)
	}
}
