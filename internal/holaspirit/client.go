// Package holaspirit is a small read-only client for the Holaspirit REST API.
package holaspirit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName       = "github.com/arreyder/holaspirit-mcp/internal/holaspirit"
	maxErrorBodySize = 512
)

// Requester issues typed GET requests against a URL template such as
// "/api/organizations/{organization_id}/circles/{circle_id}".
type Requester interface {
	Get(ctx context.Context, pathTemplate string, opts RequestOptions) (*Response, error)
}

// Accessor is the read-only handle every tool shares: a client plus the
// organization all requests are scoped to.
type Accessor struct {
	Client         Requester
	OrganizationID string
}

// RequestOptions carries path placeholder values and query parameters.
// Nil query values (including nil pointers) are omitted.
type RequestOptions struct {
	Path  map[string]string
	Query map[string]any
}

// Response is the envelope every Holaspirit endpoint returns.
type Response struct {
	Data       json.RawMessage            `json:"data"`
	Pagination *Pagination                `json:"pagination,omitempty"`
	Linked     map[string]json.RawMessage `json:"linked,omitempty"`
}

// HasData reports whether the data member is present and not null.
func (r *Response) HasData() bool {
	if r == nil {
		return false
	}
	trimmed := strings.TrimSpace(string(r.Data))
	return trimmed != "" && trimmed != "null"
}

type Pagination struct {
	CurrentPage int `json:"currentPage"`
	PagesCount  int `json:"pagesCount"`
}

// APIError is a non-2xx answer from the upstream API.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("holaspirit %s %s failed: status %d", e.Method, e.Path, e.Status)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	retry      retryPolicy
	pacer      *pacer
	tracer     trace.Tracer
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		if t != nil {
			c.tracer = t
		}
	}
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, &ConfigError{Key: EnvBaseURL, Reason: "must be an absolute URL"}
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, &ConfigError{Key: EnvToken, Reason: "environment variable is required"}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		baseURL:    base,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
		retry:      newRetryPolicy(cfg),
		pacer:      newPacer(cfg.RateLimitRPS, cfg.RateLimitBurst),
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewAccessor builds the client described by cfg and binds it to the
// configured organization.
func NewAccessor(cfg Config, opts ...Option) (Accessor, error) {
	if err := cfg.Validate(); err != nil {
		return Accessor{}, err
	}
	client, err := NewClient(cfg, opts...)
	if err != nil {
		return Accessor{}, err
	}
	return Accessor{Client: client, OrganizationID: cfg.OrganizationID}, nil
}

func (c *Client) Get(ctx context.Context, pathTemplate string, opts RequestOptions) (*Response, error) {
	ctx, span := c.tracer.Start(ctx, "holaspirit.get",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("holaspirit.path_template", pathTemplate)),
	)
	defer span.End()

	resp, err := c.get(ctx, pathTemplate, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return resp, nil
}

func (c *Client) get(ctx context.Context, pathTemplate string, opts RequestOptions) (*Response, error) {
	path, err := ExpandPath(pathTemplate, opts.Path)
	if err != nil {
		return nil, err
	}
	urlStr := c.baseURL + path
	if query := EncodeQuery(opts.Query); query != "" {
		urlStr += "?" + query
	}

	body, status, err := c.doWithRetry(ctx, http.MethodGet, urlStr)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, &APIError{Method: http.MethodGet, Path: path, Status: status, Body: truncateBody(body)}
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("holaspirit GET %s: decode response: %w", path, err)
	}
	return &out, nil
}

func (c *Client) doWithRetry(ctx context.Context, method, urlStr string) ([]byte, int, error) {
	sched := c.retry.schedule()
	for attempt := 1; ; attempt++ {
		if err := c.pacer.wait(ctx); err != nil {
			return nil, 0, err
		}
		req, err := http.NewRequestWithContext(ctx, method, urlStr, nil)
		if err != nil {
			return nil, 0, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, 0, err
		}
		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, resp.StatusCode, readErr
		}
		if !retryable(resp.StatusCode) || attempt >= c.retry.attempts {
			return respBody, resp.StatusCode, nil
		}
		delay := nextDelay(resp, sched, time.Now())
		trace.SpanFromContext(ctx).AddEvent("retry", trace.WithAttributes(
			attribute.Int("http.status_code", resp.StatusCode),
			attribute.Int("holaspirit.attempt", attempt),
			attribute.String("holaspirit.delay", delay.String()),
		))
		if err := sleepContext(ctx, delay); err != nil {
			return nil, resp.StatusCode, err
		}
	}
}

// ExpandPath substitutes {name} placeholders with escaped values.
func ExpandPath(template string, params map[string]string) (string, error) {
	var b strings.Builder
	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		closing := strings.IndexByte(rest[open:], '}')
		if closing < 0 {
			return "", fmt.Errorf("holaspirit: unterminated placeholder in %q", template)
		}
		name := rest[open+1 : open+closing]
		value, ok := params[name]
		if !ok || value == "" {
			return "", fmt.Errorf("holaspirit: missing path parameter %q for %q", name, template)
		}
		b.WriteString(rest[:open])
		b.WriteString(url.PathEscape(value))
		rest = rest[open+closing+1:]
	}
}

// EncodeQuery renders query values in key order. Slices repeat the key.
func EncodeQuery(query map[string]any) string {
	if len(query) == 0 {
		return ""
	}
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	values := url.Values{}
	for _, key := range keys {
		for _, v := range queryValues(query[key]) {
			values.Add(key, v)
		}
	}
	return values.Encode()
}

func queryValues(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case *string:
		if v == nil {
			return nil
		}
		return []string{*v}
	case int:
		return []string{strconv.Itoa(v)}
	case *int:
		if v == nil {
			return nil
		}
		return []string{strconv.Itoa(*v)}
	case int64:
		return []string{strconv.FormatInt(v, 10)}
	case bool:
		return []string{strconv.FormatBool(v)}
	case *bool:
		if v == nil {
			return nil
		}
		return []string{strconv.FormatBool(*v)}
	case []string:
		return v
	case time.Time:
		return []string{v.UTC().Format(time.RFC3339)}
	case fmt.Stringer:
		return []string{v.String()}
	default:
		return []string{fmt.Sprintf("%v", v)}
	}
}

func truncateBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBodySize {
		return s[:maxErrorBodySize] + "...(truncated)"
	}
	return s
}
