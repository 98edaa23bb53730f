package tools

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	slogctx "github.com/veqryn/slog-context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/arreyder/holaspirit-mcp/internal/holaspirit"
	"github.com/arreyder/holaspirit-mcp/internal/schema"
)

const instrumentationName = "github.com/arreyder/holaspirit-mcp/internal/tools"

var (
	ErrMissingParams = errors.New("Params are required for CallToolRequest")
	ErrUnknownTool   = errors.New("Unknown tool")
)

// Error codes attached to a ToolError.
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeUnknownTool     = "UNKNOWN_TOOL"
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeUpstream        = "UPSTREAM"
	CodeBadResponse     = "BAD_RESPONSE"
	CodeCanceled        = "CANCELED"
	CodeInternal        = "INTERNAL"
)

// ToolError is the only error the dispatcher hands back to callers. It carries
// the failure message and a coarse code, never the underlying cause.
type ToolError struct {
	Tool    string
	Code    string
	Message string
}

func (e *ToolError) Error() string {
	return e.Message
}

type Dispatcher struct {
	registry *Registry
	tracer   trace.Tracer
	meter    metric.Meter
	calls    metric.Int64Counter
	duration metric.Float64Histogram
}

var (
	noopCounter, _   = noop.Meter{}.Int64Counter("")
	noopHistogram, _ = noop.Meter{}.Float64Histogram("")
)

type DispatcherOption func(*Dispatcher)

func WithDispatcherTracer(t trace.Tracer) DispatcherOption {
	return func(d *Dispatcher) {
		if t != nil {
			d.tracer = t
		}
	}
}

func WithDispatcherMeter(m metric.Meter) DispatcherOption {
	return func(d *Dispatcher) {
		if m != nil {
			d.meter = m
		}
	}
}

func NewDispatcher(registry *Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		tracer:   otel.Tracer(instrumentationName),
		meter:    otel.Meter(instrumentationName),
	}
	for _, opt := range opts {
		opt(d)
	}
	// Instrument creation only fails on invalid names; fall back to no-ops.
	var err error
	if d.calls, err = d.meter.Int64Counter("holaspirit_mcp.tool.calls",
		metric.WithDescription("Tool calls by tool and result code")); err != nil {
		d.calls = noopCounter
	}
	if d.duration, err = d.meter.Float64Histogram("holaspirit_mcp.tool.duration",
		metric.WithDescription("Tool call latency"), metric.WithUnit("s")); err != nil {
		d.duration = noopHistogram
	}
	return d
}

// List answers tools/list with every definition in registration order.
func (d *Dispatcher) List(context.Context) *mcp.ListToolsResult {
	return &mcp.ListToolsResult{Tools: d.registry.Tools()}
}

// Invoke answers tools/call. Failures are logged with full detail and
// returned as a *ToolError.
func (d *Dispatcher) Invoke(ctx context.Context, params *mcp.CallToolParamsRaw) (*mcp.CallToolResult, error) {
	name := ""
	if params != nil {
		name = params.Name
	}
	ctx = slogctx.With(ctx, "tool", name, "invocation_id", uuid.NewString())
	ctx, span := d.tracer.Start(ctx, "tools.invoke", trace.WithAttributes(attribute.String("mcp.tool", name)))
	defer span.End()

	start := time.Now()
	res, err := d.invoke(ctx, params)
	code := "OK"
	if err != nil {
		code = errorCode(err)
	}
	elapsed := time.Since(start)
	toolAttr := name
	if code == CodeUnknownTool || code == CodeInvalidRequest {
		toolAttr = "unknown" // caller-controlled names stay out of metric labels
	}
	attrs := metric.WithAttributes(attribute.String("tool", toolAttr), attribute.String("code", code))
	d.calls.Add(ctx, 1, attrs)
	d.duration.Record(ctx, elapsed.Seconds(), attrs)

	log := slogctx.FromCtx(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		fields := []any{"err", err, "code", code, "duration", elapsed}
		var verr *schema.ValidationError
		if errors.As(err, &verr) {
			fields = append(fields, "detail", verr.Detail())
		}
		log.ErrorContext(ctx, "tool call failed", fields...)
		return nil, &ToolError{Tool: name, Code: code, Message: strings.TrimSpace(err.Error())}
	}
	log.DebugContext(ctx, "tool call finished", "duration", elapsed)
	return res, nil
}

func (d *Dispatcher) invoke(ctx context.Context, params *mcp.CallToolParamsRaw) (*mcp.CallToolResult, error) {
	if params == nil {
		return nil, ErrMissingParams
	}
	handler, ok := d.registry.Handler(params.Name)
	if !ok {
		return nil, &unknownToolError{name: params.Name}
	}
	return handler(ctx, params.Arguments)
}

type unknownToolError struct {
	name string
}

func (e *unknownToolError) Error() string {
	return ErrUnknownTool.Error() + ": " + e.name
}

func (e *unknownToolError) Unwrap() error {
	return ErrUnknownTool
}

func errorCode(err error) string {
	var (
		verr   *schema.ValidationError
		apiErr *holaspirit.APIError
	)
	switch {
	case errors.Is(err, ErrMissingParams):
		return CodeInvalidRequest
	case errors.Is(err, ErrUnknownTool):
		return CodeUnknownTool
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCanceled
	case errors.As(err, &verr):
		if verr.Direction == schema.Output {
			return CodeBadResponse
		}
		return CodeInvalidArgument
	case errors.As(err, &apiErr), errors.Is(err, ErrAllRequestsFailed):
		return CodeUpstream
	case errors.Is(err, ErrMalformedResponse):
		return CodeBadResponse
	default:
		return CodeInternal
	}
}
