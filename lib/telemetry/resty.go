package telemetry

import (
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var requestCounter uint64

// InstrumentResty attaches tracing middleware to a resty client,
// one span per outgoing request.
func InstrumentResty(client *resty.Client, tracerName string) {
	tracer := otel.Tracer(tracerName)

	client.OnBeforeRequest(func(cli *resty.Client, req *resty.Request) error {
		ctx, _ := tracer.Start(req.Context(), req.Method)
		req.SetContext(ctx)

		if slog.Default().Enabled(ctx, slog.LevelDebug) {
			id := strconv.FormatUint(atomic.AddUint64(&requestCounter, 1), 10)
			slog.DebugContext(
				ctx, "start request",
				"method", req.Method,
				"url", req.URL,
				"request_id", id,
			)
		}
		return nil
	})

	client.OnAfterResponse(func(cli *resty.Client, res *resty.Response) error {
		span := trace.SpanFromContext(res.Request.Context())
		defer span.End()

		span.SetAttributes(
			attribute.String("url", res.Request.URL),
			attribute.Int("status_code", res.StatusCode()),
			attribute.Int64("duration_ms", res.Time().Milliseconds()),
		)
		if res.IsError() {
			span.SetStatus(codes.Error, res.Status())
		}
		return nil
	})

	client.OnError(func(req *resty.Request, err error) {
		span := trace.SpanFromContext(req.Context())
		defer span.End()

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	})
}
