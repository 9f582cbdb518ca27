package telemetry

import (
	"context"
	"ctfd-cli/lib/restyutil"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/semconv/v1.13.0/httpconv"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentResty opens a span around every request made by client and
// counts requests by method and outcome. Form bodies are attached with their
// secret fields redacted.
func InstrumentResty(client *resty.Client, name string) {
	tracer := otel.Tracer(name)
	requests, err := otel.Meter(name).Int64Counter(
		"http.client.requests",
		metric.WithDescription("HTTP requests made, by method and status code."),
	)
	if err != nil {
		slog.Warn("failed to create request counter", "err", err)
	}

	client.OnBeforeRequest(onBeforeRequest(tracer))
	client.OnAfterResponse(onAfterResponse(requests))
	client.OnError(onError(requests))
}

func countRequest(ctx context.Context, requests metric.Int64Counter, method string, status int) {
	if requests == nil {
		return
	}
	requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.Int("http.status_code", status),
	))
}

func onBeforeRequest(tracer trace.Tracer) resty.RequestMiddleware {
	return func(cli *resty.Client, req *resty.Request) error {
		ctx, _ := tracer.Start(req.Context(), req.Method)
		req.SetContext(ctx)
		return nil
	}
}

func instrumentHeaders(out *[]attribute.KeyValue, prefix string, headers http.Header) {
	for header, values := range headers {
		if header == "Cookie" || header == "Set-Cookie" {
			*out = append(*out, attribute.KeyValue{
				Key:   attribute.Key(fmt.Sprintf("%s/header: %s", prefix, header)),
				Value: attribute.IntValue(len(values)),
			})
			continue
		}
		if len(values) == 1 {
			*out = append(*out, attribute.KeyValue{
				Key:   attribute.Key(fmt.Sprintf("%s/header: %s", prefix, header)),
				Value: attribute.StringValue(values[0]),
			})
			continue
		}
		for i, v := range values {
			*out = append(*out, attribute.KeyValue{
				Key:   attribute.Key(fmt.Sprintf("%s/header: %s (%d)", prefix, header, i)),
				Value: attribute.StringValue(v),
			})
		}
	}
}

func instrumentRequestBody(span trace.Span, req *resty.Request) {
	form := restyutil.RedactedForm(req)
	if len(form) == 0 {
		return
	}
	span.SetAttributes(attribute.KeyValue{
		Key:   "request/body",
		Value: attribute.StringValue(form.Encode()),
	})
}

func onAfterResponse(requests metric.Int64Counter) resty.ResponseMiddleware {
	return func(_ *resty.Client, res *resty.Response) error {
		countRequest(res.Request.Context(), requests, res.Request.Method, res.StatusCode())
		return recordResponse(res)
	}
}

func recordResponse(res *resty.Response) error {
	span := trace.SpanFromContext(res.Request.Context())
	defer span.End()

	span.SetAttributes(httpconv.ClientResponse(res.RawResponse)...)

	// setting request attributes here since res.Request.RawRequest is nil in onBeforeRequest
	span.SetName(fmt.Sprintf("http %s", res.Request.Method))
	span.SetAttributes(httpconv.ClientRequest(res.Request.RawRequest)...)

	var attrs []attribute.KeyValue
	instrumentHeaders(&attrs, "request", res.Request.Header)
	instrumentHeaders(&attrs, "response", res.Header())
	span.SetAttributes(attrs...)

	instrumentRequestBody(span, res.Request)
	span.SetAttributes(attribute.Int("response/body_size", len(res.Body())))

	return nil
}

func onError(requests metric.Int64Counter) resty.ErrorHook {
	return func(req *resty.Request, err error) {
		countRequest(req.Context(), requests, req.Method, 0)
		recordError(req, err)
	}
}

func recordError(req *resty.Request, err error) {
	span := trace.SpanFromContext(req.Context())
	defer span.End()

	defer span.SetStatus(codes.Error, err.Error())
	defer span.RecordError(err)

	span.SetName(fmt.Sprintf("http %s", req.Method))
	var attrs []attribute.KeyValue
	instrumentHeaders(&attrs, "request", req.Header)
	span.SetAttributes(attrs...)

	if req.RawRequest == nil {
		return
	}
	span.SetAttributes(httpconv.ClientRequest(req.RawRequest)...)
	instrumentRequestBody(span, req)
}
