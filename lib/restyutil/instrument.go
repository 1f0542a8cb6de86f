package restyutil

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/semconv/v1.13.0/httpconv"
	"go.opentelemetry.io/otel/trace"
)

type InstrumentOutput interface {
	Write(id string, contents string)
}

type instrumentCtx struct {
	output    InstrumentOutput
	tracer    trace.Tracer
	requests  metric.Int64Counter
	idcounter *uint64
}

type messageIdKey struct{}

// InstrumentClient adds a span, a request counter and debug logs to every
// request made by client.
// `tracer` can be nil, it will default to a library name of "resty"
// `output` can also be nil, if it is, exchanges are not dumped
func InstrumentClient(client *resty.Client, tracer trace.Tracer, output InstrumentOutput) {
	if tracer == nil {
		tracer = otel.Tracer("resty")
	}
	requests, err := otel.Meter("lib/restyutil").Int64Counter(
		"crawlbase.http.requests",
		metric.WithDescription("Requests sent, by method and status code."),
	)
	if err != nil {
		slog.Warn("failed to create request counter", "err", err)
	}

	var idcounter uint64
	i := instrumentCtx{
		output:    output,
		tracer:    tracer,
		requests:  requests,
		idcounter: &idcounter,
	}
	client.OnBeforeRequest(i.onBeforeRequest)
	// success hooks also run for requests that do not parse the response,
	// after-response middleware does not
	client.OnSuccess(i.onSuccess)
	client.OnError(i.onError)
}

func (i instrumentCtx) onBeforeRequest(_ *resty.Client, req *resty.Request) error {
	ctx, _ := i.tracer.Start(req.Context(), req.Method)

	messageId := strconv.FormatUint(atomic.AddUint64(i.idcounter, 1), 10)
	ctx = context.WithValue(ctx, messageIdKey{}, messageId)
	slog.DebugContext(
		ctx, "start request",
		"method", req.Method,
		"url", RedactToken(req.URL),
		"message_id", messageId,
	)

	req.SetContext(ctx)
	return nil
}

func (i instrumentCtx) onSuccess(_ *resty.Client, res *resty.Response) {
	ctx := res.Request.Context()
	span := trace.SpanFromContext(ctx)
	defer span.End()

	// setting request attributes here since res.Request.RawRequest is nil in onBeforeRequest
	span.SetName(fmt.Sprintf("http %s", res.Request.Method))
	if res.RawResponse != nil {
		span.SetAttributes(httpconv.ClientResponse(res.RawResponse)...)
	}
	span.SetAttributes(requestAttributes(res.Request)...)
	i.count(ctx, res.Request.Method, strconv.Itoa(res.StatusCode()))

	messageId, _ := ctx.Value(messageIdKey{}).(string)
	slog.DebugContext(
		ctx, "request succeeded",
		"method", res.Request.Method,
		"url", RedactToken(res.Request.URL),
		"status", res.StatusCode(),
		"message_id", messageId,
	)
	if i.output != nil && slog.Default().Enabled(ctx, slog.LevelDebug) {
		i.output.Write(messageId, formatHttpMessage(res))
	}
}

func (i instrumentCtx) onError(req *resty.Request, err error) {
	redactError(err)

	ctx := req.Context()
	span := trace.SpanFromContext(ctx)
	defer span.End()

	defer span.RecordError(err)
	defer span.SetStatus(codes.Error, "request failed")

	i.count(ctx, req.Method, "error")

	messageId, _ := ctx.Value(messageIdKey{}).(string)
	slog.ErrorContext(
		ctx, "request failed",
		"method", req.Method,
		"url", RedactToken(req.URL),
		"err", err,
		"message_id", messageId,
	)

	span.SetName(fmt.Sprintf("http %s", req.Method))
	span.SetAttributes(requestAttributes(req)...)
}

// redactError rewrites the url of a wrapped *url.Error in place, the
// message the http client builds from it carries the full query.
func redactError(err error) {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = RedactToken(urlErr.URL)
	}
}

// httpconv.ClientRequest would record the full url, token included
func requestAttributes(req *resty.Request) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("http.method", req.Method),
		attribute.String("http.url", RedactToken(req.URL)),
	}
}

func (i instrumentCtx) count(ctx context.Context, method, status string) {
	if i.requests == nil {
		return
	}
	i.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.status", status),
	))
}
