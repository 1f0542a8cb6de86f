package crawlbase

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"crawlbase/lib/jsonstream"
	"crawlbase/lib/restyutil"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// call is everything a variant hands to the pipeline for one request.
type call struct {
	method      string
	targetName  string
	targetValue string
	options     *Options
	format      Format

	body        []byte
	contentType string

	// binary profiles only
	savePath string
}

// extraction is the pipeline output, variants map it to their own result
// types.
type extraction struct {
	StatusCode int
	Metadata   Metadata
	Body       string
	Projection jsonstream.Result
}

func (c *Client) execute(ctx context.Context, p endpointProfile, in call) (extraction, error) {
	ctx, span := tracer.Start(ctx, fmt.Sprintf("crawlbase:%s", p.name))
	defer span.End()

	if !p.allows(in.method) {
		span.SetStatus(codes.Error, "method not allowed")
		return extraction{}, fmt.Errorf("%w: only %v is allowed for %s", ErrUnsupportedOperation, p.methods, p.name)
	}

	endpoint := c.baseURL + p.path
	uri, err := BuildURL(endpoint, in.targetName, in.targetValue, c.token, in.options)
	if err != nil {
		span.SetStatus(codes.Error, "failed to build url")
		return extraction{}, err
	}

	req := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true)
	if in.body != nil {
		req.SetHeader("Content-Type", in.contentType).SetBody(in.body)
	}
	res, err := req.Execute(in.method, uri)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch")
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = restyutil.RedactToken(urlErr.URL)
		}
		span.RecordError(err)
		return extraction{}, &TransportError{Method: in.method, URL: endpoint, Err: err}
	}

	body := res.RawBody()
	if body == nil {
		body = http.NoBody
	}
	defer body.Close()

	ex := extraction{StatusCode: res.StatusCode()}
	span.SetAttributes(
		attribute.String("crawlbase.endpoint", p.name),
		attribute.Int("crawlbase.status_code", ex.StatusCode),
	)

	format := p.resolveFormat(in.format)
	switch {
	case p.binary:
		ex.Body, err = c.capture(body, in.savePath)
		if err != nil {
			span.SetStatus(codes.Error, "failed to save binary body")
			return extraction{}, err
		}
		ex.Metadata = ProjectHeaders(res.Header())
	case format == FormatJSON:
		err = ex.projectJSON(body, p.spec)
	default:
		text, readErr := io.ReadAll(body)
		if readErr != nil {
			span.SetStatus(codes.Error, "failed to read body")
			return extraction{}, &TransportError{Method: in.method, URL: endpoint, Err: readErr}
		}
		ex.Body = string(text)
		ex.Metadata = ProjectHeaders(res.Header())
	}

	if ex.Metadata.RID == "" && ex.Metadata.StorageURL != "" {
		ex.Metadata.RID = deriveRID(ex.Metadata.StorageURL)
	}

	if err != nil {
		span.SetStatus(codes.Error, "failed to project response")
		span.RecordError(err)
		return ex, err
	}

	slog.DebugContext(
		ctx, "extracted response",
		"endpoint", p.name,
		"status", ex.StatusCode,
		"format", string(format),
		"records", len(ex.Projection.Records),
	)
	return ex, nil
}

// projectJSON streams body through the field projector, keeping a copy of
// the text for the caller. The body is drained even when projection fails.
func (ex *extraction) projectJSON(body io.Reader, spec jsonstream.Spec) error {
	var buf bytes.Buffer
	result, projectErr := jsonstream.Project(io.TeeReader(body, &buf), spec)
	_, drainErr := io.Copy(&buf, body)

	ex.Body = buf.String()
	ex.Projection = result
	ex.Metadata = projectFields(result.Fields)
	if inner, ok := result.Fields[fieldBody]; ok {
		ex.Body = inner
	}

	if projectErr != nil {
		return fmt.Errorf("%w: %w", ErrProjectionFailure, projectErr)
	}
	if drainErr != nil {
		return fmt.Errorf("%w: %w", ErrTransport, drainErr)
	}
	return nil
}

// capture copies body to path then reads the file back, returning its
// contents as base64.
func (c *Client) capture(body io.Reader, path string) (string, error) {
	f, err := c.fs.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	_, copyErr := io.Copy(f, body)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
