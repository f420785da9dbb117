package router

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/otpsvc/internal/pkg/config"
	"github.com/shandysiswandi/otpsvc/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Bodies logged beyond this size are truncated.
const maxLoggedBodyBytes = 32 << 10

func middlewareObservability(cfg config.Config, ins instrument.Instrumentation) Middleware {
	masker := newLogMasker(cfg)
	tracer := ins.Tracer("http.server")
	meter := ins.Meter("http.server")

	requests, err := meter.Int64Counter("http.server.requests",
		metric.WithDescription("Number of HTTP requests received"))
	if err != nil {
		slog.Error("failed to create http request counter", "error", err)
	}

	latency, err := meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration in milliseconds"))
	if err != nil {
		slog.Error("failed to create http duration histogram", "error", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			start := time.Now()

			ctx, span := tracer.Start(
				r.Context(),
				r.Method+" "+route,
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.HTTPRouteKey.String(route),
				),
			)
			defer span.End()

			slog.InfoContext(ctx, "request received",
				"method", r.Method,
				"path", route,
				"uri", r.RequestURI,
				"headers", masker.headers(r.Header),
				"body", masker.payload(snapshotRequestBody(r)),
			)

			rec := &responseRecorder{ResponseWriter: w, body: &bytes.Buffer{}}
			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.statusOrOK()
			attrs := []attribute.KeyValue{
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPResponseStatusCodeKey.Int(status),
			}

			finishSpan(span, rec, r, status, attrs)
			if requests != nil {
				requests.Add(ctx, 1, metric.WithAttributes(attrs...))
			}
			if latency != nil {
				latency.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(attrs...))
			}

			slog.InfoContext(ctx, "response sent",
				"method", r.Method,
				"path", route,
				"uri", r.RequestURI,
				"status", status,
				"bytes", rec.bytes,
				"latency_ms", time.Since(start).Milliseconds(),
				"body", masker.response(rec),
			)
		})
	}
}

func finishSpan(span trace.Span, rec *responseRecorder, r *http.Request, status int, attrs []attribute.KeyValue) {
	if rec.err != nil {
		span.RecordError(rec.err)
	}

	switch {
	case status < 500:
		span.SetStatus(codes.Ok, "")
	case rec.err != nil:
		span.SetStatus(codes.Error, rec.err.Error())
	default:
		span.SetStatus(codes.Error, http.StatusText(status))
	}

	span.SetAttributes(attrs...)
	span.SetAttributes(
		semconv.NetworkProtocolVersionKey.String(r.Proto),
		semconv.ServerAddressKey.String(r.Host),
		attribute.String("http.target", r.URL.Path),
		attribute.String("http.user_agent", r.UserAgent()),
		attribute.Int("http.response_content_length", rec.bytes),
	)
}

// responseRecorder captures status, size, a bounded copy of the body, and the
// handler error for the logs and span that follow.
type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	body   *bytes.Buffer
	capped bool
	err    error
}

func (w *responseRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	if w.body != nil && !w.capped && len(p) > 0 {
		remaining := maxLoggedBodyBytes - w.body.Len()
		switch {
		case remaining <= 0:
			w.capped = true
		case len(p) > remaining:
			w.body.Write(p[:remaining])
			w.capped = true
		default:
			w.body.Write(p)
		}
	}

	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

func (w *responseRecorder) SetError(err error) {
	w.err = err
}

func (w *responseRecorder) statusOrOK() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *responseRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

//nolint:err113 // dynamic error is fine here
func (w *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	return h.Hijack()
}

func matchedRoutePath(r *http.Request) string {
	if pattern := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); pattern != "" {
		return pattern
	}
	return r.URL.Path
}

// snapshotRequestBody reads a bounded copy of the body for logging and splices
// the bytes back so the handler still sees the full stream.
func snapshotRequestBody(r *http.Request) []byte {
	if r.Body == nil {
		return nil
	}

	limited := io.LimitReader(r.Body, maxLoggedBodyBytes+1)
	//nolint:errcheck // best effort for logging only
	buf, _ := io.ReadAll(limited)
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(buf), r.Body))

	if len(buf) > maxLoggedBodyBytes {
		return buf[:maxLoggedBodyBytes]
	}
	return buf
}

// logMasker hides configured field names in logged headers and bodies so
// codes and credentials never reach the log stream.
type logMasker struct {
	keys map[string]struct{}
}

func newLogMasker(cfg config.Config) *logMasker {
	keys := make(map[string]struct{})
	if cfg != nil {
		for _, field := range cfg.GetArray("instrument.log_mask_fields") {
			field = strings.TrimSpace(strings.ToLower(field))
			if field == "" {
				continue
			}
			keys[field] = struct{}{}
		}
	}

	return &logMasker{keys: keys}
}

func (m *logMasker) headers(headers http.Header) http.Header {
	if len(m.keys) == 0 {
		return headers
	}

	result := headers.Clone()
	for key := range result {
		if _, found := m.keys[strings.ToLower(key)]; found {
			result.Set(key, "***")
		}
	}
	return result
}

func (m *logMasker) payload(body []byte) any {
	if len(body) == 0 {
		return nil
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err == nil {
		return m.value(decoded)
	}

	if !utf8.Valid(body) {
		return "<binary body omitted>"
	}
	if len(body) > maxLoggedBodyBytes {
		return string(body[:maxLoggedBodyBytes]) + "...(truncated)"
	}
	return string(body)
}

func (m *logMasker) response(rec *responseRecorder) any {
	if rec.body == nil {
		return nil
	}

	var body any
	var decoded any
	if err := json.Unmarshal(rec.body.Bytes(), &decoded); err == nil {
		body = m.value(decoded)
	} else if utf8.Valid(rec.body.Bytes()) {
		body = rec.body.String()
	} else if rec.body.Len() > 0 {
		body = "<binary body omitted>"
	}

	if rec.capped {
		body = map[string]any{"body": body, "truncated": true}
	}
	return body
}

func (m *logMasker) value(v any) any {
	switch val := v.(type) {
	case map[string]any:
		masked := make(map[string]any, len(val))
		for k, inner := range val {
			if _, found := m.keys[strings.ToLower(k)]; found {
				masked[k] = "***"
			} else {
				masked[k] = m.value(inner)
			}
		}
		return masked
	case []any:
		masked := make([]any, len(val))
		for i, inner := range val {
			masked[i] = m.value(inner)
		}
		return masked
	default:
		return v
	}
}
