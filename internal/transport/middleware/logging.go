package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"
)

// maxLoggedBody caps how much of a body ends up in a log line.
const maxLoggedBody = 2048

// redactedFields are matched as substrings of lower-cased header names and JSON keys.
var redactedFields = []string{
	"password",
	"token",
	"authorization",
	"cookie",
	"secret",
	"api_key",
	"credential",
	"passport",
	"visa",
	"ktp",
	"npwp",
	"phone",
}

// opaqueContentTypes are bodies the logger records by type only.
var opaqueContentTypes = []string{
	"multipart/",
	"application/octet-stream",
	"application/vnd.openxmlformats",
	"image/",
	"application/pdf",
}

func isOpaque(contentType string) bool {
	contentType = strings.ToLower(contentType)
	for _, prefix := range opaqueContentTypes {
		if strings.HasPrefix(contentType, prefix) {
			return true
		}
	}
	return false
}

func isRedacted(name string) bool {
	name = strings.ToLower(name)
	for _, f := range redactedFields {
		if strings.Contains(name, f) {
			return true
		}
	}
	return false
}

// LoggingMiddleware logs one line per request and one per response. Response
// bodies are only kept for failures: successful directory and profile payloads
// are personal data.
func LoggingMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			log := logger.With("request_id", middleware.GetReqID(r.Context()))

			log.InfoContext(r.Context(), "incoming request",
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
				"headers", redactHeaders(r.Header),
				"body", readRequestBody(r),
			)

			rw := &responseWriter{ResponseWriter: w}
			next.ServeHTTP(rw, r)

			status := rw.Status()
			attrs := []any{
				"status_code", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"response_size", rw.size,
			}
			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}
			if level != slog.LevelInfo {
				attrs = append(attrs, "body", redactBody(rw.body.Bytes()))
			}
			log.Log(r.Context(), level, "response", attrs...)
		})
	}
}

// readRequestBody returns the redacted body and puts an untouched copy back on the request.
func readRequestBody(r *http.Request) string {
	contentType := r.Header.Get("Content-Type")
	if isOpaque(contentType) {
		return "[" + contentType + "]"
	}
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}
	raw, err := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return "[unreadable]"
	}
	return redactBody(raw)
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
	size       int
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.statusCode == 0 {
		rw.statusCode = code
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if rw.statusCode == 0 {
		rw.statusCode = http.StatusOK
	}
	rw.size += len(b)
	if rw.statusCode >= 400 && rw.body.Len() < maxLoggedBody && !isOpaque(rw.Header().Get("Content-Type")) {
		rw.body.Write(b)
	}
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) Status() int {
	if rw.statusCode == 0 {
		return http.StatusOK
	}
	return rw.statusCode
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func redactHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for name, values := range headers {
		if isRedacted(name) {
			out[name] = "[FILTERED]"
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

func redactBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		if isRedacted(string(body)) {
			return "[FILTERED]"
		}
		return truncate(string(body))
	}

	out, err := json.Marshal(redactJSON(data))
	if err != nil {
		return "[unloggable]"
	}
	return truncate(string(out))
}

func redactJSON(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, value := range v {
			if isRedacted(key) {
				out[key] = "[FILTERED]"
				continue
			}
			out[key] = redactJSON(value)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = redactJSON(item)
		}
		return out
	default:
		return v
	}
}

func truncate(s string) string {
	if len(s) <= maxLoggedBody {
		return s
	}
	return s[:maxLoggedBody] + "...[truncated]"
}
