package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// errorBody extracts the error part of the response envelope.
type errorBody struct {
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details string            `json:"details"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		started := time.Now()
		rec := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		attrs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(started).Milliseconds(),
			"client_ip", ClientIP(r),
		}
		if rec.status >= http.StatusBadRequest {
			if r.URL.RawQuery != "" {
				attrs = append(attrs, "query", r.URL.RawQuery)
			}
			attrs = append(attrs, errorAttrs(rec.body.Bytes())...)
		}

		slog.Log(r.Context(), levelForStatus(rec.status), "request", attrs...)
	})
}

func levelForStatus(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// errorAttrs pulls code, message, details and the offending field names out
// of an error envelope. Anything that is not an envelope yields nothing.
func errorAttrs(body []byte) []any {
	if len(body) == 0 {
		return nil
	}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Error == nil {
		return nil
	}

	attrs := []any{"error_code", parsed.Error.Code, "error_message", parsed.Error.Message}
	if parsed.Error.Details != "" {
		attrs = append(attrs, "error_details", parsed.Error.Details)
	}
	if len(parsed.Error.Fields) > 0 {
		fields := make([]string, 0, len(parsed.Error.Fields))
		for field := range parsed.Error.Fields {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		attrs = append(attrs, "error_fields", fields)
	}
	return attrs
}

// responseWriter records the status and, for failures, the body.
type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if rw.wroteHeader {
		return
	}
	rw.status = statusCode
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(statusCode)
}

// Write keeps a copy of error bodies only; success bodies may carry tokens.
func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	if rw.status >= 400 {
		rw.body.Write(b)
	}
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
