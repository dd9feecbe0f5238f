// Package middleware wraps the client's outbound http.RoundTripper
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/damon-houk/payment-web-client/internal/infrastructure/logger"
	"github.com/google/uuid"
)

// RequestIDHeader carries the correlation id of a request
const RequestIDHeader = "X-Request-ID"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
)

// WithRequestID returns a context carrying the given request ID
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	requestID, ok := ctx.Value(requestIDKey).(string)
	if !ok || requestID == "" {
		return "unknown"
	}
	return requestID
}

// RoundTripperFunc adapts a function to http.RoundTripper
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip calls f(req)
func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Middleware decorates a RoundTripper
type Middleware func(http.RoundTripper) http.RoundTripper

// Chain applies middlewares so that the first one is outermost
func Chain(base http.RoundTripper, middlewares ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	for i := len(middlewares) - 1; i >= 0; i-- {
		base = middlewares[i](base)
	}
	return base
}

// RequestIDTransport stamps every request with an X-Request-ID header, taken
// from the request context or freshly generated. The id is also stored in the
// outgoing request's context for the layers below.
func RequestIDTransport(next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		requestID := req.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID, _ = req.Context().Value(requestIDKey).(string)
		}
		if requestID == "" {
			requestID = uuid.New().String()
		}

		clone := req.Clone(WithRequestID(req.Context(), requestID))
		clone.Header.Set(RequestIDHeader, requestID)

		return next.RoundTrip(clone)
	})
}

// LoggingTransport logs requests and responses
func LoggingTransport(log logger.Logger) Middleware {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			startTime := time.Now()
			requestID := GetRequestID(req.Context())

			log.Debug("Request sent", map[string]interface{}{
				"request_id":     requestID,
				"method":         req.Method,
				"path":           req.URL.Path,
				"content_type":   req.Header.Get("Content-Type"),
				"content_length": req.ContentLength,
			})

			resp, err := next.RoundTrip(req)
			duration := time.Since(startTime)
			if err != nil {
				log.Warn("Request failed", map[string]interface{}{
					"request_id":  requestID,
					"method":      req.Method,
					"path":        req.URL.Path,
					"duration_ms": duration.Milliseconds(),
					"error":       err.Error(),
				})
				return nil, err
			}

			log.Debug("Response received", map[string]interface{}{
				"request_id":     requestID,
				"method":         req.Method,
				"path":           req.URL.Path,
				"status":         resp.StatusCode,
				"duration_ms":    duration.Milliseconds(),
				"content_type":   resp.Header.Get("Content-Type"),
				"content_length": resp.ContentLength,
			})

			return resp, nil
		})
	}
}
