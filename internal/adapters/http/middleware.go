package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/application"
	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/domain"
)

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "request_id"
)

const (
	headerRequestID       = "X-Request-Id"
	headerAdminCapability = "X-Admin-Capability"
	headerClientID        = "X-Client-Id"
	headerWatchToken      = "X-Watch-Token"
)

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := strings.TrimSpace(r.Header.Get(headerRequestID))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(headerRequestID, reqID)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				httpLogger().ErrorContext(r.Context(), "panic recovered",
					"operation", "http_panic_recovery",
					"outcome", "failure",
					"request_id", requestIDFromContext(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rec,
				)
				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for request logging. Unwrap
// lets http.ResponseController reach the underlying writer for SSE flushes.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	if r.statusCode == 0 {
		r.statusCode = statusCode
	}
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Write(payload []byte) (int, error) {
	if r.statusCode == 0 {
		r.statusCode = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(payload)
	r.bytes += n
	return n, err
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(recorder, r)

		statusCode := recorder.statusCode
		if statusCode == 0 {
			statusCode = http.StatusOK
		}
		outcome := "success"
		if statusCode >= http.StatusBadRequest {
			outcome = "failure"
		}

		fields := []any{
			"operation", "http_request",
			"outcome", outcome,
			"method", r.Method,
			"route", routePattern(r),
			"path", r.URL.Path,
			"status_code", statusCode,
			"bytes", recorder.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestIDFromContext(r.Context()),
		}
		switch {
		case statusCode >= http.StatusInternalServerError:
			httpLogger().ErrorContext(r.Context(), "http request completed", fields...)
		case statusCode >= http.StatusBadRequest:
			httpLogger().WarnContext(r.Context(), "http request completed", fields...)
		default:
			httpLogger().InfoContext(r.Context(), "http request completed", fields...)
		}
	})
}

// adminMiddleware denies the admin route group before any handler runs.
// Handlers still pass the AuthContext down, and the service re-checks it.
func (h *Handler) adminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, decision := h.service.Authorize(r.Context(), authContextFromRequest(r), domain.LevelAdminOnly)
		if !decision.Granted() {
			status, code := http.StatusUnauthorized, "UNAUTHORIZED"
			if session.Role == domain.RoleAuthenticatedUser {
				status, code = http.StatusForbidden, "FORBIDDEN"
			}
			logOperationError(r, "admin_guard", status, code, nil)
			writeError(w, status, code, decision.Reason)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestIDFromContext(ctx context.Context) string {
	v := ctx.Value(ctxKeyRequestID)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

func bearerTokenFromHeader(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

// authContextFromRequest collects every credential the guard may verify.
// Nothing here is trusted; the service verifies each value per call.
func authContextFromRequest(r *http.Request) application.AuthContext {
	return application.AuthContext{
		BearerToken:     bearerTokenFromHeader(r.Header.Get("Authorization")),
		AdminCapability: strings.TrimSpace(r.Header.Get(headerAdminCapability)),
		ClientID:        strings.TrimSpace(r.Header.Get(headerClientID)),
		RequestID:       requestIDFromContext(r.Context()),
	}
}

func mapDomainError(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "VALIDATION_ERROR", err.Error()
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid passphrase"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials"
	case errors.Is(err, domain.ErrPaymentRequired):
		return http.StatusPaymentRequired, "PAYMENT_REQUIRED", "payment required"
	case errors.Is(err, domain.ErrPrematureConfirmation):
		return http.StatusTooEarly, "PREMATURE_CONFIRMATION", "confirmation is not yet allowed"
	case errors.Is(err, domain.ErrNotAvailable):
		return http.StatusConflict, "NOT_AVAILABLE", "offering is not available"
	case errors.Is(err, domain.ErrAttemptClosed):
		return http.StatusConflict, "ATTEMPT_CLOSED", "payment attempt already closed"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrCollaboratorFailure):
		return http.StatusBadGateway, "UPSTREAM_ERROR", "upstream dependency failed"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"
	}
}
