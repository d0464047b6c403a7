package http

import (
	"log/slog"
	"net/http"
)

const serviceName = "M60-Stream-Access-Service"

func httpLogger() *slog.Logger {
	return slog.Default().With(
		"service", serviceName,
		"module", "http",
		"layer", "adapter",
	)
}

// logOperationError records a failed handler call. 5xx are errors, the rest
// are warnings since they are caller mistakes or denials.
func logOperationError(r *http.Request, operation string, statusCode int, code string, err error) {
	fields := []any{
		"operation", operation,
		"outcome", "failure",
		"method", r.Method,
		"route", routePattern(r),
		"status_code", statusCode,
		"error_code", code,
		"request_id", requestIDFromContext(r.Context()),
	}
	if err != nil {
		fields = append(fields, "error", err.Error())
	}
	if statusCode >= http.StatusInternalServerError {
		httpLogger().ErrorContext(r.Context(), "http operation failed", fields...)
		return
	}
	httpLogger().WarnContext(r.Context(), "http operation failed", fields...)
}
