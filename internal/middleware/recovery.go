package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// RecoveryMiddleware turns a handler panic into a 500 JSON error.
// http.ErrAbortHandler is re-raised so net/http can abort the response.
func RecoveryMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				fields := []zap.Field{
					zap.String("request_id", GetRequestID(r.Context())),
					zap.String("method", r.Method),
					zap.String("route", routePattern(r)),
					zap.Any("panic", rec),
					zap.Stack("stack"),
				}
				if info, ok := r.Context().Value(requestInfoKey).(*requestInfo); ok && info.userID != 0 {
					fields = append(fields, zap.Int("user_id", info.userID))
				}
				logger.Error("panic recovered", fields...)

				writeJSONError(w, http.StatusInternalServerError, "internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
