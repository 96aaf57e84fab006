package middleware

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// ErrorResponse is the JSON body written for every failed request.
type ErrorResponse struct {
	Success       bool   `json:"success"`
	Error         string `json:"error"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

func Recover(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					cid := GetCorrelationID(r.Context())
					logger.Error("panic recovered",
						zap.Any("panic", rec),
						zap.String("path", r.URL.Path),
						zap.String("correlation_id", cid),
						zap.Stack("stack"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(ErrorResponse{
						Error:         "internal server error",
						CorrelationID: cid,
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
