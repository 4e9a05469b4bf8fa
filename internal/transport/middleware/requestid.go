package middleware

import (
	"net/http"

	"github.com/frahmantamala/rbac-admin/pkg/logger"

	"github.com/google/uuid"
)

const TraceIDHeader = "X-Trace-ID"

func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(TraceIDHeader)
		if traceID == "" || len(traceID) > 128 {
			traceID = uuid.NewString()
		}

		// inject into context
		ctx := logger.WithTraceID(r.Context(), traceID)

		// propagate back to response
		w.Header().Set(TraceIDHeader, traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
