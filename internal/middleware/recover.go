package middleware

import (
	"net/http"
	"runtime/debug"

	"vet-clinic-api/internal/platform/logger"
	"vet-clinic-api/internal/platform/respond"
)

// Recover convierte un panic en 500 JSON y lo loguea con el logger del request.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			logger.FromContext(r.Context()).Error("panic recovered", logger.Fields{
				"panic": rec,
				"stack": string(debug.Stack()),
			})
			respond.Error(w, http.StatusInternalServerError, "internal error")
		}()

		next.ServeHTTP(w, r)
	})
}
