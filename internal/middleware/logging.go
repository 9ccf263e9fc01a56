package middleware

import (
	"net/http"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const RequestIDHeader = "X-Request-Id"

// LogRequest tags every request with an ID and traces method/path/agent.
func LogRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(RequestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, reqID)

			log.Tracef(" ====> request [%s] path: [%s] [id: %s] [UA: %s]",
				r.Method, r.URL.Path, reqID, r.Header.Get("User-Agent"))

			next.ServeHTTP(w, r)
		})
	}
}
