package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	log "github.com/sirupsen/logrus"
)

func RequestLogger() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				log.WithFields(log.Fields{
					"request": middleware.GetReqID(r.Context()),
					"remote":  r.RemoteAddr,
					"status":  ww.Status(),
					"elapsed": time.Since(start),
				}).Infof("%s %s", r.Method, r.URL.Path)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
