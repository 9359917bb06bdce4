package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/getmockd/mockapp/pkg/httputil"
	"github.com/getmockd/mockapp/pkg/route"
)

// Handler returns the HTTP handler serving the route table.
//
// Every path goes through one generic handler that consults the table at
// request time: a POST to a registered path gets 200 and the stored body,
// another method on a registered path gets 405, anything else 404.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(requestLogger(s.log))
	r.Use(chiMiddleware.Recoverer)

	h := routeHandler(s.routes)
	r.NotFound(h)
	r.MethodNotAllowed(h)
	r.HandleFunc("/*", h)
	return r
}

func routeHandler(routes *route.Table) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes.Lookup(r.URL.Path)
		if !ok {
			httputil.WriteNotFound(w)
			return
		}
		if r.Method != http.MethodPost {
			httputil.WriteMethodNotAllowed(w, http.MethodPost)
			return
		}
		httputil.WriteRawJSON(w, http.StatusOK, body)
	}
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Debug("mock request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", chiMiddleware.GetReqID(r.Context()),
			)
		})
	}
}
