package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) setupRouting() {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.respondError(w, http.StatusNotFound, "not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	router.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, "uptree")
	})
	router.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)
	// compression is left to the outer CompressHandler
	router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		DisableCompression: true,
	}))

	v1 := router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/tree", s.buildHandler).Methods(http.MethodPost)
	v1.HandleFunc("/root", s.rootHandler).Methods(http.MethodGet)
	v1.HandleFunc("/leaves/{index}", s.getLeafHandler).Methods(http.MethodGet)
	v1.HandleFunc("/leaves/{index}", s.updateLeafHandler).Methods(http.MethodPut)

	s.handler = handlers.CompressHandler(s.accessLogHandler(router))
}

// accessLogHandler counts every request and logs it at debug level.
func (s *Server) accessLogHandler(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.metrics.RequestCount.Inc()
		h.ServeHTTP(w, r)
		s.logger.Debugw("api access",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}
