package api

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/linesmerrill/malkhana-api/metrics"
)

// New creates a new mux router with the health and metrics routes
func New() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	return r
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, `{"alive": true}`)
}
