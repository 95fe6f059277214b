package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/linesmerrill/forum-api/models"
)

// New creates a new mux router with the health check and the middleware every
// route shares
func New() *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestIDMiddleware)
	r.HandleFunc("/health", HealthCheckHandler).Methods("GET")
	return r
}

// HealthCheckHandler reports that the process is serving
func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{Alive: true})
	w.Write(b)
}
