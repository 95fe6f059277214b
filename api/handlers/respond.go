package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/linesmerrill/forum-api/api"
	"github.com/linesmerrill/forum-api/config"
	"github.com/linesmerrill/forum-api/databases"
	"github.com/linesmerrill/forum-api/services"
)

var validate = validator.New()

var errNoActor = errors.New("no authenticated user on request")

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}

// serviceError maps the service error taxonomy onto status codes
func serviceError(message string, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		config.ErrorStatus(message, http.StatusNotFound, w, err)
	case errors.Is(err, services.ErrPermissionDenied):
		config.ErrorStatus(message, http.StatusForbidden, w, err)
	case errors.Is(err, services.ErrValidation):
		config.ErrorStatus(message, http.StatusBadRequest, w, err)
	default:
		config.ErrorStatus(message, http.StatusInternalServerError, w, err)
	}
}

// decodeBody reads and validates a JSON body, answering 400 itself on failure
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return false
	}
	if err := validate.Struct(v); err != nil {
		config.ErrorStatus("invalid request body", http.StatusBadRequest, w, err)
		return false
	}
	return true
}

func actorFrom(w http.ResponseWriter, r *http.Request) (services.Actor, bool) {
	actor, ok := api.ActorFrom(r.Context())
	if !ok {
		config.ErrorStatus("unauthorized", http.StatusUnauthorized, w, errNoActor)
	}
	return actor, ok
}

func paginationFrom(r *http.Request) databases.Pagination {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return databases.NewPagination(page, limit)
}
