package handlers

import (
	"net/http"

	"github.com/linesmerrill/forum-api/api"
	"github.com/linesmerrill/forum-api/models"
	"github.com/linesmerrill/forum-api/realtime"
	"github.com/linesmerrill/forum-api/services"
)

// Admin exported for testing purposes
type Admin struct {
	Moderation *services.Moderation
	Roster     *realtime.AdminRoster
	Metrics    *api.Metrics
}

// BulkDeleteForumsHandler runs the forum cascade for every id. Forums that fail
// are skipped and the number deleted is returned.
func (a Admin) BulkDeleteForumsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.BulkDeleteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	deleted, err := a.Moderation.BulkDeleteForums(r.Context(), actor, req.IDs)
	if err != nil {
		serviceError("failed to delete forums", w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.CountResponse{Count: int64(deleted)})
}

// RosterHandler returns the users currently online
func (a Admin) RosterHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.Roster.Snapshot())
}

// MetricsHandler returns the request timings of the API routes, slowest first
func (a Admin) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.Metrics.Summary())
}
