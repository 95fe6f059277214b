package handlers

import (
	"context"
	"net/http"

	"github.com/linesmerrill/forum-api/models"
	"github.com/linesmerrill/forum-api/services"
)

// membershipFunc is one of the like, favorite, follow or subscribe toggles of
// services.Social
type membershipFunc func(ctx context.Context, actor services.Actor, id string) (bool, error)

func toggle(w http.ResponseWriter, r *http.Request, message, id string, fn membershipFunc) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	changed, err := fn(r.Context(), actor, id)
	if err != nil {
		serviceError(message, w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.MembershipResponse{Changed: changed})
}
