package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/linesmerrill/forum-api/models"
	"github.com/linesmerrill/forum-api/services"
)

// Comment exported for testing purposes
type Comment struct {
	Social     *services.Social
	Moderation *services.Moderation
}

// DeleteCommentHandler deletes a comment together with its replies
func (c Comment) DeleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	if err := c.Moderation.DeleteComment(r.Context(), actor, mux.Vars(r)["commentId"]); err != nil {
		serviceError("failed to delete comment", w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "comment deleted"})
}

// LikeCommentHandler likes a comment or a reply
func (c Comment) LikeCommentHandler(w http.ResponseWriter, r *http.Request) {
	toggle(w, r, "failed to like comment", mux.Vars(r)["commentId"], c.Social.LikeComment)
}

// UnlikeCommentHandler withdraws a like
func (c Comment) UnlikeCommentHandler(w http.ResponseWriter, r *http.Request) {
	toggle(w, r, "failed to unlike comment", mux.Vars(r)["commentId"], c.Social.UnlikeComment)
}
