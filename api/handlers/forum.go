package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/linesmerrill/forum-api/api"
	"github.com/linesmerrill/forum-api/models"
	"github.com/linesmerrill/forum-api/services"
)

// Forum exported for testing purposes
type Forum struct {
	Content    *services.Content
	Social     *services.Social
	Moderation *services.Moderation
}

// CreateForumHandler publishes a forum and notifies the author's subscribers
func (f Forum) CreateForumHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.CreateForumRequest
	if !decodeBody(w, r, &req) {
		return
	}

	forum, err := f.Content.CreateForum(r.Context(), actor, req)
	if err != nil {
		serviceError("failed to create forum", w, err)
		return
	}
	writeJSON(w, http.StatusCreated, forum)
}

// ForumByIDHandler returns a single forum
func (f Forum) ForumByIDHandler(w http.ResponseWriter, r *http.Request) {
	forumID := mux.Vars(r)["forumId"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	forum, err := f.Content.GetForum(ctx, forumID)
	if err != nil {
		serviceError("failed to get forum", w, err)
		return
	}
	writeJSON(w, http.StatusOK, forum)
}

// DeleteForumHandler deletes a forum with its comments, notifications and reports
func (f Forum) DeleteForumHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	forumID := mux.Vars(r)["forumId"]

	if err := f.Moderation.DeleteForum(r.Context(), actor, forumID); err != nil {
		serviceError("failed to delete forum", w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "forum deleted"})
}

// LikeForumHandler likes a forum
func (f Forum) LikeForumHandler(w http.ResponseWriter, r *http.Request) {
	toggle(w, r, "failed to like forum", mux.Vars(r)["forumId"], f.Social.LikeForum)
}

// UnlikeForumHandler withdraws a like
func (f Forum) UnlikeForumHandler(w http.ResponseWriter, r *http.Request) {
	toggle(w, r, "failed to unlike forum", mux.Vars(r)["forumId"], f.Social.UnlikeForum)
}

// FavoriteForumHandler bookmarks a forum
func (f Forum) FavoriteForumHandler(w http.ResponseWriter, r *http.Request) {
	toggle(w, r, "failed to favorite forum", mux.Vars(r)["forumId"], f.Social.FavoriteForum)
}

// UnfavoriteForumHandler removes a bookmark
func (f Forum) UnfavoriteForumHandler(w http.ResponseWriter, r *http.Request) {
	toggle(w, r, "failed to unfavorite forum", mux.Vars(r)["forumId"], f.Social.UnfavoriteForum)
}

// CreateCommentHandler adds a comment, or a reply when parentCommentId is set
func (f Forum) CreateCommentHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.CreateCommentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	comment, err := f.Content.CreateComment(r.Context(), actor, mux.Vars(r)["forumId"], req)
	if err != nil {
		serviceError("failed to create comment", w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}
