package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/linesmerrill/forum-api/models"
	"github.com/linesmerrill/forum-api/services"
)

// Announcement exported for testing purposes
type Announcement struct {
	Content    *services.Content
	Moderation *services.Moderation
}

// CreateAnnouncementHandler publishes an announcement to every user
func (a Announcement) CreateAnnouncementHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.CreateAnnouncementRequest
	if !decodeBody(w, r, &req) {
		return
	}

	announcement, err := a.Content.CreateAnnouncement(r.Context(), actor, req)
	if err != nil {
		serviceError("failed to create announcement", w, err)
		return
	}
	writeJSON(w, http.StatusCreated, announcement)
}

// DeleteAnnouncementHandler removes an announcement and its notifications
func (a Announcement) DeleteAnnouncementHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	if err := a.Moderation.DeleteAnnouncement(r.Context(), actor, mux.Vars(r)["announcementId"]); err != nil {
		serviceError("failed to delete announcement", w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "announcement deleted"})
}

// Category exported for testing purposes
type Category struct {
	Content    *services.Content
	Moderation *services.Moderation
}

// CreateCategoryHandler adds a category
func (c Category) CreateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.CreateCategoryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	category, err := c.Content.CreateCategory(r.Context(), actor, req)
	if err != nil {
		serviceError("failed to create category", w, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

// DeleteCategoryHandler removes a category. Forums filed only under it go with it.
func (c Category) DeleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	if err := c.Moderation.DeleteCategory(r.Context(), actor, mux.Vars(r)["categoryId"]); err != nil {
		serviceError("failed to delete category", w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "category deleted"})
}
