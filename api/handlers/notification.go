package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/linesmerrill/forum-api/api"
	"github.com/linesmerrill/forum-api/models"
	"github.com/linesmerrill/forum-api/services"
)

// Notification exported for testing purposes
type Notification struct {
	Notifications *services.Notifications
}

// NotificationsHandler returns a page of the inbox, most recently updated first
func (n Notification) NotificationsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	page, err := n.Notifications.List(ctx, actor.UserID, paginationFrom(r))
	if err != nil {
		serviceError("failed to get notifications", w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// UnreadCountHandler returns the number of unread notifications
func (n Notification) UnreadCountHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	count, err := n.Notifications.UnreadCount(ctx, actor.UserID)
	if err != nil {
		serviceError("failed to count unread notifications", w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.CountResponse{Count: count})
}

// MarkReadHandler marks one notification as read
func (n Notification) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	detail, err := n.Notifications.MarkRead(r.Context(), actor.UserID, mux.Vars(r)["notificationId"])
	if err != nil {
		serviceError("failed to mark notification as read", w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// MarkAllReadHandler marks the whole inbox as read
func (n Notification) MarkAllReadHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	count, err := n.Notifications.MarkAllRead(r.Context(), actor.UserID)
	if err != nil {
		serviceError("failed to mark notifications as read", w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.CountResponse{Count: count})
}

// DeleteNotificationHandler removes a notification from the inbox
func (n Notification) DeleteNotificationHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	if err := n.Notifications.Delete(r.Context(), actor.UserID, mux.Vars(r)["notificationId"]); err != nil {
		serviceError("failed to delete notification", w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "notification deleted"})
}
