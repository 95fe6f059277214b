package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/linesmerrill/forum-api/api"
	"github.com/linesmerrill/forum-api/models"
	"github.com/linesmerrill/forum-api/services"
)

// User exported for testing purposes
type User struct {
	Content    *services.Content
	Social     *services.Social
	Moderation *services.Moderation
}

// MeHandler returns the profile of the authenticated user
func (u User) MeHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := u.Content.EnsureUser(ctx, actor)
	if err != nil {
		serviceError("failed to get user", w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfileHandler changes the display name, student id or avatar of the
// authenticated user
func (u User) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.UpdateProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := u.Content.UpdateProfile(r.Context(), actor, req)
	if err != nil {
		serviceError("failed to update profile", w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// DeleteUserHandler removes a user and everything they authored
func (u User) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	userID := mux.Vars(r)["userId"]

	if err := u.Moderation.DeleteUser(r.Context(), actor, userID); err != nil {
		serviceError("failed to delete user", w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "user deleted"})
}

// FollowHandler makes the authenticated user follow {userId}
func (u User) FollowHandler(w http.ResponseWriter, r *http.Request) {
	u.membership(w, r, "failed to follow user", u.Social.Follow)
}

// UnfollowHandler stops following {userId}
func (u User) UnfollowHandler(w http.ResponseWriter, r *http.Request) {
	u.membership(w, r, "failed to unfollow user", u.Social.Unfollow)
}

// SubscribeHandler subscribes to new forums of {userId}
func (u User) SubscribeHandler(w http.ResponseWriter, r *http.Request) {
	u.membership(w, r, "failed to subscribe to user", u.Social.Subscribe)
}

// UnsubscribeHandler cancels a subscription to {userId}
func (u User) UnsubscribeHandler(w http.ResponseWriter, r *http.Request) {
	u.membership(w, r, "failed to unsubscribe from user", u.Social.Unsubscribe)
}

func (u User) membership(w http.ResponseWriter, r *http.Request, message string, fn membershipFunc) {
	toggle(w, r, message, mux.Vars(r)["userId"], fn)
}
