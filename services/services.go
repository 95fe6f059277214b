package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/forum-api/databases"
	"github.com/linesmerrill/forum-api/models"
)

// Errors returned by the services. Callers match them with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrValidation       = errors.New("validation error")
)

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrValidation)
}

func denied(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrPermissionDenied)
}

// lookupErr turns a missing document into ErrNotFound
func lookupErr(err error, kind, id string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return notFound(kind, id)
	}
	return fmt.Errorf("failed to get %s %s: %w", kind, id, err)
}

// Actor is the authenticated user performing an operation
type Actor struct {
	UserID string
	Name   string
	Role   string
}

// IsAdmin reports whether the actor has the admin role
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// Pusher delivers events to connected clients. Delivery is best effort.
type Pusher interface {
	EmitToUser(userID, event string, payload interface{})
	EmitToRoom(room, event string, payload interface{})
}

// FileStore resolves and removes hosted files
type FileStore interface {
	SignedURL(ref string) (string, error)
	DeleteFile(ctx context.Context, ref string) error
}

// RosterUpdater receives profile changes of online users
type RosterUpdater interface {
	Update(userID, displayName, avatar, studentID string)
}

// Stores bundles the collection adapters the services work on
type Stores struct {
	Users         databases.UserDatabase
	Forums        databases.ForumDatabase
	Comments      databases.CommentDatabase
	Announcements databases.AnnouncementDatabase
	Categories    databases.CategoryDatabase
	Notifications databases.NotificationDatabase
	Reports       databases.ReportDatabase
}

// recipientSet collects the distinct users whose notifications changed
type recipientSet map[string]struct{}

func (r recipientSet) add(userIDs ...string) {
	for _, id := range userIDs {
		if id != "" {
			r[id] = struct{}{}
		}
	}
}

func (r recipientSet) addNotifications(notifications []models.Notification) {
	for _, n := range notifications {
		r.add(n.RecipientUserID)
	}
}

func (r recipientSet) sorted() []string {
	out := make([]string, 0, len(r))
	for id := range r {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
