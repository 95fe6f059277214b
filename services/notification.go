package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/linesmerrill/forum-api/databases"
	"github.com/linesmerrill/forum-api/models"
	"github.com/linesmerrill/forum-api/realtime"
)

// Op registers or withdraws an actor on a notification target
type Op int

// Reconcile operations
const (
	Push Op = iota
	Pop
)

func (o Op) String() string {
	if o == Pop {
		return "pop"
	}
	return "push"
}

// Mode tells what reconcile did to the notification record
type Mode string

// Reconcile modes
const (
	ModeCreate  Mode = "create"
	ModeUpdate  Mode = "update"
	ModeDelete  Mode = "delete"
	ModeInvalid Mode = "invalid"
)

// Event is one interaction that may be worth notifying about
type Event struct {
	Action          models.NotificationAction
	ActorUserID     string
	RecipientUserID string
	Target          models.TargetRefs
}

// Result is the outcome of a reconcile. Notification is the record after the
// change, nil for delete and invalid.
type Result struct {
	Mode           Mode
	NotificationID string
	Notification   *models.Notification
}

// Notifications aggregates interactions into one record per recipient, action
// and target, and keeps connected recipients up to date
type Notifications struct {
	stores Stores
	files  FileStore
	pusher Pusher
}

// NewNotifications returns the notification engine
func NewNotifications(stores Stores, files FileStore, pusher Pusher) *Notifications {
	return &Notifications{stores: stores, files: files, pusher: pusher}
}

// Reconcile merges the actor into, or withdraws it from, the notification of
// the event target, then pushes the change to the recipient
func (s *Notifications) Reconcile(ctx context.Context, ev Event, op Op) (Result, error) {
	if ev.ActorUserID == "" || ev.RecipientUserID == "" || ev.ActorUserID == ev.RecipientUserID {
		return Result{Mode: ModeInvalid}, nil
	}
	if !ev.Action.Valid() {
		return Result{}, invalid("unknown notification action %q", ev.Action)
	}

	res, err := s.reconcile(ctx, ev, op)
	if err != nil {
		return Result{}, err
	}
	zap.S().Debugw("reconciled notification",
		"action", ev.Action,
		"op", op.String(),
		"actor", ev.ActorUserID,
		"recipient", ev.RecipientUserID,
		"mode", res.Mode,
		"notificationId", res.NotificationID)
	s.pushResult(ctx, ev.RecipientUserID, res)
	return res, nil
}

func (s *Notifications) reconcile(ctx context.Context, ev Event, op Op) (Result, error) {
	key := databases.NotificationByTarget{
		RecipientUserID: ev.RecipientUserID,
		Action:          ev.Action,
		Target:          ev.Target,
	}
	existing, err := s.stores.Notifications.FindOne(ctx, key)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return Result{}, fmt.Errorf("failed to find notification: %w", err)
	}

	if existing == nil {
		if op == Pop {
			return Result{Mode: ModeInvalid}, nil
		}
		now := time.Now()
		n := models.Notification{
			ID:              primitive.NewObjectID().Hex(),
			Action:          ev.Action,
			RecipientUserID: ev.RecipientUserID,
			ActorUserIDs:    []string{ev.ActorUserID},
			ReadUserIDs:     []string{},
			TargetRefs:      ev.Target,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.stores.Notifications.InsertOne(ctx, n); err != nil {
			return Result{}, fmt.Errorf("failed to create notification: %w", err)
		}
		return Result{Mode: ModeCreate, NotificationID: n.ID, Notification: &n}, nil
	}

	if op == Push {
		updated, err := s.stores.Notifications.AddActors(ctx, existing.ID, ev.ActorUserID)
		if err != nil {
			return Result{}, fmt.Errorf("failed to add actor to notification %s: %w", existing.ID, err)
		}
		return Result{Mode: ModeUpdate, NotificationID: existing.ID, Notification: updated}, nil
	}
	return s.retire(ctx, existing.ID, ev.ActorUserID)
}

// retire removes the actor from a notification and deletes the record once no
// actor is left
func (s *Notifications) retire(ctx context.Context, id, actorUserID string) (Result, error) {
	updated, err := s.stores.Notifications.RemoveActor(ctx, id, actorUserID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Result{Mode: ModeInvalid}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("failed to remove actor from notification %s: %w", id, err)
	}
	if len(updated.ActorUserIDs) > 0 {
		return Result{Mode: ModeUpdate, NotificationID: id, Notification: updated}, nil
	}
	if _, err := s.stores.Notifications.DeleteOne(ctx, databases.NotificationByID{ID: id}); err != nil {
		return Result{}, fmt.Errorf("failed to delete notification %s: %w", id, err)
	}
	return Result{Mode: ModeDelete, NotificationID: id}, nil
}

// FanOut pushes the actor onto the notification of every recipient. Failures
// are logged per recipient; the number of records created or updated is returned.
func (s *Notifications) FanOut(ctx context.Context, action models.NotificationAction, actorUserID string, recipientUserIDs []string, target models.TargetRefs) int {
	delivered := 0
	for _, recipient := range dedupe(recipientUserIDs) {
		res, err := s.Reconcile(ctx, Event{
			Action:          action,
			ActorUserID:     actorUserID,
			RecipientUserID: recipient,
			Target:          target,
		}, Push)
		if err != nil {
			zap.S().Errorw("failed to fan out notification",
				"action", action,
				"recipient", recipient,
				"error", err)
			continue
		}
		if res.Mode == ModeCreate || res.Mode == ModeUpdate {
			delivered++
		}
	}
	return delivered
}

// MergeDuplicates folds records that share an aggregation key into the oldest
// one. Such duplicates come from concurrent first interactions on one target.
func (s *Notifications) MergeDuplicates(ctx context.Context) (int, error) {
	groups, err := s.stores.Notifications.FindDuplicates(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to find duplicate notifications: %w", err)
	}
	merged := 0
	recipients := recipientSet{}
	for _, g := range groups {
		if len(g.IDs) < 2 {
			continue
		}
		keep, extra := g.IDs[0], g.IDs[1:]
		if _, err := s.stores.Notifications.AddActors(ctx, keep, g.ActorUserIDs...); err != nil {
			zap.S().Errorw("failed to merge duplicate notifications", "notificationId", keep, "error", err)
			continue
		}
		deleted, err := s.stores.Notifications.DeleteMany(ctx, databases.NotificationsByIDs{IDs: extra})
		if err != nil {
			zap.S().Errorw("failed to delete duplicate notifications", "notificationIds", extra, "error", err)
			continue
		}
		merged += int(deleted)
		recipients.add(g.RecipientUserID)
	}
	s.pushRefresh(recipients)
	return merged, nil
}

func (s *Notifications) pushResult(ctx context.Context, recipient string, res Result) {
	switch res.Mode {
	case ModeCreate:
		s.pusher.EmitToUser(recipient, realtime.EventNotificationCreated, s.payload(ctx, res.Notification, recipient))
	case ModeUpdate:
		s.pusher.EmitToUser(recipient, realtime.EventNotificationUpdated, s.payload(ctx, res.Notification, recipient))
	case ModeDelete:
		s.pusher.EmitToUser(recipient, realtime.EventNotificationDeleted, map[string]string{"_id": res.NotificationID})
	}
}

// payload is the detail of n for its recipient, or the raw record when the
// detail cannot be assembled
func (s *Notifications) payload(ctx context.Context, n *models.Notification, viewer string) interface{} {
	if n == nil {
		return nil
	}
	detail, err := s.Detail(ctx, *n, viewer)
	if err != nil {
		zap.S().Warnw("failed to assemble notification detail", "notificationId", n.ID, "error", err)
		return n
	}
	return detail
}

// pushRefresh asks every recipient to reload its notifications, once each
func (s *Notifications) pushRefresh(recipients recipientSet) {
	for _, id := range recipients.sorted() {
		s.pusher.EmitToUser(id, realtime.EventNotificationRefresh, map[string]string{"userId": id})
	}
}
