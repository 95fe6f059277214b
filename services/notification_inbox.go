package services

import (
	"context"
	"fmt"

	"github.com/linesmerrill/forum-api/databases"
	"github.com/linesmerrill/forum-api/models"
	"github.com/linesmerrill/forum-api/realtime"
)

// List returns a page of the viewer's notifications, most recently updated first
func (s *Notifications) List(ctx context.Context, viewer string, page databases.Pagination) (models.NotificationPage, error) {
	inbox := databases.NotificationsByRecipient{RecipientUserID: viewer}
	notifications, err := s.stores.Notifications.Find(ctx, inbox, page)
	if err != nil {
		return models.NotificationPage{}, fmt.Errorf("failed to list notifications: %w", err)
	}
	total, err := s.stores.Notifications.CountDocuments(ctx, inbox)
	if err != nil {
		return models.NotificationPage{}, fmt.Errorf("failed to count notifications: %w", err)
	}
	unread, err := s.UnreadCount(ctx, viewer)
	if err != nil {
		return models.NotificationPage{}, err
	}

	details := make([]models.NotificationDetail, 0, len(notifications))
	for _, n := range notifications {
		d, err := s.Detail(ctx, n, viewer)
		if err != nil {
			return models.NotificationPage{}, err
		}
		details = append(details, d)
	}
	return models.NotificationPage{
		Notifications: details,
		UnreadCount:   unread,
		Pagination:    models.NewPaginationInfo(page.Page, page.Limit, total),
	}, nil
}

// UnreadCount counts the viewer's notifications with unseen actors
func (s *Notifications) UnreadCount(ctx context.Context, viewer string) (int64, error) {
	n, err := s.stores.Notifications.CountDocuments(ctx, databases.NotificationsByRecipient{RecipientUserID: viewer, UnreadOnly: true})
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return n, nil
}

// MarkRead marks every actor of one of the viewer's notifications as seen
func (s *Notifications) MarkRead(ctx context.Context, viewer, id string) (models.NotificationDetail, error) {
	filter := databases.NotificationByID{ID: id, RecipientUserID: viewer}
	n, err := s.stores.Notifications.FindOne(ctx, filter)
	if err != nil {
		return models.NotificationDetail{}, lookupErr(err, "notification", id)
	}
	if _, err := s.stores.Notifications.MarkRead(ctx, filter); err != nil {
		return models.NotificationDetail{}, fmt.Errorf("failed to mark notification %s read: %w", id, err)
	}
	n.ReadUserIDs = append([]string{}, n.ActorUserIDs...)

	d, err := s.Detail(ctx, *n, viewer)
	if err != nil {
		return models.NotificationDetail{}, err
	}
	s.pusher.EmitToUser(viewer, realtime.EventNotificationUpdated, d)
	return d, nil
}

// MarkAllRead marks every notification of the viewer as seen
func (s *Notifications) MarkAllRead(ctx context.Context, viewer string) (int64, error) {
	modified, err := s.stores.Notifications.MarkRead(ctx, databases.NotificationsByRecipient{RecipientUserID: viewer, UnreadOnly: true})
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	if modified > 0 {
		s.pushRefresh(recipientSet{viewer: {}})
	}
	return modified, nil
}

// Delete removes one of the viewer's notifications
func (s *Notifications) Delete(ctx context.Context, viewer, id string) error {
	deleted, err := s.stores.Notifications.DeleteOne(ctx, databases.NotificationByID{ID: id, RecipientUserID: viewer})
	if err != nil {
		return fmt.Errorf("failed to delete notification %s: %w", id, err)
	}
	if deleted == 0 {
		return notFound("notification", id)
	}
	s.pusher.EmitToUser(viewer, realtime.EventNotificationDeleted, map[string]string{"_id": id})
	return nil
}
