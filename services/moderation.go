package services

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/linesmerrill/forum-api/databases"
	"github.com/linesmerrill/forum-api/models"
	"github.com/linesmerrill/forum-api/realtime"
)

// Moderation removes content together with everything that points at it:
// comments, notifications, pending reports and hosted files. Every cascade first
// plans what it will touch, then applies the deletions, then pushes a single
// refresh to each recipient whose notifications changed.
type Moderation struct {
	stores        Stores
	notifications *Notifications
	reports       *Reports
	files         FileStore
	pusher        Pusher
}

// NewModeration returns the cascading moderation workflow
func NewModeration(stores Stores, notifications *Notifications, reports *Reports, files FileStore, pusher Pusher) *Moderation {
	return &Moderation{
		stores:        stores,
		notifications: notifications,
		reports:       reports,
		files:         files,
		pusher:        pusher,
	}
}

// cascadePlan lists what a deletion touches, gathered before anything is removed
type cascadePlan struct {
	forumID    string
	commentIDs []string
	files      []string
	recipients recipientSet
}

// DeleteForum removes a forum on behalf of its author or an admin
func (s *Moderation) DeleteForum(ctx context.Context, actor Actor, forumID string) error {
	forum, err := s.stores.Forums.FindOne(ctx, forumID)
	if err != nil {
		return lookupErr(err, "forum", forumID)
	}
	if forum.AuthorUserID != actor.UserID && !actor.IsAdmin() {
		return denied("forum %s belongs to another user", forumID)
	}

	recipients := recipientSet{}
	if err := s.deleteForum(ctx, forum, recipients); err != nil {
		return err
	}
	s.notifications.pushRefresh(recipients)
	return nil
}

func (s *Moderation) deleteForum(ctx context.Context, forum *models.Forum, recipients recipientSet) error {
	plan, err := s.planForum(ctx, forum)
	if err != nil {
		return err
	}

	deleted, err := s.stores.Forums.DeleteOne(ctx, forum.ID)
	if err != nil {
		return fmt.Errorf("failed to delete forum %s: %w", forum.ID, err)
	}
	if deleted == 0 {
		return notFound("forum", forum.ID)
	}
	if _, err := s.stores.Comments.DeleteMany(ctx, databases.CommentsByForums{ForumIDs: []string{forum.ID}}); err != nil {
		return fmt.Errorf("failed to delete comments of forum %s: %w", forum.ID, err)
	}
	if _, err := s.stores.Notifications.DeleteMany(ctx, databases.NotificationsByForum{ForumID: forum.ID}); err != nil {
		return fmt.Errorf("failed to delete notifications of forum %s: %w", forum.ID, err)
	}
	if len(plan.commentIDs) > 0 {
		if _, err := s.stores.Notifications.DeleteMany(ctx, databases.NotificationsByComments{CommentIDs: plan.commentIDs}); err != nil {
			return fmt.Errorf("failed to delete notifications of forum %s comments: %w", forum.ID, err)
		}
	}
	if _, err := s.reports.Invalidate(ctx, []string{forum.ID}, plan.commentIDs); err != nil {
		return err
	}

	s.deleteFiles(ctx, plan.files)
	s.pusher.EmitToRoom(realtime.ForumRoom(forum.ID), realtime.EventForumDeleted, map[string]string{"forumId": forum.ID})
	for id := range plan.recipients {
		recipients.add(id)
	}
	zap.S().Infow("forum deleted",
		"forumId", forum.ID,
		"comments", len(plan.commentIDs),
		"recipients", len(plan.recipients))
	return nil
}

func (s *Moderation) planForum(ctx context.Context, forum *models.Forum) (*cascadePlan, error) {
	plan := &cascadePlan{forumID: forum.ID, recipients: recipientSet{}}
	plan.files = append(plan.files, forum.Images...)

	comments, err := s.stores.Comments.Find(ctx, databases.CommentsByForums{ForumIDs: []string{forum.ID}})
	if err != nil {
		return nil, fmt.Errorf("failed to get comments of forum %s: %w", forum.ID, err)
	}
	for _, c := range comments {
		plan.commentIDs = append(plan.commentIDs, c.ID)
		plan.files = append(plan.files, c.Images...)
	}

	notifications, err := s.stores.Notifications.Find(ctx, databases.NotificationsByForum{ForumID: forum.ID}, databases.Pagination{})
	if err != nil {
		return nil, fmt.Errorf("failed to get notifications of forum %s: %w", forum.ID, err)
	}
	plan.recipients.addNotifications(notifications)

	if len(plan.commentIDs) > 0 {
		notifications, err = s.stores.Notifications.Find(ctx, databases.NotificationsByComments{CommentIDs: plan.commentIDs}, databases.Pagination{})
		if err != nil {
			return nil, fmt.Errorf("failed to get notifications of forum %s comments: %w", forum.ID, err)
		}
		plan.recipients.addNotifications(notifications)
	}
	return plan, nil
}

// DeleteComment removes a comment and its replies on behalf of the author or an admin
func (s *Moderation) DeleteComment(ctx context.Context, actor Actor, commentID string) error {
	comment, err := s.stores.Comments.FindOne(ctx, commentID)
	if err != nil {
		return lookupErr(err, "comment", commentID)
	}
	if comment.AuthorUserID != actor.UserID && !actor.IsAdmin() {
		return denied("comment %s belongs to another user", commentID)
	}

	recipients := recipientSet{}
	if _, err := s.deleteComment(ctx, comment, recipients); err != nil {
		return err
	}
	s.notifications.pushRefresh(recipients)
	return nil
}

// deleteComment returns the ids of the removed comment and of its replies
func (s *Moderation) deleteComment(ctx context.Context, comment *models.Comment, recipients recipientSet) ([]string, error) {
	plan, err := s.planComment(ctx, comment)
	if err != nil {
		return nil, err
	}

	deleted, err := s.stores.Comments.DeleteMany(ctx, databases.CommentsByIDs{IDs: plan.commentIDs})
	if err != nil {
		return nil, fmt.Errorf("failed to delete comment %s: %w", comment.ID, err)
	}
	if deleted == 0 {
		return nil, notFound("comment", comment.ID)
	}
	if _, err := s.stores.Notifications.DeleteMany(ctx, databases.NotificationsByComments{CommentIDs: plan.commentIDs}); err != nil {
		return nil, fmt.Errorf("failed to delete notifications of comment %s: %w", comment.ID, err)
	}
	if _, err := s.reports.Invalidate(ctx, nil, plan.commentIDs); err != nil {
		return nil, err
	}

	s.withdrawComment(ctx, comment, plan.commentIDs, plan.recipients)
	s.deleteFiles(ctx, plan.files)
	s.pusher.EmitToRoom(realtime.ForumRoom(comment.ForumID), realtime.EventCommentDeleted, map[string]interface{}{
		"forumId":    comment.ForumID,
		"commentId":  comment.ID,
		"commentIds": plan.commentIDs,
	})
	for id := range plan.recipients {
		recipients.add(id)
	}
	return plan.commentIDs, nil
}

func (s *Moderation) planComment(ctx context.Context, comment *models.Comment) (*cascadePlan, error) {
	plan := &cascadePlan{forumID: comment.ForumID, recipients: recipientSet{}}
	plan.commentIDs = append(plan.commentIDs, comment.ID)
	plan.files = append(plan.files, comment.Images...)

	parents := []string{comment.ID}
	for len(parents) > 0 {
		replies, err := s.stores.Comments.Find(ctx, databases.CommentsByParents{ParentIDs: parents})
		if err != nil {
			return nil, fmt.Errorf("failed to get replies of comment %s: %w", comment.ID, err)
		}
		var next []string
		for _, r := range replies {
			plan.commentIDs = append(plan.commentIDs, r.ID)
			plan.files = append(plan.files, r.Images...)
			next = append(next, r.ID)
		}
		parents = next
	}

	notifications, err := s.stores.Notifications.Find(ctx, databases.NotificationsByComments{CommentIDs: plan.commentIDs}, databases.Pagination{})
	if err != nil {
		return nil, fmt.Errorf("failed to get notifications of comment %s: %w", comment.ID, err)
	}
	plan.recipients.addNotifications(notifications)
	return plan, nil
}

// withdrawComment pops the author of a removed comment from the new-comment or
// new-reply notification the comment produced, unless the author still has
// another comment on the same target
func (s *Moderation) withdrawComment(ctx context.Context, comment *models.Comment, removed []string, recipients recipientSet) {
	ev := Event{Action: models.ActionNewComment, ActorUserID: comment.AuthorUserID}
	if comment.ParentCommentID != "" {
		parent, err := s.stores.Comments.FindOne(ctx, comment.ParentCommentID)
		if err != nil {
			return
		}
		ev.Action = models.ActionNewReply
		ev.RecipientUserID = parent.AuthorUserID
		ev.Target = models.TargetRefs{ForumID: comment.ForumID, CommentID: parent.ID}
	} else {
		forum, err := s.stores.Forums.FindOne(ctx, comment.ForumID)
		if err != nil {
			return
		}
		ev.RecipientUserID = forum.AuthorUserID
		ev.Target = models.TargetRefs{ForumID: forum.ID}
	}
	if ev.ActorUserID == ev.RecipientUserID {
		return
	}

	remaining, err := s.stores.Comments.Find(ctx, databases.CommentsByAuthorInForum{
		AuthorUserID:    comment.AuthorUserID,
		ForumID:         comment.ForumID,
		ParentCommentID: comment.ParentCommentID,
	})
	if err != nil {
		zap.S().Errorw("failed to get remaining comments of author",
			"commentId", comment.ID,
			"author", comment.AuthorUserID,
			"error", err)
		return
	}
	for _, c := range remaining {
		// the filter without a parent also matches replies
		if c.ParentCommentID == comment.ParentCommentID && !slices.Contains(removed, c.ID) {
			return
		}
	}
	s.pop(ctx, ev, recipients)
}

// pop withdraws an actor without pushing; the recipient is refreshed at the end
// of the cascade
func (s *Moderation) pop(ctx context.Context, ev Event, recipients recipientSet) {
	if ev.ActorUserID == ev.RecipientUserID || ev.RecipientUserID == "" {
		return
	}
	res, err := s.notifications.reconcile(ctx, ev, Pop)
	if err != nil {
		zap.S().Errorw("failed to withdraw notification actor",
			"action", ev.Action,
			"actor", ev.ActorUserID,
			"recipient", ev.RecipientUserID,
			"error", err)
		return
	}
	if res.Mode != ModeInvalid {
		recipients.add(ev.RecipientUserID)
	}
}

// DeleteAnnouncement removes an announcement and the notifications it fanned out
func (s *Moderation) DeleteAnnouncement(ctx context.Context, actor Actor, announcementID string) error {
	if !actor.IsAdmin() {
		return denied("only admins can delete announcements")
	}
	announcement, err := s.stores.Announcements.FindOne(ctx, announcementID)
	if err != nil {
		return lookupErr(err, "announcement", announcementID)
	}

	recipients := recipientSet{}
	if err := s.deleteAnnouncement(ctx, announcement, recipients); err != nil {
		return err
	}
	s.notifications.pushRefresh(recipients)
	return nil
}

func (s *Moderation) deleteAnnouncement(ctx context.Context, announcement *models.Announcement, recipients recipientSet) error {
	filter := databases.NotificationsByAnnouncement{AnnouncementID: announcement.ID}
	notifications, err := s.stores.Notifications.Find(ctx, filter, databases.Pagination{})
	if err != nil {
		return fmt.Errorf("failed to get notifications of announcement %s: %w", announcement.ID, err)
	}

	deleted, err := s.stores.Announcements.DeleteOne(ctx, announcement.ID)
	if err != nil {
		return fmt.Errorf("failed to delete announcement %s: %w", announcement.ID, err)
	}
	if deleted == 0 {
		return notFound("announcement", announcement.ID)
	}
	if _, err := s.stores.Notifications.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("failed to delete notifications of announcement %s: %w", announcement.ID, err)
	}

	s.deleteFiles(ctx, announcement.Images)
	recipients.addNotifications(notifications)
	return nil
}

// BulkDeleteForums runs the forum cascade on each forum. A failing forum is
// logged and skipped; the number of removed forums is returned.
func (s *Moderation) BulkDeleteForums(ctx context.Context, admin Actor, forumIDs []string) (int, error) {
	if !admin.IsAdmin() {
		return 0, denied("only admins can bulk delete forums")
	}
	if len(forumIDs) == 0 {
		return 0, invalid("ids are required")
	}
	forums, err := s.stores.Forums.Find(ctx, databases.ForumsByIDs{IDs: dedupe(forumIDs)})
	if err != nil {
		return 0, fmt.Errorf("failed to get forums: %w", err)
	}

	recipients := recipientSet{}
	deleted := 0
	for i := range forums {
		if err := s.deleteForum(ctx, &forums[i], recipients); err != nil {
			zap.S().Errorw("failed to delete forum in bulk", "forumId", forums[i].ID, "error", err)
			continue
		}
		deleted++
	}
	s.notifications.pushRefresh(recipients)
	return deleted, nil
}

// BulkDeleteReports physically removes reports
func (s *Moderation) BulkDeleteReports(ctx context.Context, admin Actor, reportIDs []string) (int64, error) {
	if !admin.IsAdmin() {
		return 0, denied("only admins can bulk delete reports")
	}
	if len(reportIDs) == 0 {
		return 0, invalid("ids are required")
	}
	deleted, err := s.stores.Reports.DeleteMany(ctx, databases.ReportsByIDs{IDs: dedupe(reportIDs)})
	if err != nil {
		return 0, fmt.Errorf("failed to delete reports: %w", err)
	}
	return deleted, nil
}

// ResolveReport resolves a pending report, closes the other pending reports on
// the same content and defendant, and optionally removes the reported content
func (s *Moderation) ResolveReport(ctx context.Context, admin Actor, reportID string, removeContent bool) (*models.Report, error) {
	if !admin.IsAdmin() {
		return nil, denied("only admins can resolve reports")
	}
	report, err := s.stores.Reports.FindOne(ctx, databases.ReportByID{ID: reportID})
	if err != nil {
		return nil, lookupErr(err, "report", reportID)
	}
	if err := s.reports.transition(ctx, report, models.ReportResolved); err != nil {
		return nil, err
	}

	closed, err := s.stores.Reports.UpdateStatus(ctx, databases.ReportsPendingSiblings{
		ExcludeID:       report.ID,
		DefendantUserID: report.DefendantUserID,
		ForumID:         report.ForumID,
		CommentID:       report.CommentID,
		ReplyCommentID:  report.ReplyCommentID,
	}, models.ReportClosed)
	if err != nil {
		return nil, fmt.Errorf("failed to close sibling reports of %s: %w", report.ID, err)
	}
	zap.S().Infow("report resolved", "reportId", report.ID, "closed", closed, "removeContent", removeContent)

	if !removeContent {
		return report, nil
	}
	if err := s.removeReported(ctx, report); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return report, nil
}

func (s *Moderation) removeReported(ctx context.Context, report *models.Report) error {
	recipients := recipientSet{}
	defer s.notifications.pushRefresh(recipients)

	commentID := report.ReplyCommentID
	if commentID == "" {
		commentID = report.CommentID
	}
	if commentID != "" {
		comment, err := s.stores.Comments.FindOne(ctx, commentID)
		if err != nil {
			return lookupErr(err, "comment", commentID)
		}
		_, err = s.deleteComment(ctx, comment, recipients)
		return err
	}

	forum, err := s.stores.Forums.FindOne(ctx, report.ForumID)
	if err != nil {
		return lookupErr(err, "forum", report.ForumID)
	}
	return s.deleteForum(ctx, forum, recipients)
}

// deleteFiles removes hosted files, logging failures
func (s *Moderation) deleteFiles(ctx context.Context, refs []string) {
	if s.files == nil {
		return
	}
	for _, ref := range dedupe(refs) {
		if err := s.files.DeleteFile(ctx, ref); err != nil {
			zap.S().Warnw("failed to delete file", "ref", ref, "error", err)
		}
	}
}
