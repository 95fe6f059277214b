package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/linesmerrill/forum-api/databases"
	"github.com/linesmerrill/forum-api/models"
	"github.com/linesmerrill/forum-api/realtime"
)

// DeleteUser removes a user account on behalf of the user or an admin. The
// account and the notifications it owns must go; every other cleanup step is
// logged and skipped on failure. Each affected recipient gets one refresh once
// the whole cascade is done.
func (s *Moderation) DeleteUser(ctx context.Context, actor Actor, userID string) error {
	if actor.UserID != userID && !actor.IsAdmin() {
		return denied("cannot delete another user")
	}
	user, err := s.stores.Users.FindOne(ctx, userID)
	if err != nil {
		return lookupErr(err, "user", userID)
	}

	deleted, err := s.stores.Users.DeleteOne(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user %s: %w", userID, err)
	}
	if deleted == 0 {
		return notFound("user", userID)
	}
	if _, err := s.stores.Notifications.DeleteMany(ctx, databases.NotificationsByRecipient{RecipientUserID: userID}); err != nil {
		return fmt.Errorf("failed to delete notifications of user %s: %w", userID, err)
	}

	recipients := recipientSet{}
	s.deleteAuthoredForums(ctx, userID, recipients)
	s.deleteAuthoredComments(ctx, userID, recipients)
	s.deleteAuthoredAnnouncements(ctx, userID, recipients)
	s.withdrawLikes(ctx, userID, recipients)
	s.withdrawSocial(ctx, userID, recipients)
	s.deleteFiles(ctx, []string{user.Avatar})

	delete(recipients, userID)
	s.notifications.pushRefresh(recipients)
	zap.S().Infow("user deleted", "userId", userID, "by", actor.UserID, "recipients", len(recipients))
	return nil
}

func (s *Moderation) deleteAuthoredForums(ctx context.Context, userID string, recipients recipientSet) {
	forums, err := s.stores.Forums.Find(ctx, databases.ForumsByAuthor{AuthorUserID: userID})
	if err != nil {
		zap.S().Errorw("failed to get forums of user", "userId", userID, "error", err)
		return
	}
	for i := range forums {
		if err := s.deleteForum(ctx, &forums[i], recipients); err != nil {
			zap.S().Errorw("failed to delete forum of user", "userId", userID, "forumId", forums[i].ID, "error", err)
		}
	}
}

func (s *Moderation) deleteAuthoredComments(ctx context.Context, userID string, recipients recipientSet) {
	comments, err := s.stores.Comments.Find(ctx, databases.CommentsByAuthor{AuthorUserID: userID})
	if err != nil {
		zap.S().Errorw("failed to get comments of user", "userId", userID, "error", err)
		return
	}
	removed := map[string]struct{}{}
	for i := range comments {
		if _, ok := removed[comments[i].ID]; ok {
			continue
		}
		ids, err := s.deleteComment(ctx, &comments[i], recipients)
		if err != nil {
			zap.S().Errorw("failed to delete comment of user", "userId", userID, "commentId", comments[i].ID, "error", err)
			continue
		}
		for _, id := range ids {
			removed[id] = struct{}{}
		}
	}
}

func (s *Moderation) deleteAuthoredAnnouncements(ctx context.Context, userID string, recipients recipientSet) {
	announcements, err := s.stores.Announcements.FindByAuthor(ctx, userID)
	if err != nil {
		zap.S().Errorw("failed to get announcements of user", "userId", userID, "error", err)
		return
	}
	for i := range announcements {
		if err := s.deleteAnnouncement(ctx, &announcements[i], recipients); err != nil {
			zap.S().Errorw("failed to delete announcement of user", "userId", userID, "announcementId", announcements[i].ID, "error", err)
		}
	}
}

// withdrawLikes takes the user out of every like set and out of the like
// notifications those likes produced. Liked content itself survives.
func (s *Moderation) withdrawLikes(ctx context.Context, userID string, recipients recipientSet) {
	forums, err := s.stores.Forums.Find(ctx, databases.ForumsLikedBy{UserID: userID})
	if err != nil {
		zap.S().Errorw("failed to get forums liked by user", "userId", userID, "error", err)
	}
	for _, f := range forums {
		changed, err := s.stores.Forums.PullFromSet(ctx, f.ID, databases.LikeUserIDs, userID)
		if err != nil {
			zap.S().Errorw("failed to remove forum like", "userId", userID, "forumId", f.ID, "error", err)
			continue
		}
		if changed {
			s.pop(ctx, Event{
				Action:          models.ActionLikeForum,
				ActorUserID:     userID,
				RecipientUserID: f.AuthorUserID,
				Target:          models.TargetRefs{ForumID: f.ID},
			}, recipients)
		}
	}

	comments, err := s.stores.Comments.Find(ctx, databases.CommentsLikedBy{UserID: userID})
	if err != nil {
		zap.S().Errorw("failed to get comments liked by user", "userId", userID, "error", err)
	}
	for _, c := range comments {
		changed, err := s.stores.Comments.PullFromSet(ctx, c.ID, databases.LikeUserIDs, userID)
		if err != nil {
			zap.S().Errorw("failed to remove comment like", "userId", userID, "commentId", c.ID, "error", err)
			continue
		}
		if changed {
			s.pop(ctx, Event{
				Action:          models.ActionLikeComment,
				ActorUserID:     userID,
				RecipientUserID: c.AuthorUserID,
				Target:          models.TargetRefs{ForumID: c.ForumID, CommentID: c.ID},
			}, recipients)
		}
	}

	if _, err := s.stores.Forums.PullFromAll(ctx, databases.FavoriteUserIDs, userID); err != nil {
		zap.S().Errorw("failed to remove favorites of user", "userId", userID, "error", err)
	}
}

// withdrawSocial removes the user from the social graph and from the follow
// notifications of the users they followed
func (s *Moderation) withdrawSocial(ctx context.Context, userID string, recipients recipientSet) {
	for _, field := range []databases.SetField{databases.FollowerUserIDs, databases.FollowingUserIDs, databases.NotifyUserIDs} {
		if _, err := s.stores.Users.PullFromAll(ctx, field, userID); err != nil {
			zap.S().Errorw("failed to remove user from set", "userId", userID, "field", field, "error", err)
		}
	}

	follows, err := s.stores.Notifications.Find(ctx, databases.NotificationsByFollower{FollowerUserID: userID}, databases.Pagination{})
	if err != nil {
		zap.S().Errorw("failed to get follow notifications of user", "userId", userID, "error", err)
		return
	}
	for _, n := range follows {
		res, err := s.notifications.retire(ctx, n.ID, userID)
		if err != nil {
			zap.S().Errorw("failed to withdraw follow notification", "userId", userID, "notificationId", n.ID, "error", err)
			continue
		}
		if res.Mode != ModeInvalid {
			recipients.add(n.RecipientUserID)
		}
	}
}

// DeleteCategory removes a category. Forums filed only under it are deleted
// with the forum cascade; forums filed under other categories too just lose the tag.
func (s *Moderation) DeleteCategory(ctx context.Context, actor Actor, categoryID string) error {
	if !actor.IsAdmin() {
		return denied("only admins can delete categories")
	}
	if _, err := s.stores.Categories.FindOne(ctx, categoryID); err != nil {
		return lookupErr(err, "category", categoryID)
	}
	deleted, err := s.stores.Categories.DeleteOne(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("failed to delete category %s: %w", categoryID, err)
	}
	if deleted == 0 {
		return notFound("category", categoryID)
	}

	recipients := recipientSet{}
	exclusive, err := s.stores.Forums.Find(ctx, databases.ForumsByCategory{CategoryID: categoryID, Exclusive: true})
	if err != nil {
		zap.S().Errorw("failed to get forums of category", "categoryId", categoryID, "error", err)
	}
	for i := range exclusive {
		if err := s.deleteForum(ctx, &exclusive[i], recipients); err != nil {
			zap.S().Errorw("failed to delete forum of category", "categoryId", categoryID, "forumId", exclusive[i].ID, "error", err)
		}
	}

	shared, err := s.stores.Forums.Find(ctx, databases.ForumsByCategory{CategoryID: categoryID})
	if err != nil {
		zap.S().Errorw("failed to get shared forums of category", "categoryId", categoryID, "error", err)
	}
	for _, f := range shared {
		if _, err := s.stores.Forums.PullFromSet(ctx, f.ID, databases.CategoryIDs, categoryID); err != nil {
			zap.S().Errorw("failed to untag forum", "categoryId", categoryID, "forumId", f.ID, "error", err)
			continue
		}
		s.pusher.EmitToRoom(realtime.ForumRoom(f.ID), realtime.EventForumUpdated, map[string]interface{}{
			"forumId":           f.ID,
			"removedCategoryId": categoryID,
		})
	}

	s.notifications.pushRefresh(recipients)
	return nil
}
