package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/linesmerrill/forum-api/databases"
	"github.com/linesmerrill/forum-api/models"
	"github.com/linesmerrill/forum-api/realtime"
)

// Social handles likes, favorites, follows and post subscriptions. Membership
// changes are atomic set operations and only a change that actually happened
// reaches the notification engine.
type Social struct {
	stores        Stores
	notifications *Notifications
	pusher        Pusher
}

// NewSocial returns the social interaction service
func NewSocial(stores Stores, notifications *Notifications, pusher Pusher) *Social {
	return &Social{stores: stores, notifications: notifications, pusher: pusher}
}

// LikeForum adds the actor to the forum like set
func (s *Social) LikeForum(ctx context.Context, actor Actor, forumID string) (bool, error) {
	return s.toggleForumLike(ctx, actor, forumID, Push)
}

// UnlikeForum removes the actor from the forum like set
func (s *Social) UnlikeForum(ctx context.Context, actor Actor, forumID string) (bool, error) {
	return s.toggleForumLike(ctx, actor, forumID, Pop)
}

func (s *Social) toggleForumLike(ctx context.Context, actor Actor, forumID string, op Op) (bool, error) {
	forum, err := s.stores.Forums.FindOne(ctx, forumID)
	if err != nil {
		return false, lookupErr(err, "forum", forumID)
	}
	changed, err := s.setMembership(ctx, s.stores.Forums.AddToSet, s.stores.Forums.PullFromSet, forumID, databases.LikeUserIDs, actor.UserID, op)
	if err != nil {
		return false, fmt.Errorf("failed to update likes of forum %s: %w", forumID, err)
	}
	if !changed {
		return false, nil
	}

	s.reconcile(ctx, Event{
		Action:          models.ActionLikeForum,
		ActorUserID:     actor.UserID,
		RecipientUserID: forum.AuthorUserID,
		Target:          models.TargetRefs{ForumID: forumID},
	}, op)
	s.pusher.EmitToRoom(realtime.ForumRoom(forumID), realtime.EventForumUpdated, map[string]interface{}{
		"forumId": forumID,
		"userId":  actor.UserID,
		"liked":   op == Push,
	})
	return true, nil
}

// FavoriteForum adds the forum to the actor's favorites
func (s *Social) FavoriteForum(ctx context.Context, actor Actor, forumID string) (bool, error) {
	return s.toggleFavorite(ctx, actor, forumID, Push)
}

// UnfavoriteForum removes the forum from the actor's favorites
func (s *Social) UnfavoriteForum(ctx context.Context, actor Actor, forumID string) (bool, error) {
	return s.toggleFavorite(ctx, actor, forumID, Pop)
}

func (s *Social) toggleFavorite(ctx context.Context, actor Actor, forumID string, op Op) (bool, error) {
	if _, err := s.stores.Forums.FindOne(ctx, forumID); err != nil {
		return false, lookupErr(err, "forum", forumID)
	}
	changed, err := s.setMembership(ctx, s.stores.Forums.AddToSet, s.stores.Forums.PullFromSet, forumID, databases.FavoriteUserIDs, actor.UserID, op)
	if err != nil {
		return false, fmt.Errorf("failed to update favorites of forum %s: %w", forumID, err)
	}
	return changed, nil
}

// LikeComment adds the actor to the comment like set
func (s *Social) LikeComment(ctx context.Context, actor Actor, commentID string) (bool, error) {
	return s.toggleCommentLike(ctx, actor, commentID, Push)
}

// UnlikeComment removes the actor from the comment like set
func (s *Social) UnlikeComment(ctx context.Context, actor Actor, commentID string) (bool, error) {
	return s.toggleCommentLike(ctx, actor, commentID, Pop)
}

func (s *Social) toggleCommentLike(ctx context.Context, actor Actor, commentID string, op Op) (bool, error) {
	comment, err := s.stores.Comments.FindOne(ctx, commentID)
	if err != nil {
		return false, lookupErr(err, "comment", commentID)
	}
	changed, err := s.setMembership(ctx, s.stores.Comments.AddToSet, s.stores.Comments.PullFromSet, commentID, databases.LikeUserIDs, actor.UserID, op)
	if err != nil {
		return false, fmt.Errorf("failed to update likes of comment %s: %w", commentID, err)
	}
	if !changed {
		return false, nil
	}

	s.reconcile(ctx, Event{
		Action:          models.ActionLikeComment,
		ActorUserID:     actor.UserID,
		RecipientUserID: comment.AuthorUserID,
		Target:          models.TargetRefs{ForumID: comment.ForumID, CommentID: comment.ID},
	}, op)
	s.pusher.EmitToRoom(realtime.ForumRoom(comment.ForumID), realtime.EventCommentUpdated, map[string]interface{}{
		"forumId":   comment.ForumID,
		"commentId": comment.ID,
		"userId":    actor.UserID,
		"liked":     op == Push,
	})
	return true, nil
}

// Follow makes the actor a follower of the target user
func (s *Social) Follow(ctx context.Context, actor Actor, targetUserID string) (bool, error) {
	return s.toggleFollow(ctx, actor, targetUserID, Push)
}

// Unfollow stops the actor following the target user
func (s *Social) Unfollow(ctx context.Context, actor Actor, targetUserID string) (bool, error) {
	return s.toggleFollow(ctx, actor, targetUserID, Pop)
}

func (s *Social) toggleFollow(ctx context.Context, actor Actor, targetUserID string, op Op) (bool, error) {
	if actor.UserID == targetUserID {
		return false, invalid("you cannot follow yourself")
	}
	if _, err := s.stores.Users.FindOne(ctx, targetUserID); err != nil {
		return false, lookupErr(err, "user", targetUserID)
	}
	changed, err := s.setMembership(ctx, s.stores.Users.AddToSet, s.stores.Users.PullFromSet, targetUserID, databases.FollowerUserIDs, actor.UserID, op)
	if err != nil {
		return false, fmt.Errorf("failed to update followers of %s: %w", targetUserID, err)
	}
	if _, err := s.setMembership(ctx, s.stores.Users.AddToSet, s.stores.Users.PullFromSet, actor.UserID, databases.FollowingUserIDs, targetUserID, op); err != nil {
		return false, fmt.Errorf("failed to update following of %s: %w", actor.UserID, err)
	}
	if !changed {
		return false, nil
	}

	// keyed on the followed user so all followers share one notification
	s.reconcile(ctx, Event{
		Action:          models.ActionNewFollower,
		ActorUserID:     actor.UserID,
		RecipientUserID: targetUserID,
		Target:          models.TargetRefs{FollowerUserID: targetUserID},
	}, op)
	return true, nil
}

// Subscribe notifies the actor of every new forum the target user posts
func (s *Social) Subscribe(ctx context.Context, actor Actor, targetUserID string) (bool, error) {
	return s.toggleSubscription(ctx, actor, targetUserID, Push)
}

// Unsubscribe stops new forum notifications from the target user
func (s *Social) Unsubscribe(ctx context.Context, actor Actor, targetUserID string) (bool, error) {
	return s.toggleSubscription(ctx, actor, targetUserID, Pop)
}

func (s *Social) toggleSubscription(ctx context.Context, actor Actor, targetUserID string, op Op) (bool, error) {
	if actor.UserID == targetUserID {
		return false, invalid("you cannot subscribe to yourself")
	}
	if _, err := s.stores.Users.FindOne(ctx, targetUserID); err != nil {
		return false, lookupErr(err, "user", targetUserID)
	}
	changed, err := s.setMembership(ctx, s.stores.Users.AddToSet, s.stores.Users.PullFromSet, targetUserID, databases.NotifyUserIDs, actor.UserID, op)
	if err != nil {
		return false, fmt.Errorf("failed to update subscribers of %s: %w", targetUserID, err)
	}
	return changed, nil
}

type setFunc func(ctx context.Context, id string, field databases.SetField, value string) (bool, error)

func (s *Social) setMembership(ctx context.Context, add, pull setFunc, id string, field databases.SetField, value string, op Op) (bool, error) {
	if op == Push {
		return add(ctx, id, field, value)
	}
	return pull(ctx, id, field, value)
}

// reconcile runs the notification engine after the primary change went
// through, so its failures are only logged
func (s *Social) reconcile(ctx context.Context, ev Event, op Op) {
	if _, err := s.notifications.Reconcile(ctx, ev, op); err != nil {
		zap.S().Errorw("failed to reconcile notification",
			"action", ev.Action,
			"op", op.String(),
			"actor", ev.ActorUserID,
			"recipient", ev.RecipientUserID,
			"error", err)
	}
}
