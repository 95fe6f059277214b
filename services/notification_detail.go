package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/linesmerrill/forum-api/databases"
	"github.com/linesmerrill/forum-api/models"
)

const (
	anonymousName   = "anonymous user"
	deletedUserName = "deleted user"
)

var actionTexts = map[models.NotificationAction]string{
	models.ActionLikeForum:       "liked your forum",
	models.ActionLikeComment:     "liked your comment",
	models.ActionNewForum:        "posted a new forum",
	models.ActionNewComment:      "commented on your forum",
	models.ActionNewReply:        "replied to your comment",
	models.ActionNewAnnouncement: "published a new announcement",
	models.ActionNewFollower:     "started following you",
}

// Detail renders a notification for viewer: who acted last, how many others
// did, whether it is read and where it leads
func (s *Notifications) Detail(ctx context.Context, n models.Notification, viewer string) (models.NotificationDetail, error) {
	d := models.NotificationDetail{
		ID:          n.ID,
		Action:      n.Action,
		ActorUserID: n.LastActor(),
		ActorName:   deletedUserName,
		ActorCount:  len(n.ActorUserIDs),
		IsRead:      n.IsRead(),
		Link:        Link(n.TargetRefs),
		TargetRefs:  n.TargetRefs,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
	if n.Action == models.ActionNewFollower && d.ActorUserID != "" {
		// the follow target names the recipient, the link leads to the newest follower
		d.Link = "/profile/" + d.ActorUserID
	}

	if d.ActorUserID != "" {
		actor, err := s.stores.Users.FindOne(ctx, d.ActorUserID)
		switch {
		case err == nil:
			d.ActorName = actor.DisplayName
			d.ActorAvatar = s.signedURL(actor.Avatar)
		case !errors.Is(err, mongo.ErrNoDocuments):
			return models.NotificationDetail{}, fmt.Errorf("failed to get actor %s: %w", d.ActorUserID, err)
		}

		anonymous, err := s.actorIsAnonymous(ctx, n, d.ActorUserID)
		if err != nil {
			return models.NotificationDetail{}, err
		}
		if anonymous {
			d.ActorName = anonymousName
			if viewer == d.ActorUserID {
				d.ActorName += " (you)"
			}
			d.ActorUserID = ""
			d.ActorAvatar = ""
		}
	}

	d.Body = Body(d.ActorName, d.ActorCount, n.Action)
	return d, nil
}

// Body is the display text of a notification
func Body(name string, actors int, action models.NotificationAction) string {
	text := actionTexts[action]
	if actors > 1 {
		return fmt.Sprintf("%s and %d others %s", name, actors-1, text)
	}
	return fmt.Sprintf("%s %s", name, text)
}

// Link is the client route a notification leads to. A follow target wins over an
// announcement, which wins over a forum.
func Link(t models.TargetRefs) string {
	switch {
	case t.FollowerUserID != "":
		return "/profile/" + t.FollowerUserID
	case t.AnnouncementID != "":
		return "/announcements/" + t.AnnouncementID
	case t.ForumID != "":
		q := url.Values{}
		if t.CommentID != "" {
			q.Set("commentId", t.CommentID)
		}
		if t.ReplyCommentID != "" {
			q.Set("replyCommentId", t.ReplyCommentID)
		}
		if len(q) == 0 {
			return "/forums/" + t.ForumID
		}
		return "/forums/" + t.ForumID + "?" + q.Encode()
	}
	return ""
}

// actorIsAnonymous reports whether the actor took part in the target under the
// anonymous flag: as the author of an anonymous forum, or through their latest
// comment on it
func (s *Notifications) actorIsAnonymous(ctx context.Context, n models.Notification, actorUserID string) (bool, error) {
	if n.ForumID == "" {
		return false, nil
	}
	switch n.Action {
	case models.ActionNewForum, models.ActionNewComment, models.ActionNewReply:
	default:
		return false, nil
	}

	forum, err := s.stores.Forums.FindOne(ctx, n.ForumID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get forum %s: %w", n.ForumID, err)
	}
	if forum.IsAnonymous && forum.AuthorUserID == actorUserID {
		return true, nil
	}
	if n.Action == models.ActionNewForum {
		return false, nil
	}

	filter := databases.CommentsByAuthorInForum{AuthorUserID: actorUserID, ForumID: n.ForumID}
	if n.Action == models.ActionNewReply {
		filter.ParentCommentID = n.CommentID
	}
	comments, err := s.stores.Comments.Find(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to get comments of %s: %w", actorUserID, err)
	}
	var latest *models.Comment
	for i := range comments {
		if latest == nil || comments[i].CreatedAt.After(latest.CreatedAt) {
			latest = &comments[i]
		}
	}
	return latest != nil && latest.IsAnonymous, nil
}

func (s *Notifications) signedURL(ref string) string {
	if ref == "" || s.files == nil {
		return ""
	}
	u, err := s.files.SignedURL(ref)
	if err != nil {
		zap.S().Warnw("failed to sign avatar url", "ref", ref, "error", err)
		return ""
	}
	return u
}
