package databases

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/linesmerrill/forum-api/models"
)

// Every query the services issue goes through one of the filter types below,
// so a filter is always one of a closed set of shapes rather than a free bson.M.

// NotificationFilter selects documents of the notifications collection
type NotificationFilter interface {
	BSON() bson.M
}

// NotificationByID selects one notification, optionally scoped to its recipient
type NotificationByID struct {
	ID              string
	RecipientUserID string
}

// BSON implements NotificationFilter
func (f NotificationByID) BSON() bson.M {
	m := bson.M{"_id": f.ID}
	if f.RecipientUserID != "" {
		m["recipientUserId"] = f.RecipientUserID
	}
	return m
}

// NotificationByTarget is the aggregation key of a notification. Refs that are
// not set must be absent on the matching document.
type NotificationByTarget struct {
	RecipientUserID string
	Action          models.NotificationAction
	Target          models.TargetRefs
}

// BSON implements NotificationFilter
func (f NotificationByTarget) BSON() bson.M {
	m := bson.M{
		"recipientUserId": f.RecipientUserID,
		"actionKind":      f.Action,
	}
	refs := []struct {
		field string
		value string
	}{
		{"forumId", f.Target.ForumID},
		{"commentId", f.Target.CommentID},
		{"replyCommentId", f.Target.ReplyCommentID},
		{"announcementId", f.Target.AnnouncementID},
		{"followerUserId", f.Target.FollowerUserID},
	}
	for _, ref := range refs {
		if ref.value == "" {
			m[ref.field] = bson.M{"$exists": false}
			continue
		}
		m[ref.field] = ref.value
	}
	return m
}

// NotificationsByRecipient selects the inbox of a user
type NotificationsByRecipient struct {
	RecipientUserID string
	UnreadOnly      bool
}

// BSON implements NotificationFilter
func (f NotificationsByRecipient) BSON() bson.M {
	m := bson.M{"recipientUserId": f.RecipientUserID}
	if f.UnreadOnly {
		m["$expr"] = bson.M{"$ne": bson.A{
			bson.M{"$size": bson.M{"$ifNull": bson.A{"$readUserIds", bson.A{}}}},
			bson.M{"$size": bson.M{"$ifNull": bson.A{"$actorUserIds", bson.A{}}}},
		}}
	}
	return m
}

// NotificationsByForum selects every notification referencing a forum
type NotificationsByForum struct {
	ForumID string
}

// BSON implements NotificationFilter
func (f NotificationsByForum) BSON() bson.M {
	return bson.M{"forumId": f.ForumID}
}

// NotificationsByComments selects notifications referencing any of the comments,
// either as the comment or as the reply
type NotificationsByComments struct {
	CommentIDs []string
}

// BSON implements NotificationFilter
func (f NotificationsByComments) BSON() bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"commentId": bson.M{"$in": f.CommentIDs}},
		bson.M{"replyCommentId": bson.M{"$in": f.CommentIDs}},
	}}
}

// NotificationsByAnnouncement selects notifications of an announcement
type NotificationsByAnnouncement struct {
	AnnouncementID string
}

// BSON implements NotificationFilter
func (f NotificationsByAnnouncement) BSON() bson.M {
	return bson.M{"announcementId": f.AnnouncementID}
}

// NotificationsByFollower selects follow notifications that name the follower
// among their actors
type NotificationsByFollower struct {
	FollowerUserID string
}

// BSON implements NotificationFilter
func (f NotificationsByFollower) BSON() bson.M {
	return bson.M{
		"actionKind":   models.ActionNewFollower,
		"actorUserIds": f.FollowerUserID,
	}
}

// NotificationsByIDs selects notifications by id
type NotificationsByIDs struct {
	IDs []string
}

// BSON implements NotificationFilter
func (f NotificationsByIDs) BSON() bson.M {
	return bson.M{"_id": bson.M{"$in": f.IDs}}
}

// ReportFilter selects documents of the reports collection
type ReportFilter interface {
	BSON() bson.M
}

// ReportByID selects one report, optionally only while it is in Status
type ReportByID struct {
	ID     string
	Status models.ReportStatus
}

// BSON implements ReportFilter
func (f ReportByID) BSON() bson.M {
	m := bson.M{"_id": f.ID}
	if f.Status != "" {
		m["status"] = f.Status
	}
	return m
}

// ReportsByIDs selects reports by id
type ReportsByIDs struct {
	IDs []string
}

// BSON implements ReportFilter
func (f ReportsByIDs) BSON() bson.M {
	return bson.M{"_id": bson.M{"$in": f.IDs}}
}

// ReportsByStatus selects reports in a status; an empty status selects all
type ReportsByStatus struct {
	Status models.ReportStatus
}

// BSON implements ReportFilter
func (f ReportsByStatus) BSON() bson.M {
	if f.Status == "" {
		return bson.M{}
	}
	return bson.M{"status": f.Status}
}

// ReportsPendingByForum selects pending reports against a forum or any of its comments
type ReportsPendingByForum struct {
	ForumID string
}

// BSON implements ReportFilter
func (f ReportsPendingByForum) BSON() bson.M {
	return bson.M{"forumId": f.ForumID, "status": models.ReportPending}
}

// ReportsPendingByComments selects pending reports against any of the comments
type ReportsPendingByComments struct {
	CommentIDs []string
}

// BSON implements ReportFilter
func (f ReportsPendingByComments) BSON() bson.M {
	return bson.M{
		"status": models.ReportPending,
		"$or": bson.A{
			bson.M{"commentId": bson.M{"$in": f.CommentIDs}},
			bson.M{"replyCommentId": bson.M{"$in": f.CommentIDs}},
		},
	}
}

// ReportsPendingSiblings selects the other pending reports filed against the
// same content and defendant as a given report
type ReportsPendingSiblings struct {
	ExcludeID       string
	DefendantUserID string
	ForumID         string
	CommentID       string
	ReplyCommentID  string
}

// BSON implements ReportFilter
func (f ReportsPendingSiblings) BSON() bson.M {
	m := bson.M{
		"_id":             bson.M{"$ne": f.ExcludeID},
		"status":          models.ReportPending,
		"defendantUserId": f.DefendantUserID,
		"forumId":         f.ForumID,
	}
	if f.CommentID == "" {
		m["commentId"] = bson.M{"$exists": false}
	} else {
		m["commentId"] = f.CommentID
	}
	if f.ReplyCommentID == "" {
		m["replyCommentId"] = bson.M{"$exists": false}
	} else {
		m["replyCommentId"] = f.ReplyCommentID
	}
	return m
}

// ReportsByCodePrefix selects reports whose code starts with prefix
type ReportsByCodePrefix struct {
	Prefix string
}

// BSON implements ReportFilter
func (f ReportsByCodePrefix) BSON() bson.M {
	return bson.M{"reportCode": bson.M{"$regex": "^" + f.Prefix}}
}

// ForumFilter selects documents of the forums collection
type ForumFilter interface {
	BSON() bson.M
}

// ForumsByIDs selects forums by id
type ForumsByIDs struct {
	IDs []string
}

// BSON implements ForumFilter
func (f ForumsByIDs) BSON() bson.M {
	return bson.M{"_id": bson.M{"$in": f.IDs}}
}

// ForumsByAuthor selects the forums written by a user
type ForumsByAuthor struct {
	AuthorUserID string
}

// BSON implements ForumFilter
func (f ForumsByAuthor) BSON() bson.M {
	return bson.M{"authorUserId": f.AuthorUserID}
}

// ForumsLikedBy selects forums whose like set contains the user
type ForumsLikedBy struct {
	UserID string
}

// BSON implements ForumFilter
func (f ForumsLikedBy) BSON() bson.M {
	return bson.M{"likeUserIds": f.UserID}
}

// ForumsByCategory selects forums tagged with a category. Exclusive selects the
// forums tagged with only that category, otherwise the ones that carry it
// alongside at least one other category.
type ForumsByCategory struct {
	CategoryID string
	Exclusive  bool
}

// BSON implements ForumFilter
func (f ForumsByCategory) BSON() bson.M {
	if f.Exclusive {
		return bson.M{"categoryIds": bson.A{f.CategoryID}}
	}
	return bson.M{
		"categoryIds":   f.CategoryID,
		"categoryIds.1": bson.M{"$exists": true},
	}
}

// CommentFilter selects documents of the comments collection
type CommentFilter interface {
	BSON() bson.M
}

// CommentsByForums selects every comment of the forums
type CommentsByForums struct {
	ForumIDs []string
}

// BSON implements CommentFilter
func (f CommentsByForums) BSON() bson.M {
	return bson.M{"forumId": bson.M{"$in": f.ForumIDs}}
}

// CommentsByAuthor selects the comments written by a user
type CommentsByAuthor struct {
	AuthorUserID string
}

// BSON implements CommentFilter
func (f CommentsByAuthor) BSON() bson.M {
	return bson.M{"authorUserId": f.AuthorUserID}
}

// CommentsByAuthorInForum selects the comments a user wrote on a forum. A set
// ParentCommentID narrows them to the replies to that comment.
type CommentsByAuthorInForum struct {
	AuthorUserID    string
	ForumID         string
	ParentCommentID string
}

// BSON implements CommentFilter
func (f CommentsByAuthorInForum) BSON() bson.M {
	m := bson.M{"authorUserId": f.AuthorUserID, "forumId": f.ForumID}
	if f.ParentCommentID != "" {
		m["parentCommentId"] = f.ParentCommentID
	}
	return m
}

// CommentsByParents selects the replies to any of the comments
type CommentsByParents struct {
	ParentIDs []string
}

// BSON implements CommentFilter
func (f CommentsByParents) BSON() bson.M {
	return bson.M{"parentCommentId": bson.M{"$in": f.ParentIDs}}
}

// CommentsLikedBy selects comments whose like set contains the user
type CommentsLikedBy struct {
	UserID string
}

// BSON implements CommentFilter
func (f CommentsLikedBy) BSON() bson.M {
	return bson.M{"likeUserIds": f.UserID}
}

// CommentsByIDs selects comments by id
type CommentsByIDs struct {
	IDs []string
}

// BSON implements CommentFilter
func (f CommentsByIDs) BSON() bson.M {
	return bson.M{"_id": bson.M{"$in": f.IDs}}
}
