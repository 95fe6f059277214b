package models

import "time"

// NotificationAction is the kind of interaction a notification aggregates
type NotificationAction string

// Notification actions
const (
	ActionLikeForum       NotificationAction = "like-forum"
	ActionLikeComment     NotificationAction = "like-comment"
	ActionNewForum        NotificationAction = "new-forum"
	ActionNewComment      NotificationAction = "new-comment"
	ActionNewReply        NotificationAction = "new-reply"
	ActionNewAnnouncement NotificationAction = "new-announcement"
	ActionNewFollower     NotificationAction = "new-follower"
)

// Valid reports whether a is one of the known actions
func (a NotificationAction) Valid() bool {
	switch a {
	case ActionLikeForum, ActionLikeComment, ActionNewForum, ActionNewComment,
		ActionNewReply, ActionNewAnnouncement, ActionNewFollower:
		return true
	}
	return false
}

// TargetRefs identifies what a notification is about. Only the refs relevant to
// the action are set; together with the recipient and action they form the
// aggregation key of a notification.
type TargetRefs struct {
	ForumID        string `json:"forumId,omitempty" bson:"forumId,omitempty"`
	CommentID      string `json:"commentId,omitempty" bson:"commentId,omitempty"`
	ReplyCommentID string `json:"replyCommentId,omitempty" bson:"replyCommentId,omitempty"`
	AnnouncementID string `json:"announcementId,omitempty" bson:"announcementId,omitempty"`
	FollowerUserID string `json:"followerUserId,omitempty" bson:"followerUserId,omitempty"`
}

// IsZero reports whether no reference is set
func (t TargetRefs) IsZero() bool {
	return t == TargetRefs{}
}

// Notification holds the structure for the notifications collection in mongo
type Notification struct {
	ID              string             `json:"_id" bson:"_id"`
	Action          NotificationAction `json:"actionKind" bson:"actionKind"`
	RecipientUserID string             `json:"recipientUserId" bson:"recipientUserId"`
	ActorUserIDs    []string           `json:"actorUserIds" bson:"actorUserIds"`
	ReadUserIDs     []string           `json:"readUserIds" bson:"readUserIds"`
	TargetRefs      `bson:",inline"`
	CreatedAt       time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt" bson:"updatedAt"`
}

// IsRead is true once every actor has been seen by the recipient
func (n Notification) IsRead() bool {
	return len(n.ReadUserIDs) == len(n.ActorUserIDs)
}

// LastActor returns the most recent actor, or an empty string
func (n Notification) LastActor() string {
	if len(n.ActorUserIDs) == 0 {
		return ""
	}
	return n.ActorUserIDs[len(n.ActorUserIDs)-1]
}

// NotificationDetail is the display form of a notification for one viewer
type NotificationDetail struct {
	ID          string             `json:"_id"`
	Action      NotificationAction `json:"actionKind"`
	ActorUserID string             `json:"actorUserId,omitempty"`
	ActorName   string             `json:"actorName"`
	ActorAvatar string             `json:"actorAvatar,omitempty"`
	ActorCount  int                `json:"actorCount"`
	Body        string             `json:"body"`
	Link        string             `json:"link"`
	IsRead      bool               `json:"isRead"`
	TargetRefs
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NotificationPage is a paginated list of notification details
type NotificationPage struct {
	Notifications []NotificationDetail `json:"notifications"`
	UnreadCount   int64                `json:"unreadCount"`
	Pagination    PaginationInfo       `json:"pagination"`
}

// PaginationInfo holds pagination metadata
type PaginationInfo struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	Total       int64 `json:"total"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// NewPaginationInfo computes page metadata for a total count
func NewPaginationInfo(page, limit int, total int64) PaginationInfo {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return PaginationInfo{
		CurrentPage: page,
		TotalPages:  totalPages,
		Total:       total,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}
}
