package models

import "time"

// Comment holds the structure for the comments collection in mongo.
// A comment with a ParentCommentID is a reply.
type Comment struct {
	ID              string    `json:"_id" bson:"_id"`
	ForumID         string    `json:"forumId" bson:"forumId"`
	AuthorUserID    string    `json:"authorUserId" bson:"authorUserId"`
	ParentCommentID string    `json:"parentCommentId,omitempty" bson:"parentCommentId,omitempty"`
	Content         string    `json:"content" bson:"content"`
	Images          []string  `json:"images" bson:"images"`
	IsAnonymous     bool      `json:"isAnonymous" bson:"isAnonymous"`
	LikeUserIDs     []string  `json:"likeUserIds" bson:"likeUserIds"`
	CreatedAt       time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt" bson:"updatedAt"`
}

// CreateCommentRequest holds the structure for adding a comment or a reply
type CreateCommentRequest struct {
	Content         string   `json:"content" validate:"required,min=1,max=2000"`
	ParentCommentID string   `json:"parentCommentId,omitempty"`
	Images          []string `json:"images"`
	IsAnonymous     bool     `json:"isAnonymous"`
}
