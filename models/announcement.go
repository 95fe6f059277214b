package models

import "time"

// Announcement holds the structure for the announcement collection in mongo
type Announcement struct {
	ID           string    `json:"_id" bson:"_id"`
	AuthorUserID string    `json:"authorUserId" bson:"authorUserId"`
	Title        string    `json:"title" bson:"title"`
	Content      string    `json:"content" bson:"content"`
	Images       []string  `json:"images" bson:"images"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

// CreateAnnouncementRequest holds the structure for creating a new announcement
type CreateAnnouncementRequest struct {
	Title   string   `json:"title" validate:"required,min=1,max=200"`
	Content string   `json:"content" validate:"required,min=1"`
	Images  []string `json:"images"`
}
