package models

import "time"

// Forum holds the structure for the forums collection in mongo
type Forum struct {
	ID              string    `json:"_id" bson:"_id"`
	AuthorUserID    string    `json:"authorUserId" bson:"authorUserId"`
	Title           string    `json:"title" bson:"title"`
	Content         string    `json:"content" bson:"content"`
	CategoryIDs     []string  `json:"categoryIds" bson:"categoryIds"`
	Images          []string  `json:"images" bson:"images"`
	IsAnonymous     bool      `json:"isAnonymous" bson:"isAnonymous"`
	LikeUserIDs     []string  `json:"likeUserIds" bson:"likeUserIds"`
	FavoriteUserIDs []string  `json:"favoriteUserIds" bson:"favoriteUserIds"`
	CreatedAt       time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt" bson:"updatedAt"`
}

// CreateForumRequest holds the structure for creating a forum
type CreateForumRequest struct {
	Title       string   `json:"title" validate:"required,min=1,max=200"`
	Content     string   `json:"content" validate:"required,min=1"`
	CategoryIDs []string `json:"categoryIds" validate:"required,min=1,dive,required"`
	Images      []string `json:"images"`
	IsAnonymous bool     `json:"isAnonymous"`
}

// Category holds the structure for the categories collection in mongo
type Category struct {
	ID        string    `json:"_id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// CreateCategoryRequest holds the structure for creating a category
type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=64"`
}
