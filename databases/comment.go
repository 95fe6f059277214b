package databases

// go generate: mockery --name CommentDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/linesmerrill/forum-api/models"
)

const commentCollectionName = "comments"

// CommentDatabase contains the methods to use with the comment database
type CommentDatabase interface {
	FindOne(ctx context.Context, id string) (*models.Comment, error)
	Find(ctx context.Context, filter CommentFilter) ([]models.Comment, error)
	InsertOne(ctx context.Context, comment models.Comment) error
	DeleteMany(ctx context.Context, filter CommentFilter) (int64, error)
	AddToSet(ctx context.Context, id string, field SetField, value string) (bool, error)
	PullFromSet(ctx context.Context, id string, field SetField, value string) (bool, error)
}

type commentDatabase struct {
	db DatabaseHelper
}

// NewCommentDatabase initializes a new instance of comment database with the provided db connection
func NewCommentDatabase(db DatabaseHelper) CommentDatabase {
	return &commentDatabase{
		db: db,
	}
}

func (c *commentDatabase) FindOne(ctx context.Context, id string) (*models.Comment, error) {
	comment := &models.Comment{}
	err := c.db.Collection(commentCollectionName).FindOne(ctx, bson.M{"_id": id}).Decode(&comment)
	if err != nil {
		return nil, err
	}
	return comment, nil
}

func (c *commentDatabase) Find(ctx context.Context, filter CommentFilter) ([]models.Comment, error) {
	cursor, err := c.db.Collection(commentCollectionName).Find(ctx, filter.BSON())
	if err != nil {
		return nil, err
	}
	comments := []models.Comment{}
	if err := cursor.Decode(&comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (c *commentDatabase) InsertOne(ctx context.Context, comment models.Comment) error {
	_, err := c.db.Collection(commentCollectionName).InsertOne(ctx, comment)
	return err
}

func (c *commentDatabase) DeleteMany(ctx context.Context, filter CommentFilter) (int64, error) {
	return c.db.Collection(commentCollectionName).DeleteMany(ctx, filter.BSON())
}

func (c *commentDatabase) AddToSet(ctx context.Context, id string, field SetField, value string) (bool, error) {
	return addToSet(ctx, c.db.Collection(commentCollectionName), id, field, value)
}

func (c *commentDatabase) PullFromSet(ctx context.Context, id string, field SetField, value string) (bool, error) {
	return pullFromSet(ctx, c.db.Collection(commentCollectionName), id, field, value)
}
