package databases

// go generate: mockery --name ForumDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/linesmerrill/forum-api/models"
)

const forumCollectionName = "forums"

// ForumDatabase contains the methods to use with the forum database
type ForumDatabase interface {
	FindOne(ctx context.Context, id string) (*models.Forum, error)
	Find(ctx context.Context, filter ForumFilter) ([]models.Forum, error)
	InsertOne(ctx context.Context, forum models.Forum) error
	DeleteOne(ctx context.Context, id string) (int64, error)
	AddToSet(ctx context.Context, id string, field SetField, value string) (bool, error)
	PullFromSet(ctx context.Context, id string, field SetField, value string) (bool, error)
	PullFromAll(ctx context.Context, field SetField, value string) (int64, error)
}

type forumDatabase struct {
	db DatabaseHelper
}

// NewForumDatabase initializes a new instance of forum database with the provided db connection
func NewForumDatabase(db DatabaseHelper) ForumDatabase {
	return &forumDatabase{
		db: db,
	}
}

func (f *forumDatabase) FindOne(ctx context.Context, id string) (*models.Forum, error) {
	forum := &models.Forum{}
	err := f.db.Collection(forumCollectionName).FindOne(ctx, bson.M{"_id": id}).Decode(&forum)
	if err != nil {
		return nil, err
	}
	return forum, nil
}

func (f *forumDatabase) Find(ctx context.Context, filter ForumFilter) ([]models.Forum, error) {
	cursor, err := f.db.Collection(forumCollectionName).Find(ctx, filter.BSON())
	if err != nil {
		return nil, err
	}
	forums := []models.Forum{}
	if err := cursor.Decode(&forums); err != nil {
		return nil, err
	}
	return forums, nil
}

func (f *forumDatabase) InsertOne(ctx context.Context, forum models.Forum) error {
	_, err := f.db.Collection(forumCollectionName).InsertOne(ctx, forum)
	return err
}

func (f *forumDatabase) DeleteOne(ctx context.Context, id string) (int64, error) {
	return f.db.Collection(forumCollectionName).DeleteOne(ctx, bson.M{"_id": id})
}

func (f *forumDatabase) AddToSet(ctx context.Context, id string, field SetField, value string) (bool, error) {
	return addToSet(ctx, f.db.Collection(forumCollectionName), id, field, value)
}

func (f *forumDatabase) PullFromSet(ctx context.Context, id string, field SetField, value string) (bool, error) {
	return pullFromSet(ctx, f.db.Collection(forumCollectionName), id, field, value)
}

func (f *forumDatabase) PullFromAll(ctx context.Context, field SetField, value string) (int64, error) {
	return pullFromAll(ctx, f.db.Collection(forumCollectionName), field, value)
}
