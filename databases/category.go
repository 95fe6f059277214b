package databases

// go generate: mockery --name CategoryDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/linesmerrill/forum-api/models"
)

const categoryCollectionName = "categories"

// CategoryDatabase contains the methods to use with the category database
type CategoryDatabase interface {
	FindOne(ctx context.Context, id string) (*models.Category, error)
	InsertOne(ctx context.Context, category models.Category) error
	DeleteOne(ctx context.Context, id string) (int64, error)
}

type categoryDatabase struct {
	db DatabaseHelper
}

// NewCategoryDatabase initializes a new instance of category database with the provided db connection
func NewCategoryDatabase(db DatabaseHelper) CategoryDatabase {
	return &categoryDatabase{
		db: db,
	}
}

func (c *categoryDatabase) FindOne(ctx context.Context, id string) (*models.Category, error) {
	category := &models.Category{}
	err := c.db.Collection(categoryCollectionName).FindOne(ctx, bson.M{"_id": id}).Decode(&category)
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (c *categoryDatabase) InsertOne(ctx context.Context, category models.Category) error {
	_, err := c.db.Collection(categoryCollectionName).InsertOne(ctx, category)
	return err
}

func (c *categoryDatabase) DeleteOne(ctx context.Context, id string) (int64, error) {
	return c.db.Collection(categoryCollectionName).DeleteOne(ctx, bson.M{"_id": id})
}
