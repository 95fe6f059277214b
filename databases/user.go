package databases

// go generate: mockery --name UserDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/forum-api/models"
)

const userName = "users"

// UserDatabase contains the methods to use with the user database
type UserDatabase interface {
	FindOne(ctx context.Context, id string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)
	FindAllIDs(ctx context.Context, excludeID string) ([]string, error)
	InsertOne(ctx context.Context, user models.User) error
	UpdateProfile(ctx context.Context, id string, fields bson.M) (*models.User, error)
	DeleteOne(ctx context.Context, id string) (int64, error)
	AddToSet(ctx context.Context, id string, field SetField, value string) (bool, error)
	PullFromSet(ctx context.Context, id string, field SetField, value string) (bool, error)
	PullFromAll(ctx context.Context, field SetField, value string) (int64, error)
}

type userDatabase struct {
	db DatabaseHelper
}

// NewUserDatabase initializes a new instance of user database with the provided db connection
func NewUserDatabase(db DatabaseHelper) UserDatabase {
	return &userDatabase{
		db: db,
	}
}

func (u *userDatabase) FindOne(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{}
	err := u.db.Collection(userName).FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (u *userDatabase) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	cursor, err := u.db.Collection(userName).Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	users := []models.User{}
	if err := cursor.Decode(&users); err != nil {
		return nil, err
	}
	return users, nil
}

// FindAllIDs returns the id of every user except excludeID
func (u *userDatabase) FindAllIDs(ctx context.Context, excludeID string) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := u.db.Collection(userName).Find(ctx, bson.M{"_id": bson.M{"$ne": excludeID}}, opts)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.Decode(&rows); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

func (u *userDatabase) InsertOne(ctx context.Context, user models.User) error {
	_, err := u.db.Collection(userName).InsertOne(ctx, user)
	return err
}

// UpdateProfile sets the given fields and returns the updated user
func (u *userDatabase) UpdateProfile(ctx context.Context, id string, fields bson.M) (*models.User, error) {
	set := bson.M{"updatedAt": time.Now()}
	for k, v := range fields {
		set[k] = v
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	user := &models.User{}
	err := u.db.Collection(userName).FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&user)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (u *userDatabase) DeleteOne(ctx context.Context, id string) (int64, error) {
	return u.db.Collection(userName).DeleteOne(ctx, bson.M{"_id": id})
}

func (u *userDatabase) AddToSet(ctx context.Context, id string, field SetField, value string) (bool, error) {
	return addToSet(ctx, u.db.Collection(userName), id, field, value)
}

func (u *userDatabase) PullFromSet(ctx context.Context, id string, field SetField, value string) (bool, error) {
	return pullFromSet(ctx, u.db.Collection(userName), id, field, value)
}

func (u *userDatabase) PullFromAll(ctx context.Context, field SetField, value string) (int64, error) {
	return pullFromAll(ctx, u.db.Collection(userName), field, value)
}
