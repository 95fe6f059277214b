package databases

// go generate: mockery --name AnnouncementDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/linesmerrill/forum-api/models"
)

const announcementCollectionName = "announcements"

// AnnouncementDatabase contains the methods to use with the announcement database
type AnnouncementDatabase interface {
	FindOne(ctx context.Context, id string) (*models.Announcement, error)
	FindByAuthor(ctx context.Context, authorUserID string) ([]models.Announcement, error)
	InsertOne(ctx context.Context, announcement models.Announcement) error
	DeleteOne(ctx context.Context, id string) (int64, error)
}

type announcementDatabase struct {
	db DatabaseHelper
}

// NewAnnouncementDatabase initializes a new instance of announcement database with the provided db connection
func NewAnnouncementDatabase(db DatabaseHelper) AnnouncementDatabase {
	return &announcementDatabase{
		db: db,
	}
}

func (a *announcementDatabase) FindOne(ctx context.Context, id string) (*models.Announcement, error) {
	announcement := &models.Announcement{}
	err := a.db.Collection(announcementCollectionName).FindOne(ctx, bson.M{"_id": id}).Decode(&announcement)
	if err != nil {
		return nil, err
	}
	return announcement, nil
}

func (a *announcementDatabase) FindByAuthor(ctx context.Context, authorUserID string) ([]models.Announcement, error) {
	cursor, err := a.db.Collection(announcementCollectionName).Find(ctx, bson.M{"authorUserId": authorUserID})
	if err != nil {
		return nil, err
	}
	announcements := []models.Announcement{}
	if err := cursor.Decode(&announcements); err != nil {
		return nil, err
	}
	return announcements, nil
}

func (a *announcementDatabase) InsertOne(ctx context.Context, announcement models.Announcement) error {
	_, err := a.db.Collection(announcementCollectionName).InsertOne(ctx, announcement)
	return err
}

func (a *announcementDatabase) DeleteOne(ctx context.Context, id string) (int64, error) {
	return a.db.Collection(announcementCollectionName).DeleteOne(ctx, bson.M{"_id": id})
}
