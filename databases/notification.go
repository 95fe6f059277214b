package databases

// go generate: mockery --name NotificationDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/forum-api/models"
)

const notificationCollectionName = "notifications"

// NotificationDuplicate is a group of notification records sharing one
// aggregation key, oldest first
type NotificationDuplicate struct {
	RecipientUserID string   `bson:"recipientUserId"`
	IDs             []string `bson:"ids"`
	ActorUserIDs    []string `bson:"actorUserIds"`
}

// NotificationDatabase contains the methods to use with the notification database
type NotificationDatabase interface {
	FindOne(ctx context.Context, filter NotificationFilter) (*models.Notification, error)
	Find(ctx context.Context, filter NotificationFilter, page Pagination) ([]models.Notification, error)
	CountDocuments(ctx context.Context, filter NotificationFilter) (int64, error)
	InsertOne(ctx context.Context, notification models.Notification) error
	AddActors(ctx context.Context, id string, actorUserIDs ...string) (*models.Notification, error)
	RemoveActor(ctx context.Context, id string, actorUserID string) (*models.Notification, error)
	MarkRead(ctx context.Context, filter NotificationFilter) (int64, error)
	DeleteOne(ctx context.Context, filter NotificationFilter) (int64, error)
	DeleteMany(ctx context.Context, filter NotificationFilter) (int64, error)
	FindDuplicates(ctx context.Context) ([]NotificationDuplicate, error)
	EnsureIndexes(ctx context.Context) error
}

type notificationDatabase struct {
	db DatabaseHelper
}

// NewNotificationDatabase initializes a new instance of notification database with the provided db connection
func NewNotificationDatabase(db DatabaseHelper) NotificationDatabase {
	return &notificationDatabase{
		db: db,
	}
}

func (n *notificationDatabase) FindOne(ctx context.Context, filter NotificationFilter) (*models.Notification, error) {
	notification := &models.Notification{}
	err := n.db.Collection(notificationCollectionName).FindOne(ctx, filter.BSON()).Decode(&notification)
	if err != nil {
		return nil, err
	}
	return notification, nil
}

func (n *notificationDatabase) Find(ctx context.Context, filter NotificationFilter, page Pagination) ([]models.Notification, error) {
	opts := page.findOptions(bson.D{{Key: "updatedAt", Value: -1}})
	cursor, err := n.db.Collection(notificationCollectionName).Find(ctx, filter.BSON(), opts)
	if err != nil {
		return nil, err
	}
	notifications := []models.Notification{}
	if err := cursor.Decode(&notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (n *notificationDatabase) CountDocuments(ctx context.Context, filter NotificationFilter) (int64, error) {
	return n.db.Collection(notificationCollectionName).CountDocuments(ctx, filter.BSON())
}

func (n *notificationDatabase) InsertOne(ctx context.Context, notification models.Notification) error {
	if notification.ActorUserIDs == nil {
		notification.ActorUserIDs = []string{}
	}
	if notification.ReadUserIDs == nil {
		notification.ReadUserIDs = []string{}
	}
	_, err := n.db.Collection(notificationCollectionName).InsertOne(ctx, notification)
	return err
}

// AddActors adds actors to the set and returns the updated record
func (n *notificationDatabase) AddActors(ctx context.Context, id string, actorUserIDs ...string) (*models.Notification, error) {
	update := bson.M{
		"$addToSet": bson.M{"actorUserIds": bson.M{"$each": actorUserIDs}},
		"$set":      bson.M{"updatedAt": time.Now()},
	}
	return n.findOneAndUpdate(ctx, id, update)
}

// RemoveActor pulls the actor out of both the actor and the read sets and
// returns the updated record
func (n *notificationDatabase) RemoveActor(ctx context.Context, id string, actorUserID string) (*models.Notification, error) {
	update := bson.M{
		"$pull": bson.M{"actorUserIds": actorUserID, "readUserIds": actorUserID},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	return n.findOneAndUpdate(ctx, id, update)
}

func (n *notificationDatabase) findOneAndUpdate(ctx context.Context, id string, update bson.M) (*models.Notification, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	notification := &models.Notification{}
	err := n.db.Collection(notificationCollectionName).FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&notification)
	if err != nil {
		return nil, err
	}
	return notification, nil
}

// MarkRead copies the actor set into the read set of every matching record
func (n *notificationDatabase) MarkRead(ctx context.Context, filter NotificationFilter) (int64, error) {
	update := mongo.Pipeline{{{Key: "$set", Value: bson.M{"readUserIds": "$actorUserIds"}}}}
	res, err := n.db.Collection(notificationCollectionName).UpdateMany(ctx, filter.BSON(), update)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (n *notificationDatabase) DeleteOne(ctx context.Context, filter NotificationFilter) (int64, error) {
	return n.db.Collection(notificationCollectionName).DeleteOne(ctx, filter.BSON())
}

func (n *notificationDatabase) DeleteMany(ctx context.Context, filter NotificationFilter) (int64, error) {
	return n.db.Collection(notificationCollectionName).DeleteMany(ctx, filter.BSON())
}

// FindDuplicates groups records by their aggregation key and returns the
// groups holding more than one record
func (n *notificationDatabase) FindDuplicates(ctx context.Context) ([]NotificationDuplicate, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.M{"createdAt": 1}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"recipientUserId": "$recipientUserId",
				"actionKind":      "$actionKind",
				"forumId":         "$forumId",
				"commentId":       "$commentId",
				"replyCommentId":  "$replyCommentId",
				"announcementId":  "$announcementId",
				"followerUserId":  "$followerUserId",
			},
			"recipientUserId": bson.M{"$first": "$recipientUserId"},
			"ids":             bson.M{"$push": "$_id"},
			"actorSets":       bson.M{"$push": "$actorUserIds"},
			"count":           bson.M{"$sum": 1},
		}}},
		{{Key: "$match", Value: bson.M{"count": bson.M{"$gt": 1}}}},
		{{Key: "$project", Value: bson.M{
			"recipientUserId": 1,
			"ids":             1,
			"actorUserIds": bson.M{"$reduce": bson.M{
				"input":        "$actorSets",
				"initialValue": bson.A{},
				"in":           bson.M{"$setUnion": bson.A{"$$value", "$$this"}},
			}},
		}}},
	}
	cursor, err := n.db.Collection(notificationCollectionName).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	duplicates := []NotificationDuplicate{}
	if err := cursor.Decode(&duplicates); err != nil {
		return nil, err
	}
	return duplicates, nil
}

func (n *notificationDatabase) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "recipientUserId", Value: 1}, {Key: "updatedAt", Value: -1}}},
		{Keys: bson.D{{Key: "forumId", Value: 1}}},
		{Keys: bson.D{{Key: "commentId", Value: 1}}},
	}
	for _, m := range indexes {
		if _, err := n.db.Collection(notificationCollectionName).CreateIndex(ctx, m); err != nil {
			return err
		}
	}
	return nil
}
