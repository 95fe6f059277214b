package databases_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/forum-api/databases"
	"github.com/linesmerrill/forum-api/databases/mocks"
)

func TestForumDatabase_AddToSetReportsChange(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.On("UpdateOne", context.Background(),
		bson.M{"_id": "f1", "likeUserIds": bson.M{"$ne": "alice"}}, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil).Once()
	collectionHelper.On("UpdateOne", context.Background(),
		bson.M{"_id": "f1", "likeUserIds": bson.M{"$ne": "alice"}}, mock.Anything).
		Return(&mongo.UpdateResult{}, nil).Once()
	dbHelper.On("Collection", "forums").Return(collectionHelper)

	forumDba := databases.NewForumDatabase(dbHelper)

	changed, err := forumDba.AddToSet(context.Background(), "f1", databases.LikeUserIDs, "alice")
	assert.NoError(t, err)
	assert.True(t, changed)

	changed, err = forumDba.AddToSet(context.Background(), "f1", databases.LikeUserIDs, "alice")
	assert.NoError(t, err)
	assert.False(t, changed)
}

func TestForumDatabase_PullFromAll(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.On("UpdateMany", context.Background(),
		bson.M{"favoriteUserIds": "alice"}, bson.M{"$pull": bson.M{"favoriteUserIds": "alice"}}).
		Return(&mongo.UpdateResult{MatchedCount: 4, ModifiedCount: 4}, nil)
	dbHelper.On("Collection", "forums").Return(collectionHelper)

	forumDba := databases.NewForumDatabase(dbHelper)
	n, err := forumDba.PullFromAll(context.Background(), databases.FavoriteUserIDs, "alice")

	assert.NoError(t, err)
	assert.Equal(t, int64(4), n)
}
