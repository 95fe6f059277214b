package databases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/forum-api/databases"
	"github.com/linesmerrill/forum-api/databases/mocks"
	"github.com/linesmerrill/forum-api/models"
)

func TestReportDatabase_UpdateStatus(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	filter := databases.ReportsPendingByForum{ForumID: "f1"}
	collectionHelper.On("UpdateMany", context.Background(), filter.BSON(), mock.MatchedBy(func(update bson.M) bool {
		set, ok := update["$set"].(bson.M)
		return ok && set["status"] == models.ReportInvalid
	})).Return(&mongo.UpdateResult{MatchedCount: 2, ModifiedCount: 2}, nil)
	dbHelper.On("Collection", "reports").Return(collectionHelper)

	reportDba := databases.NewReportDatabase(dbHelper)
	n, err := reportDba.UpdateStatus(context.Background(), filter, models.ReportInvalid)

	assert.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestReportDatabase_UpdateStatusError(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.On("UpdateMany", context.Background(), mock.Anything, mock.Anything).Return(nil, errors.New("mocked-error"))
	dbHelper.On("Collection", "reports").Return(collectionHelper)

	reportDba := databases.NewReportDatabase(dbHelper)
	_, err := reportDba.UpdateStatus(context.Background(), databases.ReportByID{ID: "r1"}, models.ReportResolved)

	assert.EqualError(t, err, "mocked-error")
}

func TestReportDatabase_CountDocuments(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.On("CountDocuments", context.Background(), bson.M{"reportCode": bson.M{"$regex": "^RP-20261015"}}).Return(int64(4), nil)
	dbHelper.On("Collection", "reports").Return(collectionHelper)

	reportDba := databases.NewReportDatabase(dbHelper)
	n, err := reportDba.CountDocuments(context.Background(), databases.ReportsByCodePrefix{Prefix: "RP-20261015"})

	assert.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestReportDatabase_EnsureIndexes(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.On("CreateIndex", context.Background(), mock.MatchedBy(func(m mongo.IndexModel) bool {
		return m.Options != nil && m.Options.Unique != nil && *m.Options.Unique
	})).Return("reportCode_1", nil).Once()
	collectionHelper.On("CreateIndex", context.Background(), mock.Anything).Return("forumId_1_status_1", nil).Once()
	dbHelper.On("Collection", "reports").Return(collectionHelper)

	reportDba := databases.NewReportDatabase(dbHelper)

	assert.NoError(t, reportDba.EnsureIndexes(context.Background()))
	collectionHelper.AssertNumberOfCalls(t, "CreateIndex", 2)
}

func TestReportDatabase_LastCode(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	srHelperCorrect := &mocks.SingleResultHelper{}
	srHelperEmpty := &mocks.SingleResultHelper{}

	srHelperCorrect.On("Decode", mock.AnythingOfType("**models.Report")).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Report)
		(*arg).ReportCode = "RP-2026101500010"
	})
	srHelperEmpty.On("Decode", mock.AnythingOfType("**models.Report")).Return(mongo.ErrNoDocuments)
	highestFirst := mock.MatchedBy(func(opts *options.FindOneOptions) bool {
		sort, ok := opts.Sort.(bson.D)
		return ok && len(sort) == 1 && sort[0].Key == "reportCode" && sort[0].Value == -1
	})
	collectionHelper.On("FindOne", context.Background(), bson.M{"reportCode": bson.M{"$regex": "^RP-20261015"}}, highestFirst).Return(srHelperCorrect)
	collectionHelper.On("FindOne", context.Background(), bson.M{"reportCode": bson.M{"$regex": "^RP-20261016"}}, highestFirst).Return(srHelperEmpty)
	dbHelper.On("Collection", "reports").Return(collectionHelper)

	reportDba := databases.NewReportDatabase(dbHelper)

	code, err := reportDba.LastCode(context.Background(), "RP-20261015")
	assert.NoError(t, err)
	assert.Equal(t, "RP-2026101500010", code)

	code, err = reportDba.LastCode(context.Background(), "RP-20261016")
	assert.NoError(t, err)
	assert.Equal(t, "", code)
}
