package databases

// go generate: mockery --name ReportDatabase

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/forum-api/models"
)

const reportName = "reports"

// ReportDatabase contains the methods to use with the report database
type ReportDatabase interface {
	FindOne(ctx context.Context, filter ReportFilter) (*models.Report, error)
	Find(ctx context.Context, filter ReportFilter, page Pagination) ([]models.Report, error)
	CountDocuments(ctx context.Context, filter ReportFilter) (int64, error)
	LastCode(ctx context.Context, prefix string) (string, error)
	InsertOne(ctx context.Context, report models.Report) error
	UpdateStatus(ctx context.Context, filter ReportFilter, status models.ReportStatus) (int64, error)
	DeleteMany(ctx context.Context, filter ReportFilter) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type reportDatabase struct {
	db DatabaseHelper
}

// NewReportDatabase initializes a new instance of report database with the provided db connection
func NewReportDatabase(db DatabaseHelper) ReportDatabase {
	return &reportDatabase{
		db: db,
	}
}

func (c *reportDatabase) FindOne(ctx context.Context, filter ReportFilter) (*models.Report, error) {
	report := &models.Report{}
	err := c.db.Collection(reportName).FindOne(ctx, filter.BSON()).Decode(&report)
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (c *reportDatabase) Find(ctx context.Context, filter ReportFilter, page Pagination) ([]models.Report, error) {
	cursor, err := c.db.Collection(reportName).Find(ctx, filter.BSON(), page.findOptions(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	reports := []models.Report{}
	if err := cursor.Decode(&reports); err != nil {
		return nil, err
	}
	return reports, nil
}

func (c *reportDatabase) CountDocuments(ctx context.Context, filter ReportFilter) (int64, error) {
	return c.db.Collection(reportName).CountDocuments(ctx, filter.BSON())
}

// LastCode returns the highest report code starting with prefix, or an empty
// string when no report carries the prefix
func (c *reportDatabase) LastCode(ctx context.Context, prefix string) (string, error) {
	report := &models.Report{}
	opts := options.FindOne().
		SetSort(bson.D{{Key: "reportCode", Value: -1}}).
		SetProjection(bson.M{"reportCode": 1})
	err := c.db.Collection(reportName).FindOne(ctx, ReportsByCodePrefix{Prefix: prefix}.BSON(), opts).Decode(&report)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return report.ReportCode, nil
}

func (c *reportDatabase) InsertOne(ctx context.Context, report models.Report) error {
	_, err := c.db.Collection(reportName).InsertOne(ctx, report)
	return err
}

// UpdateStatus moves every matching report to status and returns how many changed
func (c *reportDatabase) UpdateStatus(ctx context.Context, filter ReportFilter, status models.ReportStatus) (int64, error) {
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}}
	res, err := c.db.Collection(reportName).UpdateMany(ctx, filter.BSON(), update)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (c *reportDatabase) DeleteMany(ctx context.Context, filter ReportFilter) (int64, error) {
	return c.db.Collection(reportName).DeleteMany(ctx, filter.BSON())
}

// EnsureIndexes makes report codes unique so concurrent creations retry instead
// of sharing a code
func (c *reportDatabase) EnsureIndexes(ctx context.Context) error {
	_, err := c.db.Collection(reportName).CreateIndex(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "reportCode", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = c.db.Collection(reportName).CreateIndex(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "forumId", Value: 1}, {Key: "status", Value: 1}},
	})
	return err
}
