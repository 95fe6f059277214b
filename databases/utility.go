package databases

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Pagination selects a page of results. A zero Limit means no paging.
type Pagination struct {
	Page  int
	Limit int
}

// NewPagination clamps page and limit to sane values
func NewPagination(page, limit int) Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return Pagination{Page: page, Limit: limit}
}

// Skip returns the number of documents before the page
func (p Pagination) Skip() int {
	if p.Limit == 0 || p.Page < 1 {
		return 0
	}
	return p.Page*p.Limit - p.Limit
}

func (p Pagination) findOptions(sort bson.D) *options.FindOptions {
	fOpt := options.Find()
	if len(sort) > 0 {
		fOpt.SetSort(sort)
	}
	if p.Limit > 0 {
		fOpt.SetLimit(int64(p.Limit)).SetSkip(int64(p.Skip()))
	}
	return fOpt
}
