package repository

import (
	"context"
	"time"

	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/pkg/numberutil"
	"github.com/BillixOfficial/rewards-backend/pkg/reflectutil"

	"github.com/scylladb/gocqlx/v2"
	"github.com/scylladb/gocqlx/v2/qb"
	"github.com/scylladb/gocqlx/v2/table"
)

type PointActivityRepository interface {
	Create(ctx context.Context, data *entity.PointActivity) error
	Get(ctx context.Context, userID string, id int64) (*entity.PointActivity, error)
	GetList(ctx context.Context, userID string, lastID int64, limit int, oldest time.Time) ([]entity.PointActivity, error)
}

type pointActivityRepository struct {
	session gocqlx.Session
	tbl     *table.Table
}

func NewPointActivityRepository(session gocqlx.Session) PointActivityRepository {
	e := &entity.PointActivity{}
	m := table.Metadata{
		Name:    e.TableName(),
		Columns: reflectutil.GetColumnNames(e),
		PartKey: []string{"user_id", "bucket"},
		SortKey: []string{"id"},
	}

	return &pointActivityRepository{
		session: session,
		tbl:     table.New(m),
	}
}

func (r *pointActivityRepository) Create(ctx context.Context, data *entity.PointActivity) error {
	stmt, names := r.tbl.Insert()
	err := gocqlx.Session.Query(r.session, stmt, names).BindStruct(data).ExecRelease()
	if err != nil {
		return err
	}

	return nil
}

func (r *pointActivityRepository) Get(ctx context.Context, userID string, id int64) (*entity.PointActivity, error) {
	bucket := numberutil.CreateBucket(id)
	var result entity.PointActivity
	stmt, names := r.tbl.Get()
	err := gocqlx.Session.
		Query(r.session, stmt, names).
		Bind(userID, bucket, id).
		GetRelease(&result)
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// GetList pages the feed newest first. It walks partitions backward starting
// at the bucket of lastID (the bucket of now when lastID is zero) and stops at
// the bucket containing oldest, so the number of touched partitions stays
// bounded by the retention window the caller picks.
func (r *pointActivityRepository) GetList(
	ctx context.Context, userID string, lastID int64, limit int, oldest time.Time,
) ([]entity.PointActivity, error) {
	result := []entity.PointActivity{}
	for _, bucket := range numberutil.BucketsBetween(numberutil.CreateBucket(lastID), oldest) {
		remaining := limit - len(result)
		if remaining <= 0 {
			break
		}

		cmps := []qb.Cmp{qb.Eq("user_id"), qb.Eq("bucket")}
		binds := map[string]any{"user_id": userID, "bucket": bucket}
		if lastID != 0 {
			cmps = append(cmps, qb.Lt("id"))
			binds["id"] = lastID
		}

		stmt, names := qb.Select(r.tbl.Name()).
			Columns(r.tbl.Metadata().Columns...).
			Where(cmps...).
			Limit(uint(remaining)).
			ToCql()

		var page []entity.PointActivity
		err := gocqlx.Session.Query(r.session, stmt, names).BindMap(binds).SelectRelease(&page)
		if err != nil {
			return nil, err
		}

		result = append(result, page...)
	}

	return result, nil
}
