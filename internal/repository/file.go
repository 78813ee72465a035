package repository

import (
	"context"

	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"
)

type FileRepository interface {
	Create(context.Context, *entity.File) error
	BulkInsert(context.Context, []*entity.File) error
	GetByID(context.Context, string) (*entity.File, error)
}

type fileRepository struct {
}

func NewFileRepository() FileRepository {
	return &fileRepository{}
}

func (r *fileRepository) Create(ctx context.Context, e *entity.File) error {
	if err := xcontext.DB(ctx).Create(e).Error; err != nil {
		return err
	}
	return nil
}

func (r *fileRepository) BulkInsert(ctx context.Context, es []*entity.File) error {
	if err := xcontext.DB(ctx).Create(es).Error; err != nil {
		return err
	}
	return nil
}

func (r *fileRepository) GetByID(ctx context.Context, id string) (*entity.File, error) {
	result := entity.File{}
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}
