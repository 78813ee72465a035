package domain

import (
	"context"

	"github.com/BillixOfficial/rewards-backend/internal/common"
	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/internal/model"
	"github.com/BillixOfficial/rewards-backend/internal/repository"
	"github.com/BillixOfficial/rewards-backend/pkg/errorx"
	"github.com/BillixOfficial/rewards-backend/pkg/storage"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"
	"github.com/google/uuid"
)

type FileDomain interface {
	UploadImage(context.Context, *model.UploadImageRequest) (*model.UploadImageResponse, error)
}

type fileDomain struct {
	fileRepo repository.FileRepository
	storage  storage.Storage
}

func NewFileDomain(fileRepo repository.FileRepository, storage storage.Storage) FileDomain {
	return &fileDomain{
		fileRepo: fileRepo,
		storage:  storage,
	}
}

// UploadImage stores an original-size image, used by admins for catalog
// artwork. Avatars go through the user domain instead.
func (d *fileDomain) UploadImage(
	ctx context.Context, req *model.UploadImageRequest,
) (*model.UploadImageResponse, error) {
	uresps, err := common.ProcessImage(ctx, d.storage, "image")
	if err != nil {
		return nil, err
	}

	// The largest size is the first one.
	uresp := uresps[0]
	err = d.fileRepo.Create(ctx, &entity.File{
		Base:      entity.Base{ID: uuid.NewString()},
		Mime:      "image",
		Name:      uresp.FileName,
		Url:       uresp.Url,
		CreatedBy: xcontext.RequestUserID(ctx),
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot save file record: %v", err)
		return nil, errorx.Unknown
	}

	return &model.UploadImageResponse{URL: uresp.Url}, nil
}
