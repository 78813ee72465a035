package domain

import (
	"context"
	"database/sql"
	"errors"

	"github.com/BillixOfficial/rewards-backend/internal/common"
	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/internal/model"
	"github.com/BillixOfficial/rewards-backend/internal/repository"
	"github.com/BillixOfficial/rewards-backend/pkg/errorx"
	"github.com/BillixOfficial/rewards-backend/pkg/storage"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"
	"gorm.io/gorm"
)

type UserDomain interface {
	GetMe(context.Context, *model.GetMeRequest) (*model.GetMeResponse, error)
	Update(context.Context, *model.UpdateUserRequest) (*model.UpdateUserResponse, error)
	UploadAvatar(context.Context, *model.UploadAvatarRequest) (*model.UploadAvatarResponse, error)
}

type userDomain struct {
	userRepo          repository.UserRepository
	oauth2Repo        repository.OAuth2Repository
	rewardProfileRepo repository.RewardProfileRepository
	storage           storage.Storage
}

func NewUserDomain(
	userRepo repository.UserRepository,
	oauth2Repo repository.OAuth2Repository,
	rewardProfileRepo repository.RewardProfileRepository,
	storage storage.Storage,
) UserDomain {
	return &userDomain{
		userRepo:          userRepo,
		oauth2Repo:        oauth2Repo,
		rewardProfileRepo: rewardProfileRepo,
		storage:           storage,
	}
}

func (d *userDomain) GetMe(
	ctx context.Context, req *model.GetMeRequest,
) (*model.GetMeResponse, error) {
	userID := xcontext.RequestUserID(ctx)
	user, err := d.userRepo.GetByID(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, errorx.Unknown
	}

	serviceUsers, err := d.oauth2Repo.GetAllByUserID(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get service users: %v", err)
		return nil, errorx.Unknown
	}

	profile, err := d.rewardProfileRepo.Get(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get reward profile: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GetMeResponse{
		User:          model.ConvertUser(user, serviceUsers, true),
		RewardProfile: model.ConvertRewardProfile(profile),
	}, nil
}

func (d *userDomain) Update(
	ctx context.Context, req *model.UpdateUserRequest,
) (*model.UpdateUserResponse, error) {
	if req.Name == "" && req.Email == "" {
		return nil, errorx.New(errorx.BadRequest, "Provide at least one field to update")
	}

	update := entity.User{}
	if req.Name != "" {
		if err := checkUsername(ctx, req.Name); err != nil {
			return nil, err
		}

		_, err := d.userRepo.GetByName(ctx, req.Name)
		if err == nil {
			return nil, errorx.New(errorx.AlreadyExists, "This username is already taken")
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot check username uniqueness: %v", err)
			return nil, errorx.Unknown
		}

		update.Name = req.Name
	}

	if req.Email != "" {
		if !common.IsValidEmail(req.Email) {
			return nil, errorx.New(errorx.BadRequest, "Got an invalid email address")
		}

		update.Email = sql.NullString{Valid: true, String: req.Email}
	}

	err := d.userRepo.UpdateByID(ctx, xcontext.RequestUserID(ctx), &update)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update user: %v", err)
		return nil, errorx.Unknown
	}

	return &model.UpdateUserResponse{}, nil
}

func (d *userDomain) UploadAvatar(
	ctx context.Context, req *model.UploadAvatarRequest,
) (*model.UploadAvatarResponse, error) {
	uresps, err := common.ProcessImage(ctx, d.storage, "image")
	if err != nil {
		return nil, err
	}

	// ProcessImage keeps the order of AvatarSizes.
	pictures := entity.Map{}
	urls := map[string]string{}
	for i, uresp := range uresps {
		pictures[common.AvatarSizes[i].String()] = uresp.Url
		urls[common.AvatarSizes[i].String()] = uresp.Url
	}

	user := entity.User{ProfilePictures: pictures}
	err = d.userRepo.UpdateByID(ctx, xcontext.RequestUserID(ctx), &user)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update user avatar: %v", err)
		return nil, errorx.Unknown
	}

	return &model.UploadAvatarResponse{AvatarURLs: urls}, nil
}
