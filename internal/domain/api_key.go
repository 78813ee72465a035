package domain

import (
	"context"
	"errors"

	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/internal/model"
	"github.com/BillixOfficial/rewards-backend/internal/repository"
	"github.com/BillixOfficial/rewards-backend/pkg/crypto"
	"github.com/BillixOfficial/rewards-backend/pkg/errorx"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"
	"gorm.io/gorm"
)

type APIKeyDomain interface {
	Generate(context.Context, *model.GenerateAPIKeyRequest) (*model.GenerateAPIKeyResponse, error)
	Regenerate(context.Context, *model.RegenerateAPIKeyRequest) (*model.RegenerateAPIKeyResponse, error)
	Revoke(context.Context, *model.RevokeAPIKeyRequest) (*model.RevokeAPIKeyResponse, error)
}

type apiKeyDomain struct {
	apiKeyRepo repository.APIKeyRepository
	userRepo   repository.UserRepository
}

func NewAPIKeyDomain(
	apiKeyRepo repository.APIKeyRepository,
	userRepo repository.UserRepository,
) *apiKeyDomain {
	return &apiKeyDomain{
		apiKeyRepo: apiKeyRepo,
		userRepo:   userRepo,
	}
}

// Generate issues an api key for a partner service account. Only the plain
// key goes back to the caller, the database keeps its hash.
func (d *apiKeyDomain) Generate(
	ctx context.Context, req *model.GenerateAPIKeyRequest,
) (*model.GenerateAPIKeyResponse, error) {
	userID, err := d.resolveOwner(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	key, err := crypto.GenerateRandomString()
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot generate api key: %v", err)
		return nil, errorx.Unknown
	}

	err = d.apiKeyRepo.Create(ctx, &entity.APIKey{
		UserID: userID,
		Key:    crypto.SHA256([]byte(key)),
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot save api key: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GenerateAPIKeyResponse{Key: key}, nil
}

func (d *apiKeyDomain) Regenerate(
	ctx context.Context, req *model.RegenerateAPIKeyRequest,
) (*model.RegenerateAPIKeyResponse, error) {
	userID, err := d.resolveOwner(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	key, err := crypto.GenerateRandomString()
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot generate api key: %v", err)
		return nil, errorx.Unknown
	}

	err = d.apiKeyRepo.Regenerate(ctx, userID, crypto.SHA256([]byte(key)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found any api key of this owner")
		}

		xcontext.Logger(ctx).Errorf("Cannot save api key: %v", err)
		return nil, errorx.Unknown
	}

	return &model.RegenerateAPIKeyResponse{Key: key}, nil
}

func (d *apiKeyDomain) Revoke(
	ctx context.Context, req *model.RevokeAPIKeyRequest,
) (*model.RevokeAPIKeyResponse, error) {
	userID, err := d.resolveOwner(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	if err := d.apiKeyRepo.DeleteByUserID(ctx, userID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot delete api key: %v", err)
		return nil, errorx.Unknown
	}

	return &model.RevokeAPIKeyResponse{}, nil
}

func (d *apiKeyDomain) resolveOwner(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		userID = xcontext.RequestUserID(ctx)
	}

	_, err := d.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", errorx.New(errorx.NotFound, "Not found key owner")
		}

		xcontext.Logger(ctx).Errorf("Cannot get key owner: %v", err)
		return "", errorx.Unknown
	}

	return userID, nil
}
