package domain

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/internal/model"
	"github.com/BillixOfficial/rewards-backend/internal/repository"
	"github.com/BillixOfficial/rewards-backend/pkg/authenticator"
	"github.com/BillixOfficial/rewards-backend/pkg/crypto"
	"github.com/BillixOfficial/rewards-backend/pkg/errorx"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuthDomain interface {
	OAuth2Login(context.Context, *model.OAuth2LoginRequest) (*model.OAuth2LoginResponse, error)
	OAuth2Callback(context.Context, *model.OAuth2CallbackRequest) (*model.OAuth2CallbackResponse, error)
	OAuth2Verify(context.Context, *model.OAuth2VerifyRequest) (*model.OAuth2VerifyResponse, error)
	Refresh(context.Context, *model.RefreshTokenRequest) (*model.RefreshTokenResponse, error)
}

type authDomain struct {
	hasSuperAdmin      bool
	hasSuperAdminMutex sync.Mutex

	userRepo          repository.UserRepository
	refreshTokenRepo  repository.RefreshTokenRepository
	oauth2Repo        repository.OAuth2Repository
	rewardProfileRepo repository.RewardProfileRepository
	oauth2Services    []authenticator.IOAuth2Service
}

func NewAuthDomain(
	ctx context.Context,
	userRepo repository.UserRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	oauth2Repo repository.OAuth2Repository,
	rewardProfileRepo repository.RewardProfileRepository,
	oauth2Services []authenticator.IOAuth2Service,
) AuthDomain {
	return &authDomain{
		userRepo:          userRepo,
		refreshTokenRepo:  refreshTokenRepo,
		oauth2Repo:        oauth2Repo,
		rewardProfileRepo: rewardProfileRepo,
		oauth2Services:    oauth2Services,
	}
}

// OAuth2Login begins the browser flow. It redirects to the provider consent
// page and keeps the state parameter in the session for the callback.
func (d *authDomain) OAuth2Login(
	ctx context.Context, req *model.OAuth2LoginRequest,
) (*model.OAuth2LoginResponse, error) {
	service, ok := d.getOAuth2Service(req.Type)
	if !ok {
		return nil, errorx.New(errorx.BadRequest, "Unsupported type %s", req.Type)
	}

	state, err := crypto.GenerateRandomString()
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot generate random state: %v", err)
		return nil, errorx.Unknown
	}

	return &model.OAuth2LoginResponse{
		RedirectURL: service.AuthCodeURL(state),
		State:       state,
	}, nil
}

func (d *authDomain) OAuth2Callback(
	ctx context.Context, req *model.OAuth2CallbackRequest,
) (*model.OAuth2CallbackResponse, error) {
	service, ok := d.getOAuth2Service(req.Type)
	if !ok {
		return nil, errorx.New(errorx.BadRequest, "Unsupported type %s", req.Type)
	}

	if req.State == "" || req.State != req.SessionState {
		return nil, errorx.New(errorx.BadRequest, "Mismatched state parameter")
	}

	serviceUser, err := service.Exchange(ctx, req.Code)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot exchange authorization code: %v", err)
		return nil, errorx.Unknown
	}

	_, accessToken, refreshToken, err := d.generateTokensWithServiceUser(ctx, service, serviceUser)
	if err != nil {
		return nil, err
	}

	return &model.OAuth2CallbackResponse{
		RedirectURL:  "/",
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (d *authDomain) OAuth2Verify(
	ctx context.Context, req *model.OAuth2VerifyRequest,
) (*model.OAuth2VerifyResponse, error) {
	service, ok := d.getOAuth2Service(req.Type)
	if !ok {
		return nil, errorx.New(errorx.BadRequest, "Unsupported type %s", req.Type)
	}

	var serviceUser authenticator.OAuth2User
	var err error
	var oauth2Method string
	if req.AccessToken != "" {
		oauth2Method = "access token"
		serviceUser, err = service.GetUserID(ctx, req.AccessToken)
	} else if req.Code != "" {
		oauth2Method = "authorization code with pkce"
		serviceUser, err = service.VerifyAuthorizationCode(
			ctx, req.Code, req.CodeVerifier, req.RedirectURI)
	} else if req.IDToken != "" {
		oauth2Method = "id token"
		serviceUser, err = service.VerifyIDToken(ctx, req.IDToken)
	}

	if oauth2Method == "" {
		return nil, errorx.New(errorx.BadRequest, "Please provide at least one method to authorize")
	}

	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot verify %s: %v", oauth2Method, err)
		return nil, errorx.Unknown
	}

	user, accessToken, refreshToken, err := d.generateTokensWithServiceUser(ctx, service, serviceUser)
	if err != nil {
		return nil, err
	}

	oauth2Records, err := d.oauth2Repo.GetAllByUserID(ctx, user.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get all service user ids: %v", err)
		return nil, errorx.Unknown
	}

	return &model.OAuth2VerifyResponse{
		User:         model.ConvertUser(user, oauth2Records, true),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (d *authDomain) Refresh(
	ctx context.Context, req *model.RefreshTokenRequest,
) (*model.RefreshTokenResponse, error) {
	// Verify the refresh token from client.
	refreshToken := model.RefreshToken{}
	err := xcontext.TokenEngine(ctx).Verify(req.RefreshToken, &refreshToken)
	if err != nil {
		xcontext.Logger(ctx).Debugf("Failed to verify refresh token: %v", err)
		return nil, errorx.Unknown
	}

	// Load the storage refresh token from database.
	hashedFamily := crypto.SHA256([]byte(refreshToken.Family))
	storageToken, err := d.refreshTokenRepo.Get(ctx, hashedFamily)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get refresh token family %s: %v", refreshToken.Family, err)
		return nil, errorx.Unknown
	}

	// Check the expiration of storage refresh token.
	if storageToken.Expiration.Before(time.Now()) {
		return nil, errorx.New(errorx.TokenExpired, "Your refresh token is expired")
	}

	// Check if refresh token is stolen or invalid.
	// NOTE: DO NOT create transaction here. The delete and rotate query is independent.
	if refreshToken.Counter != storageToken.Counter {
		err = d.refreshTokenRepo.Delete(ctx, hashedFamily)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot delete refresh token: %v", err)
			return nil, errorx.Unknown
		}

		return nil, errorx.New(errorx.StolenDectected,
			"Your refresh token will be revoked because it is detected as stolen")
	}

	// Rotate the refresh token by increasing counter by 1.
	err = d.refreshTokenRepo.Rotate(ctx, hashedFamily)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot rotate the refresh token: %v", err)
		return nil, errorx.Unknown
	}

	// Everything is ok, generate refresh token and access token.
	newRefreshToken, err := xcontext.TokenEngine(ctx).Generate(
		xcontext.Configs(ctx).Auth.RefreshToken.Expiration,
		model.RefreshToken{
			Family:  refreshToken.Family,
			Counter: refreshToken.Counter + 1,
		})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot generate refresh token: %v", err)
		return nil, errorx.Unknown
	}

	user, err := d.userRepo.GetByID(ctx, storageToken.UserID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, errorx.Unknown
	}

	newAccessToken, err := xcontext.TokenEngine(ctx).Generate(
		xcontext.Configs(ctx).Auth.AccessToken.Expiration,
		model.AccessToken{
			ID:   user.ID,
			Name: user.Name,
		})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot generate access token: %v", err)
		return nil, errorx.Unknown
	}

	return &model.RefreshTokenResponse{
		AccessToken:  newAccessToken,
		RefreshToken: newRefreshToken,
	}, nil
}

func (d *authDomain) getOAuth2Service(service string) (authenticator.IOAuth2Service, bool) {
	for i := range d.oauth2Services {
		if d.oauth2Services[i].Service() == service {
			return d.oauth2Services[i], true
		}
	}
	return nil, false
}

func (d *authDomain) generateRefreshToken(ctx context.Context, userID string) (string, error) {
	refreshTokenFamily, err := crypto.GenerateRandomString()
	if err != nil {
		return "", err
	}

	refreshToken, err := xcontext.TokenEngine(ctx).Generate(
		xcontext.Configs(ctx).Auth.RefreshToken.Expiration,
		model.RefreshToken{
			Family:  refreshTokenFamily,
			Counter: 0,
		})
	if err != nil {
		return "", err
	}

	err = d.refreshTokenRepo.Create(ctx, &entity.RefreshToken{
		UserID:     userID,
		Family:     crypto.SHA256([]byte(refreshTokenFamily)),
		Counter:    0,
		Expiration: time.Now().Add(xcontext.Configs(ctx).Auth.RefreshToken.Expiration),
	})
	if err != nil {
		return "", err
	}

	return refreshToken, nil
}

func (d *authDomain) generateTokensWithServiceUser(
	ctx context.Context, service authenticator.IOAuth2Service, serviceUser authenticator.OAuth2User,
) (*entity.User, string, string, error) {
	user, err := d.userRepo.GetByServiceUserID(ctx, service.Service(), serviceUser.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot get user by service user id: %v", err)
			return nil, "", "", errorx.Unknown
		}

		// Create new user if not found.
		ctx = xcontext.WithDBTransaction(ctx)
		defer xcontext.WithRollbackDBTransaction(ctx)

		user = &entity.User{
			Base: entity.Base{ID: uuid.NewString()},
			Name: serviceUser.ID,
		}

		err = d.createUser(ctx, user)
		if err != nil {
			return nil, "", "", err
		}

		err = d.oauth2Repo.Create(ctx, &entity.OAuth2{
			UserID:          user.ID,
			Service:         service.Service(),
			ServiceUserID:   serviceUser.ID,
			ServiceUsername: serviceUser.Username,
		})
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot register user with service: %v", err)
			return nil, "", "", errorx.New(errorx.AlreadyExists,
				"This %s account was already registered with another user", service.Service())
		}

		ctx = xcontext.WithCommitDBTransaction(ctx)
	}

	refreshToken, err := d.generateRefreshToken(ctx, user.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot generate refresh token: %v", err)
		return nil, "", "", errorx.Unknown
	}

	accessToken, err := xcontext.TokenEngine(ctx).Generate(
		xcontext.Configs(ctx).Auth.AccessToken.Expiration,
		model.AccessToken{
			ID:   user.ID,
			Name: user.Name,
		})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot generate access token: %v", err)
		return nil, "", "", errorx.Unknown
	}

	return user, accessToken, refreshToken, nil
}

// createUser registers a user together with an empty reward profile. The very
// first user of the system becomes the super admin.
func (d *authDomain) createUser(ctx context.Context, user *entity.User) error {
	user.Role = entity.RoleUser
	user.IsNewUser = true
	user.ReferralCode = crypto.GenerateRandomAlphabet(9)

	if !d.hasSuperAdmin {
		d.hasSuperAdminMutex.Lock()
		defer d.hasSuperAdminMutex.Unlock()

		if !d.hasSuperAdmin {
			count, err := d.userRepo.Count(ctx)
			if err != nil {
				xcontext.Logger(ctx).Errorf("Cannot count number of user records: %v", err)
				return errorx.Unknown
			}

			if count == 0 {
				user.Role = entity.RoleSuperAdmin
			}
		}
	}

	if err := d.userRepo.Create(ctx, user); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create user: %v", err)
		return errorx.Unknown
	}

	err := d.rewardProfileRepo.Create(ctx, &entity.RewardProfile{
		UserID: user.ID,
		Tier:   entity.TierBronze,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create reward profile: %v", err)
		return errorx.Unknown
	}

	if !d.hasSuperAdmin {
		d.hasSuperAdmin = true
	}

	return nil
}
