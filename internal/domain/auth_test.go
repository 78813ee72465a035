package domain

import (
	"context"
	"testing"
	"time"

	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/internal/model"
	"github.com/BillixOfficial/rewards-backend/internal/repository"
	"github.com/BillixOfficial/rewards-backend/pkg/authenticator"
	"github.com/BillixOfficial/rewards-backend/pkg/crypto"
	"github.com/BillixOfficial/rewards-backend/pkg/errorx"
	"github.com/BillixOfficial/rewards-backend/pkg/testutil"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"

	"github.com/stretchr/testify/require"
)

func Test_authDomain_OAuth2Verify_NewUser(t *testing.T) {
	oauth2Service := testutil.NewMockOAuth2("billix")
	oauth2Service.GetUserIDFunc = func(context.Context, string) (authenticator.OAuth2User, error) {
		return authenticator.OAuth2User{ID: "service-user-1", Username: "payer"}, nil
	}

	ctx := testutil.MockContext()
	authDomain := &authDomain{
		userRepo:          repository.NewUserRepository(),
		refreshTokenRepo:  repository.NewRefreshTokenRepository(),
		oauth2Repo:        repository.NewOAuth2Repository(),
		rewardProfileRepo: repository.NewRewardProfileRepository(),
		oauth2Services:    []authenticator.IOAuth2Service{oauth2Service},
	}

	resp, err := authDomain.OAuth2Verify(ctx, &model.OAuth2VerifyRequest{
		Type:        "billix",
		AccessToken: "foo",
	})
	require.NoError(t, err)
	require.Equal(t, "service-user-1", resp.User.Name)
	require.True(t, resp.User.IsNewUser)

	// The very first user of the system becomes the super admin.
	require.Equal(t, "super_admin", resp.User.Role)

	// The access token identifies the new user.
	accessToken := model.AccessToken{}
	err = xcontext.TokenEngine(ctx).Verify(resp.AccessToken, &accessToken)
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, accessToken.ID)

	// An empty reward profile comes with the registration.
	profile, err := repository.NewRewardProfileRepository().Get(ctx, resp.User.ID)
	require.NoError(t, err)
	require.Equal(t, entity.TierBronze, profile.Tier)
	require.Equal(t, uint64(0), profile.Points)

	// Logging in again resolves to the same user instead of registering.
	again, err := authDomain.OAuth2Verify(ctx, &model.OAuth2VerifyRequest{
		Type:        "billix",
		AccessToken: "foo",
	})
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, again.User.ID)

	// Only the first user gets the super admin role.
	oauth2Service.GetUserIDFunc = func(context.Context, string) (authenticator.OAuth2User, error) {
		return authenticator.OAuth2User{ID: "service-user-2"}, nil
	}
	second, err := authDomain.OAuth2Verify(ctx, &model.OAuth2VerifyRequest{
		Type:        "billix",
		AccessToken: "foo",
	})
	require.NoError(t, err)
	require.Equal(t, "user", second.User.Role)
}

func Test_authDomain_OAuth2Verify_DuplicateServiceID(t *testing.T) {
	duplicatedID := "duplicated_service_user_id"
	oauth2Service := testutil.NewMockOAuth2("billix")
	oauth2Service.GetUserIDFunc = func(context.Context, string) (authenticator.OAuth2User, error) {
		return authenticator.OAuth2User{ID: duplicatedID}, nil
	}

	ctx := testutil.MockContext()
	userRepo := repository.NewUserRepository()
	oauth2Repo := repository.NewOAuth2Repository()
	authDomain := &authDomain{
		userRepo:          userRepo,
		refreshTokenRepo:  repository.NewRefreshTokenRepository(),
		oauth2Repo:        oauth2Repo,
		rewardProfileRepo: repository.NewRewardProfileRepository(),
		oauth2Services:    []authenticator.IOAuth2Service{oauth2Service},
	}

	// Insert a record whose service user id collides with the one the
	// oauth2 service returns.
	err := oauth2Repo.Create(ctx, &entity.OAuth2{
		UserID:        "another-user",
		Service:       "billix",
		ServiceUserID: duplicatedID,
	})
	require.NoError(t, err)

	_, err = authDomain.OAuth2Verify(ctx, &model.OAuth2VerifyRequest{
		Type:        "billix",
		AccessToken: "foo",
	})
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, uint64(errorx.AlreadyExists), errx.Code)

	// The user record was inserted before the oauth2 record, the transaction
	// rolls it back after the collision.
	count, err := userRepo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(0), count)
}

func Test_authDomain_Refresh(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	authDomain := &authDomain{
		userRepo:         repository.NewUserRepository(),
		refreshTokenRepo: repository.NewRefreshTokenRepository(),
	}

	refreshTokenObj := model.RefreshToken{Family: "Foo", Counter: 0}
	err = authDomain.refreshTokenRepo.Create(ctx, &entity.RefreshToken{
		UserID:     user.ID,
		Family:     crypto.SHA256([]byte(refreshTokenObj.Family)),
		Counter:    0,
		Expiration: time.Now().Add(time.Minute),
	})
	require.NoError(t, err)

	refreshToken, err := xcontext.TokenEngine(ctx).Generate(time.Minute, refreshTokenObj)
	require.NoError(t, err)

	// Successfully for the first refresh.
	resp, err := authDomain.Refresh(ctx, &model.RefreshTokenRequest{RefreshToken: refreshToken})
	require.NoError(t, err)

	// Verify access token.
	accessToken := model.AccessToken{}
	err = xcontext.TokenEngine(ctx).Verify(resp.AccessToken, &accessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, accessToken.ID)

	// Detect stolen for the second refresh, the family is deleted after this
	// call.
	_, err = authDomain.Refresh(ctx, &model.RefreshTokenRequest{RefreshToken: refreshToken})
	require.Error(t, err)
	require.Equal(t, "Your refresh token will be revoked because it is detected as stolen", err.Error())

	// Not found refresh token for the third refresh.
	_, err = authDomain.Refresh(ctx, &model.RefreshTokenRequest{RefreshToken: refreshToken})
	require.Error(t, err)
	require.Equal(t, "Request failed", err.Error())
}

func Test_authDomain_Refresh_Expired(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	authDomain := &authDomain{
		userRepo:         repository.NewUserRepository(),
		refreshTokenRepo: repository.NewRefreshTokenRepository(),
	}

	refreshTokenObj := model.RefreshToken{Family: "Bar", Counter: 0}
	err = authDomain.refreshTokenRepo.Create(ctx, &entity.RefreshToken{
		UserID:     user.ID,
		Family:     crypto.SHA256([]byte(refreshTokenObj.Family)),
		Counter:    0,
		Expiration: time.Now().Add(-time.Minute),
	})
	require.NoError(t, err)

	refreshToken, err := xcontext.TokenEngine(ctx).Generate(time.Minute, refreshTokenObj)
	require.NoError(t, err)

	_, err = authDomain.Refresh(ctx, &model.RefreshTokenRequest{RefreshToken: refreshToken})
	require.Error(t, err)
	require.Equal(t, "Your refresh token is expired", err.Error())
}
