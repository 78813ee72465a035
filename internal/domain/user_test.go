package domain

import (
	"context"
	"testing"

	"github.com/BillixOfficial/rewards-backend/internal/common"
	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/internal/model"
	"github.com/BillixOfficial/rewards-backend/internal/repository"
	"github.com/BillixOfficial/rewards-backend/pkg/storage"
	"github.com/BillixOfficial/rewards-backend/pkg/testutil"

	"github.com/stretchr/testify/require"
)

func newTestUserDomain(fileStorage storage.Storage) UserDomain {
	return NewUserDomain(
		repository.NewUserRepository(),
		repository.NewOAuth2Repository(),
		repository.NewRewardProfileRepository(),
		fileStorage,
	)
}

func Test_userDomain_GetMe(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	_, err = testutil.SampleRewardProfile(ctx, &entity.RewardProfile{
		UserID:         user.ID,
		Points:         1200,
		LifetimePoints: 9000,
		Tier:           entity.TierSilver,
	})
	require.NoError(t, err)

	err = repository.NewOAuth2Repository().Create(ctx, &entity.OAuth2{
		UserID:          user.ID,
		Service:         "billix",
		ServiceUserID:   "service-user-1",
		ServiceUsername: "payer",
	})
	require.NoError(t, err)

	userDomain := newTestUserDomain(&testutil.MockStorage{})
	resp, err := userDomain.GetMe(testutil.MockContextWithUserID(ctx, user.ID), &model.GetMeRequest{})
	require.NoError(t, err)
	require.Equal(t, user.ID, resp.User.ID)
	require.Equal(t, user.Name, resp.User.Name)
	require.Equal(t, user.Email.String, resp.User.Email)
	require.Equal(t, "payer", resp.User.Services["billix"])
	require.Equal(t, uint64(1200), resp.RewardProfile.Points)
	require.Equal(t, uint64(9000), resp.RewardProfile.LifetimePoints)
	require.Equal(t, "silver", resp.RewardProfile.Tier)
}

func Test_userDomain_Update(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	someone, err := testutil.SampleUser(ctx, &entity.User{Name: "taken_name"})
	require.NoError(t, err)

	userRepo := repository.NewUserRepository()
	userDomain := newTestUserDomain(&testutil.MockStorage{})
	userCtx := testutil.MockContextWithUserID(ctx, user.ID)

	// Rename and change the email successfully.
	_, err = userDomain.Update(userCtx, &model.UpdateUserRequest{
		Name:  "fresh_name",
		Email: "fresh@example.com",
	})
	require.NoError(t, err)

	reloaded, err := userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "fresh_name", reloaded.Name)
	require.Equal(t, "fresh@example.com", reloaded.Email.String)

	// Cannot take a name someone else holds.
	_, err = userDomain.Update(userCtx, &model.UpdateUserRequest{Name: someone.Name})
	require.Error(t, err)
	require.Equal(t, "This username is already taken", err.Error())

	// Invalid inputs.
	_, err = userDomain.Update(userCtx, &model.UpdateUserRequest{})
	require.Error(t, err)
	require.Equal(t, "Provide at least one field to update", err.Error())

	_, err = userDomain.Update(userCtx, &model.UpdateUserRequest{Name: "ab"})
	require.Error(t, err)
	require.Equal(t, "Username too short (at least 4 characters)", err.Error())

	_, err = userDomain.Update(userCtx, &model.UpdateUserRequest{Name: "bad name!"})
	require.Error(t, err)
	require.Equal(t, "Name contains invalid characters", err.Error())

	_, err = userDomain.Update(userCtx, &model.UpdateUserRequest{Email: "not-an-email"})
	require.Error(t, err)
	require.Equal(t, "Got an invalid email address", err.Error())
}

func Test_userDomain_UploadAvatar(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	uploadCtx := multipartImageContext(t, testutil.MockContextWithUserID(ctx, user.ID))

	userDomain := newTestUserDomain(&testutil.MockStorage{
		BulkUploadFunc: func(ctx context.Context, objs []*storage.UploadObject) ([]*storage.UploadResponse, error) {
			resps := []*storage.UploadResponse{}
			for _, obj := range objs {
				resps = append(resps, &storage.UploadResponse{
					FileName: obj.FileName,
					Url:      "https://cdn.example.com/" + obj.FileName,
				})
			}
			return resps, nil
		},
	})

	resp, err := userDomain.UploadAvatar(uploadCtx, &model.UploadAvatarRequest{})
	require.NoError(t, err)
	require.Len(t, resp.AvatarURLs, 3)
	require.Equal(t, "https://cdn.example.com/512x512-out.png", resp.AvatarURLs["512x512"])

	// The resized urls land on the user record, keyed by size.
	reloaded, err := repository.NewUserRepository().GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.ProfilePictures, 3)
	for _, size := range common.AvatarSizes {
		url, ok := reloaded.ProfilePictures[size.String()].(string)
		require.True(t, ok)
		require.Equal(t, "https://cdn.example.com/"+size.String()+"-out.png", url)
	}
}
