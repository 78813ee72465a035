package domain

import (
	"testing"

	"github.com/BillixOfficial/rewards-backend/internal/model"
	"github.com/BillixOfficial/rewards-backend/internal/repository"
	"github.com/BillixOfficial/rewards-backend/pkg/crypto"
	"github.com/BillixOfficial/rewards-backend/pkg/testutil"

	"github.com/stretchr/testify/require"
)

func Test_apiKeyDomain_FullScenario(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	apiKeyRepo := repository.NewAPIKeyRepository()
	apiKeyDomain := NewAPIKeyDomain(apiKeyRepo, repository.NewUserRepository())

	// Generate successfully.
	userCtx := testutil.MockContextWithUserID(ctx, user.ID)
	resp, err := apiKeyDomain.Generate(userCtx, &model.GenerateAPIKeyRequest{})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Key)

	// The database keeps the hash, not the key.
	owner, err := apiKeyRepo.GetOwnerByKey(ctx, crypto.SHA256([]byte(resp.Key)))
	require.NoError(t, err)
	require.Equal(t, user.ID, owner)

	// Cannot generate a second key for the same owner.
	_, err = apiKeyDomain.Generate(userCtx, &model.GenerateAPIKeyRequest{})
	require.Error(t, err)
	require.Equal(t, "Request failed", err.Error())

	// However, regenerate successfully and the old key stops working.
	regenerated, err := apiKeyDomain.Regenerate(userCtx, &model.RegenerateAPIKeyRequest{})
	require.NoError(t, err)
	require.NotEqual(t, resp.Key, regenerated.Key)

	_, err = apiKeyRepo.GetOwnerByKey(ctx, crypto.SHA256([]byte(resp.Key)))
	require.Error(t, err)

	// Revoke successfully.
	_, err = apiKeyDomain.Revoke(userCtx, &model.RevokeAPIKeyRequest{})
	require.NoError(t, err)

	_, err = apiKeyRepo.GetOwnerByKey(ctx, crypto.SHA256([]byte(regenerated.Key)))
	require.Error(t, err)

	// Without a key there is nothing to regenerate.
	_, err = apiKeyDomain.Regenerate(userCtx, &model.RegenerateAPIKeyRequest{})
	require.Error(t, err)
	require.Equal(t, "Not found any api key of this owner", err.Error())
}

func Test_apiKeyDomain_Generate_UnknownOwner(t *testing.T) {
	ctx := testutil.MockContext()
	apiKeyDomain := NewAPIKeyDomain(repository.NewAPIKeyRepository(), repository.NewUserRepository())

	_, err := apiKeyDomain.Generate(ctx, &model.GenerateAPIKeyRequest{UserID: "no-such-user"})
	require.Error(t, err)
	require.Equal(t, "Not found key owner", err.Error())
}
