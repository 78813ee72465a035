package domain

import (
	"testing"

	"github.com/BillixOfficial/rewards-backend/internal/domain/stream"
	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/internal/model"
	"github.com/BillixOfficial/rewards-backend/internal/repository"
	"github.com/BillixOfficial/rewards-backend/pkg/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestPointDomain(publisher *testutil.MockPublisher) *pointDomain {
	return NewPointDomain(
		repository.NewRewardProfileRepository(),
		repository.NewPointTransactionRepository(),
		testutil.NewMockPointActivityRepository(),
		repository.NewUserRepository(),
		repository.NewTierAwardRepository(),
		&testutil.MockLeaderboard{},
		publisher,
		stream.NewRouter(),
	)
}

func Test_pointDomain_AddPoints(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	_, err = testutil.SampleRewardProfile(ctx, &entity.RewardProfile{UserID: user.ID})
	require.NoError(t, err)

	publisher := &testutil.MockPublisher{}
	pointDomain := newTestPointDomain(publisher)

	// Grant successfully.
	resp, err := pointDomain.AddPoints(ctx, &model.AddPointsRequest{
		UserID:         user.ID,
		Points:         120,
		IdempotencyKey: "bill-42",
		Title:          "Paid the electricity bill",
	})
	require.NoError(t, err)
	require.False(t, resp.Duplicated)
	require.Equal(t, uint64(120), resp.Balance)

	// A retried delivery returns the original outcome without paying again.
	retried, err := pointDomain.AddPoints(ctx, &model.AddPointsRequest{
		UserID:         user.ID,
		Points:         120,
		IdempotencyKey: "bill-42",
	})
	require.NoError(t, err)
	require.True(t, retried.Duplicated)
	require.Equal(t, resp.TransactionID, retried.TransactionID)
	require.Equal(t, uint64(120), retried.Balance)

	profile, err := repository.NewRewardProfileRepository().Get(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(120), profile.Points)
	require.Equal(t, uint64(120), profile.LifetimePoints)

	txs, err := repository.NewPointTransactionRepository().GetListByUserID(ctx, user.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.Equal(t, entity.SourceBillPayment, txs[0].Source)
	require.Equal(t, "bill-42", txs[0].IdempotencyKey.String)

	// Only the first delivery was announced.
	require.Len(t, publisher.Packs(model.PointsGrantedTopic), 1)

	// A different key is a different payment.
	resp, err = pointDomain.AddPoints(ctx, &model.AddPointsRequest{
		UserID:         user.ID,
		Points:         30,
		IdempotencyKey: "bill-43",
	})
	require.NoError(t, err)
	require.False(t, resp.Duplicated)
	require.Equal(t, uint64(150), resp.Balance)
}

func Test_pointDomain_AddPoints_CrossesTierBoundary(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	_, err = testutil.SampleRewardProfile(ctx, &entity.RewardProfile{
		UserID:         user.ID,
		Points:         7900,
		LifetimePoints: 7900,
	})
	require.NoError(t, err)

	publisher := &testutil.MockPublisher{}
	pointDomain := newTestPointDomain(publisher)

	resp, err := pointDomain.AddPoints(ctx, &model.AddPointsRequest{
		UserID:         user.ID,
		Points:         200,
		IdempotencyKey: "bill-44",
	})
	require.NoError(t, err)
	require.Equal(t, uint64(8100), resp.Balance)

	profile, err := repository.NewRewardProfileRepository().Get(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, entity.TierSilver, profile.Tier)

	awards, err := repository.NewTierAwardRepository().GetAllByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, awards, 1)
	require.Equal(t, entity.TierSilver, awards[0].Tier)

	require.Len(t, publisher.Packs(model.TierAwardGrantedTopic), 1)
}

func Test_pointDomain_AddPoints_Validation(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	_, err = testutil.SampleRewardProfile(ctx, &entity.RewardProfile{UserID: user.ID})
	require.NoError(t, err)

	pointDomain := newTestPointDomain(&testutil.MockPublisher{})

	_, err = pointDomain.AddPoints(ctx, &model.AddPointsRequest{
		Points:         10,
		IdempotencyKey: "bill-1",
	})
	require.Error(t, err)
	require.Equal(t, "Not allow an empty user id", err.Error())

	_, err = pointDomain.AddPoints(ctx, &model.AddPointsRequest{
		UserID:         user.ID,
		IdempotencyKey: "bill-1",
	})
	require.Error(t, err)
	require.Equal(t, "Points must be a positive number", err.Error())

	_, err = pointDomain.AddPoints(ctx, &model.AddPointsRequest{
		UserID: user.ID,
		Points: 10,
	})
	require.Error(t, err)
	require.Equal(t, "Not allow an empty idempotency key", err.Error())

	_, err = pointDomain.AddPoints(ctx, &model.AddPointsRequest{
		UserID:         uuid.NewString(),
		Points:         10,
		IdempotencyKey: "bill-1",
	})
	require.Error(t, err)
	require.Equal(t, "Not found user", err.Error())
}

func Test_pointDomain_GetMyTransactions(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	_, err = testutil.SampleRewardProfile(ctx, &entity.RewardProfile{UserID: user.ID})
	require.NoError(t, err)

	pointDomain := newTestPointDomain(&testutil.MockPublisher{})
	for i, key := range []string{"bill-1", "bill-2", "bill-3"} {
		_, err := pointDomain.AddPoints(ctx, &model.AddPointsRequest{
			UserID:         user.ID,
			Points:         uint64(10 * (i + 1)),
			IdempotencyKey: key,
		})
		require.NoError(t, err)
	}

	ctx = testutil.MockContextWithUserID(ctx, user.ID)

	// Newest first, paged.
	resp, err := pointDomain.GetMyTransactions(ctx, &model.GetMyTransactionsRequest{Limit: 2})
	require.NoError(t, err)
	require.Len(t, resp.Transactions, 2)
	require.Equal(t, uint64(30), resp.Transactions[0].Amount)
	require.Equal(t, uint64(20), resp.Transactions[1].Amount)

	resp, err = pointDomain.GetMyTransactions(ctx, &model.GetMyTransactionsRequest{
		Offset: 2,
		Limit:  2,
	})
	require.NoError(t, err)
	require.Len(t, resp.Transactions, 1)
	require.Equal(t, uint64(10), resp.Transactions[0].Amount)

	// The limit cannot pass the server maximum.
	_, err = pointDomain.GetMyTransactions(ctx, &model.GetMyTransactionsRequest{Limit: 51})
	require.Error(t, err)
	require.Equal(t, "Exceed the maximum of limit (50)", err.Error())
}
