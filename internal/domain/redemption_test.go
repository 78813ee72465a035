package domain

import (
	"encoding/json"
	"testing"

	"github.com/BillixOfficial/rewards-backend/internal/domain/stream"
	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/internal/model"
	"github.com/BillixOfficial/rewards-backend/internal/repository"
	"github.com/BillixOfficial/rewards-backend/pkg/testutil"

	"github.com/stretchr/testify/require"
)

func newTestRedemptionDomain(publisher *testutil.MockPublisher) *redemptionDomain {
	return NewRedemptionDomain(
		repository.NewRedemptionRepository(),
		repository.NewRewardItemRepository(&testutil.MockSearchCaller{}),
		repository.NewRewardProfileRepository(),
		repository.NewPointTransactionRepository(),
		testutil.NewMockPointActivityRepository(),
		repository.NewUserRepository(),
		publisher,
		stream.NewRouter(),
	)
}

func Test_redemptionDomain_RedeemItem(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	_, err = testutil.SampleRewardProfile(ctx, &entity.RewardProfile{
		UserID:         user.ID,
		Points:         600,
		LifetimePoints: 600,
	})
	require.NoError(t, err)
	item, err := testutil.SampleRewardItem(ctx, &entity.RewardItem{Cost: 500})
	require.NoError(t, err)

	publisher := &testutil.MockPublisher{}
	redemptionDomain := newTestRedemptionDomain(publisher)
	ctx = testutil.MockContextWithUserID(ctx, user.ID)

	// Redeem successfully. The delivery address falls back to the account
	// email.
	resp, err := redemptionDomain.RedeemItem(ctx, &model.RedeemItemRequest{RewardItemID: item.ID})
	require.NoError(t, err)
	require.Equal(t, "pending", resp.Redemption.Status)
	require.Equal(t, user.Email.String, resp.Redemption.DeliveryEmail)
	require.Equal(t, item.ID, resp.Redemption.RewardItem.ID)
	require.Equal(t, uint64(100), resp.Balance)

	// The spend only touches the balance, lifetime points keep the tier.
	profile, err := repository.NewRewardProfileRepository().Get(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(100), profile.Points)
	require.Equal(t, uint64(600), profile.LifetimePoints)

	txs, err := repository.NewPointTransactionRepository().GetListByUserID(ctx, user.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.Equal(t, entity.TransactionSpend, txs[0].Type)
	require.Equal(t, entity.SourceRedeem, txs[0].Source)
	require.Equal(t, uint64(500), txs[0].Amount)
	require.Equal(t, uint64(100), txs[0].BalanceAfter)
	require.Equal(t, resp.Redemption.ID, txs[0].ReferenceID.String)

	// The worker is told about the new redemption.
	packs := publisher.Packs(model.RedemptionCreatedTopic)
	require.Len(t, packs, 1)
	var msg model.RedemptionCreatedMessage
	require.NoError(t, json.Unmarshal(packs[0].Msg, &msg))
	require.Equal(t, resp.Redemption.ID, msg.RedemptionID)

	reloaded, err := repository.NewRewardItemRepository(&testutil.MockSearchCaller{}).
		GetByID(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, 1, reloaded.RedeemedCount)

	// The redemption shows up in the history of the user.
	listResp, err := redemptionDomain.GetMyRedemptions(ctx, &model.GetMyRedemptionsRequest{Limit: 10})
	require.NoError(t, err)
	require.Len(t, listResp.Redemptions, 1)
	require.Equal(t, resp.Redemption.ID, listResp.Redemptions[0].ID)
	require.Equal(t, user.ID, listResp.Redemptions[0].User.ID)
	require.Equal(t, item.Name, listResp.Redemptions[0].RewardItem.Name)

	getResp, err := redemptionDomain.Get(ctx, &model.GetRedemptionRequest{ID: resp.Redemption.ID})
	require.NoError(t, err)
	require.Equal(t, resp.Redemption.ID, getResp.Redemption.ID)

	// Another user cannot read it.
	other, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	otherCtx := testutil.MockContextWithUserID(ctx, other.ID)
	_, err = redemptionDomain.Get(otherCtx, &model.GetRedemptionRequest{ID: resp.Redemption.ID})
	require.Error(t, err)
	require.Equal(t, "Permission denied", err.Error())
}

func Test_redemptionDomain_RedeemItem_InsufficientPoints(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	_, err = testutil.SampleRewardProfile(ctx, &entity.RewardProfile{
		UserID:         user.ID,
		Points:         100,
		LifetimePoints: 100,
	})
	require.NoError(t, err)
	item, err := testutil.SampleRewardItem(ctx, &entity.RewardItem{Cost: 500})
	require.NoError(t, err)

	redemptionDomain := newTestRedemptionDomain(&testutil.MockPublisher{})
	ctx = testutil.MockContextWithUserID(ctx, user.ID)

	_, err = redemptionDomain.RedeemItem(ctx, &model.RedeemItemRequest{RewardItemID: item.ID})
	require.Error(t, err)
	require.Equal(t, "You need 400 more points for this item", err.Error())

	// The refusal spent nothing.
	profile, err := repository.NewRewardProfileRepository().Get(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(100), profile.Points)
}

func Test_redemptionDomain_RedeemItem_StockRunsOut(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	_, err = testutil.SampleRewardProfile(ctx, &entity.RewardProfile{
		UserID:         user.ID,
		Points:         1000,
		LifetimePoints: 1000,
	})
	require.NoError(t, err)
	item, err := testutil.SampleRewardItem(ctx, &entity.RewardItem{Cost: 100, Stock: 1})
	require.NoError(t, err)

	redemptionDomain := newTestRedemptionDomain(&testutil.MockPublisher{})
	ctx = testutil.MockContextWithUserID(ctx, user.ID)

	// The first redemption takes the last unit.
	_, err = redemptionDomain.RedeemItem(ctx, &model.RedeemItemRequest{RewardItemID: item.ID})
	require.NoError(t, err)

	reloaded, err := repository.NewRewardItemRepository(&testutil.MockSearchCaller{}).
		GetByID(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, 0, reloaded.Stock)

	// The second one finds the shelf empty.
	_, err = redemptionDomain.RedeemItem(ctx, &model.RedeemItemRequest{RewardItemID: item.ID})
	require.Error(t, err)
	require.Equal(t, "This item is out of stock", err.Error())
}

func Test_redemptionDomain_RedeemItem_TierTooLow(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	_, err = testutil.SampleRewardProfile(ctx, &entity.RewardProfile{
		UserID:         user.ID,
		Points:         10000,
		LifetimePoints: 10000,
	})
	require.NoError(t, err)
	item, err := testutil.SampleRewardItem(ctx, &entity.RewardItem{
		Cost:    500,
		MinTier: entity.TierGold,
	})
	require.NoError(t, err)

	redemptionDomain := newTestRedemptionDomain(&testutil.MockPublisher{})
	ctx = testutil.MockContextWithUserID(ctx, user.ID)

	_, err = redemptionDomain.RedeemItem(ctx, &model.RedeemItemRequest{RewardItemID: item.ID})
	require.Error(t, err)
	require.Equal(t, "This item needs tier gold or above", err.Error())
}

func Test_redemptionDomain_RedeemItem_InvalidDeliveryEmail(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	_, err = testutil.SampleRewardProfile(ctx, &entity.RewardProfile{
		UserID:         user.ID,
		Points:         1000,
		LifetimePoints: 1000,
	})
	require.NoError(t, err)
	item, err := testutil.SampleRewardItem(ctx, nil)
	require.NoError(t, err)

	redemptionDomain := newTestRedemptionDomain(&testutil.MockPublisher{})
	ctx = testutil.MockContextWithUserID(ctx, user.ID)

	_, err = redemptionDomain.RedeemItem(ctx, &model.RedeemItemRequest{
		RewardItemID:  item.ID,
		DeliveryEmail: "not-an-email",
	})
	require.Error(t, err)
	require.Equal(t, "Got an invalid delivery email", err.Error())
}
