package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/BillixOfficial/rewards-backend/internal/domain/stream"
	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/internal/model"
	"github.com/BillixOfficial/rewards-backend/internal/repository"
	"github.com/BillixOfficial/rewards-backend/pkg/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestDrawDomain(publisher *testutil.MockPublisher) *drawDomain {
	return NewDrawDomain(
		repository.NewDrawRepository(),
		repository.NewRewardProfileRepository(),
		repository.NewPointTransactionRepository(),
		testutil.NewMockPointActivityRepository(),
		repository.NewRewardItemRepository(&testutil.MockSearchCaller{}),
		repository.NewRedemptionRepository(),
		repository.NewUserRepository(),
		&testutil.MockLeaderboard{},
		publisher,
		stream.NewRouter(),
	)
}

func sampleDrawEvent(t *testing.T, ctx context.Context, init entity.DrawEvent) entity.DrawEvent {
	t.Helper()

	event := entity.DrawEvent{
		Base:              entity.Base{ID: uuid.NewString()},
		Name:              "Weekly draw",
		StartTime:         time.Now().Add(-time.Hour),
		EndTime:           time.Now().Add(time.Hour),
		PointsPerEntry:    100,
		MaxEntriesPerUser: 2,
	}

	if init.StartTime != (time.Time{}) {
		event.StartTime = init.StartTime
	}

	if init.EndTime != (time.Time{}) {
		event.EndTime = init.EndTime
	}

	require.NoError(t, repository.NewDrawRepository().CreateEvent(ctx, &event))
	return event
}

func Test_drawDomain_EnterDraw(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	_, err = testutil.SampleRewardProfile(ctx, &entity.RewardProfile{
		UserID:         user.ID,
		Points:         600,
		LifetimePoints: 600,
	})
	require.NoError(t, err)

	event := sampleDrawEvent(t, ctx, entity.DrawEvent{})
	drawDomain := newTestDrawDomain(&testutil.MockPublisher{})
	ctx = testutil.MockContextWithUserID(ctx, user.ID)

	// Each entry costs its points.
	resp, err := drawDomain.EnterDraw(ctx, &model.EnterDrawRequest{DrawEventID: event.ID})
	require.NoError(t, err)
	require.Equal(t, 1, resp.MyEntries)
	require.Equal(t, uint64(500), resp.Balance)

	resp, err = drawDomain.EnterDraw(ctx, &model.EnterDrawRequest{DrawEventID: event.ID})
	require.NoError(t, err)
	require.Equal(t, 2, resp.MyEntries)
	require.Equal(t, uint64(400), resp.Balance)

	// The third entry hits the per user cap.
	_, err = drawDomain.EnterDraw(ctx, &model.EnterDrawRequest{DrawEventID: event.ID})
	require.Error(t, err)
	require.Equal(t, "You already used your 2 entries of this draw", err.Error())

	reloaded, err := repository.NewDrawRepository().GetEventByID(ctx, event.ID)
	require.NoError(t, err)
	require.Equal(t, 2, reloaded.TotalEntries)

	txs, err := repository.NewPointTransactionRepository().GetListByUserID(ctx, user.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	require.Equal(t, entity.TransactionSpend, txs[0].Type)
	require.Equal(t, entity.SourceDrawEntry, txs[0].Source)
}

func Test_drawDomain_EnterDraw_OutsideWindow(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	_, err = testutil.SampleRewardProfile(ctx, &entity.RewardProfile{
		UserID:         user.ID,
		Points:         600,
		LifetimePoints: 600,
	})
	require.NoError(t, err)

	drawDomain := newTestDrawDomain(&testutil.MockPublisher{})
	ctx = testutil.MockContextWithUserID(ctx, user.ID)

	future := sampleDrawEvent(t, ctx, entity.DrawEvent{
		StartTime: time.Now().Add(time.Hour),
		EndTime:   time.Now().Add(2 * time.Hour),
	})
	_, err = drawDomain.EnterDraw(ctx, &model.EnterDrawRequest{DrawEventID: future.ID})
	require.Error(t, err)
	require.Equal(t, "This draw has not started yet", err.Error())

	past := sampleDrawEvent(t, ctx, entity.DrawEvent{
		StartTime: time.Now().Add(-2 * time.Hour),
		EndTime:   time.Now().Add(-time.Hour),
	})
	_, err = drawDomain.EnterDraw(ctx, &model.EnterDrawRequest{DrawEventID: past.ID})
	require.Error(t, err)
	require.Equal(t, "This draw has already ended", err.Error())

	_, err = drawDomain.EnterDraw(ctx, &model.EnterDrawRequest{DrawEventID: uuid.NewString()})
	require.Error(t, err)
	require.Equal(t, "Not found draw event", err.Error())
}

func Test_drawDomain_EnterDraw_InsufficientPoints(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	_, err = testutil.SampleRewardProfile(ctx, &entity.RewardProfile{
		UserID:         user.ID,
		Points:         20,
		LifetimePoints: 20,
	})
	require.NoError(t, err)

	event := sampleDrawEvent(t, ctx, entity.DrawEvent{})
	drawDomain := newTestDrawDomain(&testutil.MockPublisher{})
	ctx = testutil.MockContextWithUserID(ctx, user.ID)

	_, err = drawDomain.EnterDraw(ctx, &model.EnterDrawRequest{DrawEventID: event.ID})
	require.Error(t, err)
	require.Equal(t, "You need 80 more points for an entry", err.Error())
}

func Test_drawDomain_GetCurrentDraw(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	_, err = testutil.SampleRewardProfile(ctx, &entity.RewardProfile{
		UserID:         user.ID,
		Points:         600,
		LifetimePoints: 600,
	})
	require.NoError(t, err)

	drawDomain := newTestDrawDomain(&testutil.MockPublisher{})

	// Without an open event the countdown points at the weekly slot.
	resp, err := drawDomain.GetCurrentDraw(ctx, &model.GetCurrentDrawRequest{})
	require.NoError(t, err)
	require.Empty(t, resp.Event.ID)
	require.Greater(t, resp.RemainingSeconds, int64(0))
	require.NotEmpty(t, resp.Countdown)

	event := sampleDrawEvent(t, ctx, entity.DrawEvent{})

	// An anonymous caller sees the event without entries.
	resp, err = drawDomain.GetCurrentDraw(ctx, &model.GetCurrentDrawRequest{})
	require.NoError(t, err)
	require.Equal(t, event.ID, resp.Event.ID)
	require.Equal(t, 0, resp.MyEntries)

	drawsAt, err := time.Parse(model.DefaultTimeLayout, resp.NextDrawTime)
	require.NoError(t, err)
	require.WithinDuration(t, event.EndTime, drawsAt, time.Second)

	// A signed in caller sees their entry count.
	userCtx := testutil.MockContextWithUserID(ctx, user.ID)
	_, err = drawDomain.EnterDraw(userCtx, &model.EnterDrawRequest{DrawEventID: event.ID})
	require.NoError(t, err)

	resp, err = drawDomain.GetCurrentDraw(userCtx, &model.GetCurrentDrawRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, resp.MyEntries)
}

func Test_drawDomain_ClaimDrawReward_Points(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	_, err = testutil.SampleRewardProfile(ctx, &entity.RewardProfile{
		UserID:         user.ID,
		Points:         100,
		LifetimePoints: 100,
	})
	require.NoError(t, err)

	drawRepo := repository.NewDrawRepository()
	event := sampleDrawEvent(t, ctx, entity.DrawEvent{})
	prize := entity.DrawPrize{
		Base:        entity.Base{ID: uuid.NewString()},
		DrawEventID: event.ID,
		Name:        "Grand prize",
		Points:      5000,
		Rewards: entity.Array[entity.Reward]{
			{Type: entity.PointsReward, Data: entity.Map{"points": 250}},
		},
		AvailableCount: 1,
		WonCount:       1,
	}
	require.NoError(t, drawRepo.CreatePrize(ctx, &prize))

	winner := entity.DrawWinner{
		Base:        entity.Base{ID: uuid.NewString()},
		DrawPrizeID: prize.ID,
		UserID:      user.ID,
	}
	require.NoError(t, drawRepo.CreateWinner(ctx, &winner))

	drawDomain := newTestDrawDomain(&testutil.MockPublisher{})

	// Somebody else cannot claim it.
	other, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	otherCtx := testutil.MockContextWithUserID(ctx, other.ID)
	_, err = drawDomain.ClaimDrawReward(otherCtx, &model.ClaimDrawRewardRequest{WinnerID: winner.ID})
	require.Error(t, err)
	require.Equal(t, "Permission denied", err.Error())

	// The owner claims the extra points on top of the settlement payout.
	userCtx := testutil.MockContextWithUserID(ctx, user.ID)
	_, err = drawDomain.ClaimDrawReward(userCtx, &model.ClaimDrawRewardRequest{WinnerID: winner.ID})
	require.NoError(t, err)

	profile, err := repository.NewRewardProfileRepository().Get(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(350), profile.Points)

	txs, err := repository.NewPointTransactionRepository().GetListByUserID(ctx, user.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.Equal(t, entity.TransactionEarn, txs[0].Type)
	require.Equal(t, entity.SourceDrawPrize, txs[0].Source)
	require.Equal(t, uint64(250), txs[0].Amount)
	require.Equal(t, winner.ID, txs[0].ReferenceID.String)

	// A claim flips exactly once.
	_, err = drawDomain.ClaimDrawReward(userCtx, &model.ClaimDrawRewardRequest{WinnerID: winner.ID})
	require.Error(t, err)
	require.Equal(t, "This reward was already claimed", err.Error())
}

func Test_drawDomain_ClaimDrawReward_Item(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	_, err = testutil.SampleRewardProfile(ctx, &entity.RewardProfile{UserID: user.ID})
	require.NoError(t, err)
	item, err := testutil.SampleRewardItem(ctx, nil)
	require.NoError(t, err)

	drawRepo := repository.NewDrawRepository()
	event := sampleDrawEvent(t, ctx, entity.DrawEvent{})
	prize := entity.DrawPrize{
		Base:        entity.Base{ID: uuid.NewString()},
		DrawEventID: event.ID,
		Name:        "Gift card prize",
		Rewards: entity.Array[entity.Reward]{
			{Type: entity.ItemReward, Data: entity.Map{"reward_item_id": item.ID}},
		},
		AvailableCount: 1,
		WonCount:       1,
	}
	require.NoError(t, drawRepo.CreatePrize(ctx, &prize))

	winner := entity.DrawWinner{
		Base:        entity.Base{ID: uuid.NewString()},
		DrawPrizeID: prize.ID,
		UserID:      user.ID,
	}
	require.NoError(t, drawRepo.CreateWinner(ctx, &winner))

	publisher := &testutil.MockPublisher{}
	drawDomain := newTestDrawDomain(publisher)
	userCtx := testutil.MockContextWithUserID(ctx, user.ID)

	_, err = drawDomain.ClaimDrawReward(userCtx, &model.ClaimDrawRewardRequest{WinnerID: winner.ID})
	require.NoError(t, err)

	// The won item turns into a free pending redemption for the worker.
	redemptions, err := repository.NewRedemptionRepository().GetListByUserID(ctx, user.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, redemptions, 1)
	require.Equal(t, item.ID, redemptions[0].RewardItemID)
	require.Equal(t, uint64(0), redemptions[0].Cost)
	require.Equal(t, entity.RedemptionPending, redemptions[0].Status)

	packs := publisher.Packs(model.RedemptionCreatedTopic)
	require.Len(t, packs, 1)
	var msg model.RedemptionCreatedMessage
	require.NoError(t, json.Unmarshal(packs[0].Msg, &msg))
	require.Equal(t, redemptions[0].ID, msg.RedemptionID)
}

func Test_drawDomain_CreateDrawEvent(t *testing.T) {
	ctx := testutil.MockContext()
	drawDomain := newTestDrawDomain(&testutil.MockPublisher{})

	start := time.Now().Truncate(time.Second)
	end := start.Add(7 * 24 * time.Hour)
	body := fmt.Sprintf(`{
		"name": "Weekly draw",
		"start_time": %q,
		"end_time": %q,
		"points_per_entry": 100,
		"max_entries_per_user": 5,
		"prizes": [{
			"name": "Grand prize",
			"points": 5000,
			"available_count": 1,
			"rewards": [{"type": "points", "data": {"points": 5000}}]
		}]
	}`, start.Format(time.RFC3339), end.Format(time.RFC3339))

	var req model.CreateDrawEventRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	resp, err := drawDomain.CreateDrawEvent(ctx, &req)
	require.NoError(t, err)
	require.NotEmpty(t, resp.ID)

	event, err := repository.NewDrawRepository().GetEventByID(ctx, resp.ID)
	require.NoError(t, err)
	require.Equal(t, "Weekly draw", event.Name)
	require.Equal(t, uint64(100), event.PointsPerEntry)
	require.False(t, event.IsSettled)

	prizes, err := repository.NewDrawRepository().GetPrizesByEventID(ctx, resp.ID)
	require.NoError(t, err)
	require.Len(t, prizes, 1)
	require.Equal(t, "Grand prize", prizes[0].Name)
	require.Equal(t, uint64(5000), prizes[0].Points)
	require.Len(t, prizes[0].Rewards, 1)
	require.Equal(t, entity.PointsReward, prizes[0].Rewards[0].Type)

	// Validation rejects a nameless event.
	req.Name = ""
	_, err = drawDomain.CreateDrawEvent(ctx, &req)
	require.Error(t, err)
	require.Equal(t, "Not allow empty event name", err.Error())

	// And an unknown reward type.
	req.Name = "Weekly draw"
	req.Prizes[0].Rewards[0].Type = "jackpot"
	_, err = drawDomain.CreateDrawEvent(ctx, &req)
	require.Error(t, err)
	require.Equal(t, "Invalid reward type jackpot", err.Error())
}
