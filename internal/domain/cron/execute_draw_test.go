package cron

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/internal/model"
	"github.com/BillixOfficial/rewards-backend/internal/repository"
	"github.com/BillixOfficial/rewards-backend/pkg/dateutil"
	"github.com/BillixOfficial/rewards-backend/pkg/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestExecuteDrawJob(
	activityRepo *testutil.MockPointActivityRepository, publisher *testutil.MockPublisher,
) *ExecuteDrawCronJob {
	return NewExecuteDrawCronJob(
		repository.NewDrawRepository(),
		repository.NewRewardProfileRepository(),
		repository.NewPointTransactionRepository(),
		activityRepo,
		&testutil.MockLeaderboard{},
		publisher,
	)
}

func drawParticipant(t *testing.T, ctx context.Context, eventID string, entries int) entity.User {
	t.Helper()

	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	_, err = testutil.SampleRewardProfile(ctx, &entity.RewardProfile{UserID: user.ID})
	require.NoError(t, err)

	for i := 0; i < entries; i++ {
		err := repository.NewDrawRepository().CreateEntry(ctx, &entity.DrawEntry{
			Base:        entity.Base{ID: uuid.NewString()},
			DrawEventID: eventID,
			UserID:      user.ID,
		})
		require.NoError(t, err)
	}

	return user
}

func Test_ExecuteDrawCronJob_Do(t *testing.T) {
	ctx := testutil.MockContext()
	drawRepo := repository.NewDrawRepository()

	event := entity.DrawEvent{
		Base:              entity.Base{ID: uuid.NewString()},
		Name:              "Weekly draw",
		StartTime:         time.Now().Add(-8 * 24 * time.Hour),
		EndTime:           time.Now().Add(-time.Hour),
		PointsPerEntry:    100,
		MaxEntriesPerUser: 5,
	}
	require.NoError(t, drawRepo.CreateEvent(ctx, &event))

	prize := entity.DrawPrize{
		Base:           entity.Base{ID: uuid.NewString()},
		DrawEventID:    event.ID,
		Name:           "Grand prize",
		Points:         500,
		AvailableCount: 2,
	}
	require.NoError(t, drawRepo.CreatePrize(ctx, &prize))

	heavy := drawParticipant(t, ctx, event.ID, 3)
	light := drawParticipant(t, ctx, event.ID, 1)

	activityRepo := testutil.NewMockPointActivityRepository()
	publisher := &testutil.MockPublisher{}
	job := newTestExecuteDrawJob(activityRepo, publisher)
	job.Do(ctx)

	// The event settles exactly once.
	settled, err := drawRepo.GetEventByID(ctx, event.ID)
	require.NoError(t, err)
	require.True(t, settled.IsSettled)

	// With two units and two players everyone wins one, more tickets only
	// raise the odds of being drawn first.
	winners, err := drawRepo.GetWinnersByEventID(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, winners, 2)
	winnerSet := map[string]bool{}
	for _, w := range winners {
		winnerSet[w.UserID] = true
	}
	require.True(t, winnerSet[heavy.ID])
	require.True(t, winnerSet[light.ID])

	wonPrize, err := drawRepo.GetPrizeByID(ctx, prize.ID)
	require.NoError(t, err)
	require.Equal(t, 2, wonPrize.WonCount)

	// The point part of the prize lands on the balance and in the ledger.
	for _, userID := range []string{heavy.ID, light.ID} {
		profile, err := repository.NewRewardProfileRepository().Get(ctx, userID)
		require.NoError(t, err)
		require.Equal(t, uint64(500), profile.Points)

		txs, err := repository.NewPointTransactionRepository().GetListByUserID(ctx, userID, 0, 10)
		require.NoError(t, err)
		require.Len(t, txs, 1)
		require.Equal(t, entity.TransactionEarn, txs[0].Type)
		require.Equal(t, entity.SourceDrawPrize, txs[0].Source)
		require.Equal(t, uint64(500), txs[0].Amount)
		require.Equal(t, uint64(500), txs[0].BalanceAfter)
	}

	// The follow-up event opens where the old one closed and carries the
	// same prize lineup with a fresh won counter.
	successor, err := drawRepo.GetLastEvent(ctx)
	require.NoError(t, err)
	require.NotEqual(t, event.ID, successor.ID)
	require.False(t, successor.IsSettled)
	require.WithinDuration(t, event.EndTime, successor.StartTime, time.Second)
	require.WithinDuration(t, event.EndTime.AddDate(0, 0, 7), successor.EndTime, time.Second)
	require.Equal(t, uint64(100), successor.PointsPerEntry)
	require.Equal(t, 5, successor.MaxEntriesPerUser)

	nextPrizes, err := drawRepo.GetPrizesByEventID(ctx, successor.ID)
	require.NoError(t, err)
	require.Len(t, nextPrizes, 1)
	require.Equal(t, "Grand prize", nextPrizes[0].Name)
	require.Equal(t, uint64(500), nextPrizes[0].Points)
	require.Equal(t, 2, nextPrizes[0].AvailableCount)
	require.Equal(t, 0, nextPrizes[0].WonCount)

	// One announcement per winner plus one per event.
	require.Len(t, publisher.Packs(model.PointsGrantedTopic), 2)

	settledPacks := publisher.Packs(model.DrawSettledTopic)
	require.Len(t, settledPacks, 1)
	var msg model.DrawSettledMessage
	require.NoError(t, json.Unmarshal(settledPacks[0].Msg, &msg))
	require.Equal(t, event.ID, msg.DrawEventID)
	require.Equal(t, 2, msg.Winners)

	activities, err := activityRepo.GetList(ctx, heavy.ID, 0, 10, time.Time{})
	require.NoError(t, err)
	require.Len(t, activities, 1)
	require.Equal(t, "Won the prize Grand prize", activities[0].Title)

	// The next wakeup aims at the end of the successor.
	require.WithinDuration(t, successor.EndTime, job.nextDraw, time.Second)

	// A second run has nothing left to settle.
	job.Do(ctx)
	require.Len(t, publisher.Packs(model.DrawSettledTopic), 1)

	// An instance losing the settle race backs off silently.
	require.NoError(t, job.settle(ctx, &event))
	require.Len(t, publisher.Packs(model.DrawSettledTopic), 1)
}

func Test_ExecuteDrawCronJob_Do_MoreUnitsThanPlayers(t *testing.T) {
	ctx := testutil.MockContext()
	drawRepo := repository.NewDrawRepository()

	event := entity.DrawEvent{
		Base:      entity.Base{ID: uuid.NewString()},
		Name:      "Weekly draw",
		StartTime: time.Now().Add(-8 * 24 * time.Hour),
		EndTime:   time.Now().Add(-time.Hour),
	}
	require.NoError(t, drawRepo.CreateEvent(ctx, &event))

	prize := entity.DrawPrize{
		Base:           entity.Base{ID: uuid.NewString()},
		DrawEventID:    event.ID,
		Name:           "Grand prize",
		Points:         500,
		AvailableCount: 3,
	}
	require.NoError(t, drawRepo.CreatePrize(ctx, &prize))

	user := drawParticipant(t, ctx, event.ID, 2)

	publisher := &testutil.MockPublisher{}
	job := newTestExecuteDrawJob(testutil.NewMockPointActivityRepository(), publisher)
	job.Do(ctx)

	// A user wins at most one unit, the extra units stay unwon.
	winners, err := drawRepo.GetWinnersByEventID(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, winners, 1)
	require.Equal(t, user.ID, winners[0].UserID)

	wonPrize, err := drawRepo.GetPrizeByID(ctx, prize.ID)
	require.NoError(t, err)
	require.Equal(t, 1, wonPrize.WonCount)

	profile, err := repository.NewRewardProfileRepository().Get(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(500), profile.Points)

	settledPacks := publisher.Packs(model.DrawSettledTopic)
	require.Len(t, settledPacks, 1)
	var msg model.DrawSettledMessage
	require.NoError(t, json.Unmarshal(settledPacks[0].Msg, &msg))
	require.Equal(t, 1, msg.Winners)
}

func Test_ExecuteDrawCronJob_Do_SeedsFirstEvent(t *testing.T) {
	ctx := testutil.MockContext()

	job := newTestExecuteDrawJob(testutil.NewMockPointActivityRepository(), &testutil.MockPublisher{})
	job.Do(ctx)

	// A fresh deployment gets its weekly draw from the configs.
	drawRepo := repository.NewDrawRepository()
	event, err := drawRepo.GetLastEvent(ctx)
	require.NoError(t, err)
	require.Equal(t, "Weekly draw", event.Name)
	require.Equal(t, uint64(100), event.PointsPerEntry)
	require.Equal(t, 5, event.MaxEntriesPerUser)
	require.False(t, event.IsSettled)

	wantEnd := dateutil.NextOccurrence(time.Now(), time.Sunday, dateutil.ClockTime{Hour: 18})
	require.WithinDuration(t, wantEnd, event.EndTime, time.Minute)

	prizes, err := drawRepo.GetPrizesByEventID(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, prizes, 1)
	require.Equal(t, "Grand prize", prizes[0].Name)
	require.Equal(t, uint64(5000), prizes[0].Points)
	require.Equal(t, 1, prizes[0].AvailableCount)

	require.WithinDuration(t, event.EndTime, job.nextDraw, time.Second)

	// A second run leaves the seeded event alone.
	job.Do(ctx)
	current, err := drawRepo.GetCurrentEvents(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, current, 1)
	require.Equal(t, event.ID, current[0].ID)
}
