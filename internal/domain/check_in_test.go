package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/BillixOfficial/rewards-backend/internal/domain/progression"
	"github.com/BillixOfficial/rewards-backend/internal/domain/stream"
	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/internal/model"
	"github.com/BillixOfficial/rewards-backend/internal/repository"
	"github.com/BillixOfficial/rewards-backend/pkg/dateutil"
	"github.com/BillixOfficial/rewards-backend/pkg/testutil"

	"github.com/stretchr/testify/require"
)

func newTestCheckInDomain(publisher *testutil.MockPublisher) *checkInDomain {
	return NewCheckInDomain(
		repository.NewCheckInRepository(),
		repository.NewRewardProfileRepository(),
		repository.NewPointTransactionRepository(),
		testutil.NewMockPointActivityRepository(),
		repository.NewTierAwardRepository(),
		&testutil.MockLeaderboard{},
		publisher,
		stream.NewRouter(),
	)
}

func Test_checkInDomain_CheckIn_FirstDay(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	_, err = testutil.SampleRewardProfile(ctx, &entity.RewardProfile{UserID: user.ID})
	require.NoError(t, err)

	publisher := &testutil.MockPublisher{}
	checkInDomain := newTestCheckInDomain(publisher)
	ctx = testutil.MockContextWithUserID(ctx, user.ID)

	// Check in successfully with the base points and a fresh streak.
	resp, err := checkInDomain.CheckIn(ctx, &model.CheckInRequest{})
	require.NoError(t, err)
	require.Equal(t, uint64(50), resp.CheckIn.Points)
	require.Equal(t, 1, resp.CheckIn.Streak)
	require.Equal(t, uint64(50), resp.Balance)

	profile, err := repository.NewRewardProfileRepository().Get(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(50), profile.Points)
	require.Equal(t, uint64(50), profile.LifetimePoints)
	require.Equal(t, 1, profile.CurrentStreak)
	require.Equal(t, 1, profile.LongestStreak)

	// The grant leaves exactly one earn row in the ledger.
	txs, err := repository.NewPointTransactionRepository().GetListByUserID(ctx, user.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.Equal(t, entity.TransactionEarn, txs[0].Type)
	require.Equal(t, entity.SourceCheckIn, txs[0].Source)
	require.Equal(t, uint64(50), txs[0].Amount)
	require.Equal(t, uint64(50), txs[0].BalanceAfter)

	packs := publisher.Packs(model.PointsGrantedTopic)
	require.Len(t, packs, 1)
	var msg model.PointsGrantedMessage
	require.NoError(t, json.Unmarshal(packs[0].Msg, &msg))
	require.Equal(t, user.ID, msg.UserID)
	require.Equal(t, uint64(50), msg.Amount)
	require.Equal(t, uint64(50), msg.BalanceAfter)

	// Check in again the same day.
	_, err = checkInDomain.CheckIn(ctx, &model.CheckInRequest{})
	require.Error(t, err)
	require.Equal(t, "You already checked in today", err.Error())

	// The failed second call changed nothing.
	profile, err = repository.NewRewardProfileRepository().Get(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(50), profile.Points)
	require.Equal(t, 1, profile.CurrentStreak)
}

func Test_checkInDomain_CheckIn_ContinuesStreak(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	yesterday := dateutil.Date(time.Now().UTC()).AddDate(0, 0, -1)
	_, err = testutil.SampleRewardProfile(ctx, &entity.RewardProfile{
		UserID:          user.ID,
		CurrentStreak:   3,
		LongestStreak:   3,
		LastCheckInDate: yesterday,
	})
	require.NoError(t, err)

	checkInDomain := newTestCheckInDomain(&testutil.MockPublisher{})
	ctx = testutil.MockContextWithUserID(ctx, user.ID)

	// Day four of the streak pays the base plus three bonus days.
	resp, err := checkInDomain.CheckIn(ctx, &model.CheckInRequest{})
	require.NoError(t, err)
	require.Equal(t, 4, resp.CheckIn.Streak)
	require.Equal(t, uint64(50+10*3), resp.CheckIn.Points)

	profile, err := repository.NewRewardProfileRepository().Get(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, 4, profile.CurrentStreak)
	require.Equal(t, 4, profile.LongestStreak)
}

func Test_checkInDomain_CheckIn_GapResetsStreak(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	threeDaysAgo := dateutil.Date(time.Now().UTC()).AddDate(0, 0, -3)
	_, err = testutil.SampleRewardProfile(ctx, &entity.RewardProfile{
		UserID:          user.ID,
		CurrentStreak:   5,
		LongestStreak:   5,
		LastCheckInDate: threeDaysAgo,
	})
	require.NoError(t, err)

	checkInDomain := newTestCheckInDomain(&testutil.MockPublisher{})
	ctx = testutil.MockContextWithUserID(ctx, user.ID)

	// The missed days killed the streak, this check-in starts over at one
	// with no bonus.
	resp, err := checkInDomain.CheckIn(ctx, &model.CheckInRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, resp.CheckIn.Streak)
	require.Equal(t, uint64(50), resp.CheckIn.Points)

	profile, err := repository.NewRewardProfileRepository().Get(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, 1, profile.CurrentStreak)
	require.Equal(t, 5, profile.LongestStreak)
}

func Test_checkInDomain_CheckIn_WeeklyBonus(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	yesterday := dateutil.Date(time.Now().UTC()).AddDate(0, 0, -1)
	_, err = testutil.SampleRewardProfile(ctx, &entity.RewardProfile{
		UserID:          user.ID,
		CurrentStreak:   6,
		LongestStreak:   6,
		LastCheckInDate: yesterday,
	})
	require.NoError(t, err)

	publisher := &testutil.MockPublisher{}
	checkInDomain := newTestCheckInDomain(publisher)
	ctx = testutil.MockContextWithUserID(ctx, user.ID)

	// Day seven pays the capped streak bonus plus the weekly bonus.
	resp, err := checkInDomain.CheckIn(ctx, &model.CheckInRequest{})
	require.NoError(t, err)
	require.Equal(t, 7, resp.CheckIn.Streak)
	require.Equal(t, uint64(50+10*6+200), resp.CheckIn.Points)
	require.Equal(t, uint64(310), resp.Balance)

	// The weekly bonus gets its own ledger row.
	txs, err := repository.NewPointTransactionRepository().GetListByUserID(ctx, user.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	require.Equal(t, entity.SourceStreakBonus, txs[0].Source)
	require.Equal(t, uint64(200), txs[0].Amount)
	require.Equal(t, uint64(310), txs[0].BalanceAfter)
	require.Equal(t, entity.SourceCheckIn, txs[1].Source)
	require.Equal(t, uint64(110), txs[1].Amount)

	// The notification reports the full amount of the day.
	packs := publisher.Packs(model.PointsGrantedTopic)
	require.Len(t, packs, 1)
	var msg model.PointsGrantedMessage
	require.NoError(t, json.Unmarshal(packs[0].Msg, &msg))
	require.Equal(t, uint64(310), msg.Amount)
}

func Test_checkInDomain_GetMyStreak(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	_, err = testutil.SampleRewardProfile(ctx, &entity.RewardProfile{UserID: user.ID})
	require.NoError(t, err)

	checkInDomain := newTestCheckInDomain(&testutil.MockPublisher{})
	ctx = testutil.MockContextWithUserID(ctx, user.ID)

	// Before any check-in there is nothing to report.
	resp, err := checkInDomain.GetMyStreak(ctx, &model.GetMyStreakRequest{})
	require.NoError(t, err)
	require.Equal(t, 0, resp.CurrentStreak)
	require.False(t, resp.CheckedInToday)
	require.Equal(t, progression.StreakNone, resp.State)
	require.Len(t, resp.Week, 7)

	// After checking in the streak is hot and today is flagged in the week.
	_, err = checkInDomain.CheckIn(ctx, &model.CheckInRequest{})
	require.NoError(t, err)

	resp, err = checkInDomain.GetMyStreak(ctx, &model.GetMyStreakRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, resp.CurrentStreak)
	require.True(t, resp.CheckedInToday)
	require.Equal(t, progression.StreakHot, resp.State)

	now := time.Now().UTC()
	today := int(dateutil.Date(now).Sub(dateutil.CurrentWeek(now)).Hours() / 24)
	require.True(t, resp.Week[today])
}

func Test_checkInDomain_GetMyStreak_Cooling(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	yesterday := dateutil.Date(time.Now().UTC()).AddDate(0, 0, -1)
	_, err = testutil.SampleRewardProfile(ctx, &entity.RewardProfile{
		UserID:          user.ID,
		CurrentStreak:   2,
		LongestStreak:   4,
		LastCheckInDate: yesterday,
	})
	require.NoError(t, err)

	checkInDomain := newTestCheckInDomain(&testutil.MockPublisher{})
	ctx = testutil.MockContextWithUserID(ctx, user.ID)

	// The streak of yesterday still counts but today is uncovered.
	resp, err := checkInDomain.GetMyStreak(ctx, &model.GetMyStreakRequest{})
	require.NoError(t, err)
	require.Equal(t, 2, resp.CurrentStreak)
	require.Equal(t, 4, resp.LongestStreak)
	require.False(t, resp.CheckedInToday)
	require.Equal(t, progression.StreakCooling, resp.State)
}

func Test_checkInDomain_GetMyStreak_DeadStreakReportsZero(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	threeDaysAgo := dateutil.Date(time.Now().UTC()).AddDate(0, 0, -3)
	_, err = testutil.SampleRewardProfile(ctx, &entity.RewardProfile{
		UserID:          user.ID,
		CurrentStreak:   9,
		LongestStreak:   9,
		LastCheckInDate: threeDaysAgo,
	})
	require.NoError(t, err)

	checkInDomain := newTestCheckInDomain(&testutil.MockPublisher{})
	ctx = testutil.MockContextWithUserID(ctx, user.ID)

	// The stored counter is stale, the report already shows zero.
	resp, err := checkInDomain.GetMyStreak(ctx, &model.GetMyStreakRequest{})
	require.NoError(t, err)
	require.Equal(t, 0, resp.CurrentStreak)
	require.Equal(t, 9, resp.LongestStreak)
	require.Equal(t, progression.StreakNone, resp.State)
}

func Test_checkInDomain_GetWeekRecap(t *testing.T) {
	ctx := testutil.MockContext()
	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	_, err = testutil.SampleRewardProfile(ctx, &entity.RewardProfile{UserID: user.ID})
	require.NoError(t, err)

	now := time.Now().UTC()
	begin := dateutil.CurrentWeek(now).AddDate(0, 0, -7)

	// Last week covered Thursday through Sunday.
	checkInRepo := repository.NewCheckInRepository()
	for _, day := range []int{3, 4, 5, 6} {
		err := checkInRepo.Create(ctx, &entity.CheckIn{
			UserID: user.ID,
			Date:   begin.AddDate(0, 0, day),
			Points: 50,
			Streak: day - 2,
		})
		require.NoError(t, err)
	}

	// One earn row inside the week, one before it.
	pointTransactionRepo := repository.NewPointTransactionRepository()
	err = pointTransactionRepo.Create(ctx, &entity.PointTransaction{
		ID:           1,
		UserID:       user.ID,
		Type:         entity.TransactionEarn,
		Source:       entity.SourceCheckIn,
		Amount:       200,
		BalanceAfter: 200,
		CreatedAt:    begin.AddDate(0, 0, 3),
	})
	require.NoError(t, err)
	err = pointTransactionRepo.Create(ctx, &entity.PointTransaction{
		ID:           2,
		UserID:       user.ID,
		Type:         entity.TransactionEarn,
		Source:       entity.SourceCheckIn,
		Amount:       999,
		BalanceAfter: 999,
		CreatedAt:    begin.AddDate(0, 0, -1),
	})
	require.NoError(t, err)

	checkInDomain := newTestCheckInDomain(&testutil.MockPublisher{})
	ctx = testutil.MockContextWithUserID(ctx, user.ID)

	resp, err := checkInDomain.GetWeekRecap(ctx, &model.GetWeekRecapRequest{})
	require.NoError(t, err)
	require.Equal(t, []bool{false, false, false, true, true, true, true}, resp.Week)
	require.Equal(t, 4, resp.Streak)
	require.Equal(t, uint64(200), resp.PointsEarned)
}
