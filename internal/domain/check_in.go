package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/BillixOfficial/rewards-backend/internal/domain/progression"
	"github.com/BillixOfficial/rewards-backend/internal/domain/statistic"
	"github.com/BillixOfficial/rewards-backend/internal/domain/stream"
	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/internal/model"
	"github.com/BillixOfficial/rewards-backend/internal/repository"
	"github.com/BillixOfficial/rewards-backend/pkg/dateutil"
	"github.com/BillixOfficial/rewards-backend/pkg/errorx"
	"github.com/BillixOfficial/rewards-backend/pkg/numberutil"
	"github.com/BillixOfficial/rewards-backend/pkg/pubsub"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"
	mathUtil "github.com/pkg/math"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type CheckInDomain interface {
	CheckIn(context.Context, *model.CheckInRequest) (*model.CheckInResponse, error)
	GetMyStreak(context.Context, *model.GetMyStreakRequest) (*model.GetMyStreakResponse, error)
	GetWeekRecap(context.Context, *model.GetWeekRecapRequest) (*model.GetWeekRecapResponse, error)
}

type checkInDomain struct {
	checkInRepo          repository.CheckInRepository
	rewardProfileRepo    repository.RewardProfileRepository
	pointTransactionRepo repository.PointTransactionRepository
	pointActivityRepo    repository.PointActivityRepository
	tierScanner          *tierScanner
	leaderboard          statistic.Leaderboard
	publisher            pubsub.Publisher
	streamRouter         *stream.Router
}

func NewCheckInDomain(
	checkInRepo repository.CheckInRepository,
	rewardProfileRepo repository.RewardProfileRepository,
	pointTransactionRepo repository.PointTransactionRepository,
	pointActivityRepo repository.PointActivityRepository,
	tierAwardRepo repository.TierAwardRepository,
	leaderboard statistic.Leaderboard,
	publisher pubsub.Publisher,
	streamRouter *stream.Router,
) *checkInDomain {
	return &checkInDomain{
		checkInRepo:          checkInRepo,
		rewardProfileRepo:    rewardProfileRepo,
		pointTransactionRepo: pointTransactionRepo,
		pointActivityRepo:    pointActivityRepo,
		tierScanner:          newTierScanner(rewardProfileRepo, tierAwardRepo),
		leaderboard:          leaderboard,
		publisher:            publisher,
		streamRouter:         streamRouter,
	}
}

func (d *checkInDomain) CheckIn(
	ctx context.Context, req *model.CheckInRequest,
) (*model.CheckInResponse, error) {
	userID := xcontext.RequestUserID(ctx)
	now := time.Now().UTC()
	today := dateutil.Date(now)

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	// The primary key on (user id, date) is the last guard, this check only
	// turns a second call of the day into a friendly error.
	_, err := d.checkInRepo.Get(ctx, userID, today)
	if err == nil {
		return nil, errorx.New(errorx.AlreadyCheckedIn, "You already checked in today")
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get check-in of today: %v", err)
		return nil, errorx.Unknown
	}

	profile, err := d.rewardProfileRepo.Get(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get reward profile: %v", err)
		return nil, errorx.Unknown
	}

	// A streak survives as long as every day is covered. Anything older than
	// yesterday starts over at one.
	isStreak := dateutil.IsSameDay(profile.LastCheckInDate.UTC(), today.AddDate(0, 0, -1))
	streak := 1
	if isStreak {
		streak = profile.CurrentStreak + 1
	}

	cfg := xcontext.Configs(ctx).Reward
	bonusDays := mathUtil.MinInt(streak-1, cfg.StreakBonusCap)
	points := cfg.CheckInBasePoints + cfg.StreakBonusPoints*uint64(bonusDays)

	var weeklyBonus uint64
	if streak%progression.DaysPerWeek == 0 {
		weeklyBonus = cfg.WeeklyBonusPoints
	}

	checkIn := &entity.CheckIn{
		UserID: userID,
		Date:   today,
		Points: points + weeklyBonus,
		Streak: streak,
	}
	if err := d.checkInRepo.Create(ctx, checkIn); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create check-in: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.rewardProfileRepo.UpdateStreak(ctx, userID, isStreak, today); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update streak: %v", err)
		return nil, errorx.Unknown
	}

	balance, err := d.grantPoints(ctx, userID, points, entity.SourceCheckIn)
	if err != nil {
		return nil, err
	}

	// The seventh day of every streak pays an extra bonus as its own ledger
	// row, the statement of the user shows where it came from.
	if weeklyBonus > 0 {
		balance, err = d.grantPoints(ctx, userID, weeklyBonus, entity.SourceStreakBonus)
		if err != nil {
			return nil, err
		}
	}

	awarded, err := d.tierScanner.Scan(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot scan tier awards: %v", err)
		return nil, errorx.Unknown
	}

	ctx = xcontext.WithCommitDBTransaction(ctx)

	announceTierAwards(ctx, d.publisher, d.streamRouter, userID, awarded)

	total := points + weeklyBonus
	err = d.leaderboard.ChangePointLeaderboard(ctx, int64(total), now, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update leaderboard: %v", err)
	}

	msg, err := json.Marshal(model.PointsGrantedMessage{
		UserID:       userID,
		Amount:       total,
		Source:       string(entity.SourceCheckIn),
		BalanceAfter: balance,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot marshal points message: %v", err)
	} else {
		err = d.publisher.Publish(ctx, model.PointsGrantedTopic,
			&pubsub.Pack{Key: []byte(userID), Msg: msg})
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot publish points message: %v", err)
		}
	}

	activityID := xcontext.SnowFlake(ctx).Generate().Int64()
	err = d.pointActivityRepo.Create(ctx, &entity.PointActivity{
		ID:        activityID,
		UserID:    userID,
		Bucket:    numberutil.CreateBucket(activityID),
		Type:      string(entity.SourceCheckIn),
		Amount:    total,
		Title:     fmt.Sprintf("Daily check-in, day %d of your streak", streak),
		CreatedAt: now,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create point activity: %v", err)
	}

	d.streamRouter.Route(userID, &stream.BalanceChangedEvent{
		Balance: balance,
		Delta:   int64(total),
		Source:  string(entity.SourceCheckIn),
	})

	return &model.CheckInResponse{
		CheckIn: model.ConvertCheckIn(checkIn),
		Balance: balance,
	}, nil
}

// grantPoints credits the balance and writes a ledger row inside the current
// transaction. It returns the balance after the credit.
func (d *checkInDomain) grantPoints(
	ctx context.Context, userID string, amount uint64, source entity.TransactionSource,
) (uint64, error) {
	if err := d.rewardProfileRepo.IncreasePoints(ctx, userID, amount); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot increase points: %v", err)
		return 0, errorx.Unknown
	}

	after, err := d.rewardProfileRepo.Get(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get reward profile after increase: %v", err)
		return 0, errorx.Unknown
	}

	err = d.pointTransactionRepo.Create(ctx, &entity.PointTransaction{
		ID:           xcontext.SnowFlake(ctx).Generate().Int64(),
		UserID:       userID,
		Type:         entity.TransactionEarn,
		Source:       source,
		Amount:       amount,
		BalanceAfter: after.Points,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create point transaction: %v", err)
		return 0, errorx.Unknown
	}

	return after.Points, nil
}

func (d *checkInDomain) GetMyStreak(
	ctx context.Context, req *model.GetMyStreakRequest,
) (*model.GetMyStreakResponse, error) {
	userID := xcontext.RequestUserID(ctx)
	profile, err := d.rewardProfileRepo.Get(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get reward profile: %v", err)
		return nil, errorx.Unknown
	}

	now := time.Now().UTC()
	today := dateutil.Date(now)
	lastCheckIn := profile.LastCheckInDate.UTC()
	checkedInToday := dateutil.IsSameDay(lastCheckIn, today)

	// The stored counter is only rewritten on the next check-in. A streak
	// whose last day is older than yesterday is already dead, report zero.
	streak := profile.CurrentStreak
	if !checkedInToday && !dateutil.IsSameDay(lastCheckIn, today.AddDate(0, 0, -1)) {
		streak = 0
	}

	week, err := d.weekFlags(ctx, userID, dateutil.CurrentWeek(now))
	if err != nil {
		return nil, err
	}

	return &model.GetMyStreakResponse{
		CurrentStreak:  streak,
		LongestStreak:  profile.LongestStreak,
		CheckedInToday: checkedInToday,
		State:          progression.StreakState(streak, checkedInToday),
		Week:           week,
	}, nil
}

func (d *checkInDomain) GetWeekRecap(
	ctx context.Context, req *model.GetWeekRecapRequest,
) (*model.GetWeekRecapResponse, error) {
	userID := xcontext.RequestUserID(ctx)
	now := time.Now().UTC()

	// The recap always covers the last complete week, never the running one.
	end := dateutil.CurrentWeek(now)
	begin := end.AddDate(0, 0, -progression.DaysPerWeek)

	var week []bool
	var earned uint64
	eg, _ := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		week, err = d.weekFlags(ctx, userID, begin)
		return err
	})
	eg.Go(func() error {
		sum, err := d.pointTransactionRepo.SumEarnedInRange(ctx, userID, begin, end)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot sum earned points: %v", err)
			return errorx.Unknown
		}

		earned = sum
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	streak, err := progression.ComputeStreak(week)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot compute streak of recap: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GetWeekRecapResponse{
		Week:         week,
		Streak:       streak,
		PointsEarned: earned,
	}, nil
}

// weekFlags loads the Monday-first check-in flags of the week starting at
// begin.
func (d *checkInDomain) weekFlags(
	ctx context.Context, userID string, begin time.Time,
) ([]bool, error) {
	checkIns, err := d.checkInRepo.GetRange(
		ctx, userID, begin, begin.AddDate(0, 0, progression.DaysPerWeek))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get check-ins of week: %v", err)
		return nil, errorx.Unknown
	}

	week := make([]bool, progression.DaysPerWeek)
	for _, c := range checkIns {
		day := int(dateutil.Date(c.Date.UTC()).Sub(begin).Hours() / 24)
		if day >= 0 && day < len(week) {
			week[day] = true
		}
	}

	return week, nil
}
