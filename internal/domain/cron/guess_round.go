package cron

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BillixOfficial/rewards-backend/internal/domain/statistic"
	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/internal/model"
	"github.com/BillixOfficial/rewards-backend/internal/repository"
	"github.com/BillixOfficial/rewards-backend/pkg/crypto"
	"github.com/BillixOfficial/rewards-backend/pkg/dateutil"
	"github.com/BillixOfficial/rewards-backend/pkg/numberutil"
	"github.com/BillixOfficial/rewards-backend/pkg/pubsub"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"
	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"gorm.io/gorm"
)

// GuessRoundCronJob settles ended guess-the-bill rounds and opens the round of
// the new day right after midnight.
type GuessRoundCronJob struct {
	guessRepo            repository.GuessRepository
	rewardProfileRepo    repository.RewardProfileRepository
	pointTransactionRepo repository.PointTransactionRepository
	pointActivityRepo    repository.PointActivityRepository
	leaderboard          statistic.Leaderboard
	publisher            pubsub.Publisher
}

func NewGuessRoundCronJob(
	guessRepo repository.GuessRepository,
	rewardProfileRepo repository.RewardProfileRepository,
	pointTransactionRepo repository.PointTransactionRepository,
	pointActivityRepo repository.PointActivityRepository,
	leaderboard statistic.Leaderboard,
	publisher pubsub.Publisher,
) *GuessRoundCronJob {
	return &GuessRoundCronJob{
		guessRepo:            guessRepo,
		rewardProfileRepo:    rewardProfileRepo,
		pointTransactionRepo: pointTransactionRepo,
		pointActivityRepo:    pointActivityRepo,
		leaderboard:          leaderboard,
		publisher:            publisher,
	}
}

func (job *GuessRoundCronJob) Do(ctx context.Context) {
	rounds, err := job.guessRepo.GetUnsettledEndedRounds(ctx, time.Now())
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get ended guess rounds: %v", err)
		return
	}

	for i := range rounds {
		if err := job.settle(ctx, &rounds[i]); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot settle guess round %s: %v", rounds[i].ID, err)
		}
	}

	job.openTodayRound(ctx)
}

func (job *GuessRoundCronJob) RunNow() bool {
	return true
}

func (job *GuessRoundCronJob) Next() time.Time {
	return dateutil.NextDay(time.Now())
}

// guessRewardBand is the shape of one RewardSchedule element.
type guessRewardBand struct {
	MaxPercentError float64 `mapstructure:"max_percent_error"`
	Points          uint64  `mapstructure:"points"`
}

// guessAward carries what settle needs to announce a payout after the commit.
type guessAward struct {
	userID       string
	guessID      string
	points       uint64
	balance      uint64
	percentError float64
}

func (job *GuessRoundCronJob) settle(ctx context.Context, round *entity.GuessRound) error {
	guesses, err := job.guessRepo.GetGuessesByRoundID(ctx, round.ID)
	if err != nil {
		return err
	}

	bands := make([]guessRewardBand, 0, len(round.RewardSchedule))
	for _, raw := range round.RewardSchedule {
		var band guessRewardBand
		if err := mapstructure.Decode(map[string]any(raw), &band); err != nil {
			return err
		}

		bands = append(bands, band)
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	// The settled flag flips exactly once. An instance losing this update
	// leaves the round to the winner of the race.
	if err := job.guessRepo.CheckAndSettleRound(ctx, round.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Debugf("Guess round %s was settled by another instance", round.ID)
			return nil
		}

		return err
	}

	var awards []guessAward
	for i := range guesses {
		guess := guesses[i]
		percentError := percentError(guess.AmountCents, round.AnswerCents)
		points := awardFor(bands, percentError)

		err := job.guessRepo.UpdateGuessByID(ctx, guess.ID, map[string]any{
			"percent_error":  percentError,
			"awarded_points": points,
		})
		if err != nil {
			return err
		}

		if points == 0 {
			continue
		}

		if err := job.rewardProfileRepo.IncreasePoints(ctx, guess.UserID, points); err != nil {
			return err
		}

		after, err := job.rewardProfileRepo.Get(ctx, guess.UserID)
		if err != nil {
			return err
		}

		err = job.pointTransactionRepo.Create(ctx, &entity.PointTransaction{
			ID:           xcontext.SnowFlake(ctx).Generate().Int64(),
			UserID:       guess.UserID,
			Type:         entity.TransactionEarn,
			Source:       entity.SourceGuessRound,
			Amount:       points,
			BalanceAfter: after.Points,
			ReferenceID:  sql.NullString{Valid: true, String: guess.ID},
		})
		if err != nil {
			return err
		}

		awards = append(awards, guessAward{
			userID:       guess.UserID,
			guessID:      guess.ID,
			points:       points,
			balance:      after.Points,
			percentError: percentError,
		})
	}

	ctx = xcontext.WithCommitDBTransaction(ctx)

	for _, award := range awards {
		err := job.leaderboard.ChangePointLeaderboard(
			ctx, int64(award.points), time.Now(), award.userID)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot update leaderboard: %v", err)
		}

		msg, err := json.Marshal(model.PointsGrantedMessage{
			UserID:       award.userID,
			Amount:       award.points,
			Source:       string(entity.SourceGuessRound),
			BalanceAfter: award.balance,
		})
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot marshal points granted message: %v", err)
		} else {
			err = job.publisher.Publish(ctx, model.PointsGrantedTopic,
				&pubsub.Pack{Key: []byte(award.userID), Msg: msg})
			if err != nil {
				xcontext.Logger(ctx).Errorf("Cannot publish points granted message: %v", err)
			}
		}

		activityID := xcontext.SnowFlake(ctx).Generate().Int64()
		err = job.pointActivityRepo.Create(ctx, &entity.PointActivity{
			ID:        activityID,
			UserID:    award.userID,
			Bucket:    numberutil.CreateBucket(activityID),
			Type:      string(entity.SourceGuessRound),
			Amount:    award.points,
			Title:     fmt.Sprintf("Guessed the bill within %.1f%%", award.percentError),
			CreatedAt: time.Now(),
		})
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot create point activity: %v", err)
		}
	}

	xcontext.Logger(ctx).Infof("Settled guess round %s with %d awards", round.ID, len(awards))
	return nil
}

// percentError is the distance of a guess from the answer, relative to the
// answer.
func percentError(guess, answer int64) float64 {
	if answer == 0 {
		return 100
	}

	diff := guess - answer
	if diff < 0 {
		diff = -diff
	}

	return float64(diff) / float64(answer) * 100
}

// awardFor returns the points of the first band covering the error. Bands are
// ordered from narrow to wide, so the best matching payout wins.
func awardFor(bands []guessRewardBand, percentError float64) uint64 {
	for _, band := range bands {
		if percentError <= band.MaxPercentError {
			return band.Points
		}
	}

	return 0
}

func (job *GuessRoundCronJob) openTodayRound(ctx context.Context) {
	now := time.Now()
	_, err := job.guessRepo.GetOpenRound(ctx, now)
	if err == nil {
		return
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get open guess round: %v", err)
		return
	}

	cfg := xcontext.Configs(ctx).Guess
	prompts := strings.Split(cfg.Prompts, ",")
	if len(prompts) == 0 || cfg.MaxCents <= cfg.MinCents || cfg.BasePoints == 0 {
		xcontext.Logger(ctx).Warnf("Guess round configs are incomplete, no round today")
		return
	}

	// The prompt of the day rotates through the configured list, the answer
	// is drawn fresh every day.
	prompt := strings.TrimSpace(prompts[now.YearDay()%len(prompts)])
	answer := int64(crypto.RandRange(int(cfg.MinCents), int(cfg.MaxCents)))

	round := &entity.GuessRound{
		Base:        entity.Base{ID: uuid.NewString()},
		Prompt:      prompt,
		AnswerCents: answer,
		MinCents:    cfg.MinCents,
		MaxCents:    cfg.MaxCents,
		RewardSchedule: entity.Array[entity.Map]{
			{"max_percent_error": float64(1), "points": cfg.BasePoints * 5},
			{"max_percent_error": float64(5), "points": cfg.BasePoints * 2},
			{"max_percent_error": float64(10), "points": cfg.BasePoints},
		},
		StartTime: dateutil.BeginningOfDay(now),
		EndTime:   dateutil.NextDay(now),
	}
	if err := job.guessRepo.CreateRound(ctx, round); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create the guess round of today: %v", err)
		return
	}

	xcontext.Logger(ctx).Infof("Opened the guess round of today")
}
