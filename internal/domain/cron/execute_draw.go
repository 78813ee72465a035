package cron

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
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
	"gorm.io/gorm"
)

// ExecuteDrawCronJob settles ended draw events. It draws the winners, pays the
// point part of every prize, lines up the follow-up event one week later, and
// announces the result.
type ExecuteDrawCronJob struct {
	drawRepo             repository.DrawRepository
	rewardProfileRepo    repository.RewardProfileRepository
	pointTransactionRepo repository.PointTransactionRepository
	pointActivityRepo    repository.PointActivityRepository
	leaderboard          statistic.Leaderboard
	publisher            pubsub.Publisher

	// nextDraw is refreshed at the end of every run. The manager never calls
	// Do and Next concurrently.
	nextDraw time.Time
}

func NewExecuteDrawCronJob(
	drawRepo repository.DrawRepository,
	rewardProfileRepo repository.RewardProfileRepository,
	pointTransactionRepo repository.PointTransactionRepository,
	pointActivityRepo repository.PointActivityRepository,
	leaderboard statistic.Leaderboard,
	publisher pubsub.Publisher,
) *ExecuteDrawCronJob {
	return &ExecuteDrawCronJob{
		drawRepo:             drawRepo,
		rewardProfileRepo:    rewardProfileRepo,
		pointTransactionRepo: pointTransactionRepo,
		pointActivityRepo:    pointActivityRepo,
		leaderboard:          leaderboard,
		publisher:            publisher,
	}
}

func (job *ExecuteDrawCronJob) Do(ctx context.Context) {
	events, err := job.drawRepo.GetUnsettledEndedEvents(ctx, time.Now())
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get ended draw events: %v", err)
		return
	}

	for i := range events {
		if err := job.settle(ctx, &events[i]); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot settle draw event %s: %v", events[i].ID, err)
		}
	}

	job.ensureUpcomingEvent(ctx)

	// The next wakeup aims at the end of the nearest event.
	job.nextDraw = time.Time{}
	current, err := job.drawRepo.GetCurrentEvents(ctx, time.Now())
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get current draw events: %v", err)
		return
	}

	if len(current) > 0 {
		job.nextDraw = current[0].EndTime
	}
}

func (job *ExecuteDrawCronJob) RunNow() bool {
	return true
}

func (job *ExecuteDrawCronJob) Next() time.Time {
	now := time.Now()

	// Admins can schedule events by hand, the hourly re-check picks those up.
	if job.nextDraw.IsZero() || job.nextDraw.After(now.Add(time.Hour)) {
		return now.Add(time.Hour)
	}

	if job.nextDraw.Before(now) {
		return now.Add(time.Minute)
	}

	return job.nextDraw
}

// drawGrant carries what settle needs to announce a winner after the commit.
type drawGrant struct {
	userID    string
	winnerID  string
	prizeName string
	points    uint64
	balance   uint64
}

func (job *ExecuteDrawCronJob) settle(ctx context.Context, event *entity.DrawEvent) error {
	entries, err := job.drawRepo.GetEntriesByEventID(ctx, event.ID)
	if err != nil {
		return err
	}

	prizes, err := job.drawRepo.GetPrizesByEventID(ctx, event.ID)
	if err != nil {
		return err
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	// The settled flag flips exactly once. An instance losing this update
	// leaves the event to the winner of the race.
	if err := job.drawRepo.CheckAndSettleEvent(ctx, event.ID, time.Now()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Debugf("Draw event %s was settled by another instance", event.ID)
			return nil
		}

		return err
	}

	grants, err := job.drawWinners(ctx, prizes, entries)
	if err != nil {
		return err
	}

	// The follow-up event opens the moment the old one closed and carries
	// the same prize lineup. Creating it inside the settle transaction ties
	// it to the settled flag, so exactly one successor appears.
	if err := job.createSuccessor(ctx, event, prizes); err != nil {
		return err
	}

	ctx = xcontext.WithCommitDBTransaction(ctx)

	job.announce(ctx, event, grants)
	return nil
}

// drawWinners picks one winner per prize unit. Every entry is one ticket, a
// user with more entries has better odds, and a user wins at most one prize
// per event.
func (job *ExecuteDrawCronJob) drawWinners(
	ctx context.Context, prizes []entity.DrawPrize, entries []entity.DrawEntry,
) ([]drawGrant, error) {
	pool := make([]entity.DrawEntry, len(entries))
	copy(pool, entries)

	var grants []drawGrant
	for i := range prizes {
		prize := prizes[i]
		for unit := prize.WonCount; unit < prize.AvailableCount; unit++ {
			if len(pool) == 0 {
				return grants, nil
			}

			picked := pool[crypto.RandIntn(len(pool))]

			if err := job.drawRepo.CheckAndWinEventPrize(ctx, prize.ID); err != nil {
				return nil, err
			}

			winner := &entity.DrawWinner{
				Base:        entity.Base{ID: uuid.NewString()},
				DrawPrizeID: prize.ID,
				UserID:      picked.UserID,
			}
			if err := job.drawRepo.CreateWinner(ctx, winner); err != nil {
				return nil, err
			}

			// All tickets of the winner leave the pool.
			remaining := pool[:0]
			for _, e := range pool {
				if e.UserID != picked.UserID {
					remaining = append(remaining, e)
				}
			}
			pool = remaining

			grant := drawGrant{
				userID:    picked.UserID,
				winnerID:  winner.ID,
				prizeName: prize.Name,
			}

			if prize.Points > 0 {
				balance, err := job.payPrizePoints(ctx, picked.UserID, prize.Points, winner.ID)
				if err != nil {
					return nil, err
				}

				grant.points = prize.Points
				grant.balance = balance
			}

			grants = append(grants, grant)
		}
	}

	return grants, nil
}

func (job *ExecuteDrawCronJob) payPrizePoints(
	ctx context.Context, userID string, points uint64, winnerID string,
) (uint64, error) {
	if err := job.rewardProfileRepo.IncreasePoints(ctx, userID, points); err != nil {
		return 0, err
	}

	after, err := job.rewardProfileRepo.Get(ctx, userID)
	if err != nil {
		return 0, err
	}

	err = job.pointTransactionRepo.Create(ctx, &entity.PointTransaction{
		ID:           xcontext.SnowFlake(ctx).Generate().Int64(),
		UserID:       userID,
		Type:         entity.TransactionEarn,
		Source:       entity.SourceDrawPrize,
		Amount:       points,
		BalanceAfter: after.Points,
		ReferenceID:  sql.NullString{Valid: true, String: winnerID},
	})
	if err != nil {
		return 0, err
	}

	return after.Points, nil
}

func (job *ExecuteDrawCronJob) createSuccessor(
	ctx context.Context, event *entity.DrawEvent, prizes []entity.DrawPrize,
) error {
	next := &entity.DrawEvent{
		Base:              entity.Base{ID: uuid.NewString()},
		Name:              event.Name,
		StartTime:         event.EndTime,
		EndTime:           event.EndTime.AddDate(0, 0, 7),
		PointsPerEntry:    event.PointsPerEntry,
		MaxEntriesPerUser: event.MaxEntriesPerUser,
	}
	if err := job.drawRepo.CreateEvent(ctx, next); err != nil {
		return err
	}

	for i := range prizes {
		prize := prizes[i]
		err := job.drawRepo.CreatePrize(ctx, &entity.DrawPrize{
			Base:           entity.Base{ID: uuid.NewString()},
			DrawEventID:    next.ID,
			Name:           prize.Name,
			Points:         prize.Points,
			Rewards:        prize.Rewards,
			AvailableCount: prize.AvailableCount,
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (job *ExecuteDrawCronJob) announce(
	ctx context.Context, event *entity.DrawEvent, grants []drawGrant,
) {
	for _, grant := range grants {
		if grant.points > 0 {
			err := job.leaderboard.ChangePointLeaderboard(
				ctx, int64(grant.points), time.Now(), grant.userID)
			if err != nil {
				xcontext.Logger(ctx).Errorf("Cannot update leaderboard: %v", err)
			}

			msg, err := json.Marshal(model.PointsGrantedMessage{
				UserID:       grant.userID,
				Amount:       grant.points,
				Source:       string(entity.SourceDrawPrize),
				BalanceAfter: grant.balance,
			})
			if err != nil {
				xcontext.Logger(ctx).Errorf("Cannot marshal points granted message: %v", err)
			} else {
				err = job.publisher.Publish(ctx, model.PointsGrantedTopic,
					&pubsub.Pack{Key: []byte(grant.userID), Msg: msg})
				if err != nil {
					xcontext.Logger(ctx).Errorf("Cannot publish points granted message: %v", err)
				}
			}
		}

		activityID := xcontext.SnowFlake(ctx).Generate().Int64()
		err := job.pointActivityRepo.Create(ctx, &entity.PointActivity{
			ID:        activityID,
			UserID:    grant.userID,
			Bucket:    numberutil.CreateBucket(activityID),
			Type:      string(entity.SourceDrawPrize),
			Amount:    grant.points,
			Title:     fmt.Sprintf("Won the prize %s", grant.prizeName),
			CreatedAt: time.Now(),
		})
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot create point activity: %v", err)
		}
	}

	msg, err := json.Marshal(model.DrawSettledMessage{
		DrawEventID: event.ID,
		Winners:     len(grants),
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot marshal draw settled message: %v", err)
	} else {
		err = job.publisher.Publish(ctx, model.DrawSettledTopic,
			&pubsub.Pack{Key: []byte(event.ID), Msg: msg})
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot publish draw settled message: %v", err)
		}
	}

	xcontext.Logger(ctx).Infof("Settled draw event %s with %d winners", event.ID, len(grants))
}

// ensureUpcomingEvent seeds the very first event of a fresh deployment. Every
// settlement leaves a successor behind, so after bootstrap this never fires.
func (job *ExecuteDrawCronJob) ensureUpcomingEvent(ctx context.Context) {
	now := time.Now()
	last, err := job.drawRepo.GetLastEvent(ctx)
	if err == nil && last.EndTime.After(now) {
		return
	}

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get last draw event: %v", err)
		return
	}

	cfg := xcontext.Configs(ctx).Draw
	event := &entity.DrawEvent{
		Base:              entity.Base{ID: uuid.NewString()},
		Name:              "Weekly draw",
		StartTime:         now,
		EndTime:           dateutil.NextOccurrence(now, cfg.Weekday, dateutil.ClockTime{Hour: cfg.Hour}),
		PointsPerEntry:    cfg.PointsPerEntry,
		MaxEntriesPerUser: cfg.MaxEntriesPerUser,
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := job.drawRepo.CreateEvent(ctx, event); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create the first draw event: %v", err)
		return
	}

	err = job.drawRepo.CreatePrize(ctx, &entity.DrawPrize{
		Base:           entity.Base{ID: uuid.NewString()},
		DrawEventID:    event.ID,
		Name:           "Grand prize",
		Points:         cfg.PrizePoints,
		AvailableCount: 1,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create the first draw prize: %v", err)
		return
	}

	ctx = xcontext.WithCommitDBTransaction(ctx)

	xcontext.Logger(ctx).Infof("Seeded the weekly draw, it draws at %s", event.EndTime)
}
