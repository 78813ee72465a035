package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/BillixOfficial/rewards-backend/internal/domain/stream"
	"github.com/BillixOfficial/rewards-backend/internal/model"
	"github.com/BillixOfficial/rewards-backend/internal/repository"
	"github.com/BillixOfficial/rewards-backend/pkg/dateutil"
	"github.com/BillixOfficial/rewards-backend/pkg/errorx"
	"github.com/BillixOfficial/rewards-backend/pkg/pubsub"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"
)

type StreamDomain interface {
	ServeRewards(ctx context.Context) error
	HandleRedemptionResult(ctx context.Context, pack *pubsub.Pack, t time.Time)
	HandleDrawSettled(ctx context.Context, pack *pubsub.Pack, t time.Time)
}

type streamDomain struct {
	rewardProfileRepo repository.RewardProfileRepository
	redemptionRepo    repository.RedemptionRepository
	rewardItemRepo    repository.RewardItemRepository
	drawRepo          repository.DrawRepository
	streamRouter      *stream.Router
}

func NewStreamDomain(
	rewardProfileRepo repository.RewardProfileRepository,
	redemptionRepo repository.RedemptionRepository,
	rewardItemRepo repository.RewardItemRepository,
	drawRepo repository.DrawRepository,
	streamRouter *stream.Router,
) *streamDomain {
	return &streamDomain{
		rewardProfileRepo: rewardProfileRepo,
		redemptionRepo:    redemptionRepo,
		rewardItemRepo:    rewardItemRepo,
		drawRepo:          drawRepo,
		streamRouter:      streamRouter,
	}
}

// ServeRewards holds one websocket connection open, pushing live events and a
// once-a-second draw countdown until the client goes away.
func (d *streamDomain) ServeRewards(ctx context.Context) error {
	userID := xcontext.RequestUserID(ctx)
	if userID == "" {
		return errorx.New(errorx.Unauthenticated, "You need to sign in first")
	}

	profile, err := d.rewardProfileRepo.Get(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get reward profile: %v", err)
		return errorx.Unknown
	}

	session := stream.NewUserSession(userID)
	d.streamRouter.Join(session)
	defer d.streamRouter.Leave(session)

	wsClient := xcontext.WSClient(ctx)
	var seq int64
	write := func(ev stream.Event) error {
		b, err := json.Marshal(stream.Format(ev, seq))
		if err != nil {
			xcontext.Logger(ctx).Warnf("Cannot marshal event: %v", err)
			return nil
		}

		seq++
		return wsClient.Write(b, false)
	}

	// The snapshot always comes first. A client reconnecting after a lost
	// connection rebuilds its state from it instead of asking for a replay.
	err = write(&stream.ReadyEvent{Profile: model.ConvertRewardProfile(profile)})
	if err != nil {
		xcontext.Logger(ctx).Debugf("Cannot send ready event: %v", err)
		return errorx.Unknown
	}

	drawsAt, err := d.nextDrawTime(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get next draw time: %v", err)
		return errorx.Unknown
	}

	countdown := time.NewTicker(time.Second)
	defer countdown.Stop()

	for {
		select {
		case ev, ok := <-session.C:
			if !ok {
				return errorx.New(errorx.Unavailable, "Session is closed")
			}

			if err := write(ev); err != nil {
				xcontext.Logger(ctx).Debugf("Cannot send event to client: %v", err)
				return errorx.Unknown
			}

		case <-countdown.C:
			// The remaining time is derived from the wall clock on every
			// tick, a missed tick skips ahead instead of drifting.
			if !time.Now().Before(drawsAt) {
				next, err := d.nextDrawTime(ctx)
				if err != nil {
					xcontext.Logger(ctx).Errorf("Cannot get next draw time: %v", err)
					continue
				}

				drawsAt = next
			}

			remaining := time.Until(drawsAt)
			if remaining < 0 {
				remaining = 0
			}

			err := write(&stream.DrawCountdownEvent{
				DrawsAt:          drawsAt.Format(model.DefaultTimeLayout),
				RemainingSeconds: int64(remaining.Seconds()),
				Countdown:        dateutil.FormatCountdown(remaining),
			})
			if err != nil {
				xcontext.Logger(ctx).Debugf("Cannot send countdown to client: %v", err)
				return errorx.Unknown
			}

		case _, ok := <-wsClient.R:
			if !ok {
				return nil
			}

			// Clients only send pings to keep intermediaries from closing
			// an idle connection, the payload is ignored.
		}
	}
}

func (d *streamDomain) nextDrawTime(ctx context.Context) (time.Time, error) {
	now := time.Now()
	events, err := d.drawRepo.GetCurrentEvents(ctx, now)
	if err != nil {
		return time.Time{}, err
	}

	if len(events) > 0 {
		return events[0].EndTime, nil
	}

	cfg := xcontext.Configs(ctx).Draw
	return dateutil.NextOccurrence(now, cfg.Weekday, dateutil.ClockTime{Hour: cfg.Hour}), nil
}

// HandleRedemptionResult consumes the fulfillment outcomes written by the
// worker and pushes them to the connections this instance holds.
func (d *streamDomain) HandleRedemptionResult(ctx context.Context, pack *pubsub.Pack, t time.Time) {
	var msg model.RedemptionResultMessage
	if err := json.Unmarshal(pack.Msg, &msg); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot unmarshal redemption result: %v", err)
		return
	}

	redemption, err := d.redemptionRepo.GetByID(ctx, msg.RedemptionID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get redemption %s: %v", msg.RedemptionID, err)
		return
	}

	item, err := d.rewardItemRepo.GetByID(ctx, redemption.RewardItemID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get reward item: %v", err)
		return
	}

	d.streamRouter.Route(redemption.UserID, &stream.RedemptionUpdatedEvent{
		Redemption: model.ConvertRedemption(
			redemption,
			model.ShortUser{ID: redemption.UserID},
			model.ConvertRewardItem(item, model.Category{}, nil),
		),
	})
}

// HandleDrawSettled tells every winner connected to this instance about their
// prize the moment the cron settles the draw.
func (d *streamDomain) HandleDrawSettled(ctx context.Context, pack *pubsub.Pack, t time.Time) {
	var msg model.DrawSettledMessage
	if err := json.Unmarshal(pack.Msg, &msg); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot unmarshal draw settled message: %v", err)
		return
	}

	winners, err := d.drawRepo.GetWinnersByEventID(ctx, msg.DrawEventID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get draw winners: %v", err)
		return
	}

	prizes, err := d.drawRepo.GetPrizesByEventID(ctx, msg.DrawEventID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get prizes of draw event: %v", err)
		return
	}

	prizeMap := map[string]model.DrawPrize{}
	for i := range prizes {
		prizeMap[prizes[i].ID] = model.ConvertDrawPrize(&prizes[i])
	}

	for i := range winners {
		w := winners[i]
		d.streamRouter.Route(w.UserID, &stream.DrawResultEvent{
			Winner: model.ConvertDrawWinner(&w, model.ShortUser{ID: w.UserID}, prizeMap[w.DrawPrizeID]),
		})
	}
}
