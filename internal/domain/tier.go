package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/BillixOfficial/rewards-backend/internal/domain/progression"
	"github.com/BillixOfficial/rewards-backend/internal/domain/stream"
	"github.com/BillixOfficial/rewards-backend/internal/entity"
	"github.com/BillixOfficial/rewards-backend/internal/model"
	"github.com/BillixOfficial/rewards-backend/internal/repository"
	"github.com/BillixOfficial/rewards-backend/pkg/errorx"
	"github.com/BillixOfficial/rewards-backend/pkg/pubsub"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"
)

type TierDomain interface {
	GetMyTier(context.Context, *model.GetMyTierRequest) (*model.GetMyTierResponse, error)
	GetMyTierAwards(context.Context, *model.GetMyTierAwardsRequest) (*model.GetMyTierAwardsResponse, error)
	MarkTierAwardsNotified(context.Context, *model.MarkTierAwardsNotifiedRequest) (*model.MarkTierAwardsNotifiedResponse, error)
}

type tierDomain struct {
	rewardProfileRepo repository.RewardProfileRepository
	tierAwardRepo     repository.TierAwardRepository
}

func NewTierDomain(
	rewardProfileRepo repository.RewardProfileRepository,
	tierAwardRepo repository.TierAwardRepository,
) *tierDomain {
	return &tierDomain{
		rewardProfileRepo: rewardProfileRepo,
		tierAwardRepo:     tierAwardRepo,
	}
}

func (d *tierDomain) GetMyTier(
	ctx context.Context, req *model.GetMyTierRequest,
) (*model.GetMyTierResponse, error) {
	profile, err := d.rewardProfileRepo.Get(ctx, xcontext.RequestUserID(ctx))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get reward profile: %v", err)
		return nil, errorx.Unknown
	}

	progress, err := progression.ProgressToNext(int64(profile.LifetimePoints))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot locate tier of user %s: %v", profile.UserID, err)
		return nil, errorx.Unknown
	}

	return &model.GetMyTierResponse{
		LifetimePoints: profile.LifetimePoints,
		Progress: model.TierProgress{
			Tier:            string(progress.Tier),
			HasNext:         progress.HasNext,
			NextTier:        string(progress.NextTier),
			Progress:        progress.Progress,
			PointsRemaining: progress.PointsRemaining,
		},
	}, nil
}

func (d *tierDomain) GetMyTierAwards(
	ctx context.Context, req *model.GetMyTierAwardsRequest,
) (*model.GetMyTierAwardsResponse, error) {
	awards, err := d.tierAwardRepo.GetAllByUserID(ctx, xcontext.RequestUserID(ctx))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get tier awards: %v", err)
		return nil, errorx.Unknown
	}

	list := []model.TierAward{}
	for i := range awards {
		list = append(list, model.ConvertTierAward(&awards[i]))
	}

	return &model.GetMyTierAwardsResponse{Awards: list}, nil
}

func (d *tierDomain) MarkTierAwardsNotified(
	ctx context.Context, req *model.MarkTierAwardsNotifiedRequest,
) (*model.MarkTierAwardsNotifiedResponse, error) {
	if err := d.tierAwardRepo.UpdateNotification(ctx, xcontext.RequestUserID(ctx)); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot mark tier awards notified: %v", err)
		return nil, errorx.Unknown
	}

	return &model.MarkTierAwardsNotifiedResponse{}, nil
}

// tierScanner grants tier awards when a grant pushes lifetime points over a
// boundary. Scan must run inside the transaction of the grant, the returned
// tiers are announced by the caller after commit.
type tierScanner struct {
	rewardProfileRepo repository.RewardProfileRepository
	tierAwardRepo     repository.TierAwardRepository
}

func newTierScanner(
	rewardProfileRepo repository.RewardProfileRepository,
	tierAwardRepo repository.TierAwardRepository,
) *tierScanner {
	return &tierScanner{
		rewardProfileRepo: rewardProfileRepo,
		tierAwardRepo:     tierAwardRepo,
	}
}

func (s *tierScanner) Scan(ctx context.Context, userID string) ([]entity.Tier, error) {
	profile, err := s.rewardProfileRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	tier, err := progression.TierFor(int64(profile.LifetimePoints))
	if err != nil {
		return nil, err
	}

	if tier == profile.Tier {
		return nil, nil
	}

	// One big grant can cross several boundaries at once, every crossed
	// tier gets its award.
	awarded := []entity.Tier{}
	for _, t := range progression.TiersUpTo(tier) {
		if progression.TierAtLeast(profile.Tier, t) {
			continue
		}

		err := s.tierAwardRepo.Upsert(ctx, &entity.TierAward{
			UserID:    userID,
			Tier:      t,
			AwardedAt: time.Now(),
		})
		if err != nil {
			return nil, err
		}

		awarded = append(awarded, t)
	}

	if err := s.rewardProfileRepo.UpdateTier(ctx, userID, tier); err != nil {
		return nil, err
	}

	return awarded, nil
}

// announceTierAwards pushes and publishes freshly granted awards. It runs
// after the commit of the grant, failures only lose a notification.
func announceTierAwards(
	ctx context.Context,
	publisher pubsub.Publisher,
	streamRouter *stream.Router,
	userID string,
	awarded []entity.Tier,
) {
	for _, tier := range awarded {
		streamRouter.Route(userID, &stream.TierAwardedEvent{
			Tier:      string(tier),
			AwardedAt: time.Now().Format(model.DefaultTimeLayout),
		})

		msg, err := json.Marshal(model.TierAwardGrantedMessage{
			UserID: userID,
			Tier:   string(tier),
		})
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot marshal tier award message: %v", err)
			continue
		}

		err = publisher.Publish(ctx, model.TierAwardGrantedTopic,
			&pubsub.Pack{Key: []byte(userID), Msg: msg})
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot publish tier award message: %v", err)
		}
	}
}
