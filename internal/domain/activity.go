package domain

import (
	"context"
	"time"

	"github.com/BillixOfficial/rewards-backend/internal/model"
	"github.com/BillixOfficial/rewards-backend/internal/repository"
	"github.com/BillixOfficial/rewards-backend/pkg/errorx"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"
)

type ActivityDomain interface {
	GetMyActivities(context.Context, *model.GetMyActivitiesRequest) (*model.GetMyActivitiesResponse, error)
}

type activityDomain struct {
	pointActivityRepo repository.PointActivityRepository
}

func NewActivityDomain(pointActivityRepo repository.PointActivityRepository) *activityDomain {
	return &activityDomain{pointActivityRepo: pointActivityRepo}
}

func (d *activityDomain) GetMyActivities(
	ctx context.Context, req *model.GetMyActivitiesRequest,
) (*model.GetMyActivitiesResponse, error) {
	limit, err := normalizeLimit(ctx, req.Limit)
	if err != nil {
		return nil, err
	}

	// The feed never pages past one year, older partitions stay cold.
	oldest := time.Now().AddDate(-1, 0, 0)
	userID := xcontext.RequestUserID(ctx)
	activities, err := d.pointActivityRepo.GetList(ctx, userID, req.LastID, limit, oldest)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get point activities: %v", err)
		return nil, errorx.Unknown
	}

	list := []model.PointActivity{}
	for i := range activities {
		list = append(list, model.ConvertPointActivity(&activities[i]))
	}

	return &model.GetMyActivitiesResponse{Activities: list}, nil
}
