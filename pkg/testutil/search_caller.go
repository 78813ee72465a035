package testutil

import (
	"context"

	"github.com/BillixOfficial/rewards-backend/internal/domain/search"
)

type MockSearchCaller struct {
	IndexRewardItemFunc  func(ctx context.Context, id string, data search.RewardItemData) error
	DeleteRewardItemFunc func(ctx context.Context, id string) error
	SearchRewardItemFunc func(ctx context.Context, query string, offset, limit int) ([]string, error)
}

func (c *MockSearchCaller) IndexRewardItem(
	ctx context.Context, id string, data search.RewardItemData,
) error {
	if c.IndexRewardItemFunc != nil {
		return c.IndexRewardItemFunc(ctx, id, data)
	}

	return nil
}

func (c *MockSearchCaller) DeleteRewardItem(ctx context.Context, id string) error {
	if c.DeleteRewardItemFunc != nil {
		return c.DeleteRewardItemFunc(ctx, id)
	}

	return nil
}

func (c *MockSearchCaller) SearchRewardItem(
	ctx context.Context, query string, offset, limit int,
) ([]string, error) {
	if c.SearchRewardItemFunc != nil {
		return c.SearchRewardItemFunc(ctx, query, offset, limit)
	}

	return nil, nil
}

func (c *MockSearchCaller) Close() {}
