package client

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/BillixOfficial/rewards-backend/internal/domain/search"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"
)

type SearchCaller interface {
	IndexRewardItem(ctx context.Context, id string, data search.RewardItemData) error
	DeleteRewardItem(ctx context.Context, id string) error
	SearchRewardItem(ctx context.Context, query string, offset, limit int) ([]string, error)
	Close()
}

type searchCaller struct {
	client *rpc.Client
}

func NewSearchCaller(client *rpc.Client) *searchCaller {
	return &searchCaller{client: client}
}

func (c *searchCaller) IndexRewardItem(ctx context.Context, id string, data search.RewardItemData) error {
	return c.client.CallContext(ctx, nil, c.fname(ctx, "index"), search.RewardItemDoc, id, data)
}

func (c *searchCaller) DeleteRewardItem(ctx context.Context, id string) error {
	return c.client.CallContext(ctx, nil, c.fname(ctx, "delete"), search.RewardItemDoc, id)
}

func (c *searchCaller) SearchRewardItem(ctx context.Context, query string, offset, limit int) ([]string, error) {
	var result []string
	err := c.client.
		CallContext(ctx, &result, c.fname(ctx, "search"), search.RewardItemDoc, query, offset, limit)
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (c *searchCaller) Close() {
	c.client.Close()
}

func (c *searchCaller) fname(ctx context.Context, funcName string) string {
	return fmt.Sprintf("%s_%s", xcontext.Configs(ctx).SearchServer.RPCName, funcName)
}
