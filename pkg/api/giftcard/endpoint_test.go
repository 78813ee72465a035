package giftcard

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/BillixOfficial/rewards-backend/config"
	"github.com/BillixOfficial/rewards-backend/pkg/api"

	"github.com/stretchr/testify/require"
)

func Test_Endpoint_CreateOrder_TooManyRequest(t *testing.T) {
	endpoint := New(config.GiftCardConfigs{})

	resetAt := time.Now().Add(time.Second)
	endpoint.apiGenerator = &api.MockAPIGenerator{
		MockClient: api.MockAPIClient{
			POSTFunc: func(ctx context.Context, opts ...api.Opt) (*api.Response, error) {
				return &api.Response{
					Code:   http.StatusTooManyRequests,
					Header: http.Header{"X-Ratelimit-Reset": []string{strconv.FormatInt(resetAt.Unix(), 10)}},
				}, nil
			},
		},
	}

	// Call API with a response of TooManyRequest.
	_, err := endpoint.CreateOrder(context.Background(), OrderRequest{ExternalID: "redemption-1"})
	gotResetAt, ok := IsRateLimit(err)
	require.True(t, ok)
	require.Equal(t, resetAt.Unix(), gotResetAt.Unix())

	// Check the resource again, ensure that it is limited without calling.
	err = endpoint.checkLimitingResource(createOrderResource)
	gotResetAt, ok = IsRateLimit(err)
	require.True(t, ok)
	require.Equal(t, resetAt.Unix(), gotResetAt.Unix())

	// Another resource is NOT limited.
	err = endpoint.checkLimitingResource(listProductsResource)
	require.NoError(t, err)

	// Sleep until the limiting of resource expired. Check again.
	time.Sleep(time.Second)
	err = endpoint.checkLimitingResource(createOrderResource)
	require.NoError(t, err)
}

func Test_Endpoint_CreateOrder(t *testing.T) {
	endpoint := New(config.GiftCardConfigs{})

	createdAt := time.Date(2023, 5, 10, 8, 0, 0, 0, time.UTC)
	endpoint.apiGenerator = &api.MockAPIGenerator{
		MockClient: api.MockAPIClient{
			POSTFunc: func(ctx context.Context, opts ...api.Opt) (*api.Response, error) {
				return &api.Response{
					Code: http.StatusCreated,
					Body: api.JSON{
						"id":          "order-1",
						"external_id": "redemption-1",
						"status":      OrderStatusFulfilled,
						"code":        "GIFT-XYZ",
						"claim_url":   "https://vendor.example.com/claim/order-1",
						"created_at":  createdAt.Format(rfc3339),
					},
				}, nil
			},
		},
	}

	order, err := endpoint.CreateOrder(context.Background(), OrderRequest{
		ExternalID:     "redemption-1",
		SKU:            "coffee-10",
		Quantity:       1,
		RecipientEmail: "user@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, "order-1", order.ID)
	require.Equal(t, "redemption-1", order.ExternalID)
	require.Equal(t, OrderStatusFulfilled, order.Status)
	require.Equal(t, "GIFT-XYZ", order.Code)
	require.True(t, createdAt.Equal(order.CreatedAt))
}
