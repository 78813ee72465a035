package testutil

import (
	"context"
	"time"

	"github.com/BillixOfficial/rewards-backend/pkg/api/giftcard"
)

// MockGiftCardEndpoint fulfills every order on the spot unless a hook says
// otherwise.
type MockGiftCardEndpoint struct {
	ListProductsFunc func(ctx context.Context) ([]giftcard.Product, error)
	CreateOrderFunc  func(ctx context.Context, order giftcard.OrderRequest) (giftcard.Order, error)
	GetOrderFunc     func(ctx context.Context, orderID string) (giftcard.Order, error)
}

func (m *MockGiftCardEndpoint) ListProducts(ctx context.Context) ([]giftcard.Product, error) {
	if m.ListProductsFunc != nil {
		return m.ListProductsFunc(ctx)
	}

	return nil, nil
}

func (m *MockGiftCardEndpoint) CreateOrder(
	ctx context.Context, order giftcard.OrderRequest,
) (giftcard.Order, error) {
	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, order)
	}

	return giftcard.Order{
		ID:         "order-" + order.ExternalID,
		ExternalID: order.ExternalID,
		Status:     giftcard.OrderStatusFulfilled,
		Code:       "GIFT-TEST",
		ClaimURL:   "https://vendor.example.com/claim/" + order.ExternalID,
		CreatedAt:  time.Now(),
	}, nil
}

func (m *MockGiftCardEndpoint) GetOrder(ctx context.Context, orderID string) (giftcard.Order, error) {
	if m.GetOrderFunc != nil {
		return m.GetOrderFunc(ctx, orderID)
	}

	return giftcard.Order{
		ID:        orderID,
		Status:    giftcard.OrderStatusFulfilled,
		Code:      "GIFT-TEST",
		CreatedAt: time.Now(),
	}, nil
}
