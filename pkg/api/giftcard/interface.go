package giftcard

import "context"

type IEndpoint interface {
	ListProducts(ctx context.Context) ([]Product, error)
	CreateOrder(ctx context.Context, order OrderRequest) (Order, error)
	GetOrder(ctx context.Context, orderID string) (Order, error)
}
