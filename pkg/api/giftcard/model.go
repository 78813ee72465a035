package giftcard

import "time"

const (
	OrderStatusPending   = "pending"
	OrderStatusFulfilled = "fulfilled"
	OrderStatusFailed    = "failed"
)

type Product struct {
	SKU       string
	Name      string
	Brand     string
	FaceValue float64
	Currency  string
	Available bool
}

type OrderRequest struct {
	// ExternalID makes the order idempotent. The vendor returns the
	// existing order if it has seen this id before.
	ExternalID     string
	SKU            string
	Quantity       int
	RecipientEmail string
}

type Order struct {
	ID         string
	ExternalID string
	Status     string
	Code       string
	ClaimURL   string
	CreatedAt  time.Time
}
