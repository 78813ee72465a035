package model

type AddPointsRequest struct {
	UserID string `json:"user_id"`
	Points uint64 `json:"points"`

	// IdempotencyKey dedupes retried grants, for example a bill payment
	// webhook delivered twice.
	IdempotencyKey string `json:"idempotency_key"`

	// Title is rendered in the activity feed of the user.
	Title string `json:"title"`
}

type AddPointsResponse struct {
	TransactionID int64  `json:"transaction_id"`
	Balance       uint64 `json:"balance"`

	// Duplicated reports that the idempotency key was seen before and no
	// points moved this time.
	Duplicated bool `json:"duplicated"`
}

type GetMyTransactionsRequest struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

type GetMyTransactionsResponse struct {
	Transactions []PointTransaction `json:"transactions"`
}
