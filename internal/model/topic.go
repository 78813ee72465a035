package model

var (
	PointsGrantedTopic       = "POINTS_GRANTED"
	RedemptionCreatedTopic   = "REDEMPTION_CREATED"
	RedemptionFulfilledTopic = "REDEMPTION_FULFILLED"
	DrawSettledTopic         = "DRAW_SETTLED"
	TierAwardGrantedTopic    = "TIER_AWARD_GRANTED"
)

// PointsGrantedMessage rides the PointsGrantedTopic to the main Billix
// backend, which turns it into a push notification.
type PointsGrantedMessage struct {
	UserID       string `json:"user_id"`
	Amount       uint64 `json:"amount"`
	Source       string `json:"source"`
	BalanceAfter uint64 `json:"balance_after"`
}

// RedemptionCreatedMessage rides the RedemptionCreatedTopic from the api to
// the fulfillment worker. The worker loads everything else from the database.
type RedemptionCreatedMessage struct {
	RedemptionID string `json:"redemption_id"`
}

// RedemptionResultMessage rides the RedemptionFulfilledTopic back from the
// worker. The api routes it to the open connections of the user.
type RedemptionResultMessage struct {
	RedemptionID string `json:"redemption_id"`
	UserID       string `json:"user_id"`
	Status       string `json:"status"`
}

type DrawSettledMessage struct {
	DrawEventID string `json:"draw_event_id"`
	Winners     int    `json:"winners"`
}

type TierAwardGrantedMessage struct {
	UserID string `json:"user_id"`
	Tier   string `json:"tier"`
}
