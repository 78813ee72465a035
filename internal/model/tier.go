package model

type GetMyTierRequest struct{}

type GetMyTierResponse struct {
	LifetimePoints uint64       `json:"lifetime_points"`
	Progress       TierProgress `json:"progress"`
}

type GetMyTierAwardsRequest struct{}

type GetMyTierAwardsResponse struct {
	Awards []TierAward `json:"awards"`
}

type MarkTierAwardsNotifiedRequest struct{}

type MarkTierAwardsNotifiedResponse struct{}
