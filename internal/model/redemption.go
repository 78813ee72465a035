package model

type RedeemItemRequest struct {
	RewardItemID  string `json:"reward_item_id"`
	DeliveryEmail string `json:"delivery_email"`
}

type RedeemItemResponse struct {
	Redemption Redemption `json:"redemption"`
	Balance    uint64     `json:"balance"`
}

type GetMyRedemptionsRequest struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

type GetMyRedemptionsResponse struct {
	Redemptions []Redemption `json:"redemptions"`
}

type GetRedemptionRequest struct {
	ID string `json:"id"`
}

type GetRedemptionResponse struct {
	Redemption Redemption `json:"redemption"`
}
