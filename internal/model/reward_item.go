package model

type GetRewardItemsRequest struct {
	Q          string `json:"q"`
	CategoryID string `json:"category_id"`

	// ForMyTier hides items gated behind a tier the caller has not reached
	// yet. It needs an authenticated caller.
	ForMyTier bool `json:"for_my_tier"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

type GetRewardItemsResponse struct {
	RewardItems []RewardItem `json:"reward_items"`
}

type GetRewardItemRequest struct {
	ID string `json:"id"`
}

type GetRewardItemResponse struct {
	RewardItem RewardItem `json:"reward_item"`
}

type SearchRewardItemsRequest struct {
	Q      string `json:"q"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
}

type SearchRewardItemsResponse struct {
	RewardItems []RewardItem `json:"reward_items"`
}

type CreateRewardItemRequest struct {
	CategoryID  string `json:"category_id"`
	Variant     string `json:"variant"`
	Name        string `json:"name"`
	Brand       string `json:"brand"`
	BrandURL    string `json:"brand_url"`
	Description string `json:"description"`

	// LogoURL and Name are filled from the brand page when left empty and
	// BrandURL is given.
	LogoURL     string   `json:"logo_url"`
	ImageURL    string   `json:"image_url"`
	AccentColor string   `json:"accent_color"`
	Tags        []string `json:"tags"`

	SKU              string `json:"sku"`
	Cost             uint64 `json:"cost"`
	DollarValueCents uint64 `json:"dollar_value_cents"`
	Stock            int    `json:"stock"`
	MinTier          string `json:"min_tier"`
}

type CreateRewardItemResponse struct {
	ID string `json:"id"`
}

type UpdateRewardItemRequest struct {
	ID string `json:"id"`

	CategoryID       string   `json:"category_id"`
	Variant          string   `json:"variant"`
	Name             string   `json:"name"`
	Brand            string   `json:"brand"`
	BrandURL         string   `json:"brand_url"`
	Description      string   `json:"description"`
	LogoURL          string   `json:"logo_url"`
	ImageURL         string   `json:"image_url"`
	AccentColor      string   `json:"accent_color"`
	Tags             []string `json:"tags"`
	SKU              string   `json:"sku"`
	Cost             uint64   `json:"cost"`
	DollarValueCents uint64   `json:"dollar_value_cents"`
	Stock            int      `json:"stock"`
	MinTier          string   `json:"min_tier"`
	IsActive         bool     `json:"is_active"`
}

type UpdateRewardItemResponse struct{}

type DeleteRewardItemRequest struct {
	ID string `json:"id"`
}

type DeleteRewardItemResponse struct{}
