package model

type GetMyActivitiesRequest struct {
	// LastID pages backward. Zero starts at the newest activity.
	LastID int64 `json:"last_id"`
	Limit  int   `json:"limit"`
}

type GetMyActivitiesResponse struct {
	Activities []PointActivity `json:"activities"`
}
