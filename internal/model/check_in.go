package model

type CheckInRequest struct{}

type CheckInResponse struct {
	CheckIn CheckIn `json:"check_in"`
	Balance uint64  `json:"balance"`
}

type GetMyStreakRequest struct{}

type GetMyStreakResponse struct {
	CurrentStreak  int    `json:"current_streak"`
	LongestStreak  int    `json:"longest_streak"`
	CheckedInToday bool   `json:"checked_in_today"`
	State          string `json:"state"`

	// Week is the Monday-first check-in flags of the current week.
	Week []bool `json:"week"`
}

type GetWeekRecapRequest struct{}

type GetWeekRecapResponse struct {
	// Week is the Monday-first check-in flags of the last complete week.
	Week         []bool `json:"week"`
	Streak       int    `json:"streak"`
	PointsEarned uint64 `json:"points_earned"`
}
