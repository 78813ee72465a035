package model

import "time"

type GetCurrentDrawRequest struct{}

type GetCurrentDrawResponse struct {
	Event     DrawEvent `json:"event"`
	MyEntries int       `json:"my_entries"`

	// NextDrawTime is the instant of the draw, RemainingSeconds and
	// Countdown are derived from it at response time. The websocket stream
	// keeps them fresh afterwards.
	NextDrawTime     string `json:"next_draw_time"`
	RemainingSeconds int64  `json:"remaining_seconds"`
	Countdown        string `json:"countdown"`
}

type EnterDrawRequest struct {
	DrawEventID string `json:"draw_event_id"`
}

type EnterDrawResponse struct {
	MyEntries int    `json:"my_entries"`
	Balance   uint64 `json:"balance"`
}

type GetDrawWinnersRequest struct {
	DrawEventID string `json:"draw_event_id"`
}

type GetDrawWinnersResponse struct {
	Winners []DrawWinner `json:"winners"`
}

type ClaimDrawRewardRequest struct {
	WinnerID string `json:"winner_id"`
}

type ClaimDrawRewardResponse struct{}

type CreateDrawEventRequest struct {
	Name              string    `json:"name"`
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
	PointsPerEntry    uint64    `json:"points_per_entry"`
	MaxEntriesPerUser int       `json:"max_entries_per_user"`
	Prizes            []struct {
		Name           string   `json:"name"`
		Points         uint64   `json:"points"`
		Rewards        []Reward `json:"rewards"`
		AvailableCount int      `json:"available_count"`
	} `json:"prizes"`
}

type CreateDrawEventResponse struct {
	ID string `json:"id"`
}
