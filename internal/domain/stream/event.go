// Package stream routes live events to the websocket connections of a user
// and drives the once-a-second draw countdown.
package stream

import "github.com/BillixOfficial/rewards-backend/internal/model"

type Event interface {
	Op() string
}

// EventResponse is the wire frame of an event. Seq counts per connection, a
// client detects a dropped frame by a gap.
type EventResponse struct {
	Op   string `json:"o"`
	Seq  int64  `json:"s"`
	Data any    `json:"d"`
}

func Format(ev Event, seq int64) *EventResponse {
	return &EventResponse{
		Op:   ev.Op(),
		Seq:  seq,
		Data: ev,
	}
}

// ReadyEvent is the first frame of every connection.
type ReadyEvent struct {
	Profile model.RewardProfile `json:"profile"`
}

func (*ReadyEvent) Op() string {
	return "ready"
}

type BalanceChangedEvent struct {
	Balance uint64 `json:"balance"`
	Delta   int64  `json:"delta"`
	Source  string `json:"source"`
}

func (*BalanceChangedEvent) Op() string {
	return "balance_changed"
}

type RedemptionUpdatedEvent struct {
	Redemption model.Redemption `json:"redemption"`
}

func (*RedemptionUpdatedEvent) Op() string {
	return "redemption_updated"
}

type TierAwardedEvent struct {
	Tier      string `json:"tier"`
	AwardedAt string `json:"awarded_at"`
}

func (*TierAwardedEvent) Op() string {
	return "tier_awarded"
}

type DrawCountdownEvent struct {
	DrawsAt          string `json:"draws_at"`
	RemainingSeconds int64  `json:"remaining_seconds"`
	Countdown        string `json:"countdown"`
}

func (*DrawCountdownEvent) Op() string {
	return "draw_countdown"
}

type DrawResultEvent struct {
	Winner model.DrawWinner `json:"winner"`
}

func (*DrawResultEvent) Op() string {
	return "draw_result"
}
