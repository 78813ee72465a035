package entity

import "time"

type GuessRound struct {
	Base

	// Prompt describes the bill being guessed, for example the category
	// and region it was averaged over.
	Prompt string

	// AnswerCents must never leave the server while the round is open.
	AnswerCents int64

	// MinCents and MaxCents bound valid guesses, they are also shown to
	// the player.
	MinCents int64
	MaxCents int64

	// RewardSchedule is a list of percent-error bands, decoded through
	// mapstructure. The first band whose bound covers the error wins.
	RewardSchedule Array[Map]

	StartTime time.Time
	EndTime   time.Time

	// IsSettled flips to true exactly once, when awards have been written.
	IsSettled bool
}

type Guess struct {
	Base

	RoundID string     `gorm:"index"`
	Round   GuessRound `gorm:"foreignKey:RoundID"`

	UserID string
	User   User `gorm:"foreignKey:UserID"`

	AmountCents int64

	// PercentError and AwardedPoints are written at settlement. Exposing
	// them earlier would leak the answer.
	PercentError  float64
	AwardedPoints uint64
}
