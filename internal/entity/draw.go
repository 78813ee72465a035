package entity

import (
	"time"

	"github.com/BillixOfficial/rewards-backend/pkg/enum"
)

type RewardType string

var (
	PointsReward = enum.New(RewardType("points"))
	ItemReward   = enum.New(RewardType("item"))
)

// Reward is a prize payload. Data is decoded through mapstructure into the
// typed payload matching Type.
type Reward struct {
	Type RewardType
	Data Map
}

type DrawEvent struct {
	Base

	Name      string
	StartTime time.Time
	EndTime   time.Time

	PointsPerEntry    uint64
	MaxEntriesPerUser int
	TotalEntries      int

	// IsSettled flips to true exactly once, when winners have been drawn.
	IsSettled bool
}

type DrawPrize struct {
	Base

	DrawEventID string
	DrawEvent   DrawEvent `gorm:"foreignKey:DrawEventID"`

	Name    string
	Points  uint64
	Rewards Array[Reward]

	AvailableCount int
	WonCount       int
}

type DrawEntry struct {
	Base

	DrawEventID string    `gorm:"index"`
	DrawEvent   DrawEvent `gorm:"foreignKey:DrawEventID"`

	UserID string
	User   User `gorm:"foreignKey:UserID"`
}

type DrawWinner struct {
	Base

	DrawPrizeID string
	DrawPrize   DrawPrize `gorm:"foreignKey:DrawPrizeID"`

	UserID string
	User   User `gorm:"foreignKey:UserID"`

	IsClaimed bool
}
