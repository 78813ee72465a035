package entity

import (
	"time"

	"github.com/BillixOfficial/rewards-backend/pkg/enum"
)

type Tier string

var (
	TierBronze   = enum.New(Tier("bronze"))
	TierSilver   = enum.New(Tier("silver"))
	TierGold     = enum.New(Tier("gold"))
	TierPlatinum = enum.New(Tier("platinum"))
)

// TierAward records that a user reached a tier. A tier is awarded at most
// once and never revoked, even if lifetime points are later adjusted down.
type TierAward struct {
	UserID      string `gorm:"primaryKey"`
	User        User   `gorm:"foreignKey:UserID"`
	Tier        Tier   `gorm:"primaryKey"`
	AwardedAt   time.Time
	WasNotified bool
}
