package entity

import (
	"time"

	"gorm.io/gorm"
)

type RewardProfile struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`

	UserID string `gorm:"primaryKey"`
	User   User   `gorm:"foreignKey:UserID"`

	// Points is the spendable balance. LifetimePoints only grows and
	// drives the tier.
	Points         uint64
	LifetimePoints uint64
	Tier           Tier

	CurrentStreak   int
	LongestStreak   int
	LastCheckInDate time.Time
}
