package entity

import "time"

type CheckIn struct {
	CreatedAt time.Time

	UserID string `gorm:"primaryKey"`
	User   User   `gorm:"foreignKey:UserID"`

	// Date is truncated to the beginning of the day in UTC.
	Date time.Time `gorm:"primaryKey"`

	// Points is the total granted for this check-in, streak bonus included.
	Points uint64
	Streak int
}
