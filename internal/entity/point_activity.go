package entity

import "time"

// PointActivity is the denormalized activity feed row stored in ScyllaDB.
// Rows are partitioned by user and time bucket, newest first. Title is
// rendered at write time so the feed never joins back to MySQL.
type PointActivity struct {
	ID        int64
	UserID    string
	Bucket    int64
	Type      string
	Amount    uint64
	Title     string
	CreatedAt time.Time
}

func (t *PointActivity) TableName() string {
	return "point_activities"
}
