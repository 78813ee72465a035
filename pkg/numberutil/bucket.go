package numberutil

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const BucketDuration int64 = 1000 * 60 * 60 * 24 * 10 // 10 days

// CreateBucket maps a snowflake id to its time bucket. A zero id gives the
// bucket of now.
func CreateBucket(id int64) int64 {
	if id != 0 {
		sfID := snowflake.ParseInt64(id)
		return sfID.Time() / BucketDuration
	}

	return time.Now().UnixMilli() / BucketDuration
}

// BucketsBetween lists every bucket from the newest one back to the bucket
// containing t, newest first.
func BucketsBetween(newest int64, t time.Time) []int64 {
	oldest := t.UnixMilli() / BucketDuration
	buckets := []int64{}
	for b := newest; b >= oldest; b-- {
		buckets = append(buckets, b)
	}

	return buckets
}
