package reflectutil

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetColumnNames(t *testing.T) {
	type test struct {
		ID         int64
		Bucket     int64
		UserID     string
		PointDelta int64
		Reason     string
	}
	got := GetColumnNames(&test{})

	want := []string{"id", "bucket", "user_id", "point_delta", "reason"}

	sort.Strings(want)
	require.Equal(t, want, got)
}
