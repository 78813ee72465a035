package progression

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeStreak(t *testing.T) {
	testcases := []struct {
		name     string
		week     []bool
		expected int
	}{
		{
			name:     "every day checked in",
			week:     []bool{true, true, true, true, true, true, true},
			expected: 7,
		},
		{
			name:     "missed tuesday",
			week:     []bool{true, false, true, true, true, true, true},
			expected: 6,
		},
		{
			name:     "missed the last day",
			week:     []bool{true, true, true, true, true, true, false},
			expected: 0,
		},
		{
			name:     "empty week",
			week:     []bool{false, false, false, false, false, false, false},
			expected: 0,
		},
		{
			name:     "weekend only",
			week:     []bool{false, false, false, false, false, true, true},
			expected: 2,
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			streak, err := ComputeStreak(tc.week)
			require.NoError(t, err)
			require.Equal(t, tc.expected, streak)
		})
	}
}

func TestComputeStreakRejectsMalformedWeek(t *testing.T) {
	_, err := ComputeStreak(nil)
	require.ErrorIs(t, err, ErrInvalidWeekLength)

	_, err = ComputeStreak([]bool{true, true, true})
	require.ErrorIs(t, err, ErrInvalidWeekLength)

	_, err = ComputeStreak(make([]bool, 8))
	require.ErrorIs(t, err, ErrInvalidWeekLength)
}

func TestStreakState(t *testing.T) {
	require.Equal(t, StreakHot, StreakState(3, true))
	require.Equal(t, StreakCooling, StreakState(3, false))
	require.Equal(t, StreakNone, StreakState(0, false))
}
