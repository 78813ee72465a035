package progression

// DaysPerWeek is the length of the check-in window, Monday first.
const DaysPerWeek = 7

const (
	StreakHot     = "hot"
	StreakCooling = "cooling"
	StreakNone    = "none"
)

// ComputeStreak counts the run of checked-in days ending on the last day of a
// complete Monday-first week. It walks backward and stops at the first gap,
// so a missed last day means zero no matter what happened before. The count
// never wraps into an earlier week.
func ComputeStreak(week []bool) (int, error) {
	if len(week) != DaysPerWeek {
		return 0, ErrInvalidWeekLength
	}

	streak := 0
	for i := len(week) - 1; i >= 0; i-- {
		if !week[i] {
			break
		}
		streak++
	}

	return streak, nil
}

// StreakState labels a streak for the client. A user who already checked in
// today is hot, one who still has an active streak but did not check in yet
// is cooling, anyone else has no streak.
func StreakState(current int, checkedInToday bool) string {
	switch {
	case checkedInToday:
		return StreakHot
	case current > 0:
		return StreakCooling
	default:
		return StreakNone
	}
}
