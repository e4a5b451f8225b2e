package htlc

import "time"

const (
	MinTimelockHours uint64 = 1
	MaxTimelockHours uint64 = 168 // one week
)

// TimelockDeadline validates a requested lock duration and converts it to an
// absolute deadline.
func TimelockDeadline(now time.Time, hours uint64) (time.Time, error) {
	if hours < MinTimelockHours {
		return time.Time{}, ErrTimelockTooShort
	}
	if hours > MaxTimelockHours {
		return time.Time{}, ErrTimelockTooLong
	}
	return now.Add(time.Duration(hours) * time.Hour), nil
}

// Claimable reports whether a claim is still inside its window. The window is
// half-open: at now == deadline the claim is already gone.
func Claimable(now, deadline time.Time) bool {
	return now.Before(deadline)
}

// Refundable is the complement of Claimable for the same instant, so no
// moment satisfies both or neither.
func Refundable(now, deadline time.Time) bool {
	return !now.Before(deadline)
}
