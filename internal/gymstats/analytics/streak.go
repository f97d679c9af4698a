package analytics

import (
	"sort"
	"time"
)

const (
	DefaultGapToleranceDays = 7

	dayMillis = int64(24 * time.Hour / time.Millisecond)
)

type StreakState struct {
	Longest int `json:"longest"`
	Current int `json:"current"`
}

// Streaks counts sessions in runs where consecutive sessions are at most
// gapToleranceDays whole days apart. The current streak is the last run, as
// long as now is still within the tolerance of the last session.
func Streaks(timestamps []int64, gapToleranceDays int, now time.Time) StreakState {
	if len(timestamps) == 0 {
		return StreakState{}
	}
	if gapToleranceDays <= 0 {
		gapToleranceDays = DefaultGapToleranceDays
	}
	tolerance := int64(gapToleranceDays)

	sorted := make([]int64, len(timestamps))
	copy(sorted, timestamps)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	longest, running := 0, 1
	for i := 1; i < len(sorted); i++ {
		if wholeDays(sorted[i]-sorted[i-1]) <= tolerance {
			running++
			continue
		}
		longest = max(longest, running)
		running = 1
	}
	longest = max(longest, running)

	current := 0
	if wholeDays(now.UnixMilli()-sorted[len(sorted)-1]) <= tolerance {
		current = running
	}

	return StreakState{
		Longest: longest,
		Current: current,
	}
}

func wholeDays(deltaMs int64) int64 {
	return deltaMs / dayMillis
}
