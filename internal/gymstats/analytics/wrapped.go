package analytics

import (
	"sort"
	"time"

	"github.com/simonfreshfish/GymStat-sub000/internal/gymstats/records"
)

type WindowKind string

const (
	WindowMonth WindowKind = "month"
	WindowYear  WindowKind = "year"
)

// ParseWindowKind falls back to a month window for anything unknown.
func ParseWindowKind(s string) WindowKind {
	if WindowKind(s) == WindowYear {
		return WindowYear
	}
	return WindowMonth
}

type ActivityStats struct {
	Kind     records.ActivityKind `json:"kind"`
	Label    string               `json:"label"`
	Icon     string               `json:"icon"`
	Color    string               `json:"color"`
	Count    int                  `json:"count"`
	Duration float64              `json:"duration"`
	Distance *float64             `json:"distance"`
	Calories *float64             `json:"calories"`
}

type Superlatives struct {
	LongestSession   *records.Session `json:"longestSession"`
	FurthestDistance *records.Session `json:"furthestDistance"`
	MostCalories     *records.Session `json:"mostCalories"`
}

type HeartRateSummary struct {
	Avg *float64 `json:"avg"`
	Max *float64 `json:"max"`
}

type PeriodBucket struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Duration float64  `json:"duration"`
	Distance *float64 `json:"distance"`
	Calories *float64 `json:"calories"`
	Sessions int      `json:"sessions"`
}

type WrappedSummary struct {
	Window           WindowKind       `json:"window"`
	Start            time.Time        `json:"start"`
	End              time.Time        `json:"end"`
	TotalSessions    int              `json:"totalSessions"`
	TotalDuration    float64          `json:"totalDuration"`
	TotalDistance    *float64         `json:"totalDistance"`
	TotalCalories    *float64         `json:"totalCalories"`
	TotalVolume      float64          `json:"totalVolume"`
	AvgPace          *float64         `json:"avgPace"`
	Activities       []ActivityStats  `json:"activities"`
	FavoriteActivity *ActivityStats   `json:"favoriteActivity"`
	Records          Superlatives     `json:"records"`
	HeartRate        HeartRateSummary `json:"heartRate"`
	Streak           StreakState      `json:"streak"`
	Breakdown        []PeriodBucket   `json:"breakdown"`
}

// WindowBounds returns the calendar month or year containing now, in now's
// location. End is exclusive.
func WindowBounds(window WindowKind, now time.Time) (time.Time, time.Time) {
	if window == WindowYear {
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(1, 0, 0)
	}
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 1, 0)
}

// Summarize aggregates the sessions that fall in the month or year of now.
// Optional metrics stay nil unless at least one session in the window has them.
func Summarize(sessions []records.Session, window WindowKind, now time.Time) WrappedSummary {
	window = ParseWindowKind(string(window))
	start, end := WindowBounds(window, now)

	summary := WrappedSummary{
		Window:     window,
		Start:      start,
		End:        end,
		Activities: []ActivityStats{},
		Breakdown:  []PeriodBucket{},
	}

	var (
		timestamps     []int64
		pacedMinutes   float64
		pacedDistance  float64
		heartRateSum   float64
		heartRateCount int
	)
	activityIdx := make(map[string]int)
	bucketIdx := make(map[string]int)

	for i := range sessions {
		s := &sessions[i]
		t := time.UnixMilli(s.Timestamp).In(now.Location())
		if t.Before(start) || !t.Before(end) {
			continue
		}

		summary.TotalSessions++
		summary.TotalDuration += s.DurationMinutes
		summary.TotalDistance = addOptional(summary.TotalDistance, s.Distance)
		summary.TotalCalories = addOptional(summary.TotalCalories, s.Calories)
		timestamps = append(timestamps, s.Timestamp)

		for _, set := range s.Sets {
			if qualifyingSet(set) {
				summary.TotalVolume += set.Weight * float64(set.Reps)
			}
		}

		if s.Distance != nil && *s.Distance > 0 && s.DurationMinutes > 0 {
			pacedMinutes += s.DurationMinutes
			pacedDistance += *s.Distance
		}

		// per activity
		key, stats := activityKey(s)
		idx, ok := activityIdx[key]
		if !ok {
			idx = len(summary.Activities)
			activityIdx[key] = idx
			summary.Activities = append(summary.Activities, stats)
		}
		a := &summary.Activities[idx]
		a.Count++
		a.Duration += s.DurationMinutes
		a.Distance = addOptional(a.Distance, s.Distance)
		a.Calories = addOptional(a.Calories, s.Calories)

		// superlatives, first one wins on ties
		if s.DurationMinutes > 0 && (summary.Records.LongestSession == nil ||
			s.DurationMinutes > summary.Records.LongestSession.DurationMinutes) {
			summary.Records.LongestSession = copySession(s)
		}
		if s.Distance != nil && *s.Distance > 0 && (summary.Records.FurthestDistance == nil ||
			*s.Distance > *summary.Records.FurthestDistance.Distance) {
			summary.Records.FurthestDistance = copySession(s)
		}
		if s.Calories != nil && *s.Calories > 0 && (summary.Records.MostCalories == nil ||
			*s.Calories > *summary.Records.MostCalories.Calories) {
			summary.Records.MostCalories = copySession(s)
		}

		if s.AvgHeartRate != nil {
			heartRateSum += *s.AvgHeartRate
			heartRateCount++
		}
		if s.MaxHeartRate != nil && (summary.HeartRate.Max == nil || *s.MaxHeartRate > *summary.HeartRate.Max) {
			maxHR := *s.MaxHeartRate
			summary.HeartRate.Max = &maxHR
		}

		// period breakdown
		bucketKey, bucketLabel := periodKey(window, t)
		bIdx, ok := bucketIdx[bucketKey]
		if !ok {
			bIdx = len(summary.Breakdown)
			bucketIdx[bucketKey] = bIdx
			summary.Breakdown = append(summary.Breakdown, PeriodBucket{Key: bucketKey, Label: bucketLabel})
		}
		b := &summary.Breakdown[bIdx]
		b.Sessions++
		b.Duration += s.DurationMinutes
		b.Distance = addOptional(b.Distance, s.Distance)
		b.Calories = addOptional(b.Calories, s.Calories)
	}

	if heartRateCount > 0 {
		avg := heartRateSum / float64(heartRateCount)
		summary.HeartRate.Avg = &avg
	}
	if pacedMinutes > 0 && pacedDistance > 0 {
		pace := pacedMinutes / pacedDistance
		summary.AvgPace = &pace
	}

	sort.SliceStable(summary.Activities, func(i, j int) bool {
		return summary.Activities[i].Count > summary.Activities[j].Count
	})
	if len(summary.Activities) > 0 {
		favorite := summary.Activities[0]
		summary.FavoriteActivity = &favorite
	}

	sort.SliceStable(summary.Breakdown, func(i, j int) bool {
		return summary.Breakdown[i].Key < summary.Breakdown[j].Key
	})

	summary.Streak = Streaks(timestamps, DefaultGapToleranceDays, now)

	return summary
}

func copySession(s *records.Session) *records.Session {
	c := *s
	return &c
}

func addOptional(total, v *float64) *float64 {
	if v == nil {
		return total
	}
	sum := *v
	if total != nil {
		sum += *total
	}
	return &sum
}

// activityKey groups by kind, except that free-text "other" activities are
// kept apart by their name.
func activityKey(s *records.Session) (string, ActivityStats) {
	kind := s.Kind
	if kind == "" {
		kind = records.KindOther
	}
	info := kind.Info()
	key := string(kind)
	label := info.Label
	if kind == records.KindOther && s.Activity != "" {
		key = string(kind) + ":" + s.Activity
		label = s.Activity
	}
	return key, ActivityStats{
		Kind:  kind,
		Label: label,
		Icon:  info.Icon,
		Color: info.Color,
	}
}

func periodKey(window WindowKind, t time.Time) (string, string) {
	if window == WindowYear {
		return t.Format("2006-01"), t.Format("January")
	}
	return t.Format("2006-01-02"), t.Format("Jan 2")
}
