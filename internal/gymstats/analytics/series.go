package analytics

import (
	"sort"

	"github.com/simonfreshfish/GymStat-sub000/internal/gymstats/records"
)

type TimeSeriesPoint struct {
	Date         string  `json:"date"`
	Timestamp    int64   `json:"timestamp"`
	OneRepMax    float64 `json:"oneRepMax"`
	TotalVolume  float64 `json:"totalVolume"`
	AvgWeight    float64 `json:"avgWeight"`
	IsProjection bool    `json:"isProjection"`
}

func qualifyingSet(set records.Set) bool {
	return set.Completed && set.Weight > 0 && set.Reps > 0
}

// ExtractSeries builds one point per session of the given activity, ordered
// by timestamp. Only completed sets with weight and reps count; sessions
// without any such set are left out.
func ExtractSeries(activity string, sessions []records.Session) []TimeSeriesPoint {
	points := make([]TimeSeriesPoint, 0)
	for _, s := range sessions {
		if s.Activity != activity {
			continue
		}

		var volume, weightSum, best float64
		var count int
		for _, set := range s.Sets {
			if !qualifyingSet(set) {
				continue
			}
			volume += set.Weight * float64(set.Reps)
			weightSum += set.Weight
			count++
			if orm := EstimateOneRepMax(set.Weight, set.Reps); orm > best {
				best = orm
			}
		}
		if count == 0 {
			continue
		}

		points = append(points, TimeSeriesPoint{
			Date:        pointDate(s),
			Timestamp:   s.Timestamp,
			OneRepMax:   best,
			TotalVolume: volume,
			AvgWeight:   weightSum / float64(count),
		})
	}

	sortPoints(points)
	return points
}

// ExtractCardioSeries emits a point per session of the activity that has a
// duration. Volume is the distance when one was logged, the duration otherwise.
func ExtractCardioSeries(activity string, sessions []records.Session) []TimeSeriesPoint {
	points := make([]TimeSeriesPoint, 0)
	for _, s := range sessions {
		if s.Activity != activity || s.DurationMinutes <= 0 {
			continue
		}

		volume := s.DurationMinutes
		if s.Distance != nil && *s.Distance > 0 {
			volume = *s.Distance
		}

		points = append(points, TimeSeriesPoint{
			Date:        pointDate(s),
			Timestamp:   s.Timestamp,
			TotalVolume: volume,
		})
	}

	sortPoints(points)
	return points
}

// Activities lists distinct activity names in order of first appearance.
func Activities(sessions []records.Session) []string {
	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, s := range sessions {
		if _, ok := seen[s.Activity]; ok || s.Activity == "" {
			continue
		}
		seen[s.Activity] = struct{}{}
		names = append(names, s.Activity)
	}
	return names
}

func pointDate(s records.Session) string {
	if s.Date != "" {
		return s.Date
	}
	return records.DateLabel(s.Timestamp)
}

func sortPoints(points []TimeSeriesPoint) {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp < points[j].Timestamp
	})
}
