package analytics

import (
	"math"

	"github.com/simonfreshfish/GymStat-sub000/internal/gymstats/records"
)

const (
	DefaultWeeksAhead = 12
	DefaultProfileID  = "twice"

	weekMillis = 7 * dayMillis
)

// TrainingFrequencyProfile maps a weekly training frequency to the expected
// weekly strength growth, in percent.
type TrainingFrequencyProfile struct {
	ID               string  `json:"id"`
	Label            string  `json:"label"`
	WeeklyGrowthRate float64 `json:"weeklyGrowthRate"`
}

var trainingProfiles = []TrainingFrequencyProfile{
	{ID: "once", Label: "Once a week", WeeklyGrowthRate: 1.2},
	{ID: "twice", Label: "Twice a week", WeeklyGrowthRate: 2.17},
	{ID: "three", Label: "Three times a week", WeeklyGrowthRate: 2.9},
	{ID: "four_plus", Label: "Four or more times a week", WeeklyGrowthRate: 3.4},
}

func TrainingProfiles() []TrainingFrequencyProfile {
	profiles := make([]TrainingFrequencyProfile, len(trainingProfiles))
	copy(profiles, trainingProfiles)
	return profiles
}

func ProfileByID(id string) (TrainingFrequencyProfile, bool) {
	for _, p := range trainingProfiles {
		if p.ID == id {
			return p, true
		}
	}
	return TrainingFrequencyProfile{}, false
}

func DefaultProfile() TrainingFrequencyProfile {
	p, _ := ProfileByID(DefaultProfileID)
	return p
}

// Project compounds the last historical point forward one week at a time.
// Projected points never feed back into the base.
func Project(history []TimeSeriesPoint, profile TrainingFrequencyProfile, weeksAhead int) []TimeSeriesPoint {
	base, ok := lastHistorical(history)
	if !ok {
		return []TimeSeriesPoint{}
	}
	if weeksAhead <= 0 {
		weeksAhead = DefaultWeeksAhead
	}

	rate := profile.WeeklyGrowthRate / 100
	projected := make([]TimeSeriesPoint, 0, weeksAhead)
	for n := 1; n <= weeksAhead; n++ {
		factor := math.Pow(1+rate, float64(n))
		ts := base.Timestamp + int64(n)*weekMillis
		projected = append(projected, TimeSeriesPoint{
			Date:         records.DateLabel(ts),
			Timestamp:    ts,
			OneRepMax:    math.Round(base.OneRepMax * factor),
			TotalVolume:  math.Round(base.TotalVolume * factor),
			AvgWeight:    math.Round(base.AvgWeight*factor*100) / 100,
			IsProjection: true,
		})
	}

	return projected
}

// ProjectWithHistory returns the history followed by its projection.
func ProjectWithHistory(history []TimeSeriesPoint, profile TrainingFrequencyProfile, weeksAhead int) []TimeSeriesPoint {
	projected := Project(history, profile, weeksAhead)
	combined := make([]TimeSeriesPoint, 0, len(history)+len(projected))
	combined = append(combined, history...)
	return append(combined, projected...)
}

func lastHistorical(history []TimeSeriesPoint) (TimeSeriesPoint, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if !history[i].IsProjection {
			return history[i], true
		}
	}
	return TimeSeriesPoint{}, false
}
