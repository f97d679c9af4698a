package records

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	ErrCollectionNotFound = errors.New("collection not found")
	ErrInvalidCollection  = errors.New("invalid collection name")
	ErrInvalidSession     = errors.New("invalid session")
)

var collectionNameRegex = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

// DateLabelLayout is used for session and series point labels.
const DateLabelLayout = "Jan 2, 2006"

type ActivityKind string

const (
	KindStrength   ActivityKind = "strength"
	KindRun        ActivityKind = "run"
	KindWalk       ActivityKind = "walk"
	KindCycle      ActivityKind = "cycle"
	KindSwim       ActivityKind = "swim"
	KindRow        ActivityKind = "row"
	KindHike       ActivityKind = "hike"
	KindElliptical ActivityKind = "elliptical"
	KindStairs     ActivityKind = "stairs"
	KindOther      ActivityKind = "other"
)

type KindInfo struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

var kindInfos = map[ActivityKind]KindInfo{
	KindStrength:   {Label: "Strength", Icon: "dumbbell", Color: "#8E44AD"},
	KindRun:        {Label: "Run", Icon: "figure.run", Color: "#E74C3C"},
	KindWalk:       {Label: "Walk", Icon: "figure.walk", Color: "#27AE60"},
	KindCycle:      {Label: "Cycle", Icon: "bicycle", Color: "#F39C12"},
	KindSwim:       {Label: "Swim", Icon: "figure.pool.swim", Color: "#3498DB"},
	KindRow:        {Label: "Row", Icon: "figure.rower", Color: "#16A085"},
	KindHike:       {Label: "Hike", Icon: "figure.hiking", Color: "#A0522D"},
	KindElliptical: {Label: "Elliptical", Icon: "figure.elliptical", Color: "#D35400"},
	KindStairs:     {Label: "Stairs", Icon: "figure.stair.stepper", Color: "#7F8C8D"},
	KindOther:      {Label: "Other", Icon: "sparkles", Color: "#95A5A6"},
}

// ParseActivityKind never fails, anything it does not know is KindOther.
func ParseActivityKind(s string) ActivityKind {
	k := ActivityKind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := kindInfos[k]; ok {
		return k
	}
	return KindOther
}

func (k ActivityKind) Info() KindInfo {
	if info, ok := kindInfos[k]; ok {
		return info
	}
	return kindInfos[KindOther]
}

func (k ActivityKind) IsCardio() bool {
	return k != KindStrength
}

func (k *ActivityKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	// an empty kind is left for PrepareForSave to infer
	if strings.TrimSpace(s) == "" {
		*k = ""
		return nil
	}
	*k = ParseActivityKind(s)
	return nil
}

type Set struct {
	Weight    float64 `json:"weight"`
	Reps      int     `json:"reps"`
	Completed bool    `json:"completed"`
}

// Session is a single logged activity. Weights are pounds, distances miles.
type Session struct {
	ID        string       `json:"id"`
	Activity  string       `json:"activity"`
	Kind      ActivityKind `json:"kind"`
	Date      string       `json:"date"`
	Timestamp int64        `json:"timestamp"`

	Sets []Set `json:"sets,omitempty"`

	DurationMinutes float64  `json:"durationMinutes,omitempty"`
	Distance        *float64 `json:"distance,omitempty"`
	Calories        *float64 `json:"calories,omitempty"`
	AvgHeartRate    *float64 `json:"avgHeartRate,omitempty"`
	MaxHeartRate    *float64 `json:"maxHeartRate,omitempty"`
}

// DisplayName is the activity name, or the kind label when the name is empty.
func (s Session) DisplayName() string {
	if s.Activity != "" {
		return s.Activity
	}
	return s.Kind.Info().Label
}

func (s Session) Time() time.Time {
	return time.UnixMilli(s.Timestamp)
}

func (s Session) Validate() error {
	if strings.TrimSpace(s.Activity) == "" && s.Kind == "" {
		return fmt.Errorf("%w: activity name and kind both empty", ErrInvalidSession)
	}
	if s.Timestamp <= 0 {
		return fmt.Errorf("%w %q: timestamp missing", ErrInvalidSession, s.Activity)
	}
	if s.DurationMinutes < 0 {
		return fmt.Errorf("%w %q: negative duration", ErrInvalidSession, s.Activity)
	}
	for i, set := range s.Sets {
		if set.Weight < 0 || set.Reps < 0 {
			return fmt.Errorf("%w %q: set %d has negative values", ErrInvalidSession, s.Activity, i)
		}
	}
	for name, v := range map[string]*float64{
		"distance":       s.Distance,
		"calories":       s.Calories,
		"avg heart rate": s.AvgHeartRate,
		"max heart rate": s.MaxHeartRate,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%w %q: negative %s", ErrInvalidSession, s.Activity, name)
		}
	}
	return nil
}

// DateLabel renders a unix millis timestamp as a short UTC date label.
func DateLabel(timestampMs int64) string {
	return time.UnixMilli(timestampMs).UTC().Format(DateLabelLayout)
}

func ValidateCollectionName(name string) error {
	if !collectionNameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidCollection, name)
	}
	return nil
}
