package equivalence

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/simonfreshfish/GymStat-sub000/internal/gymstats/units"
)

var ErrUnknownKind = errors.New("unknown catalog kind")

type Kind string

const (
	KindWeight   Kind = "weight"
	KindTime     Kind = "time"
	KindDistance Kind = "distance"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindWeight, KindTime, KindDistance:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// DefaultUnit is the unit stored values of the kind are expressed in.
func (k Kind) DefaultUnit() units.Unit {
	switch k {
	case KindTime:
		return units.Minutes
	case KindDistance:
		return units.Miles
	default:
		return units.Pounds
	}
}

// Entry is a real world reference a raw number can be compared against.
type Entry struct {
	Name        string                 `json:"name"`
	Category    string                 `json:"category"`
	Description string                 `json:"description,omitempty"`
	Provenance  string                 `json:"provenance,omitempty"`
	Magnitudes  map[units.Unit]float64 `json:"magnitudes"`
}

func (e Entry) Magnitude(unit units.Unit) (float64, bool) {
	m, ok := e.Magnitudes[unit]
	return m, ok
}

type Catalog struct {
	Kind    Kind    `json:"kind"`
	Entries []Entry `json:"entries"`
}

type candidate struct {
	entry Entry
	diff  float64
}

// Match picks up to count entries whose magnitude does not exceed target,
// closest first. A first pass takes at most one entry per category, a second
// pass fills any remaining slots by closeness alone.
func Match(target float64, catalog Catalog, unit units.Unit, count int) []Entry {
	matches := make([]Entry, 0)
	if !(target > 0) || math.IsInf(target, 1) || count <= 0 {
		return matches
	}

	candidates := make([]candidate, 0, len(catalog.Entries))
	for _, e := range catalog.Entries {
		m, ok := e.Magnitude(unit)
		if !ok || m > target {
			continue
		}
		candidates = append(candidates, candidate{entry: e, diff: target - m})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].diff < candidates[j].diff
	})

	taken := make([]bool, len(candidates))
	usedCategories := make(map[string]struct{})
	for i, c := range candidates {
		if len(matches) == count {
			return matches
		}
		if _, used := usedCategories[c.entry.Category]; used {
			continue
		}
		usedCategories[c.entry.Category] = struct{}{}
		taken[i] = true
		matches = append(matches, c.entry)
	}

	for i, c := range candidates {
		if len(matches) == count {
			break
		}
		if taken[i] {
			continue
		}
		matches = append(matches, c.entry)
	}

	return matches
}

// BestMatch is the single closest entry not above target.
func BestMatch(target float64, catalog Catalog, unit units.Unit) (Entry, bool) {
	matches := Match(target, catalog, unit, 1)
	if len(matches) == 0 {
		return Entry{}, false
	}
	return matches[0], true
}

// FormatMatch describes target in terms of the entry, e.g.
// "3x Grand Piano (1,500 lb)" when the target holds at least two of them.
func FormatMatch(target float64, entry Entry, unit units.Unit) string {
	m, ok := entry.Magnitude(unit)
	if !ok || m <= 0 {
		return entry.Name
	}

	if target >= 2*m {
		n := math.Floor(target / m)
		return fmt.Sprintf("%.0fx %s (%s %s)", n, entry.Name, formatMagnitude(n*m, unit), unit)
	}
	return fmt.Sprintf("%s (%s %s)", entry.Name, formatMagnitude(m, unit), unit)
}

func formatMagnitude(v float64, unit units.Unit) string {
	if v >= 1e6 {
		return units.FormatLarge(v)
	}
	if v >= 1000 && v == math.Trunc(v) {
		return units.FormatLarge(v)
	}
	return units.Format(v, unit)
}
