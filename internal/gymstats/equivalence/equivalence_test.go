package equivalence_test

import (
	"math"
	"strings"
	"testing"

	"github.com/simonfreshfish/GymStat-sub000/internal/gymstats/equivalence"
	"github.com/simonfreshfish/GymStat-sub000/internal/gymstats/units"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() equivalence.Catalog {
	entry := func(name, category string, lb float64) equivalence.Entry {
		return equivalence.Entry{
			Name:       name,
			Category:   category,
			Magnitudes: map[units.Unit]float64{units.Pounds: lb},
		}
	}
	return equivalence.Catalog{
		Kind: equivalence.KindWeight,
		Entries: []equivalence.Entry{
			entry("Horse", "animals", 1100),
			entry("Grizzly Bear", "animals", 600),
			entry("Polar Bear", "animals", 1000),
			entry("Motorcycle", "vehicles", 400),
			entry("Grand Piano", "music", 1000),
			entry("Smart Car", "vehicles", 1800),
			{Name: "Metric Only", Category: "misc", Magnitudes: map[units.Unit]float64{units.Kilograms: 10}},
		},
	}
}

func names(entries []equivalence.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func TestMatch_DegenerateInputs(t *testing.T) {
	catalog := testCatalog()
	assert.Empty(t, equivalence.Match(0, catalog, units.Pounds, 3))
	assert.Empty(t, equivalence.Match(-100, catalog, units.Pounds, 3))
	assert.Empty(t, equivalence.Match(math.NaN(), catalog, units.Pounds, 3))
	assert.Empty(t, equivalence.Match(math.Inf(1), catalog, units.Pounds, 3))
	assert.Empty(t, equivalence.Match(1000, catalog, units.Pounds, 0))
	assert.NotNil(t, equivalence.Match(1000, catalog, units.Pounds, 0))
	// nothing small enough
	assert.Empty(t, equivalence.Match(50, catalog, units.Pounds, 3))
	// nobody has miles
	assert.Empty(t, equivalence.Match(1000, catalog, units.Miles, 3))
}

func TestMatch_DistinctCategoriesFirst(t *testing.T) {
	matches := equivalence.Match(1050, testCatalog(), units.Pounds, 3)
	// Polar Bear and Grand Piano tie on closeness, catalog order decides
	assert.Equal(t, []string{"Polar Bear", "Grand Piano", "Motorcycle"}, names(matches))
}

func TestMatch_FillsByClosenessWhenCategoriesRunOut(t *testing.T) {
	matches := equivalence.Match(1050, testCatalog(), units.Pounds, 5)
	assert.Equal(t, []string{"Polar Bear", "Grand Piano", "Motorcycle", "Grizzly Bear"}, names(matches))

	matches = equivalence.Match(5000, testCatalog(), units.Pounds, 10)
	assert.Len(t, matches, 6)
}

func TestMatch_SkipsEntriesWithoutUnit(t *testing.T) {
	matches := equivalence.Match(20, testCatalog(), units.Kilograms, 3)
	assert.Equal(t, []string{"Metric Only"}, names(matches))
}

func TestMatch_NeverExceedsTarget(t *testing.T) {
	faker := gofakeit.New(21)
	catalogs, err := equivalence.LoadCatalogs()
	require.NoError(t, err)

	for i := 0; i < 300; i++ {
		target := faker.Float64Range(0.01, 2e9)
		count := faker.IntRange(1, 8)
		unit := units.Pounds
		if faker.Bool() {
			unit = units.Kilograms
		}

		for _, e := range equivalence.Match(target, catalogs.Weight, unit, count) {
			m, ok := e.Magnitude(unit)
			require.True(t, ok)
			require.LessOrEqual(t, m, target, "%s for target %v", e.Name, target)
		}
	}
}

func TestMatch_DistinctCategoriesWhenAvailable(t *testing.T) {
	faker := gofakeit.New(5)
	catalogs, err := equivalence.LoadCatalogs()
	require.NoError(t, err)

	for i := 0; i < 300; i++ {
		target := faker.Float64Range(1, 30000)
		count := faker.IntRange(1, 5)

		available := make(map[string]struct{})
		for _, e := range catalogs.Distance.Entries {
			if m, ok := e.Magnitude(units.Miles); ok && m <= target {
				available[e.Category] = struct{}{}
			}
		}

		matches := equivalence.Match(target, catalogs.Distance, units.Miles, count)
		if len(available) < count {
			continue
		}
		require.Len(t, matches, count)
		seen := make(map[string]struct{})
		for _, e := range matches {
			_, dup := seen[e.Category]
			require.False(t, dup, "category %s repeated for target %v", e.Category, target)
			seen[e.Category] = struct{}{}
		}
	}
}

func TestBestMatch(t *testing.T) {
	best, ok := equivalence.BestMatch(1799, testCatalog(), units.Pounds)
	require.True(t, ok)
	assert.Equal(t, "Horse", best.Name)

	_, ok = equivalence.BestMatch(10, testCatalog(), units.Pounds)
	assert.False(t, ok)
}

func TestFormatMatch(t *testing.T) {
	horse := testCatalog().Entries[0]
	motorcycle := testCatalog().Entries[3]

	assert.Equal(t, "Horse (1,100 lb)", equivalence.FormatMatch(1500, horse, units.Pounds))
	assert.Equal(t, "3x Motorcycle (1,200 lb)", equivalence.FormatMatch(1300, motorcycle, units.Pounds))
	assert.Equal(t, "2x Motorcycle (800 lb)", equivalence.FormatMatch(800, motorcycle, units.Pounds))
	assert.Equal(t, "Motorcycle (400 lb)", equivalence.FormatMatch(799.5, motorcycle, units.Pounds))
	// no magnitude in the unit, just the name
	assert.Equal(t, "Horse", equivalence.FormatMatch(1500, horse, units.Kilograms))

	run := equivalence.Entry{Name: "Marathon", Category: "races", Magnitudes: map[units.Unit]float64{units.Miles: 26.2}}
	assert.Equal(t, "Marathon (26.20 mi)", equivalence.FormatMatch(30, run, units.Miles))
	assert.Equal(t, "4x Marathon (104.80 mi)", equivalence.FormatMatch(110, run, units.Miles))

	whale := equivalence.Entry{Name: "Blue Whale", Category: "animals", Magnitudes: map[units.Unit]float64{units.Pounds: 300000}}
	assert.True(t, strings.HasPrefix(equivalence.FormatMatch(2_000_000, whale, units.Pounds), "6x Blue Whale (1.80 million lb)"))
}

func TestParseKind(t *testing.T) {
	k, err := equivalence.ParseKind("time")
	require.NoError(t, err)
	assert.Equal(t, equivalence.KindTime, k)
	assert.Equal(t, units.Minutes, k.DefaultUnit())
	assert.Equal(t, units.Miles, equivalence.KindDistance.DefaultUnit())
	assert.Equal(t, units.Pounds, equivalence.KindWeight.DefaultUnit())

	_, err = equivalence.ParseKind("volume")
	assert.ErrorIs(t, err, equivalence.ErrUnknownKind)
}
