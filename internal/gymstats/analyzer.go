package gymstats

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/simonfreshfish/GymStat-sub000/internal/cache"
	"github.com/simonfreshfish/GymStat-sub000/internal/gymstats/analytics"
	"github.com/simonfreshfish/GymStat-sub000/internal/gymstats/equivalence"
	"github.com/simonfreshfish/GymStat-sub000/internal/gymstats/records"
	"github.com/simonfreshfish/GymStat-sub000/internal/gymstats/units"
	"github.com/simonfreshfish/GymStat-sub000/internal/telemetry/metrics"
	"github.com/simonfreshfish/GymStat-sub000/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=analyzer_mocks_test.go -package=gymstats_test

var (
	ErrUnknownProfile = errors.New("unknown training profile")
	ErrUnitMismatch   = errors.New("unit does not fit the value kind")
	ErrInvalidParams  = errors.New("invalid parameters")
)

const (
	analyticsKindSeries       = "series"
	analyticsKindStreaks      = "streaks"
	analyticsKindWrapped      = "wrapped"
	analyticsKindEquivalences = "equivalences"
	analyticsKindOneRepMax    = "onerepmax"

	DefaultEquivalenceCount = 3
	MaxEquivalenceCount     = 10
	MaxWeeksAhead           = 104
)

type collectionStore interface {
	Load(ctx context.Context, collection string) ([]records.Session, error)
	Save(ctx context.Context, collection string, sessions []records.Session) error
	Delete(ctx context.Context, collection string) error
	Collections(ctx context.Context) ([]string, error)
}

type SeriesParams struct {
	Collection string
	Activity   string
	// ProfileID selects the projection growth rate; empty means no projection.
	ProfileID  string
	WeeksAhead int
	Unit       units.Unit
}

type SeriesResult struct {
	Collection string                              `json:"collection"`
	Activity   string                              `json:"activity"`
	Cardio     bool                                `json:"cardio"`
	Unit       units.Unit                          `json:"unit,omitempty"`
	Profile    *analytics.TrainingFrequencyProfile `json:"profile,omitempty"`
	Points     []analytics.TimeSeriesPoint         `json:"points"`
}

type StreaksResult struct {
	Collection       string `json:"collection"`
	GapToleranceDays int    `json:"gapToleranceDays"`
	analytics.StreakState
}

// Comparison puts a wrapped total next to a relatable reference.
type Comparison struct {
	Kind  equivalence.Kind  `json:"kind"`
	Value float64           `json:"value"`
	Unit  units.Unit        `json:"unit"`
	Text  string            `json:"text"`
	Entry equivalence.Entry `json:"entry"`
}

type WrappedReport struct {
	Collection string `json:"collection"`
	analytics.WrappedSummary
	Comparisons []Comparison `json:"comparisons"`
}

type EquivalenceMatch struct {
	equivalence.Entry
	Text string `json:"text"`
}

type EquivalencesResult struct {
	Kind    equivalence.Kind   `json:"kind"`
	Value   float64            `json:"value"`
	Unit    units.Unit         `json:"unit"`
	Matches []EquivalenceMatch `json:"matches"`
}

type OneRepMaxResult struct {
	Weight    float64 `json:"weight"`
	Reps      int     `json:"reps"`
	OneRepMax float64 `json:"oneRepMax"`
}

type AnalyzerParams struct {
	Store collectionStore
	// Cache is optional, nil disables memoization of store loads.
	Cache            *cache.RecordsCache
	MetricsManager   *metrics.Manager
	Catalogs         *equivalence.Catalogs
	GapToleranceDays int
	WeeksAhead       int
	Now              func() time.Time
}

// Analyzer loads collections and runs the analytics on them.
// It is safe for concurrent use.
type Analyzer struct {
	store            collectionStore
	cache            *cache.RecordsCache
	metricsManager   *metrics.Manager
	catalogs         equivalence.Catalogs
	gapToleranceDays int
	weeksAhead       int
	now              func() time.Time
}

func NewAnalyzer(params AnalyzerParams) (*Analyzer, error) {
	if params.Store == nil {
		return nil, errors.New("analyzer: nil store")
	}
	if params.MetricsManager == nil {
		return nil, errors.New("analyzer: nil metrics manager")
	}

	var catalogs equivalence.Catalogs
	if params.Catalogs != nil {
		catalogs = *params.Catalogs
	} else {
		loaded, err := equivalence.LoadCatalogs()
		if err != nil {
			return nil, fmt.Errorf("load equivalence catalogs: %w", err)
		}
		catalogs = loaded
	}

	a := &Analyzer{
		store:            params.Store,
		cache:            params.Cache,
		metricsManager:   params.MetricsManager,
		catalogs:         catalogs,
		gapToleranceDays: params.GapToleranceDays,
		weeksAhead:       params.WeeksAhead,
		now:              params.Now,
	}
	if a.gapToleranceDays <= 0 {
		a.gapToleranceDays = analytics.DefaultGapToleranceDays
	}
	if a.weeksAhead <= 0 {
		a.weeksAhead = analytics.DefaultWeeksAhead
	}
	if a.now == nil {
		a.now = time.Now
	}

	return a, nil
}

func (a *Analyzer) observe(kind string, begin time.Time) {
	a.metricsManager.CounterAnalytics.WithLabelValues(kind).Inc()
	a.metricsManager.HistAnalyticsDuration.WithLabelValues(kind).Observe(time.Since(begin).Seconds())
}

// loadSessions reads a collection through the records cache.
func (a *Analyzer) loadSessions(ctx context.Context, collection string) ([]records.Session, error) {
	if err := records.ValidateCollectionName(collection); err != nil {
		return nil, err
	}

	if a.cache != nil {
		if sessions, ok := a.cache.Get(collection); ok {
			a.metricsManager.CounterCacheHits.Inc()
			return sessions, nil
		}
		a.metricsManager.CounterCacheMisses.Inc()
	}

	sessions, err := a.store.Load(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("load collection %s: %w", collection, err)
	}

	if a.cache != nil {
		if err := a.cache.Set(collection, sessions); err != nil {
			log.Warnf("analyzer: cache collection %s: %s", collection, err)
		}
	}

	return sessions, nil
}

// Series returns the per session history of an activity. Strength series
// are optionally extended with a projection; cardio series never are.
func (a *Analyzer) Series(ctx context.Context, params SeriesParams) (_ *SeriesResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.gymstats.series")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("collection", params.Collection),
		attribute.String("activity", params.Activity),
		attribute.String("profile", params.ProfileID),
	)
	defer a.observe(analyticsKindSeries, time.Now())

	if strings.TrimSpace(params.Activity) == "" {
		return nil, fmt.Errorf("%w: activity empty", ErrInvalidParams)
	}
	if params.WeeksAhead < 0 || params.WeeksAhead > MaxWeeksAhead {
		return nil, fmt.Errorf("%w: weeks ahead must be within [0, %d]", ErrInvalidParams, MaxWeeksAhead)
	}

	var profile *analytics.TrainingFrequencyProfile
	if params.ProfileID != "" {
		p, ok := analytics.ProfileByID(params.ProfileID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownProfile, params.ProfileID)
		}
		profile = &p
	}

	unit := params.Unit
	if unit == "" {
		unit = units.Pounds
	}
	if unit.Dimension() != units.DimensionWeight {
		return nil, fmt.Errorf("%w: %s for a strength series", ErrUnitMismatch, unit)
	}

	sessions, err := a.loadSessions(ctx, params.Collection)
	if err != nil {
		return nil, err
	}

	result := &SeriesResult{
		Collection: params.Collection,
		Activity:   params.Activity,
	}

	if isCardioActivity(params.Activity, sessions) {
		result.Cardio = true
		result.Points = analytics.ExtractCardioSeries(params.Activity, sessions)
		return result, nil
	}

	points := analytics.ExtractSeries(params.Activity, sessions)
	if profile != nil {
		weeks := params.WeeksAhead
		if weeks == 0 {
			weeks = a.weeksAhead
		}
		points = analytics.ProjectWithHistory(points, *profile, weeks)
		result.Profile = profile
	}

	result.Unit = unit
	result.Points = convertPoints(points, unit)

	return result, nil
}

// isCardioActivity reports whether the activity has to be charted from
// durations. Any occurrence with sets makes it a strength activity, whatever
// kind it was logged under. Otherwise the first occurrence's kind decides.
func isCardioActivity(activity string, sessions []records.Session) bool {
	found, cardio := false, false
	for _, s := range sessions {
		if s.Activity != activity {
			continue
		}
		if len(s.Sets) > 0 {
			return false
		}
		if !found {
			found = true
			cardio = s.Kind.IsCardio()
		}
	}
	return cardio
}

func convertPoints(points []analytics.TimeSeriesPoint, unit units.Unit) []analytics.TimeSeriesPoint {
	if unit == units.Pounds {
		return points
	}
	converted := make([]analytics.TimeSeriesPoint, len(points))
	for i, p := range points {
		p.OneRepMax = units.Convert(p.OneRepMax, units.Pounds, unit)
		p.TotalVolume = units.Convert(p.TotalVolume, units.Pounds, unit)
		p.AvgWeight = units.Convert(p.AvgWeight, units.Pounds, unit)
		converted[i] = p
	}
	return converted
}

func (a *Analyzer) Activities(ctx context.Context, collection string) (_ []string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.gymstats.activities")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	sessions, err := a.loadSessions(ctx, collection)
	if err != nil {
		return nil, err
	}
	return analytics.Activities(sessions), nil
}

// Streaks computes the adherence streaks over every session of a collection.
// A non positive tolerance uses the configured default.
func (a *Analyzer) Streaks(ctx context.Context, collection string, gapToleranceDays int) (_ *StreaksResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.gymstats.streaks")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("collection", collection))
	defer a.observe(analyticsKindStreaks, time.Now())

	if gapToleranceDays <= 0 {
		gapToleranceDays = a.gapToleranceDays
	}

	sessions, err := a.loadSessions(ctx, collection)
	if err != nil {
		return nil, err
	}

	timestamps := make([]int64, len(sessions))
	for i, s := range sessions {
		timestamps[i] = s.Timestamp
	}

	return &StreaksResult{
		Collection:       collection,
		GapToleranceDays: gapToleranceDays,
		StreakState:      analytics.Streaks(timestamps, gapToleranceDays, a.now()),
	}, nil
}

// Wrapped summarizes the current month or year of a collection and adds
// one comparison per non zero total (volume, time, distance).
func (a *Analyzer) Wrapped(ctx context.Context, collection string, window analytics.WindowKind) (_ *WrappedReport, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.gymstats.wrapped")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("collection", collection),
		attribute.String("window", string(window)),
	)
	defer a.observe(analyticsKindWrapped, time.Now())

	sessions, err := a.loadSessions(ctx, collection)
	if err != nil {
		return nil, err
	}

	summary := analytics.Summarize(sessions, window, a.now())
	report := &WrappedReport{
		Collection:     collection,
		WrappedSummary: summary,
		Comparisons:    []Comparison{},
	}

	totals := []struct {
		kind  equivalence.Kind
		value float64
	}{
		{kind: equivalence.KindWeight, value: summary.TotalVolume},
		{kind: equivalence.KindTime, value: summary.TotalDuration},
	}
	if summary.TotalDistance != nil {
		totals = append(totals, struct {
			kind  equivalence.Kind
			value float64
		}{kind: equivalence.KindDistance, value: *summary.TotalDistance})
	}

	for _, total := range totals {
		if total.value <= 0 {
			continue
		}
		catalog, err := a.catalogs.ByKind(total.kind)
		if err != nil {
			return nil, err
		}
		unit := total.kind.DefaultUnit()
		entry, ok := equivalence.BestMatch(total.value, catalog, unit)
		if !ok {
			continue
		}
		report.Comparisons = append(report.Comparisons, Comparison{
			Kind:  total.kind,
			Value: total.value,
			Unit:  unit,
			Text:  equivalence.FormatMatch(total.value, entry, unit),
			Entry: entry,
		})
	}

	return report, nil
}

// Equivalences matches a raw value against the catalog of the given kind.
// An empty unit means the kind's default unit, count <= 0 the default count.
func (a *Analyzer) Equivalences(kind equivalence.Kind, value float64, unit units.Unit, count int) (*EquivalencesResult, error) {
	defer a.observe(analyticsKindEquivalences, time.Now())

	catalog, err := a.catalogs.ByKind(kind)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, fmt.Errorf("%w: value must be a finite number", ErrInvalidParams)
	}

	if unit == "" {
		unit = kind.DefaultUnit()
	}
	if unit.Dimension() != kind.DefaultUnit().Dimension() {
		return nil, fmt.Errorf("%w: %s for %s", ErrUnitMismatch, unit, kind)
	}
	if count <= 0 {
		count = DefaultEquivalenceCount
	}
	if count > MaxEquivalenceCount {
		count = MaxEquivalenceCount
	}

	result := &EquivalencesResult{
		Kind:    kind,
		Value:   value,
		Unit:    unit,
		Matches: []EquivalenceMatch{},
	}
	for _, entry := range equivalence.Match(value, catalog, unit, count) {
		result.Matches = append(result.Matches, EquivalenceMatch{
			Entry: entry,
			Text:  equivalence.FormatMatch(value, entry, unit),
		})
	}

	return result, nil
}

func (a *Analyzer) OneRepMax(weight float64, reps int) (*OneRepMaxResult, error) {
	defer a.observe(analyticsKindOneRepMax, time.Now())

	if !(weight > 0) || math.IsInf(weight, 1) || reps <= 0 {
		return nil, fmt.Errorf("%w: weight and reps must be positive", ErrInvalidParams)
	}
	return &OneRepMaxResult{
		Weight:    weight,
		Reps:      reps,
		OneRepMax: analytics.EstimateOneRepMax(weight, reps),
	}, nil
}

func (a *Analyzer) Profiles() []analytics.TrainingFrequencyProfile {
	return analytics.TrainingProfiles()
}

func (a *Analyzer) LoadCollection(ctx context.Context, collection string) ([]records.Session, error) {
	return a.loadSessions(ctx, collection)
}

// SaveCollection validates and replaces a whole collection.
func (a *Analyzer) SaveCollection(ctx context.Context, collection string, sessions []records.Session) (_ []records.Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.gymstats.saveCollection")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("collection", collection),
		attribute.Int("sessions", len(sessions)),
	)

	if err := records.ValidateCollectionName(collection); err != nil {
		return nil, err
	}

	prepared, err := records.PrepareForSave(sessions)
	if err != nil {
		return nil, err
	}

	if err := a.store.Save(ctx, collection, prepared); err != nil {
		return nil, fmt.Errorf("save collection %s: %w", collection, err)
	}
	a.invalidate(collection)
	a.metricsManager.CounterCollectionsSaved.Inc()

	return prepared, nil
}

func (a *Analyzer) DeleteCollection(ctx context.Context, collection string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.gymstats.deleteCollection")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := records.ValidateCollectionName(collection); err != nil {
		return err
	}

	// drop the cached copy even when the store fails half way
	defer a.invalidate(collection)

	if err := a.store.Delete(ctx, collection); err != nil {
		return fmt.Errorf("delete collection %s: %w", collection, err)
	}
	return nil
}

func (a *Analyzer) Collections(ctx context.Context) ([]string, error) {
	return a.store.Collections(ctx)
}

func (a *Analyzer) invalidate(collection string) {
	if a.cache != nil {
		a.cache.Invalidate(collection)
	}
}
