package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/simonfreshfish/GymStat-sub000/internal/gymstats"
	"github.com/simonfreshfish/GymStat-sub000/internal/gymstats/analytics"
	"github.com/simonfreshfish/GymStat-sub000/internal/gymstats/equivalence"
	"github.com/simonfreshfish/GymStat-sub000/internal/gymstats/units"
)

// analyticsProvider is the part of gymstats.Analyzer the MCP tools use.
type analyticsProvider interface {
	Series(ctx context.Context, params gymstats.SeriesParams) (*gymstats.SeriesResult, error)
	Activities(ctx context.Context, collection string) ([]string, error)
	Streaks(ctx context.Context, collection string, gapToleranceDays int) (*gymstats.StreaksResult, error)
	Wrapped(ctx context.Context, collection string, window analytics.WindowKind) (*gymstats.WrappedReport, error)
	Equivalences(kind equivalence.Kind, value float64, unit units.Unit, count int) (*gymstats.EquivalencesResult, error)
	Profiles() []analytics.TrainingFrequencyProfile
}

// contextService provides the data behind the MCP tools.
// Used by Handler for testability.
type contextService interface {
	GetSchema(ctx context.Context) (string, error)
	GetExerciseSeries(ctx context.Context, params gymstats.SeriesParams) (*gymstats.SeriesResult, error)
	ListActivities(ctx context.Context, collection string) ([]string, error)
	GetStreaks(ctx context.Context, collection string, gapToleranceDays int) (*gymstats.StreaksResult, error)
	GetWrappedSummary(ctx context.Context, collection string, window analytics.WindowKind) (*gymstats.WrappedReport, error)
	GetEquivalences(kind equivalence.Kind, value float64, unit units.Unit, count int) (*gymstats.EquivalencesResult, error)
	GetTrainingProfiles() []analytics.TrainingFrequencyProfile
}

// ContextService holds dependencies and implements the gymstats context business logic.
type ContextService struct {
	// schema is nil when records live in redis
	schema   SchemaRepo
	analyzer analyticsProvider
}

// NewContextService builds a ContextService with the given dependencies.
func NewContextService(schemaRepo SchemaRepo, analyzer analyticsProvider) *ContextService {
	return &ContextService{
		schema:   schemaRepo,
		analyzer: analyzer,
	}
}

const redisLayout = `# Gymstats Record Store

Backend: redis.

- ` + "`gymstats-records||<collection>`" + `: JSON array of sessions for one collection.
- ` + "`gymstats-records-collections`" + `: set of known collection names.
`

// GetSchema describes where session records are kept: the postgres table
// columns, or the redis key layout.
func (s *ContextService) GetSchema(ctx context.Context) (string, error) {
	if s.schema == nil {
		return redisLayout, nil
	}
	cols, err := s.schema.GetRecordStoreColumns(ctx)
	if err != nil {
		return "", err
	}
	return formatRecordStoreSchema(cols), nil
}

func formatRecordStoreSchema(cols []SchemaColumn) string {
	if len(cols) == 0 {
		return "# Gymstats Record Store\n\nBackend: postgres. No record store tables found in the database.\n"
	}

	byTable := make(map[string][]SchemaColumn)
	for _, c := range cols {
		byTable[c.TableName] = append(byTable[c.TableName], c)
	}

	tableOrder := make([]string, 0, len(byTable))
	for t := range byTable {
		tableOrder = append(tableOrder, t)
	}
	sort.Strings(tableOrder)

	var b strings.Builder
	b.WriteString("# Gymstats Record Store\n\n")
	b.WriteString("Backend: postgres. Each row holds one collection, payload is a JSON array of sessions.\n\n")

	for _, tableName := range tableOrder {
		b.WriteString("## ")
		b.WriteString(tableName)
		b.WriteString("\n\n| Column | Type | Nullable | Default |\n|--------|------|----------|--------|\n")
		for _, c := range byTable[tableName] {
			def := "-"
			if c.ColumnDef != nil && *c.ColumnDef != "" {
				def = *c.ColumnDef
			}
			b.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", c.ColumnName, c.DataType, c.IsNullable, def))
		}
		b.WriteString("\n")
	}

	return strings.TrimSuffix(b.String(), "\n\n") + "\n"
}

func (s *ContextService) GetExerciseSeries(ctx context.Context, params gymstats.SeriesParams) (*gymstats.SeriesResult, error) {
	return s.analyzer.Series(ctx, params)
}

func (s *ContextService) ListActivities(ctx context.Context, collection string) ([]string, error) {
	return s.analyzer.Activities(ctx, collection)
}

func (s *ContextService) GetStreaks(ctx context.Context, collection string, gapToleranceDays int) (*gymstats.StreaksResult, error) {
	return s.analyzer.Streaks(ctx, collection, gapToleranceDays)
}

func (s *ContextService) GetWrappedSummary(ctx context.Context, collection string, window analytics.WindowKind) (*gymstats.WrappedReport, error) {
	return s.analyzer.Wrapped(ctx, collection, window)
}

func (s *ContextService) GetEquivalences(kind equivalence.Kind, value float64, unit units.Unit, count int) (*gymstats.EquivalencesResult, error) {
	return s.analyzer.Equivalences(kind, value, unit, count)
}

func (s *ContextService) GetTrainingProfiles() []analytics.TrainingFrequencyProfile {
	return s.analyzer.Profiles()
}
