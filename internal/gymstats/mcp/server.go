package mcp

import (
	"github.com/simonfreshfish/GymStat-sub000/internal/gymstats"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var _ analyticsProvider = (*gymstats.Analyzer)(nil)

// NewServer builds an MCP server with the gymstats analytics tools.
// pool is nil when records are kept in redis.
// Used by the main backend when mounting MCP at /mcp (internal/server).
func NewServer(analyzer *gymstats.Analyzer, pool *pgxpool.Pool) *mcp.Server {
	var schemaRepo SchemaRepo
	if pool != nil {
		schemaRepo = NewPoolSchemaRepo(pool)
	}
	h := NewHandler(NewContextService(schemaRepo, analyzer))
	s := mcp.NewServer(&mcp.Implementation{
		Name:    "gymstats-analytics",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_gymstats_context",
		Description: "Describes where session records are stored (postgres table columns or redis key layout). Use when developing against the gymstats backend.",
	}, h.GetGymstatsContextTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_activities",
		Description: "Returns the distinct activity names logged in a collection, in the order they were first logged. Use it to find the exact name to pass to get_exercise_series.",
	}, h.GetActivitiesTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_exercise_series",
		Description: "Returns the per session history of one activity: estimated one rep max, total volume and average weight for strength work, duration or distance for cardio. Pass a training profile to append a compound growth projection.",
	}, h.GetExerciseSeriesTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_streaks",
		Description: "Returns the longest and current adherence streaks of a collection. Sessions at most gap_tolerance_days apart continue a streak.",
	}, h.GetStreaksTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_wrapped_summary",
		Description: "Returns a month or year recap: totals, per activity breakdown, records, heart rate, streak, day or month buckets, and relatable comparisons of the totals.",
	}, h.GetWrappedSummaryTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_equivalences",
		Description: "Translates a raw number (pounds lifted, minutes trained, miles covered) into real world references that do not exceed it, one per category first.",
	}, h.GetEquivalencesTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_training_profiles",
		Description: "Returns the training frequency profiles and their weekly growth rates used by projections.",
	}, h.GetTrainingProfilesTool())

	return s
}
