package mcp

import (
	"context"
	"encoding/json"

	"github.com/simonfreshfish/GymStat-sub000/internal/gymstats"
	"github.com/simonfreshfish/GymStat-sub000/internal/gymstats/analytics"
	"github.com/simonfreshfish/GymStat-sub000/internal/gymstats/equivalence"
	"github.com/simonfreshfish/GymStat-sub000/internal/gymstats/units"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Handler handles MCP tool requests and responses: parses input, calls the service, formats MCP result.
type Handler struct {
	service contextService
}

// NewHandler builds a handler with the given service.
func NewHandler(service contextService) *Handler {
	return &Handler{
		service: service,
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("Error encoding response: " + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(raw)}},
	}
}

// GetGymstatsContextTool returns the MCP tool handler for get_gymstats_context.
func (h *Handler) GetGymstatsContextTool() func(context.Context, *mcp.CallToolRequest, any) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ any) (*mcp.CallToolResult, any, error) {
		text, err := h.service.GetSchema(ctx)
		if err != nil {
			return errorResult("Error fetching schema: " + err.Error()), nil, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}, nil, nil
	}
}

// ExerciseSeriesInput is the input for get_exercise_series.
type ExerciseSeriesInput struct {
	Collection string `json:"collection" jsonschema:"Record collection name (e.g. serj)"`
	Activity   string `json:"activity" jsonschema:"Exact activity name as logged (e.g. Back Squat)"`
	Profile    string `json:"profile,omitempty" jsonschema:"Training frequency profile id for a projection: once, twice, three, four_plus. Omit for history only"`
	WeeksAhead int    `json:"weeks_ahead,omitempty" jsonschema:"Projected weeks, defaults to 12"`
	Unit       string `json:"unit,omitempty" jsonschema:"Weight unit of the output: lb (default) or kg"`
}

// GetExerciseSeriesTool returns the MCP tool handler for get_exercise_series.
func (h *Handler) GetExerciseSeriesTool() func(context.Context, *mcp.CallToolRequest, ExerciseSeriesInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in ExerciseSeriesInput) (*mcp.CallToolResult, any, error) {
		params := gymstats.SeriesParams{
			Collection: in.Collection,
			Activity:   in.Activity,
			ProfileID:  in.Profile,
			WeeksAhead: in.WeeksAhead,
		}
		if in.Unit != "" {
			unit, ok := units.Parse(in.Unit)
			if !ok {
				return errorResult("Invalid unit: use lb or kg"), nil, nil
			}
			params.Unit = unit
		}

		series, err := h.service.GetExerciseSeries(ctx, params)
		if err != nil {
			return errorResult("Error building exercise series: " + err.Error()), nil, nil
		}
		return jsonResult(series), nil, nil
	}
}

// CollectionInput is the input for tools that only need a collection.
type CollectionInput struct {
	Collection string `json:"collection" jsonschema:"Record collection name (e.g. serj)"`
}

// GetActivitiesTool returns the MCP tool handler for get_activities.
func (h *Handler) GetActivitiesTool() func(context.Context, *mcp.CallToolRequest, CollectionInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in CollectionInput) (*mcp.CallToolResult, any, error) {
		activities, err := h.service.ListActivities(ctx, in.Collection)
		if err != nil {
			return errorResult("Error listing activities: " + err.Error()), nil, nil
		}
		return jsonResult(activities), nil, nil
	}
}

// StreaksInput is the input for get_streaks.
type StreaksInput struct {
	Collection       string `json:"collection" jsonschema:"Record collection name (e.g. serj)"`
	GapToleranceDays int    `json:"gap_tolerance_days,omitempty" jsonschema:"Max whole days between sessions that still continue a streak, defaults to 7"`
}

// GetStreaksTool returns the MCP tool handler for get_streaks.
func (h *Handler) GetStreaksTool() func(context.Context, *mcp.CallToolRequest, StreaksInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in StreaksInput) (*mcp.CallToolResult, any, error) {
		if in.GapToleranceDays < 0 {
			return errorResult("Invalid gap_tolerance_days: must not be negative"), nil, nil
		}
		streaks, err := h.service.GetStreaks(ctx, in.Collection, in.GapToleranceDays)
		if err != nil {
			return errorResult("Error computing streaks: " + err.Error()), nil, nil
		}
		return jsonResult(streaks), nil, nil
	}
}

// WrappedInput is the input for get_wrapped_summary.
type WrappedInput struct {
	Collection string `json:"collection" jsonschema:"Record collection name (e.g. serj)"`
	Window     string `json:"window" jsonschema:"month or year, relative to today"`
}

// GetWrappedSummaryTool returns the MCP tool handler for get_wrapped_summary.
func (h *Handler) GetWrappedSummaryTool() func(context.Context, *mcp.CallToolRequest, WrappedInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in WrappedInput) (*mcp.CallToolResult, any, error) {
		window := analytics.WindowKind(in.Window)
		if window != analytics.WindowMonth && window != analytics.WindowYear {
			return errorResult("Invalid window: use month or year"), nil, nil
		}
		summary, err := h.service.GetWrappedSummary(ctx, in.Collection, window)
		if err != nil {
			return errorResult("Error building wrapped summary: " + err.Error()), nil, nil
		}
		return jsonResult(summary), nil, nil
	}
}

// EquivalencesInput is the input for get_equivalences.
type EquivalencesInput struct {
	Kind  string  `json:"kind" jsonschema:"weight, time or distance"`
	Value float64 `json:"value" jsonschema:"The raw number to compare, e.g. total pounds lifted"`
	Unit  string  `json:"unit,omitempty" jsonschema:"Unit of value: lb/kg for weight, min for time, mi/km for distance"`
	Count int     `json:"count,omitempty" jsonschema:"How many references to return, defaults to 3"`
}

// GetEquivalencesTool returns the MCP tool handler for get_equivalences.
func (h *Handler) GetEquivalencesTool() func(context.Context, *mcp.CallToolRequest, EquivalencesInput) (*mcp.CallToolResult, any, error) {
	return func(_ context.Context, _ *mcp.CallToolRequest, in EquivalencesInput) (*mcp.CallToolResult, any, error) {
		kind, err := equivalence.ParseKind(in.Kind)
		if err != nil {
			return errorResult("Invalid kind: use weight, time or distance"), nil, nil
		}
		var unit units.Unit
		if in.Unit != "" {
			var ok bool
			if unit, ok = units.Parse(in.Unit); !ok {
				return errorResult("Invalid unit: " + in.Unit), nil, nil
			}
		}
		res, err := h.service.GetEquivalences(kind, in.Value, unit, in.Count)
		if err != nil {
			return errorResult("Error matching equivalences: " + err.Error()), nil, nil
		}
		return jsonResult(res), nil, nil
	}
}

// GetTrainingProfilesTool returns the MCP tool handler for get_training_profiles.
func (h *Handler) GetTrainingProfilesTool() func(context.Context, *mcp.CallToolRequest, any) (*mcp.CallToolResult, any, error) {
	return func(_ context.Context, _ *mcp.CallToolRequest, _ any) (*mcp.CallToolResult, any, error) {
		return jsonResult(h.service.GetTrainingProfiles()), nil, nil
	}
}
