package gymstats

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/simonfreshfish/GymStat-sub000/internal/gymstats/analytics"
	"github.com/simonfreshfish/GymStat-sub000/internal/gymstats/equivalence"
	"github.com/simonfreshfish/GymStat-sub000/internal/gymstats/records"
	"github.com/simonfreshfish/GymStat-sub000/internal/gymstats/units"
	"github.com/simonfreshfish/GymStat-sub000/internal/middleware"
	"github.com/simonfreshfish/GymStat-sub000/internal/telemetry/metrics"
	"github.com/simonfreshfish/GymStat-sub000/internal/telemetry/tracing"
	"github.com/simonfreshfish/GymStat-sub000/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// max accepted PUT body
const maxCollectionBodyBytes = 8 << 20

type CollectionsResponse struct {
	Collections []string `json:"collections"`
}

type CollectionResponse struct {
	Collection string            `json:"collection"`
	Sessions   []records.Session `json:"sessions"`
}

type DeleteCollectionResponse struct {
	DeletedCollection string `json:"deletedCollection"`
}

type ActivitiesResponse struct {
	Collection string   `json:"collection"`
	Activities []string `json:"activities"`
}

type Handler struct {
	analyzer *Analyzer
}

func NewHandler(analyzer *Analyzer) *Handler {
	return &Handler{
		analyzer: analyzer,
	}
}

func (handler *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	metricsManager *metrics.Manager,
	allowedPerMin int,
) {
	analyticsRouter := mainRouter.PathPrefix("/gymstats/analytics").Subrouter()
	analyticsRouter.HandleFunc("/profiles", handler.HandleProfiles).Methods("GET", "OPTIONS").Name("analytics-profiles")
	analyticsRouter.HandleFunc("/onerepmax", handler.HandleOneRepMax).Methods("GET", "OPTIONS").Name("analytics-onerepmax")
	analyticsRouter.HandleFunc("/activities/{collection}", handler.HandleActivities).Methods("GET", "OPTIONS").Name("analytics-activities")
	analyticsRouter.HandleFunc("/series/{collection}/{activity}", handler.HandleSeries).Methods("GET", "OPTIONS").Name("analytics-series")
	analyticsRouter.HandleFunc("/streaks/{collection}", handler.HandleStreaks).Methods("GET", "OPTIONS").Name("analytics-streaks")
	analyticsRouter.HandleFunc("/wrapped/{collection}/{window}", handler.HandleWrapped).Methods("GET", "OPTIONS").Name("analytics-wrapped")
	analyticsRouter.HandleFunc("/equivalences/{kind}", handler.HandleEquivalences).Methods("GET", "OPTIONS").Name("analytics-equivalences")
	if rateLimiter != nil {
		analyticsRouter.Use(middleware.RateLimit(rateLimiter, "analytics", allowedPerMin, metricsManager))
	}

	recordsRouter := mainRouter.PathPrefix("/gymstats/records").Subrouter()
	recordsRouter.HandleFunc("", handler.HandleListCollections).Methods("GET", "OPTIONS").Name("records-list")
	recordsRouter.HandleFunc("/{collection}", handler.HandleLoadCollection).Methods("GET", "OPTIONS").Name("records-load")
	recordsRouter.HandleFunc("/{collection}", handler.HandleSaveCollection).Methods("PUT", "OPTIONS").Name("records-save")
	recordsRouter.HandleFunc("/{collection}", handler.HandleDeleteCollection).Methods("DELETE", "OPTIONS").Name("records-delete")
}

// writeAnalyzerError maps analyzer errors to status codes.
func writeAnalyzerError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, records.ErrInvalidCollection),
		errors.Is(err, records.ErrInvalidSession),
		errors.Is(err, equivalence.ErrUnknownKind),
		errors.Is(err, ErrUnknownProfile),
		errors.Is(err, ErrUnitMismatch),
		errors.Is(err, ErrInvalidParams):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, records.ErrCollectionNotFound):
		http.Error(w, "collection not found", http.StatusNotFound)
	default:
		log.Errorf("%s: %s", op, err)
		http.Error(w, "error, "+op+" failed", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	respJson, err := json.Marshal(v)
	if err != nil {
		log.Errorf("failed to marshal response: %s", err)
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, status)
}

// parseFiniteFloat rejects NaN and the infinities strconv lets through.
func parseFiniteFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %s", s)
	}
	return v, nil
}

func (handler *Handler) HandleProfiles(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.gymstats.profiles")
	defer span.End()

	writeJSON(w, handler.analyzer.Profiles(), http.StatusOK)
}

func (handler *Handler) HandleOneRepMax(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.gymstats.onerepmax")
	defer span.End()

	weight, err := parseFiniteFloat(r.URL.Query().Get("weight"))
	if err != nil {
		http.Error(w, "error, weight NaN", http.StatusBadRequest)
		return
	}
	reps, err := strconv.Atoi(r.URL.Query().Get("reps"))
	if err != nil {
		http.Error(w, "error, reps NaN", http.StatusBadRequest)
		return
	}

	res, err := handler.analyzer.OneRepMax(weight, reps)
	if err != nil {
		writeAnalyzerError(w, "one rep max", err)
		return
	}
	writeJSON(w, res, http.StatusOK)
}

func (handler *Handler) HandleActivities(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.gymstats.activities")
	defer span.End()

	collection := mux.Vars(r)["collection"]
	activities, err := handler.analyzer.Activities(ctx, collection)
	if err != nil {
		writeAnalyzerError(w, "list activities", err)
		return
	}
	writeJSON(w, ActivitiesResponse{
		Collection: collection,
		Activities: activities,
	}, http.StatusOK)
}

func (handler *Handler) HandleSeries(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.gymstats.series")
	defer span.End()

	vars := mux.Vars(r)
	query := r.URL.Query()

	params := SeriesParams{
		Collection: vars["collection"],
		Activity:   vars["activity"],
		ProfileID:  query.Get("profile"),
	}
	if weeksStr := query.Get("weeks"); weeksStr != "" {
		weeks, err := strconv.Atoi(weeksStr)
		if err != nil {
			http.Error(w, "error, weeks NaN", http.StatusBadRequest)
			return
		}
		params.WeeksAhead = weeks
	}
	if unitStr := query.Get("unit"); unitStr != "" {
		unit, ok := units.Parse(unitStr)
		if !ok {
			http.Error(w, "error, unknown unit", http.StatusBadRequest)
			return
		}
		params.Unit = unit
	}

	res, err := handler.analyzer.Series(ctx, params)
	if err != nil {
		writeAnalyzerError(w, "exercise series", err)
		return
	}
	writeJSON(w, res, http.StatusOK)
}

func (handler *Handler) HandleStreaks(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.gymstats.streaks")
	defer span.End()

	tolerance := 0
	if toleranceStr := r.URL.Query().Get("tolerance"); toleranceStr != "" {
		var err error
		tolerance, err = strconv.Atoi(toleranceStr)
		if err != nil || tolerance < 0 {
			http.Error(w, "error, invalid tolerance", http.StatusBadRequest)
			return
		}
	}

	res, err := handler.analyzer.Streaks(ctx, mux.Vars(r)["collection"], tolerance)
	if err != nil {
		writeAnalyzerError(w, "streaks", err)
		return
	}
	writeJSON(w, res, http.StatusOK)
}

func (handler *Handler) HandleWrapped(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.gymstats.wrapped")
	defer span.End()

	vars := mux.Vars(r)
	window := analytics.WindowKind(vars["window"])
	if window != analytics.WindowMonth && window != analytics.WindowYear {
		http.Error(w, "error, window must be month or year", http.StatusBadRequest)
		return
	}

	res, err := handler.analyzer.Wrapped(ctx, vars["collection"], window)
	if err != nil {
		writeAnalyzerError(w, "wrapped summary", err)
		return
	}
	writeJSON(w, res, http.StatusOK)
}

func (handler *Handler) HandleEquivalences(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.gymstats.equivalences")
	defer span.End()

	kind, err := equivalence.ParseKind(mux.Vars(r)["kind"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	query := r.URL.Query()
	value, err := parseFiniteFloat(query.Get("value"))
	if err != nil {
		http.Error(w, "error, value NaN", http.StatusBadRequest)
		return
	}

	var unit units.Unit
	if unitStr := query.Get("unit"); unitStr != "" {
		var ok bool
		if unit, ok = units.Parse(unitStr); !ok {
			http.Error(w, "error, unknown unit", http.StatusBadRequest)
			return
		}
	}

	count := 0
	if countStr := query.Get("count"); countStr != "" {
		if count, err = strconv.Atoi(countStr); err != nil {
			http.Error(w, "error, count NaN", http.StatusBadRequest)
			return
		}
	}

	res, err := handler.analyzer.Equivalences(kind, value, unit, count)
	if err != nil {
		writeAnalyzerError(w, "equivalences", err)
		return
	}
	writeJSON(w, res, http.StatusOK)
}

func (handler *Handler) HandleListCollections(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.gymstats.collections")
	defer span.End()

	collections, err := handler.analyzer.Collections(ctx)
	if err != nil {
		writeAnalyzerError(w, "list collections", err)
		return
	}
	writeJSON(w, CollectionsResponse{Collections: collections}, http.StatusOK)
}

func (handler *Handler) HandleLoadCollection(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.gymstats.loadCollection")
	defer span.End()

	collection := mux.Vars(r)["collection"]
	sessions, err := handler.analyzer.LoadCollection(ctx, collection)
	if err != nil {
		writeAnalyzerError(w, "load collection", err)
		return
	}
	writeJSON(w, CollectionResponse{
		Collection: collection,
		Sessions:   sessions,
	}, http.StatusOK)
}

func (handler *Handler) HandleSaveCollection(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.gymstats.saveCollection")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var sessions []records.Session
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCollectionBodyBytes)).Decode(&sessions); err != nil {
		log.Tracef("save collection, unmarshal json: %s", err)
		http.Error(w, "error, invalid sessions payload", http.StatusBadRequest)
		return
	}

	collection := mux.Vars(r)["collection"]
	saved, err := handler.analyzer.SaveCollection(ctx, collection, sessions)
	if err != nil {
		writeAnalyzerError(w, "save collection", err)
		return
	}

	log.Debugf("collection [%s] saved with %d sessions", collection, len(saved))
	writeJSON(w, CollectionResponse{
		Collection: collection,
		Sessions:   saved,
	}, http.StatusOK)
}

func (handler *Handler) HandleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.gymstats.deleteCollection")
	defer span.End()

	collection := mux.Vars(r)["collection"]
	if err := handler.analyzer.DeleteCollection(ctx, collection); err != nil {
		writeAnalyzerError(w, "delete collection", err)
		return
	}

	log.Debugf("collection [%s] deleted", collection)
	writeJSON(w, DeleteCollectionResponse{DeletedCollection: collection}, http.StatusOK)
}
