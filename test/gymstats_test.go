//go:build integration_test || all_tests

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/simonfreshfish/GymStat-sub000/internal/gymstats"
	"github.com/simonfreshfish/GymStat-sub000/internal/gymstats/records"
	"github.com/simonfreshfish/GymStat-sub000/internal/middleware"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) doRequest(
	ctx context.Context,
	method, path string,
	body []byte,
) (int, []byte) {
	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, bytes.NewReader(body))
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set(middleware.AuthTokenHeader, testAPIToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)
	return resp.StatusCode, respBytes
}

func (s *IntegrationTestSuite) saveCollection(ctx context.Context, collection string, sessions []records.Session) {
	payload, err := json.Marshal(sessions)
	require.NoError(s.T(), err)

	status, body := s.doRequest(ctx, http.MethodPut, "/gymstats/records/"+collection, payload)
	require.Equal(s.T(), http.StatusOK, status, string(body))
}

func squatSession(at time.Time, weight float64, reps int) records.Session {
	return records.Session{
		Activity:  "Back Squat",
		Kind:      records.KindStrength,
		Timestamp: at.UnixMilli(),
		Sets: []records.Set{
			{Weight: weight, Reps: reps, Completed: true},
			{Weight: weight - 20, Reps: reps + 3, Completed: true},
		},
		DurationMinutes: 50,
	}
}

func (s *IntegrationTestSuite) TestGymstats_Unauthorized() {
	req, err := http.NewRequest(http.MethodGet, serverEndpoint+"/gymstats/records", nil)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	defer resp.Body.Close()
	assert.Equal(s.T(), http.StatusUnauthorized, resp.StatusCode)
}

func (s *IntegrationTestSuite) TestGymstats_RecordsLifecycle() {
	ctx := context.Background()
	collection := "crud-" + gofakeit.LetterN(8)

	now := time.Now().UTC()
	sessions := []records.Session{
		squatSession(now.Add(-48*time.Hour), 225, 5),
		squatSession(now.Add(-96*time.Hour), 215, 5),
	}
	s.saveCollection(ctx, collection, sessions)

	var rowsCount int
	require.NoError(s.T(), s.DB.QueryRow(
		`SELECT jsonb_array_length(payload) FROM record_collection WHERE name = $1`, collection,
	).Scan(&rowsCount))
	assert.Equal(s.T(), 2, rowsCount)

	status, body := s.doRequest(ctx, http.MethodGet, "/gymstats/records/"+collection, nil)
	require.Equal(s.T(), http.StatusOK, status)
	var loaded gymstats.CollectionResponse
	require.NoError(s.T(), json.Unmarshal(body, &loaded))
	require.Len(s.T(), loaded.Sessions, 2)
	// stored sorted by timestamp, with ids and date labels
	assert.Less(s.T(), loaded.Sessions[0].Timestamp, loaded.Sessions[1].Timestamp)
	assert.NotEmpty(s.T(), loaded.Sessions[0].ID)
	assert.NotEmpty(s.T(), loaded.Sessions[0].Date)

	status, body = s.doRequest(ctx, http.MethodGet, "/gymstats/records", nil)
	require.Equal(s.T(), http.StatusOK, status)
	var list gymstats.CollectionsResponse
	require.NoError(s.T(), json.Unmarshal(body, &list))
	assert.Contains(s.T(), list.Collections, collection)

	status, _ = s.doRequest(ctx, http.MethodDelete, "/gymstats/records/"+collection, nil)
	require.Equal(s.T(), http.StatusOK, status)
	status, _ = s.doRequest(ctx, http.MethodDelete, "/gymstats/records/"+collection, nil)
	assert.Equal(s.T(), http.StatusNotFound, status)

	status, body = s.doRequest(ctx, http.MethodGet, "/gymstats/records/"+collection, nil)
	require.Equal(s.T(), http.StatusOK, status)
	require.NoError(s.T(), json.Unmarshal(body, &loaded))
	assert.Empty(s.T(), loaded.Sessions)
}

func (s *IntegrationTestSuite) TestGymstats_InvalidSessionsRejected() {
	ctx := context.Background()
	payload := []byte(`[{"activity":"","timestamp":0}]`)
	status, _ := s.doRequest(ctx, http.MethodPut, "/gymstats/records/broken", payload)
	assert.Equal(s.T(), http.StatusBadRequest, status)
}

func (s *IntegrationTestSuite) TestGymstats_Analytics() {
	ctx := context.Background()
	collection := "analytics-" + gofakeit.LetterN(8)

	now := time.Now().UTC()
	distance := 5.0
	sessions := []records.Session{
		squatSession(now.Add(-6*24*time.Hour), 205, 5),
		squatSession(now.Add(-4*24*time.Hour), 215, 5),
		squatSession(now.Add(-2*24*time.Hour), 225, 5),
		{
			Activity:        "Easy Run",
			Kind:            records.KindRun,
			Timestamp:       now.Add(-24 * time.Hour).UnixMilli(),
			DurationMinutes: 32,
			Distance:        &distance,
		},
	}
	s.saveCollection(ctx, collection, sessions)

	status, body := s.doRequest(ctx, http.MethodGet, "/gymstats/analytics/activities/"+collection, nil)
	require.Equal(s.T(), http.StatusOK, status)
	var activities gymstats.ActivitiesResponse
	require.NoError(s.T(), json.Unmarshal(body, &activities))
	assert.Equal(s.T(), []string{"Back Squat", "Easy Run"}, activities.Activities)

	seriesPath := fmt.Sprintf("/gymstats/analytics/series/%s/%s?profile=twice&weeks=4", collection, url.PathEscape("Back Squat"))
	status, body = s.doRequest(ctx, http.MethodGet, seriesPath, nil)
	require.Equal(s.T(), http.StatusOK, status, string(body))
	var series gymstats.SeriesResult
	require.NoError(s.T(), json.Unmarshal(body, &series))
	require.Len(s.T(), series.Points, 3+4)
	assert.False(s.T(), series.Points[2].IsProjection)
	assert.True(s.T(), series.Points[3].IsProjection)
	assert.Greater(s.T(), series.Points[6].OneRepMax, series.Points[2].OneRepMax)

	status, body = s.doRequest(ctx, http.MethodGet, "/gymstats/analytics/streaks/"+collection, nil)
	require.Equal(s.T(), http.StatusOK, status)
	var streaks gymstats.StreaksResult
	require.NoError(s.T(), json.Unmarshal(body, &streaks))
	assert.Equal(s.T(), 4, streaks.Longest)
	assert.Equal(s.T(), 4, streaks.Current)

	status, body = s.doRequest(ctx, http.MethodGet, "/gymstats/analytics/wrapped/"+collection+"/year", nil)
	require.Equal(s.T(), http.StatusOK, status, string(body))
	var wrapped gymstats.WrappedReport
	require.NoError(s.T(), json.Unmarshal(body, &wrapped))
	assert.Equal(s.T(), collection, wrapped.Collection)
	// the sessions may straddle new year
	if wrapped.TotalSessions > 0 {
		assert.NotEmpty(s.T(), wrapped.Comparisons)
	}

	status, body = s.doRequest(ctx, http.MethodGet, "/gymstats/analytics/equivalences/weight?value=1000&unit=lb&count=2", nil)
	require.Equal(s.T(), http.StatusOK, status)
	var equivalences gymstats.EquivalencesResult
	require.NoError(s.T(), json.Unmarshal(body, &equivalences))
	assert.Len(s.T(), equivalences.Matches, 2)

	status, _ = s.doRequest(ctx, http.MethodGet, "/gymstats/analytics/wrapped/"+collection+"/decade", nil)
	assert.Equal(s.T(), http.StatusBadRequest, status)
}
