//go:build integration_test || all_tests

package test

import (
	"context"
	"net/http"
	"time"

	"github.com/simonfreshfish/GymStat-sub000/internal/gymstats/records"
	"github.com/simonfreshfish/GymStat-sub000/internal/middleware"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenTransport struct {
	token string
	base  http.RoundTripper
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set(middleware.AuthTokenHeader, t.token)
	return t.base.RoundTrip(req)
}

func (s *IntegrationTestSuite) TestGymstats_MCPOverHTTP() {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	collection := "mcp-" + gofakeit.LetterN(8)
	s.saveCollection(ctx, collection, []records.Session{
		squatSession(time.Now().Add(-72*time.Hour), 185, 8),
	})

	client := mcp.NewClient(&mcp.Implementation{Name: "integration-test", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{
		Endpoint: serverEndpoint + "/mcp",
		HTTPClient: &http.Client{
			Transport: &tokenTransport{token: testAPIToken, base: http.DefaultTransport},
		},
	}, nil)
	require.NoError(s.T(), err)
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(s.T(), err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.Contains(s.T(), names, "get_exercise_series")
	assert.Contains(s.T(), names, "get_wrapped_summary")

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "get_activities",
		Arguments: map[string]any{"collection": collection},
	})
	require.NoError(s.T(), err)
	require.False(s.T(), res.IsError)
	require.NotEmpty(s.T(), res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(s.T(), ok)
	assert.Contains(s.T(), text.Text, "Back Squat")

	res, err = session.CallTool(ctx, &mcp.CallToolParams{
		Name: "get_gymstats_context",
	})
	require.NoError(s.T(), err)
	text, ok = res.Content[0].(*mcp.TextContent)
	require.True(s.T(), ok)
	assert.Contains(s.T(), text.Text, "record_collection")
}
