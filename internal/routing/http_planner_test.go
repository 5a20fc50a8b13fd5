package routing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRoute(t *testing.T) {
	var gotBody routeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/generate_route", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"route1": [{"start":"Home","end":"Airport","modeOfTransport":"driving"}],
			"route1Info": {"stepsNeeded": 3}
		}`))
	}))
	defer server.Close()

	planner := NewHTTPPlanner(server.URL, 5*time.Second)
	route, err := planner.GenerateRoute(context.Background(), "go to the airport")
	require.NoError(t, err)

	assert.Equal(t, "go to the airport", gotBody.Input)
	require.Len(t, route.Route1, 1)
	assert.Equal(t, "Home", route.Route1[0].Start)
	assert.Equal(t, "driving", route.Route1[0].ModeOfTransport)
	assert.Equal(t, 3, route.Route1Info.StepsNeeded)
}

func TestGenerateRouteBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	planner := NewHTTPPlanner(server.URL, 5*time.Second)
	_, err := planner.GenerateRoute(context.Background(), "go home")
	assert.ErrorContains(t, err, "status 500")
}

func TestGenerateRouteMalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	planner := NewHTTPPlanner(server.URL, 5*time.Second)
	_, err := planner.GenerateRoute(context.Background(), "go home")
	assert.ErrorContains(t, err, "decode")
}

func TestGenerateRouteUnreachableBackend(t *testing.T) {
	planner := NewHTTPPlanner("http://127.0.0.1:1", time.Second)
	_, err := planner.GenerateRoute(context.Background(), "go home")
	assert.Error(t, err)
}
