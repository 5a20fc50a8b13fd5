package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tripbuddy/assist/internal/models"
)

// HTTPPlanner implements Planner against the route-planning HTTP backend.
type HTTPPlanner struct {
	baseURL string
	client  *http.Client
}

type routeRequest struct {
	Input string `json:"input"`
}

// NewHTTPPlanner creates a planner client for the backend at baseURL.
func NewHTTPPlanner(baseURL string, timeout time.Duration) *HTTPPlanner {
	return &HTTPPlanner{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (p *HTTPPlanner) GenerateRoute(ctx context.Context, input string) (*models.RouteResponse, error) {
	body, err := json.Marshal(routeRequest{Input: input})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal route request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/generate_route", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build route request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("route backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("route backend returned status %d", resp.StatusCode)
	}

	var route models.RouteResponse
	if err := json.NewDecoder(resp.Body).Decode(&route); err != nil {
		return nil, fmt.Errorf("failed to decode route response: %w", err)
	}

	return &route, nil
}
