package routing

import (
	"context"

	"github.com/tripbuddy/assist/internal/models"
)

// Planner defines the interface to the route-planning backend.
type Planner interface {
	// GenerateRoute converts natural-language travel intent into a planned
	// route. Any transport or decode failure is returned as an error; the
	// caller decides how to surface it.
	GenerateRoute(ctx context.Context, input string) (*models.RouteResponse, error)
}
