package nav

import (
	"errors"
	"fmt"
	"strings"

	"gps-navigator/internal/domain/geo"
)

// Step is a single maneuver of a computed route. GeometryStart and
// GeometryEnd are vertex indices into Route.Geometry covering the step.
type Step struct {
	Instruction    string
	DistanceMeters float64
	GeometryStart  int
	GeometryEnd    int
}

// Route is a computed route as returned by the route service.
type Route struct {
	DistanceMeters  float64
	DurationSeconds float64
	Steps           []Step
	Geometry        []geo.Point
}

var (
	ErrNoSteps            = errors.New("route has no steps")
	ErrShortGeometry      = errors.New("route geometry needs at least two points")
	ErrNegativeDistance   = errors.New("distance cannot be negative")
	ErrEmptyInstruction   = errors.New("step instruction cannot be empty")
	ErrStepRangeOrder     = errors.New("step geometry ranges must follow traversal order")
	ErrStepDistanceBudget = errors.New("cumulative step distance exceeds route distance")
)

// Validate checks invariants of the Route: steps ordered by traversal
// order and cumulative step distance within the route distance, allowing
// a small rounding tolerance.
func (route *Route) Validate() error {
	if route.DistanceMeters < 0 || route.DurationSeconds < 0 {
		return ErrNegativeDistance
	}
	if len(route.Steps) == 0 {
		return ErrNoSteps
	}
	if len(route.Geometry) < 2 {
		return ErrShortGeometry
	}

	var cumulative float64
	prevEnd := 0
	for i, step := range route.Steps {
		if strings.TrimSpace(step.Instruction) == "" {
			return fmt.Errorf("step %d: %w", i, ErrEmptyInstruction)
		}
		if step.DistanceMeters < 0 {
			return fmt.Errorf("step %d: %w", i, ErrNegativeDistance)
		}
		if step.GeometryStart < 0 || step.GeometryEnd >= len(route.Geometry) ||
			step.GeometryStart > step.GeometryEnd || step.GeometryStart < prevEnd {
			return fmt.Errorf("step %d: %w", i, ErrStepRangeOrder)
		}
		prevEnd = step.GeometryEnd
		cumulative += step.DistanceMeters
	}

	if cumulative > route.DistanceMeters+distanceTolerance(route.DistanceMeters) {
		return ErrStepDistanceBudget
	}
	return nil
}

// Destination returns the final geometry point of the route.
func (route *Route) Destination() geo.Point {
	return route.Geometry[len(route.Geometry)-1]
}

// FinalStep reports whether index is the last step of the route.
func (route *Route) FinalStep(index int) bool {
	return index >= len(route.Steps)-1
}

// distanceTolerance is the rounding slack allowed between the summed step
// distances and the advertised route distance.
func distanceTolerance(routeDistance float64) float64 {
	return 1.0 + routeDistance*0.001
}

// RouteRequest describes one route computation.
type RouteRequest struct {
	Origin         geo.Position
	DestinationLat float64
	DestinationLng float64
	Vehicle        VehicleType
}

// Validate performs the local checks that must never reach the remote
// service: coordinate ranges and vehicle type.
func (request RouteRequest) Validate() error {
	if err := request.Origin.Validate(); err != nil {
		return fmt.Errorf("%w: origin: %v", ErrInvalidRequest, err)
	}
	if request.DestinationLat < -90 || request.DestinationLat > 90 {
		return fmt.Errorf("%w: destination: %v", ErrInvalidRequest, geo.ErrInvalidLatitude)
	}
	if request.DestinationLng < -180 || request.DestinationLng > 180 {
		return fmt.Errorf("%w: destination: %v", ErrInvalidRequest, geo.ErrInvalidLongitude)
	}
	if !request.Vehicle.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, ErrInvalidVehicleType)
	}
	return nil
}
