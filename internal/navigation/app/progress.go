package app

import (
	"gps-navigator/internal/domain/geo"
	"gps-navigator/internal/domain/nav"
)

// Policy thresholds for progress tracking.
const (
	stepAdvanceThresholdMeters = 30.0
	arrivalThresholdMeters     = 20.0
	offRouteThresholdMeters    = 50.0
	offRouteStrikeLimit        = 2
)

type progress struct {
	stepIndex         int
	distanceRemaining float64
	deviationMeters   float64
}

// computeProgress projects the position onto the route polyline and
// returns the remaining geometry distance to the end of the route, the
// (possibly advanced) step index, and the perpendicular deviation used by
// the off-route check.
func computeProgress(route *nav.Route, stepIndex int, position geo.Position) progress {
	point := position.Point()
	geometry := route.Geometry

	// nearest segment of the whole polyline
	bestDist := -1.0
	bestSeg := 0
	bestT := 0.0
	for i := 0; i+1 < len(geometry); i++ {
		dist, t := geo.ProjectOnSegment(point, geometry[i], geometry[i+1])
		if bestDist < 0 || dist < bestDist {
			bestDist = dist
			bestSeg = i
			bestT = t
		}
	}

	// remaining distance: projection point to the end of its segment, then
	// the tail of the polyline
	segLen := geo.DistanceMeters(geometry[bestSeg], geometry[bestSeg+1])
	remaining := (1 - bestT) * segLen
	remaining += geo.PolylineLengthMeters(geometry[bestSeg+1:])

	// advance the step index while the next step's start is within reach
	for !route.FinalStep(stepIndex) {
		next := route.Steps[stepIndex+1]
		start := geometry[next.GeometryStart]
		if geo.DistanceMeters(point, start) >= stepAdvanceThresholdMeters {
			break
		}
		stepIndex++
	}

	return progress{
		stepIndex:         stepIndex,
		distanceRemaining: remaining,
		deviationMeters:   bestDist,
	}
}
