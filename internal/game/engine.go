package game

import (
	"errors"
	"fmt"
)

// ResolveAttack scans the fleet in storage order and classifies the attack.
// When several planes share the attacked cell the last matching plane wins.
// A head hit marks the owning plane sunk.
func ResolveAttack(fleet []Plane, pos Coordinate) Outcome {
	out := Outcome{Result: ResultMiss, PlaneIndex: -1}

	for i, plane := range fleet {
		for _, c := range plane.Coordinates {
			if !c.Same(pos) {
				continue
			}
			out.PlaneIndex = i
			if c.IsHead() {
				out.Result = ResultSink
			} else {
				out.Result = ResultHit
			}
			break
		}
	}

	if out.Result == ResultSink {
		fleet[out.PlaneIndex].Sunk = true
	}
	return out
}

// CloneFleet deep-copies a fleet.
func CloneFleet(fleet []Plane) []Plane {
	if fleet == nil {
		return nil
	}
	out := make([]Plane, len(fleet))
	for i, p := range fleet {
		out[i] = p.Clone()
	}
	return out
}

// ResetFleet clears sunk flags before a new match.
func ResetFleet(fleet []Plane) {
	for i := range fleet {
		fleet[i].Sunk = false
	}
}

var (
	errFleetSize = errors.New("wrong number of planes")
	errNoCells   = errors.New("plane has no coordinates")
	errHeadCount = errors.New("plane must have exactly one head")
)

// ValidateFleet performs the basic shape checks applied when a player
// declares ready. Geometry is the client's business.
func ValidateFleet(fleet []Plane) error {
	if len(fleet) != PlaneCount {
		return fmt.Errorf("%w: expected %d, got %d", errFleetSize, PlaneCount, len(fleet))
	}
	for i, p := range fleet {
		if len(p.Coordinates) == 0 {
			return fmt.Errorf("plane %d: %w", i, errNoCells)
		}
		heads := 0
		for _, c := range p.Coordinates {
			if c.IsHead() {
				heads++
			}
		}
		if heads != 1 {
			return fmt.Errorf("plane %d: %w (got %d)", i, errHeadCount, heads)
		}
	}
	return nil
}
