// pkg/core/state.go
package core

// Orientation is an azimuth/elevation pair in degrees.
type Orientation struct {
	Bearing float64 // azimuth from north, degrees
	Pitch   float64 // elevation from the horizon, degrees
}

// TargetState is the kinematic snapshot threaded through every maneuver.
// Maneuvers never mutate a TargetState; they return a new one.
type TargetState struct {
	ClockTime float64 // seconds
	Position  NED     // meters
	Speed     float64 // m/s
	Bearing   float64 // degrees, not normalized
	Pitch     float64 // degrees in [-90, 90]
}

// Orientation returns the bearing/pitch pair of the state.
func (s TargetState) Orientation() Orientation {
	return Orientation{Bearing: s.Bearing, Pitch: s.Pitch}
}

// DefaultState returns a target at the origin flying north and level at 200 m/s.
func DefaultState() TargetState {
	return TargetState{
		Speed: 200,
	}
}

// TargetInfo identifies a target to the output sink.
type TargetInfo struct {
	ID   string
	Name string
}
