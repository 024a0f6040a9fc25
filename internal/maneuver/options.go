package maneuver

import (
	"fmt"
	"math"

	"github.com/OCAP2/trajgen/pkg/core"
)

// Options tunes a single maneuver. Zero values select the defaults.
type Options struct {
	// Acceleration is the peak acceleration in g. Zero selects the configured
	// maximum; larger values are capped to it.
	Acceleration float64
	// Jerk is the peak jerk in g/s, defaulted and capped like Acceleration.
	Jerk float64
	// Spiral restricts the turn to the horizontal plane. The final pitch must
	// equal the current pitch.
	Spiral bool
	// Connecting fixes the plane of a turn between antipodal orientations.
	// When nil one is synthesized.
	Connecting *core.Orientation
}

// limits are the resolved acceleration and jerk in SI units.
type limits struct {
	accel float64 // m/s²
	jerk  float64 // m/s³
}

// resolveLimits applies defaults and caps to the requested acceleration and
// jerk. Capping is advisory; negative requests are fatal.
func (g *Generator) resolveLimits(opts Options) (limits, error) {
	accel, err := g.resolveLimit("acceleration", opts.Acceleration, g.cfg.MaxAcceleration, ErrInvalidAcceleration)
	if err != nil {
		return limits{}, err
	}
	jerk, err := g.resolveLimit("jerk", opts.Jerk, g.cfg.MaxJerk, ErrInvalidJerk)
	if err != nil {
		return limits{}, err
	}
	return limits{accel: accel * Gravity, jerk: jerk * Gravity}, nil
}

func (g *Generator) resolveLimit(name string, requested, maximum float64, invalid error) (float64, error) {
	switch {
	case requested == 0:
		return maximum, nil
	case math.IsNaN(requested) || requested < 0:
		return 0, fmt.Errorf("%w: got %v", invalid, requested)
	case requested > maximum:
		g.advise("capped "+name, "requested", requested, "applied", maximum)
		return maximum, nil
	}
	return requested, nil
}

// resolveStart validates a start time and advances it to the clock when it
// lies in the past.
func (g *Generator) resolveStart(st core.TargetState, start float64) (float64, error) {
	if math.IsNaN(start) || start < 0 {
		return 0, fmt.Errorf("%w: got %v", ErrInvalidTime, start)
	}
	if start < st.ClockTime {
		g.advise("start time behind clock", "requested", start, "applied", st.ClockTime)
		return st.ClockTime, nil
	}
	return start, nil
}

func validateOrientation(o core.Orientation) error {
	if math.IsNaN(o.Bearing) || o.Bearing < -360 || o.Bearing > 360 {
		return fmt.Errorf("%w: got %v", ErrInvalidBearing, o.Bearing)
	}
	if math.IsNaN(o.Pitch) || o.Pitch < -90 || o.Pitch > 90 {
		return fmt.Errorf("%w: got %v", ErrInvalidPitch, o.Pitch)
	}
	return nil
}

func validateSpeed(speed float64) error {
	if math.IsNaN(speed) || speed <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidSpeed, speed)
	}
	return nil
}

func validateState(st core.TargetState) error {
	if math.IsNaN(st.ClockTime) || st.ClockTime < 0 {
		return fmt.Errorf("%w: state clock %v", ErrInvalidTime, st.ClockTime)
	}
	if err := validateSpeed(st.Speed); err != nil {
		return err
	}
	if math.IsNaN(st.Pitch) || st.Pitch < -90 || st.Pitch > 90 {
		return fmt.Errorf("%w: state pitch %v", ErrInvalidPitch, st.Pitch)
	}
	return nil
}
