// Package ramp solves symmetric jerk-limited profiles: a parabolic ramp-up,
// an optional linear hold at the peak rate, and a parabolic ramp-down.
//
// The traversed quantity x (an angle, a speed) has rate dx/dt that rises from
// zero under a constant jerk, holds at the peak, and falls back to zero.
// Magnitudes are solved for |delta|; Solve reapplies the sign of delta to the
// returned values and rates.
package ramp

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// MinPhaseSamples is the fewest samples emitted for any phase.
const MinPhaseSamples = 3

// Timing is the closed-form schedule of a profile.
type Timing struct {
	Peak         float64 // achieved peak rate, never above the requested one
	RampDuration float64 // duration of each ramp
	RampDelta    float64 // magnitude traversed during each ramp
	HoldDuration float64
	HoldDelta    float64 // magnitude traversed during the hold
}

// Duration returns the total profile duration.
func (t Timing) Duration() float64 {
	return 2*t.RampDuration + t.HoldDuration
}

// Triangular reports whether the profile has no hold phase.
func (t Timing) Triangular() bool {
	return t.HoldDuration == 0
}

// Solve computes the timing for traversing |delta| with the requested peak
// rate and jerk. When |delta| is too small to reach peak, the ramps meet
// without a hold at a reduced peak.
func Solve(delta, peak, jerk float64) Timing {
	d := math.Abs(delta)

	rampDuration := peak / jerk
	rampDelta := 0.5 * jerk * rampDuration * rampDuration

	if d < 2*rampDelta {
		achievedDelta := d / 2
		achievedDuration := math.Sqrt(2 * achievedDelta / jerk)
		return Timing{
			Peak:         jerk * achievedDuration,
			RampDuration: achievedDuration,
			RampDelta:    achievedDelta,
		}
	}

	holdDelta := d - 2*rampDelta
	return Timing{
		Peak:         peak,
		RampDuration: rampDuration,
		RampDelta:    rampDelta,
		HoldDuration: holdDelta / peak,
		HoldDelta:    holdDelta,
	}
}

// Profile is a sampled schedule. Times start at zero; Values run from zero
// to the requested delta; Rates are the first derivative of Values.
type Profile struct {
	Timing
	Jerk   float64
	Times  []float64
	Values []float64
	Rates  []float64
}

// Final returns the last traversed value.
func (p Profile) Final() float64 {
	return p.Values[len(p.Values)-1]
}

// Sample solves the profile and samples it at roughly dt spacing.
func Sample(delta, peak, jerk, dt float64) Profile {
	if delta == 0 {
		return Profile{Jerk: jerk, Times: []float64{0}, Values: []float64{0}, Rates: []float64{0}}
	}

	timing := Solve(delta, peak, jerk)
	sign := 1.0
	if delta < 0 {
		sign = -1
	}

	d := math.Abs(delta)
	t1 := timing.RampDuration
	t2 := t1 + timing.HoldDuration
	end := t2 + t1

	rampSamples := max(MinPhaseSamples, int(math.Ceil(t1/dt))+1)
	up := span(0, t1, rampSamples)
	down := span(t2, end, rampSamples)

	var hold []float64
	if timing.HoldDelta > 0 {
		holdSamples := max(MinPhaseSamples, int(math.Ceil(timing.HoldDuration/dt))+2)
		// the boundary samples duplicate the ramp end points
		hold = span(t1, t2, holdSamples)
		hold = hold[1 : len(hold)-1]
	} else {
		// ramp-up ends where ramp-down starts
		down = down[1:]
	}

	n := len(up) + len(hold) + len(down)
	p := Profile{
		Timing: timing,
		Jerk:   jerk,
		Times:  make([]float64, 0, n),
		Values: make([]float64, 0, n),
		Rates:  make([]float64, 0, n),
	}

	for _, t := range up {
		p.add(t, 0.5*jerk*t*t, jerk*t, sign)
	}
	for _, t := range hold {
		p.add(t, timing.RampDelta+timing.Peak*(t-t1), timing.Peak, sign)
	}
	for _, t := range down {
		r := end - t
		p.add(t, d-0.5*jerk*r*r, jerk*r, sign)
	}

	// pin the end point so the traversal is exact
	last := len(p.Values) - 1
	p.Times[last] = end
	p.Values[last] = delta
	p.Rates[last] = 0
	return p
}

func (p *Profile) add(t, value, rate, sign float64) {
	p.Times = append(p.Times, t)
	p.Values = append(p.Values, sign*value)
	p.Rates = append(p.Rates, sign*rate)
}

func span(lo, hi float64, n int) []float64 {
	return floats.Span(make([]float64, n), lo, hi)
}
