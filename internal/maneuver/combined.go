package maneuver

import (
	"fmt"
	"math"

	"github.com/OCAP2/trajgen/internal/geo"
	"github.com/OCAP2/trajgen/internal/ramp"
	"github.com/OCAP2/trajgen/pkg/core"
	"github.com/golang/geo/r3"
)

// Split-angle search bounds. The split angle φ divides the acceleration and
// jerk budgets into a centripetal share (cos φ) and a tangential share
// (sin φ).
const (
	SplitStart         = 45.0 // degrees
	SplitTolerance     = 1e-3 // degrees of turn error
	SplitMaxIterations = 1000
	SplitNudge         = 1e-3 // degrees, keeps both shares non-zero
)

// ChangeDirectionAndSpeed turns to the requested orientation and changes
// to the requested speed so that both finish at the same instant. When one
// of the two changes is negligible it falls back to ChangeDirection or
// ChangeSpeed.
func (g *Generator) ChangeDirectionAndSpeed(st core.TargetState, start, bearing, pitch, speed float64, opts Options) (core.TargetState, error) {
	if err := g.checkState(st); err != nil {
		return st, err
	}
	to := core.Orientation{Bearing: bearing, Pitch: pitch}
	if err := validateOrientation(to); err != nil {
		return st, err
	}
	if err := validateSpeed(speed); err != nil {
		return st, err
	}
	lim, err := g.resolveLimits(opts)
	if err != nil {
		return st, err
	}
	start, err = g.resolveStart(st, start)
	if err != nil {
		return st, err
	}
	tr, err := g.planTurn(st, to, opts)
	if err != nil {
		return st, err
	}

	next, samples := g.propagate(st, start)
	smallSpeed := math.Abs(speed-st.Speed) < SpeedThreshold

	var (
		kind    string
		changed []core.Sample
	)
	switch {
	case tr.info.Close && smallSpeed:
		g.advise("negligible direction and speed change", "angle", tr.info.Angle, "current", st.Speed, "requested", speed)
		kind = KindPropagate
	case tr.info.Close:
		changed, next = g.speed(next, speed, lim)
		kind = KindSpeed
	case smallSpeed:
		changed, next = g.direction(next, to, tr, lim)
		kind = KindDirection
	default:
		changed, next, err = g.combined(next, to, speed, tr, lim)
		if err != nil {
			return st, err
		}
		kind = KindCombined
	}

	if err := g.commit(kind, st, append(samples, changed...)); err != nil {
		return st, err
	}
	return next, nil
}

// combined samples a simultaneous turn and speed change from st.
func (g *Generator) combined(st core.TargetState, to core.Orientation, speed float64, tr turn, lim limits) ([]core.Sample, core.TargetState, error) {
	predict := func(split float64) float64 {
		return predictTurn(split, st.Speed, speed, lim, tr.cosPitch)
	}
	split, iterations, err := searchSplit(tr.frame.Angle, predict)
	if err != nil {
		return nil, st, err
	}
	g.log.Debug("Resolved acceleration split", "split", split, "iterations", iterations)

	sin, cos := math.Sincos(geo.Radians(split))
	p := ramp.Sample(speed-st.Speed, lim.accel*sin, lim.jerk*sin, g.cfg.UpdateRate)

	// centripetal acceleration tracks the tangential one scaled by cot φ;
	// accumulate the turn rate it produces over the speed profile
	thetas := make([]float64, len(p.Times))
	for i := 1; i < len(p.Times); i++ {
		v := (st.Speed + p.Values[i-1]) * tr.cosPitch
		omega := cos / sin * math.Abs(p.Rates[i-1]) / v
		thetas[i] = thetas[i-1] + omega*(p.Times[i]-p.Times[i-1])
	}
	turnRad := geo.Radians(tr.frame.Angle)
	if end := thetas[len(thetas)-1]; end > 0 {
		k := turnRad / end
		for i := range thetas {
			thetas[i] *= k
		}
	}
	thetas[len(thetas)-1] = turnRad

	vels := make([]r3.Vector, len(thetas))
	for i, theta := range thetas {
		vels[i] = tr.velocity(theta, st.Speed+p.Values[i])
	}

	samples, next := g.integrate(st, p.Times, vels)
	next.Bearing = to.Bearing
	next.Pitch = tr.finalPitch(st, to)
	next.Speed = speed
	return samples, next, nil
}

// searchSplit finds the split angle (degrees) whose predicted turn matches
// turn (degrees). It starts at SplitStart and each iteration halves the
// step and moves toward the sign of the error: a predicted turn that is too
// large needs a smaller centripetal share, hence a larger split.
func searchSplit(turn float64, predict func(split float64) float64) (float64, int, error) {
	split, step := SplitStart, SplitStart
	for i := 1; i <= SplitMaxIterations; i++ {
		split = nudgeSplit(split)
		diff := predict(split) - turn
		if math.Abs(diff) < SplitTolerance {
			return split, i, nil
		}
		step /= 2
		if diff > 0 {
			split += step
		} else {
			split -= step
		}
	}
	return 0, SplitMaxIterations, fmt.Errorf("%w: %d iterations for a %.4f degree turn", ErrNoConvergence, SplitMaxIterations, turn)
}

func nudgeSplit(split float64) float64 {
	switch {
	case split <= 0:
		return SplitNudge
	case split >= 90:
		return 90 - SplitNudge
	}
	return split
}

// predictTurn integrates the turn angle (degrees) produced when the
// budgets are split at split degrees and speed runs from v0 to vf.
// scale is the horizontal share of speed that sweeps the turn.
//
// Per phase the centripetal acceleration is linear in local time and the
// speed at most quadratic, so each phase integral dθ = a_c/v dt has a
// closed form.
func predictTurn(split, v0, vf float64, lim limits, scale float64) float64 {
	sin, cos := math.Sincos(geo.Radians(split))
	accel, jerk := lim.accel*sin, lim.jerk*sin
	cot := cos / sin / scale

	s := 1.0
	if vf < v0 {
		s = -1
	}
	tm := ramp.Solve(vf-v0, accel, jerk)
	peak := tm.Peak

	// ramp-up: a_c = cot·j·t, v = v0 + s·j·t²/2
	theta := rateRatio{p: cot * jerk, a: s * jerk / 2, c: v0}.integrate(tm.RampDuration)
	v1 := v0 + s*tm.RampDelta

	// hold: a_c = cot·A, v = v1 + s·A·t
	if tm.HoldDuration > 0 {
		theta += rateRatio{q: cot * peak, b: s * peak, c: v1}.integrate(tm.HoldDuration)
	}
	v2 := v1 + s*tm.HoldDelta

	// ramp-down: a_c = cot·(A - j·t), v = v2 + s·(A·t - j·t²/2)
	theta += rateRatio{p: -cot * jerk, q: cot * peak, a: -s * jerk / 2, b: s * peak, c: v2}.integrate(tm.RampDuration)

	return geo.Degrees(theta)
}
