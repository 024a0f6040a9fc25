package maneuver

import (
	"github.com/OCAP2/trajgen/internal/geo"
	"github.com/OCAP2/trajgen/internal/ramp"
	"github.com/OCAP2/trajgen/pkg/core"
	"github.com/golang/geo/r3"
)

// ChangeDirection turns the target along a great circle to the requested
// bearing and pitch, starting at start. Acceleration here is centripetal.
func (g *Generator) ChangeDirection(st core.TargetState, start, bearing, pitch float64, opts Options) (core.TargetState, error) {
	if err := g.checkState(st); err != nil {
		return st, err
	}
	to := core.Orientation{Bearing: bearing, Pitch: pitch}
	if err := validateOrientation(to); err != nil {
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
	kind := KindPropagate
	if tr.info.Close {
		g.advise("negligible direction change", "angle", tr.info.Angle)
	} else {
		var turned []core.Sample
		turned, next = g.direction(next, to, tr, lim)
		samples = append(samples, turned...)
		kind = KindDirection
	}

	if err := g.commit(kind, st, samples); err != nil {
		return st, err
	}
	return next, nil
}

// direction samples a turn from st. The angular ramp runs in radians with
// the acceleration and jerk divided by the speed that sweeps the turn.
func (g *Generator) direction(st core.TargetState, to core.Orientation, tr turn, lim limits) ([]core.Sample, core.TargetState) {
	sweep := st.Speed * tr.cosPitch
	p := ramp.Sample(geo.Radians(tr.frame.Angle), lim.accel/sweep, lim.jerk/sweep, g.cfg.UpdateRate)

	vels := make([]r3.Vector, len(p.Values))
	for i, theta := range p.Values {
		vels[i] = tr.velocity(theta, st.Speed)
	}

	samples, next := g.integrate(st, p.Times, vels)
	next.Bearing = to.Bearing
	next.Pitch = tr.finalPitch(st, to)
	return samples, next
}
