package maneuver

import (
	"math"

	"github.com/OCAP2/trajgen/internal/geo"
	"github.com/OCAP2/trajgen/internal/ramp"
	"github.com/OCAP2/trajgen/pkg/core"
	"github.com/golang/geo/r3"
)

// ChangeSpeed accelerates or decelerates the target along its current
// heading to the requested speed, starting at start.
func (g *Generator) ChangeSpeed(st core.TargetState, start, speed float64, opts Options) (core.TargetState, error) {
	if err := g.checkState(st); err != nil {
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

	next, samples := g.propagate(st, start)
	kind := KindPropagate
	if math.Abs(speed-st.Speed) < SpeedThreshold {
		g.advise("negligible speed change", "current", st.Speed, "requested", speed)
	} else {
		var changed []core.Sample
		changed, next = g.speed(next, speed, lim)
		samples = append(samples, changed...)
		kind = KindSpeed
	}

	if err := g.commit(kind, st, samples); err != nil {
		return st, err
	}
	return next, nil
}

// speed samples a speed change along the fixed heading of st.
func (g *Generator) speed(st core.TargetState, speed float64, lim limits) ([]core.Sample, core.TargetState) {
	p := ramp.Sample(speed-st.Speed, lim.accel, lim.jerk, g.cfg.UpdateRate)
	heading := geo.OrientationToVector(st.Bearing, st.Pitch, 1)

	vels := make([]r3.Vector, len(p.Values))
	for i, dv := range p.Values {
		vels[i] = heading.Mul(st.Speed + dv)
	}

	samples, next := g.integrate(st, p.Times, vels)
	next.Speed = speed
	return samples, next
}
