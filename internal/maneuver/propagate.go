package maneuver

import (
	"math"

	"github.com/OCAP2/trajgen/internal/geo"
	"github.com/OCAP2/trajgen/pkg/core"
)

// minThickSamples is the fewest samples a thick propagation emits, giving
// at least two interior samples before the end point.
const minThickSamples = 3

// PropagateTo advances the target in straight, constant-velocity flight to
// time t. Propagating to t <= the state clock is a no-op.
func (g *Generator) PropagateTo(st core.TargetState, t float64) (core.TargetState, error) {
	if err := g.checkState(st); err != nil {
		return st, err
	}

	next, samples := g.propagate(st, t)
	if err := g.commit(KindPropagate, st, samples); err != nil {
		return st, err
	}
	return next, nil
}

// propagate computes the straight-line samples from st to t without
// emitting them.
func (g *Generator) propagate(st core.TargetState, t float64) (core.TargetState, []core.Sample) {
	if !(t > st.ClockTime) {
		return st, nil
	}

	duration := t - st.ClockTime
	vel := velocity(st)
	start := geo.FromNED(st.Position)

	count := 1
	if g.cfg.ThickUpdates {
		count = max(minThickSamples, int(math.Ceil(duration/g.cfg.UpdateRate)))
	}

	samples := make([]core.Sample, 0, count)
	for k := 1; k <= count; k++ {
		elapsed := duration * float64(k) / float64(count)
		samples = append(samples, core.Sample{
			Time:     st.ClockTime + elapsed,
			Position: geo.ToNED(start.Add(vel.Mul(elapsed))),
			Velocity: geo.ToNED(vel),
		})
	}
	// the end point lands exactly on t
	samples[count-1].Time = t

	next := st
	next.ClockTime = t
	next.Position = samples[count-1].Position
	return next, samples
}
