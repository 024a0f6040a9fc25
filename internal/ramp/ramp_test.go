package ramp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

const g = 9.80665

func TestSolve_Trapezoid(t *testing.T) {
	// 200 -> 400 m/s at 6 g, 2 g/s
	timing := Solve(200, 6*g, 2*g)

	assert.InDelta(t, 3, timing.RampDuration, 1e-12)
	assert.InDelta(t, 6*g, timing.Peak, 1e-12)
	assert.InDelta(t, 0.5*2*g*9, timing.RampDelta, 1e-9)
	assert.InDelta(t, 200-2*timing.RampDelta, timing.HoldDelta, 1e-9)
	assert.InDelta(t, timing.HoldDelta/(6*g), timing.HoldDuration, 1e-12)
	assert.False(t, timing.Triangular())
	assert.InDelta(t, 200, 2*timing.RampDelta+timing.HoldDelta, 1e-9)
}

func TestSolve_TriangleReducesPeak(t *testing.T) {
	timing := Solve(100, 6*g, 2*g)

	assert.True(t, timing.Triangular())
	assert.Less(t, timing.Peak, 6*g)
	assert.InDelta(t, 50, timing.RampDelta, 1e-12)
	assert.InDelta(t, math.Sqrt(100/(2*g)), timing.RampDuration, 1e-12)
	assert.InDelta(t, 2*g*timing.RampDuration, timing.Peak, 1e-12)
}

func TestSolve_SignIgnored(t *testing.T) {
	assert.Equal(t, Solve(42, 3, 1), Solve(-42, 3, 1))
}

func TestSample_Properties(t *testing.T) {
	tests := []struct {
		name                  string
		delta, peak, jerk, dt float64
	}{
		{"speed up with hold", 200, 6 * g, 2 * g, 0.1},
		{"slow down with hold", -150, 4 * g, 3 * g, 0.1},
		{"small triangle", 0.5, 6 * g, 3 * g, 0.1},
		{"angle radians", math.Pi / 2, 0.3, 0.1, 0.05},
		{"negative angle triangle", -0.01, 0.4, 0.15, 0.1},
		{"coarse grid", 300, 8 * g, 3 * g, 1},
		{"exact trapezoid boundary", 2 * 0.5 * 1 * 4, 2, 1, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Sample(tt.delta, tt.peak, tt.jerk, tt.dt)
			require.Equal(t, len(p.Times), len(p.Values))
			require.Equal(t, len(p.Times), len(p.Rates))

			assert.Equal(t, 0.0, p.Times[0])
			assert.Equal(t, 0.0, p.Values[0])
			assert.Equal(t, tt.delta, p.Final())
			assert.InDelta(t, p.Duration(), p.Times[len(p.Times)-1], 1e-12)
			assert.LessOrEqual(t, p.Peak, tt.peak)

			sign := math.Copysign(1, tt.delta)
			for i := 1; i < len(p.Times); i++ {
				dt := p.Times[i] - p.Times[i-1]
				assert.Greater(t, dt, 0.0, "times must strictly increase at %d", i)
				assert.GreaterOrEqual(t, sign*(p.Values[i]-p.Values[i-1]), -1e-12, "traversal must be monotonic at %d", i)
				assert.LessOrEqual(t, math.Abs(p.Rates[i]), tt.peak+1e-9)
				assert.LessOrEqual(t, math.Abs(p.Rates[i]-p.Rates[i-1])/dt, tt.jerk*(1+1e-9))
			}
		})
	}
}

func TestSample_PhaseSampleCounts(t *testing.T) {
	p := Sample(200, 6*g, 2*g, 0.1)

	// ramps: ceil(3/0.1)+1 = 31 samples each, hold: ceil(0.4/0.1)+2 minus both ends
	hold := int(math.Ceil(p.HoldDuration/0.1)) + 2 - 2
	assert.Equal(t, 31+hold+31, len(p.Times))
}

func TestSample_TriangleHasNoDuplicatePeak(t *testing.T) {
	p := Sample(1, 6*g, 3*g, 0.1)

	assert.True(t, p.Triangular())
	assert.Equal(t, 1, floats.Count(func(v float64) bool { return v == p.RampDuration }, p.Times))
	assert.Equal(t, MinPhaseSamples*2-1, len(p.Times))
}

func TestSample_ZeroDelta(t *testing.T) {
	p := Sample(0, 1, 1, 0.1)
	assert.Equal(t, []float64{0}, p.Times)
	assert.Equal(t, 0.0, p.Final())
}

func TestSample_RatesIntegrateToValues(t *testing.T) {
	p := Sample(120, 5*g, 2*g, 0.01)

	// trapezoidal integration of the rate recovers the traversal
	var sum float64
	for i := 1; i < len(p.Times); i++ {
		sum += 0.5 * (p.Rates[i] + p.Rates[i-1]) * (p.Times[i] - p.Times[i-1])
	}
	assert.InDelta(t, 120, sum, 0.05)
}
