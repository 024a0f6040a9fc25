package maneuver

import (
	"math"
	"testing"

	"github.com/OCAP2/trajgen/internal/geo"
	"github.com/OCAP2/trajgen/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeDirectionAndSpeed(t *testing.T) {
	g, rec := newTestGenerator(t, core.DefaultConfiguration())

	next, err := g.ChangeDirectionAndSpeed(core.DefaultState(), 1, 90, 0, 300, Options{})
	require.NoError(t, err)
	assert.Equal(t, 90.0, next.Bearing)
	assert.Equal(t, 0.0, next.Pitch)
	assert.Equal(t, 300.0, next.Speed)

	samples := rec.samples
	requireIncreasingTimes(t, samples)
	last := samples[len(samples)-1]
	assert.InDelta(t, 300, speedOf(last), 1e-9)
	assert.InDelta(t, 90, bearingOf(last), 1e-9)

	for i := 2; i < len(samples); i++ {
		require.GreaterOrEqual(t, speedOf(samples[i]), speedOf(samples[i-1])-1e-9)
		require.GreaterOrEqual(t, bearingOf(samples[i]), bearingOf(samples[i-1])-1e-9)
	}
}

func TestChangeDirectionAndSpeedCases(t *testing.T) {
	tests := []struct {
		name    string
		pitch   float64
		speed   float64
		bearing float64
		final   float64
		opts    Options
	}{
		{name: "spiral climb", pitch: 30, speed: 200, bearing: 120, final: 260, opts: Options{Spiral: true}},
		{name: "slow through wide turn", speed: 300, bearing: 170, final: 100},
		{name: "antipodal synthesized", speed: 200, bearing: 180, final: 250},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, rec := newTestGenerator(t, core.DefaultConfiguration())
			st := core.DefaultState()
			st.Pitch = tt.pitch
			st.Speed = tt.speed

			next, err := g.ChangeDirectionAndSpeed(st, 0, tt.bearing, tt.pitch, tt.final, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.bearing, next.Bearing)
			assert.Equal(t, tt.pitch, next.Pitch)
			assert.Equal(t, tt.final, next.Speed)

			samples := rec.samples
			requireIncreasingTimes(t, samples)
			last := samples[len(samples)-1]
			assert.Equal(t, last.Time, next.ClockTime)
			assert.InDelta(t, tt.final, speedOf(last), 1e-9)

			want := geo.OrientationToVector(tt.bearing, tt.pitch, tt.final)
			assert.InDelta(t, 0, geo.FromNED(last.Velocity).Sub(want).Norm(), 1e-6)

			accelerating := tt.final > tt.speed
			for i := 1; i < len(samples); i++ {
				prev, cur := speedOf(samples[i-1]), speedOf(samples[i])
				if accelerating {
					require.GreaterOrEqual(t, cur, prev-1e-9, "sample %d", i)
				} else {
					require.LessOrEqual(t, cur, prev+1e-9, "sample %d", i)
				}
			}

			if tt.opts.Spiral {
				// horizontal speed scales with cos(pitch), climb rate with sin(pitch)
				sin, cos := math.Sincos(geo.Radians(tt.pitch))
				for _, s := range samples {
					v := speedOf(s)
					require.InDelta(t, -v*sin, s.Velocity.D, 1e-9)
					require.InDelta(t, v*cos, math.Hypot(s.Velocity.N, s.Velocity.E), 1e-9)
				}
			}
		})
	}
}

func TestChangeDirectionAndSpeedDelegates(t *testing.T) {
	t.Run("speed only", func(t *testing.T) {
		g, _ := newTestGenerator(t, core.DefaultConfiguration())
		next, err := g.ChangeDirectionAndSpeed(core.DefaultState(), 0, 0.01, 0, 250, Options{})
		require.NoError(t, err)
		assert.Equal(t, 250.0, next.Speed)
		assert.Equal(t, 0.0, next.Bearing)
	})

	t.Run("direction only", func(t *testing.T) {
		g, _ := newTestGenerator(t, core.DefaultConfiguration())
		next, err := g.ChangeDirectionAndSpeed(core.DefaultState(), 0, 45, 0, 200.01, Options{})
		require.NoError(t, err)
		assert.Equal(t, 200.0, next.Speed)
		assert.Equal(t, 45.0, next.Bearing)
	})

	t.Run("neither", func(t *testing.T) {
		g, rec := newTestGenerator(t, core.DefaultConfiguration())
		next, err := g.ChangeDirectionAndSpeed(core.DefaultState(), 2, 0, 0, 200, Options{})
		require.NoError(t, err)
		assert.Equal(t, 2.0, next.ClockTime)
		assert.Len(t, rec.samples, 2)
	})
}

func TestPredictTurnMatchesLogRatio(t *testing.T) {
	lim := limits{accel: 6 * Gravity, jerk: 3 * Gravity}
	tests := []struct {
		name   string
		split  float64
		v0, vf float64
		scale  float64
	}{
		{"accelerate trapezoid", 30, 200, 400, 1},
		{"accelerate triangle", 60, 200, 210, 1},
		{"decelerate trapezoid", 20, 400, 150, 1},
		{"decelerate triangle", 75, 300, 295, 1},
		{"spiral scale", 45, 200, 300, math.Cos(geo.Radians(20))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cot := 1 / math.Tan(geo.Radians(tt.split))
			want := geo.Degrees(cot * math.Abs(math.Log(tt.vf/tt.v0)) / tt.scale)
			got := predictTurn(tt.split, tt.v0, tt.vf, lim, tt.scale)
			assert.InEpsilon(t, want, got, 1e-9)
		})
	}
}

func TestSearchSplit(t *testing.T) {
	split, iterations, err := searchSplit(30, func(s float64) float64 { return 90 - s })
	require.NoError(t, err)
	assert.InDelta(t, 60, split, SplitTolerance)
	assert.LessOrEqual(t, iterations, SplitMaxIterations)
}

func TestSearchSplitNoConvergence(t *testing.T) {
	calls := 0
	_, iterations, err := searchSplit(10, func(float64) float64 {
		calls++
		return 1000
	})
	assert.ErrorIs(t, err, ErrNoConvergence)
	assert.Equal(t, SplitMaxIterations, iterations)
	assert.Equal(t, SplitMaxIterations, calls)
}

func TestSearchSplitStaysInsideRange(t *testing.T) {
	var seen []float64
	_, _, _ = searchSplit(10, func(s float64) float64 {
		seen = append(seen, s)
		return 0
	})
	for _, s := range seen {
		require.Greater(t, s, 0.0)
		require.Less(t, s, 90.0)
	}
}
