package scenario

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/OCAP2/trajgen/internal/maneuver"
	"github.com/OCAP2/trajgen/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonScenario = `{
  "name": "pair",
  "origin": {"latitude": 48.1, "longitude": 11.5, "altitude": 500},
  "targets": [
    {
      "id": "a",
      "name": "alpha",
      "initial": {"time": 1, "position": {"n": 10, "e": 20, "d": -1000}, "speed": 250, "bearing": 90},
      "config": {"maxAcceleration": 8, "thickUpdates": true, "outputPrecision": 7},
      "maneuvers": [
        {"type": "Propagate", "time": 5},
        {"type": "direction", "time": 6, "bearing": 180, "acceleration": 4},
        {"type": "speed", "time": 20, "speed": 300},
        {"type": "combined", "time": 40, "bearing": 0, "pitch": 10, "speed": 200, "spiral": false,
         "connecting": {"bearing": 270, "pitch": 0}}
      ]
    },
    {"name": "bravo"}
  ]
}`

const yamlScenario = `
name: single
targets:
  - name: charlie
    initial:
      speed: 150
    maneuvers:
      - type: speed
        time: 0
        speed: 180
        jerk: 2
`

func TestParse_JSON(t *testing.T) {
	sc, err := Parse(strings.NewReader(jsonScenario), "json")
	require.NoError(t, err)

	assert.Equal(t, "pair", sc.Name)
	require.NotNil(t, sc.Origin)
	assert.Equal(t, 48.1, sc.Origin.Latitude)
	assert.Equal(t, 500.0, sc.Origin.Altitude)
	require.Len(t, sc.Targets, 2)

	a := sc.Targets[0]
	assert.Equal(t, core.TargetInfo{ID: "a", Name: "alpha"}, a.Info())
	assert.Equal(t, core.TargetState{
		ClockTime: 1,
		Position:  core.NED{N: 10, E: 20, D: -1000},
		Speed:     250,
		Bearing:   90,
	}, a.State())

	cfg := a.Config.Apply(core.DefaultConfiguration())
	assert.Equal(t, 8.0, cfg.MaxAcceleration)
	assert.Equal(t, 3.0, cfg.MaxJerk)
	assert.Equal(t, 7, cfg.OutputPrecision)
	assert.True(t, cfg.ThickUpdates)
	assert.False(t, cfg.AltCoordinates)

	require.Len(t, a.Maneuvers, 4)
	assert.Equal(t, maneuver.KindPropagate, a.Maneuvers[0].Type)
	assert.Equal(t, 5.0, a.Maneuvers[0].Time)
	assert.Nil(t, a.Maneuvers[0].Bearing)

	dir := a.Maneuvers[1]
	require.NotNil(t, dir.Bearing)
	assert.Equal(t, 180.0, *dir.Bearing)
	assert.Equal(t, maneuver.Options{Acceleration: 4}, dir.Options())

	comb := a.Maneuvers[3]
	require.NotNil(t, comb.Connecting)
	assert.Equal(t, core.Orientation{Bearing: 270}, *comb.Connecting)
	assert.Equal(t, 10.0, *comb.Pitch)

	b := sc.Targets[1]
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, "bravo", b.Info().Name)
	assert.Equal(t, core.DefaultState(), b.State())
	assert.Empty(t, b.Maneuvers)
}

func TestParse_YAML(t *testing.T) {
	sc, err := Parse(strings.NewReader(yamlScenario), "yaml")
	require.NoError(t, err)

	require.Len(t, sc.Targets, 1)
	c := sc.Targets[0]
	assert.Nil(t, sc.Origin)
	assert.Equal(t, 150.0, c.State().Speed)
	require.Len(t, c.Maneuvers, 1)
	assert.Equal(t, maneuver.KindSpeed, c.Maneuvers[0].Type)
	assert.Equal(t, 2.0, c.Maneuvers[0].Jerk)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlScenario), 0644))

	sc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "single", sc.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"no targets", `{"targets": []}`},
		{"duplicate ids", `{"targets": [{"id": "x"}, {"id": "x"}]}`},
		{"unknown maneuver", `{"targets": [{"maneuvers": [{"type": "loop"}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.json), "json")
			assert.ErrorIs(t, err, ErrInvalidScenario)
		})
	}
}

func TestInfo_NameDefaultsToID(t *testing.T) {
	assert.Equal(t, core.TargetInfo{ID: "x", Name: "x"}, Target{ID: "x"}.Info())
}

// recorder collects generator output.
type recorder struct {
	samples []core.Sample
}

func (r *recorder) StartTarget(core.TargetInfo, core.Configuration) error { return nil }

func (r *recorder) Append(_ string, samples []core.Sample) error {
	r.samples = append(r.samples, samples...)
	return nil
}

func TestStep_Run(t *testing.T) {
	sc, err := Parse(strings.NewReader(jsonScenario), "json")
	require.NoError(t, err)
	target := sc.Targets[0]

	out := &recorder{}
	g, err := maneuver.New(target.Info(), target.Config.Apply(core.DefaultConfiguration()), out)
	require.NoError(t, err)

	st := target.State()
	for _, step := range target.Maneuvers {
		st, err = step.Run(g, st)
		require.NoError(t, err, step.Type)
	}

	assert.InDelta(t, 200, st.Speed, 1e-9)
	assert.InDelta(t, 10, st.Pitch, 1e-6)
	assert.NotEmpty(t, out.samples)
	for i := 1; i < len(out.samples); i++ {
		assert.Greater(t, out.samples[i].Time, out.samples[i-1].Time)
	}
}

func TestStep_RunKeepsUnsetValues(t *testing.T) {
	out := &recorder{}
	g, err := maneuver.New(core.TargetInfo{ID: "t"}, core.DefaultConfiguration(), out)
	require.NoError(t, err)

	st := core.DefaultState()
	st.Bearing = 45
	speed := 300.0
	next, err := Step{Type: maneuver.KindCombined, Speed: &speed}.Run(g, st)
	require.NoError(t, err)

	assert.InDelta(t, 45, next.Bearing, 1e-9)
	assert.InDelta(t, 300, next.Speed, 1e-9)
}

func TestStep_RunUnknown(t *testing.T) {
	g, err := maneuver.New(core.TargetInfo{ID: "t"}, core.DefaultConfiguration(), &recorder{})
	require.NoError(t, err)

	st := core.DefaultState()
	next, err := Step{Type: "loop"}.Run(g, st)
	assert.ErrorIs(t, err, ErrInvalidScenario)
	assert.Equal(t, st, next)
}
