// Package scenario decodes scripted runs: a list of targets, each with an
// initial state, optional configuration overrides and an ordered chain of
// maneuvers. Files may be JSON, YAML or TOML.
package scenario

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/OCAP2/trajgen/internal/geo"
	"github.com/OCAP2/trajgen/internal/maneuver"
	"github.com/OCAP2/trajgen/pkg/core"
	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// ErrInvalidScenario is returned when a decoded scenario fails validation.
var ErrInvalidScenario = errors.New("invalid scenario")

// Scenario is a complete run.
type Scenario struct {
	Name    string      `mapstructure:"name"`
	Origin  *geo.Origin `mapstructure:"origin"` // overrides the configured origin
	Targets []Target    `mapstructure:"targets"`
}

// Target is one scripted target.
type Target struct {
	ID        string    `mapstructure:"id"` // generated when empty
	Name      string    `mapstructure:"name"`
	Initial   Initial   `mapstructure:"initial"`
	Config    Overrides `mapstructure:"config"`
	Maneuvers []Step    `mapstructure:"maneuvers"`
}

// Initial is the starting state. A missing speed selects the default
// target speed.
type Initial struct {
	Time     float64  `mapstructure:"time"`
	Position core.NED `mapstructure:"position"`
	Speed    *float64 `mapstructure:"speed"`
	Bearing  float64  `mapstructure:"bearing"`
	Pitch    float64  `mapstructure:"pitch"`
}

// Overrides replaces individual fields of the base configuration.
type Overrides struct {
	MaxAcceleration *float64 `mapstructure:"maxAcceleration"`
	MaxJerk         *float64 `mapstructure:"maxJerk"`
	UpdateRate      *float64 `mapstructure:"updateRate"`
	OutputPrecision *int     `mapstructure:"outputPrecision"`
	ThickUpdates    *bool    `mapstructure:"thickUpdates"`
	AltCoordinates  *bool    `mapstructure:"altCoordinates"`
}

// Step is one maneuver. Time is the start time, or the end time for a
// propagation. Bearing, pitch and speed left out keep their current value.
type Step struct {
	Type         string            `mapstructure:"type"`
	Time         float64           `mapstructure:"time"`
	Bearing      *float64          `mapstructure:"bearing"`
	Pitch        *float64          `mapstructure:"pitch"`
	Speed        *float64          `mapstructure:"speed"`
	Acceleration float64           `mapstructure:"acceleration"`
	Jerk         float64           `mapstructure:"jerk"`
	Spiral       bool              `mapstructure:"spiral"`
	Connecting   *core.Orientation `mapstructure:"connecting"`
}

// Load reads the scenario file at path. The format follows the extension.
func Load(path string) (*Scenario, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading scenario %s: %w", path, err)
	}
	return decode(v)
}

// Parse reads a scenario from r in the given format ("json", "yaml", "toml").
func Parse(r io.Reader, format string) (*Scenario, error) {
	v := viper.New()
	v.SetConfigType(format)
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading scenario: %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Scenario, error) {
	var sc Scenario
	if err := v.Unmarshal(&sc); err != nil {
		return nil, fmt.Errorf("error decoding scenario: %w", err)
	}
	for i := range sc.Targets {
		sc.Targets[i].Maneuvers = normalizeSteps(sc.Targets[i].Maneuvers)
		if sc.Targets[i].ID == "" {
			sc.Targets[i].ID = uuid.NewString()
		}
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func normalizeSteps(steps []Step) []Step {
	for i := range steps {
		steps[i].Type = strings.ToLower(strings.TrimSpace(steps[i].Type))
	}
	return steps
}

// Validate checks the structure of the scenario. Kinematic limits are left
// to the generator, which reports them per maneuver.
func (sc *Scenario) Validate() error {
	if len(sc.Targets) == 0 {
		return fmt.Errorf("%w: no targets", ErrInvalidScenario)
	}
	seen := make(map[string]bool, len(sc.Targets))
	for i, t := range sc.Targets {
		if seen[t.ID] {
			return fmt.Errorf("%w: duplicate target id %q", ErrInvalidScenario, t.ID)
		}
		seen[t.ID] = true

		for j, step := range t.Maneuvers {
			switch step.Type {
			case maneuver.KindPropagate, maneuver.KindDirection, maneuver.KindSpeed, maneuver.KindCombined:
			default:
				return fmt.Errorf("%w: target %d maneuver %d: unknown type %q", ErrInvalidScenario, i, j, step.Type)
			}
		}
	}
	return nil
}

// Info returns the target's identity for the output.
func (t Target) Info() core.TargetInfo {
	name := t.Name
	if name == "" {
		name = t.ID
	}
	return core.TargetInfo{ID: t.ID, Name: name}
}

// State returns the initial target state.
func (t Target) State() core.TargetState {
	st := core.DefaultState()
	st.ClockTime = t.Initial.Time
	st.Position = t.Initial.Position
	st.Bearing = t.Initial.Bearing
	st.Pitch = t.Initial.Pitch
	if t.Initial.Speed != nil {
		st.Speed = *t.Initial.Speed
	}
	return st
}

// Apply returns base with the overridden fields replaced.
func (o Overrides) Apply(base core.Configuration) core.Configuration {
	if o.MaxAcceleration != nil {
		base.MaxAcceleration = *o.MaxAcceleration
	}
	if o.MaxJerk != nil {
		base.MaxJerk = *o.MaxJerk
	}
	if o.UpdateRate != nil {
		base.UpdateRate = *o.UpdateRate
	}
	if o.OutputPrecision != nil {
		base.OutputPrecision = *o.OutputPrecision
	}
	if o.ThickUpdates != nil {
		base.ThickUpdates = *o.ThickUpdates
	}
	if o.AltCoordinates != nil {
		base.AltCoordinates = *o.AltCoordinates
	}
	return base
}

// Options returns the per-maneuver options of the step.
func (s Step) Options() maneuver.Options {
	return maneuver.Options{
		Acceleration: s.Acceleration,
		Jerk:         s.Jerk,
		Spiral:       s.Spiral,
		Connecting:   s.Connecting,
	}
}

// Run executes the step on g from st.
func (s Step) Run(g *maneuver.Generator, st core.TargetState) (core.TargetState, error) {
	bearing := valueOr(s.Bearing, st.Bearing)
	pitch := valueOr(s.Pitch, st.Pitch)
	speed := valueOr(s.Speed, st.Speed)

	switch s.Type {
	case maneuver.KindPropagate:
		return g.PropagateTo(st, s.Time)
	case maneuver.KindDirection:
		return g.ChangeDirection(st, s.Time, bearing, pitch, s.Options())
	case maneuver.KindSpeed:
		return g.ChangeSpeed(st, s.Time, speed, s.Options())
	case maneuver.KindCombined:
		return g.ChangeDirectionAndSpeed(st, s.Time, bearing, pitch, speed, s.Options())
	}
	return st, fmt.Errorf("%w: unknown maneuver type %q", ErrInvalidScenario, s.Type)
}

func valueOr(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}
