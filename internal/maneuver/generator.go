// Package maneuver synthesizes jerk-limited trajectories for a point-mass
// target. A Generator owns one target's output lifecycle; the kinematic
// state itself is a value passed into and returned from every maneuver.
package maneuver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/OCAP2/trajgen/internal/geo"
	"github.com/OCAP2/trajgen/pkg/core"
	"github.com/golang/geo/r3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Gravity converts g to m/s².
const Gravity = 9.80665

// Thresholds below which a maneuver is a no-op.
const (
	AngleThreshold = geo.DefaultThreshold // degrees
	SpeedThreshold = 0.1                  // m/s
)

// Maneuver kinds used for metrics and logging.
const (
	KindPropagate = "propagate"
	KindDirection = "direction"
	KindSpeed     = "speed"
	KindCombined  = "combined"
)

// Output receives the target header once and then ordered sample bursts.
type Output interface {
	StartTarget(info core.TargetInfo, cfg core.Configuration) error
	Append(targetID string, samples []core.Sample) error
}

// Generator produces the sample stream of one target.
//
// It starts Configured: the configuration may be replaced with SetConfig.
// The first maneuver that emits samples activates it, writing the target
// header and the initial state to the output; from then on the
// configuration is locked.
type Generator struct {
	info core.TargetInfo
	cfg  core.Configuration
	out  Output
	log  *slog.Logger

	maneuvers  metric.Int64Counter
	samples    metric.Int64Counter
	advisories metric.Int64Counter

	active      bool
	lastEmitted float64
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithLogger sets the logger used for advisories.
func WithLogger(l *slog.Logger) GeneratorOption {
	return func(g *Generator) { g.log = l }
}

// WithMeter records maneuver, sample and advisory counts on m.
func WithMeter(m metric.Meter) GeneratorOption {
	return func(g *Generator) {
		g.maneuvers, _ = m.Int64Counter("trajgen.maneuvers",
			metric.WithDescription("Maneuvers that emitted samples"))
		g.samples, _ = m.Int64Counter("trajgen.samples",
			metric.WithDescription("Samples handed to the output"))
		g.advisories, _ = m.Int64Counter("trajgen.advisories",
			metric.WithDescription("Requests adjusted or skipped with a warning"))
	}
}

// New creates a Configured generator for one target.
func New(info core.TargetInfo, cfg core.Configuration, out Output, opts ...GeneratorOption) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := &Generator{
		info: info,
		cfg:  cfg,
		out:  out,
		log:  slog.Default(),
	}
	WithMeter(noop.Meter{})(g)
	for _, opt := range opts {
		opt(g)
	}
	g.log = g.log.With("target", info.Name)
	return g, nil
}

// Config returns the current configuration.
func (g *Generator) Config() core.Configuration {
	return g.cfg
}

// Active reports whether output has been initialized.
func (g *Generator) Active() bool {
	return g.active
}

// SetConfig replaces the configuration while the generator is Configured.
func (g *Generator) SetConfig(cfg core.Configuration) error {
	if g.active {
		return ErrConfigLocked
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	g.cfg = cfg
	return nil
}

// checkState rejects malformed states and snapshots older than the output.
func (g *Generator) checkState(st core.TargetState) error {
	if err := validateState(st); err != nil {
		return err
	}
	if g.active && st.ClockTime < g.lastEmitted {
		return fmt.Errorf("%w: clock %v, last sample %v", ErrStaleState, st.ClockTime, g.lastEmitted)
	}
	return nil
}

// commit hands one maneuver's samples to the output. initial is the state
// the maneuver started from; on activation it is emitted ahead of samples.
func (g *Generator) commit(kind string, initial core.TargetState, samples []core.Sample) error {
	if len(samples) == 0 {
		return nil
	}

	if !g.active {
		if err := g.out.StartTarget(g.info, g.cfg); err != nil {
			return fmt.Errorf("%w: start target: %v", ErrSink, err)
		}
		first := core.Sample{
			Time:     initial.ClockTime,
			Position: initial.Position,
			Velocity: geo.ToNED(velocity(initial)),
		}
		samples = append([]core.Sample{first}, samples...)
		g.active = true
		g.log.Debug("Output initialized", "time", initial.ClockTime)
	}

	if err := g.out.Append(g.info.ID, samples); err != nil {
		return fmt.Errorf("%w: %v", ErrSink, err)
	}
	g.lastEmitted = samples[len(samples)-1].Time

	ctx := context.Background()
	g.maneuvers.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	g.samples.Add(ctx, int64(len(samples)))
	return nil
}

// advise reports a non-fatal adjustment.
func (g *Generator) advise(reason string, args ...any) {
	g.log.Warn("Adjusted maneuver request: "+reason, args...)
	g.advisories.Add(context.Background(), 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// velocity returns the NED velocity of a state.
func velocity(st core.TargetState) r3.Vector {
	return geo.OrientationToVector(st.Bearing, st.Pitch, st.Speed)
}

// integrate turns a velocity history into samples by first-order
// integration from the start state. times are relative to the start clock
// and times[0] is the start itself, which is not returned. One extra sample
// one update interval past the end repeats the final velocity.
func (g *Generator) integrate(st core.TargetState, times []float64, vels []r3.Vector) ([]core.Sample, core.TargetState) {
	samples := make([]core.Sample, 0, len(times))
	pos := geo.FromNED(st.Position)
	for i := 1; i < len(times); i++ {
		pos = pos.Add(vels[i-1].Mul(times[i] - times[i-1]))
		samples = append(samples, core.Sample{
			Time:     st.ClockTime + times[i],
			Position: geo.ToNED(pos),
			Velocity: geo.ToNED(vels[i]),
		})
	}

	final := vels[len(vels)-1]
	pos = pos.Add(final.Mul(g.cfg.UpdateRate))
	samples = append(samples, core.Sample{
		Time:     st.ClockTime + times[len(times)-1] + g.cfg.UpdateRate,
		Position: geo.ToNED(pos),
		Velocity: geo.ToNED(final),
	})

	next := st
	next.ClockTime = samples[len(samples)-1].Time
	next.Position = geo.ToNED(pos)
	return samples, next
}
