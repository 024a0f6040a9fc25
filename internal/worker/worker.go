// Package worker runs scenario targets against a shared sink, one goroutine
// per target.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/OCAP2/trajgen/internal/logging"
	"github.com/OCAP2/trajgen/internal/maneuver"
	"github.com/OCAP2/trajgen/internal/scenario"
	"github.com/OCAP2/trajgen/internal/storage"
	"github.com/OCAP2/trajgen/pkg/core"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

// Dependencies holds all dependencies for a run
type Dependencies struct {
	Logger *slog.Logger
	Meter  metric.Meter
	Tracer trace.Tracer
	// Base is the configuration targets start from before their overrides.
	Base core.Configuration
}

// Result summarizes one target after its chain ran.
type Result struct {
	Info      core.TargetInfo
	Final     core.TargetState
	Maneuvers int // steps that completed
}

// Run executes every target of sc concurrently against sink. The first
// fatal error cancels the run; other targets stop before their next
// maneuver. Results are returned in scenario order, including the partial
// results of targets that stopped.
func Run(ctx context.Context, sc *scenario.Scenario, sink storage.Sink, deps Dependencies) ([]Result, error) {
	deps = withDefaults(deps)

	results := make([]Result, len(sc.Targets))
	group, ctx := errgroup.WithContext(ctx)
	for i, target := range sc.Targets {
		group.Go(func() error {
			res, err := runTarget(ctx, target, sink, deps)
			results[i] = res
			return err
		})
	}
	err := group.Wait()
	return results, err
}

func withDefaults(deps Dependencies) Dependencies {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Meter == nil {
		deps.Meter = metricnoop.Meter{}
	}
	if deps.Tracer == nil {
		deps.Tracer = tracenoop.NewTracerProvider().Tracer("")
	}
	return deps
}

// runTarget runs one target's maneuver chain.
func runTarget(ctx context.Context, target scenario.Target, sink storage.Sink, deps Dependencies) (Result, error) {
	info := target.Info()
	ctx = logging.WithTarget(ctx, info.Name)
	log := deps.Logger

	res := Result{Info: info, Final: target.State()}

	gen, err := maneuver.New(info, target.Config.Apply(deps.Base), sink,
		maneuver.WithLogger(log),
		maneuver.WithMeter(deps.Meter),
	)
	if err != nil {
		log.ErrorContext(ctx, "Invalid target configuration", "error", err)
		return res, fmt.Errorf("target %s: %w", info.Name, err)
	}

	start := time.Now()
	for i, step := range target.Maneuvers {
		if err := ctx.Err(); err != nil {
			log.InfoContext(ctx, "Run cancelled, skipping remaining maneuvers", "remaining", len(target.Maneuvers)-i)
			return res, nil
		}

		next, err := runStep(ctx, deps.Tracer, gen, step, res.Final)
		if err != nil {
			log.ErrorContext(ctx, "Maneuver failed", "index", i, "type", step.Type, "error", err)
			return res, fmt.Errorf("target %s maneuver %d (%s): %w", info.Name, i, step.Type, err)
		}
		res.Final = next
		res.Maneuvers++
	}

	log.DebugContext(ctx, "Target finished",
		"maneuvers", res.Maneuvers,
		"clock", res.Final.ClockTime,
		"elapsed", time.Since(start))
	return res, nil
}

func runStep(ctx context.Context, tracer trace.Tracer, gen *maneuver.Generator, step scenario.Step, st core.TargetState) (core.TargetState, error) {
	_, span := tracer.Start(ctx, "maneuver."+step.Type, trace.WithAttributes(
		attribute.Float64("start", step.Time),
		attribute.Float64("clock", st.ClockTime),
	))
	defer span.End()

	next, err := step.Run(gen, st)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return st, err
	}
	span.SetAttributes(attribute.Float64("end", next.ClockTime))
	return next, nil
}
