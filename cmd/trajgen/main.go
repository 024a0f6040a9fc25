// Command trajgen runs a trajectory scenario and writes the generated
// samples to the configured sink.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/OCAP2/trajgen/internal/config"
	"github.com/OCAP2/trajgen/internal/geo"
	"github.com/OCAP2/trajgen/internal/logging"
	intOtel "github.com/OCAP2/trajgen/internal/otel"
	"github.com/OCAP2/trajgen/internal/scenario"
	"github.com/OCAP2/trajgen/internal/storage"
	"github.com/OCAP2/trajgen/internal/worker"
	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	AppName     = "trajgen"
	ServiceName = "trajgen"
)

var (
	// SlogManager handles all slog-based logging
	SlogManager = logging.NewSlogManager()

	// Logger is the slog logger (convenience reference)
	Logger = slog.Default()

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	SessionStartTime = time.Now()
)

// ErrNoScenario is returned when no scenario file was given.
var ErrNoScenario = errors.New("no scenario file given (--scenario)")

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet(AppName, pflag.ContinueOnError)
	fs.String("config-dir", ".", "directory containing "+config.FileName)
	fs.String("scenario", "", "scenario file (json, yaml or toml)")
	fs.String("storage", "", "storage type: memory, text, sqlite, postgres or influx")
	fs.String("log-level", "", "log level: debug, info, warn or error")
	return fs
}

// bindFlags makes flags that were set override the config file.
func bindFlags(fs *pflag.FlagSet) error {
	bindings := map[string]string{
		"scenario":     "scenario",
		"storage.type": "storage",
		"logLevel":     "log-level",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run loads configuration, sets up logging and metrics, and runs the
// scenario against a fresh sink.
func run(ctx context.Context, args []string) error {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return err
	}

	// console logging until the log file is known
	SlogManager.Setup(logging.Options{Level: "info"})
	Logger = SlogManager.Logger()

	configDir, _ := fs.GetString("config-dir")
	if err := config.Load(configDir); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config", "dir", configDir)
	}
	if err := bindFlags(fs); err != nil {
		return err
	}

	scenarioPath := viper.GetString("scenario")
	if scenarioPath == "" {
		return ErrNoScenario
	}

	runID := uuid.NewString()
	logFile, closeLogs, err := setupLogging(runID)
	if err != nil {
		return err
	}
	defer closeLogs()

	setupOTel(logFile)
	defer func() {
		if err := OTelProvider.Shutdown(context.Background()); err != nil {
			Logger.Error("Failed to shut down OTel provider", "error", err)
		}
	}()

	sc, err := scenario.Load(scenarioPath)
	if err != nil {
		return err
	}
	Logger.Info("Loaded scenario", "path", scenarioPath, "name", sc.Name, "targets", len(sc.Targets))

	origin := config.GetOrigin()
	if sc.Origin != nil {
		origin = *sc.Origin
	}

	storageCfg := config.GetStorageConfig()
	dbLog := logging.NewZerolog(logFile, viper.GetString("logLevel"))
	sink, closeStorage, err := createStorageBackend(storageCfg, runID, geo.NewProjector(origin), dbLog)
	if err != nil {
		Logger.Error("Failed to create storage backend", "error", err)
		return err
	}
	if err := sink.Init(); err != nil {
		Logger.Error("Failed to initialize storage backend", "error", err)
		closeStorage()
		return err
	}

	start := time.Now()
	results, runErr := worker.Run(ctx, sc, sink, worker.Dependencies{
		Logger: Logger,
		Meter:  OTelProvider.Meter(ServiceName),
		Tracer: OTelProvider.Tracer(ServiceName),
		Base:   config.GetGeneratorConfig(),
	})

	if err := closeSink(sink, closeStorage); err != nil {
		return errors.Join(runErr, err)
	}
	if runErr != nil {
		return runErr
	}

	for _, res := range results {
		Logger.Info("Target complete",
			"target", res.Info.Name,
			"maneuvers", res.Maneuvers,
			"clock", res.Final.ClockTime)
	}
	Logger.Info("Run complete", "storage", storageCfg.Type, "duration", time.Since(start))
	return nil
}

// setupLogging switches logging to the rotated log file, plus GELF when
// enabled. It returns the file for the other writers and a function closing
// everything it opened.
func setupLogging(runID string) (io.Writer, func(), error) {
	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	logPath := logging.LogFilePath(logsDir, AppName, SessionStartTime)
	logFile := logging.NewRotatingFile(logPath)
	closers := []io.Closer{logFile}

	var extra []slog.Handler
	if gl := config.GetGraylogConfig(); gl.Enabled {
		handler, w, err := logging.NewGELFHandler(gl.Address, slog.LevelDebug)
		if err != nil {
			Logger.Error("Failed to set up Graylog output", "error", err, "address", gl.Address)
		} else {
			extra = append(extra, handler)
			closers = append(closers, w)
		}
	}

	Logger.Info("Begin logging in logs directory", "path", logPath)
	SlogManager.Setup(logging.Options{
		File:  logFile,
		Level: viper.GetString("logLevel"),
		Extra: extra,
		Attrs: []slog.Attr{slog.String("run", runID)},
	})
	Logger = SlogManager.Logger()

	return logFile, func() {
		for _, c := range closers {
			c.Close()
		}
	}, nil
}

// setupOTel creates the metric and trace provider. Failures leave a no-op
// provider in place.
func setupOTel(w io.Writer) {
	otelCfg := config.GetOTelConfig()
	provider, err := intOtel.New(intOtel.Config{
		Enabled:        otelCfg.Enabled,
		ServiceName:    otelCfg.ServiceName,
		ExportInterval: otelCfg.ExportInterval,
		Writer:         w,
	})
	if err != nil {
		Logger.Error("Failed to initialize OTel provider", "error", err)
		provider, _ = intOtel.New(intOtel.Config{})
	} else if otelCfg.Enabled {
		Logger.Info("OTel provider initialized", "interval", otelCfg.ExportInterval)
	}
	OTelProvider = provider
}

func closeSink(sink storage.Sink, closeStorage closeFunc) error {
	err := sink.Close()
	if err != nil {
		Logger.Error("Failed to close storage backend", "error", err)
	}
	if exp, ok := sink.(storage.Exportable); ok && exp.ExportedFilePath() != "" {
		Logger.Info("Exported trajectories", "path", exp.ExportedFilePath())
	}
	return errors.Join(err, closeStorage())
}
