package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// indirections for tests
var (
	osStdout = os.Stdout
	osPipe   = os.Pipe
)

// Options configures SlogManager.Setup.
type Options struct {
	// File receives text logs. When nil, logs go to stdout instead.
	File  io.Writer
	Level string
	// Extra handlers receive every record as well, e.g. a GELF handler.
	Extra []slog.Handler
	// Attrs are attached to every record, e.g. the run ID.
	Attrs []slog.Attr
}

// SlogManager owns the process logger.
type SlogManager struct {
	logger *slog.Logger
	level  slog.Level
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// HandlerOptions returns handler options for level with RFC3339 UTC
// timestamps.
func HandlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}
}

// Setup builds the logger. Records pass through a ContextHandler so the
// target carried by a context reaches every output.
func (m *SlogManager) Setup(opts Options) {
	m.level = parseLevel(opts.Level)
	handlerOpts := HandlerOptions(m.level)

	var handlers []slog.Handler
	if opts.File != nil {
		handlers = append(handlers, slog.NewTextHandler(opts.File, handlerOpts))
	} else {
		handlers = append(handlers, slog.NewTextHandler(osStdout, handlerOpts))
	}
	handlers = append(handlers, opts.Extra...)

	var h slog.Handler = NewContextHandler(NewMultiHandler(handlers...), nil)
	if len(opts.Attrs) > 0 {
		h = h.WithAttrs(opts.Attrs)
	}

	m.logger = slog.New(h)
	m.logger.Info("Logging initialized", "level", m.level.String())
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		// Setup hasn't been called
		return slog.Default()
	}
	return m.logger
}

// Level returns the configured level.
func (m *SlogManager) Level() slog.Level {
	return m.level
}
