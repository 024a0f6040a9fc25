package logging

import (
	"context"
	"errors"
	"log/slog"
	"slices"
)

// MultiHandler sends each record to every output (console or log file,
// GELF, ...). Outputs keep their own level.
type MultiHandler struct {
	outputs []slog.Handler
}

// NewMultiHandler drops nil outputs.
func NewMultiHandler(outputs ...slog.Handler) *MultiHandler {
	kept := slices.DeleteFunc(slices.Clone(outputs), func(h slog.Handler) bool {
		return h == nil
	})
	return &MultiHandler{outputs: kept}
}

func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return slices.ContainsFunc(m.outputs, func(h slog.Handler) bool {
		return h.Enabled(ctx, level)
	})
}

// Handle delivers r to the outputs enabled for its level. An output that
// fails does not keep the record from the rest.
func (m *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error
	for _, h := range m.outputs {
		if h.Enabled(ctx, r.Level) {
			err = errors.Join(err, h.Handle(ctx, r.Clone()))
		}
	}
	return err
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return m.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return m
	}
	return m.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (m *MultiHandler) derive(f func(slog.Handler) slog.Handler) *MultiHandler {
	outputs := make([]slog.Handler, len(m.outputs))
	for i, h := range m.outputs {
		outputs[i] = f(h)
	}
	return &MultiHandler{outputs: outputs}
}
