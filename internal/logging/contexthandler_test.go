package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextHandler_Target(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewContextHandler(slog.NewTextHandler(&buf, nil), nil))

	logger.InfoContext(WithTarget(context.Background(), "alpha"), "maneuver done")

	assert.Contains(t, buf.String(), "target=alpha")
}

func TestContextHandler_NoContextValues(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewContextHandler(slog.NewTextHandler(&buf, nil), nil))

	logger.Info("plain")

	assert.NotContains(t, buf.String(), "target=")
}

func TestContextHandler_Provider(t *testing.T) {
	var buf bytes.Buffer
	calls := 0
	provider := func() []slog.Attr {
		calls++
		return []slog.Attr{slog.Int("call", calls)}
	}
	logger := slog.New(NewContextHandler(slog.NewTextHandler(&buf, nil), provider))

	logger.Info("one")
	logger.Info("two")

	assert.Contains(t, buf.String(), "call=1")
	assert.Contains(t, buf.String(), "call=2")
}

func TestContextHandler_WithAttrsKeepsContext(t *testing.T) {
	var buf bytes.Buffer
	h := NewContextHandler(slog.NewTextHandler(&buf, nil), nil)
	logger := slog.New(h.WithAttrs([]slog.Attr{slog.String("sink", "memory")}).WithGroup("g"))

	logger.InfoContext(WithTarget(context.Background(), "alpha"), "msg", "k", "v")

	assert.Contains(t, buf.String(), "sink=memory")
	assert.Contains(t, buf.String(), "g.k=v")
	assert.Contains(t, buf.String(), "g.target=alpha")
	assert.Equal(t, h, h.WithGroup(""))
}
