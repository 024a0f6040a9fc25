package logging

import (
	"fmt"
	"log/slog"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGELFHandler returns a JSON handler that ships each record to a
// Graylog GELF UDP input at address, along with the writer to close.
func NewGELFHandler(address string, level slog.Level) (slog.Handler, *gelf.Writer, error) {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create GELF writer: %w", err)
	}
	w.Facility = "trajgen"
	return slog.NewJSONHandler(w, HandlerOptions(level)), w, nil
}
