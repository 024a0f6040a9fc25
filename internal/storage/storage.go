// internal/storage/storage.go
package storage

import (
	"math"

	"github.com/OCAP2/trajgen/pkg/core"
)

// Sink is the interface all trajectory outputs must satisfy. Writes for one
// target arrive in strictly increasing time order; writes for different
// targets may interleave and must be safe for concurrent use.
type Sink interface {
	// Lifecycle
	Init() error
	Close() error

	// StartTarget registers a target and the configuration its samples are
	// formatted with. It is called once, before the first Append.
	StartTarget(info core.TargetInfo, cfg core.Configuration) error
	Append(targetID string, samples []core.Sample) error
}

// Exportable is an optional interface for sinks that produce a file on
// Close.
type Exportable interface {
	ExportedFilePath() string
}

// Row flattens a sample to [t, x, y, z, vx, vy, vz] in the frame and
// precision cfg selects.
func Row(s core.Sample, cfg core.Configuration) [7]float64 {
	pos, vel := s.Components(cfg.AltCoordinates)
	return [7]float64{
		Round(s.Time, cfg.OutputPrecision),
		Round(pos[0], cfg.OutputPrecision),
		Round(pos[1], cfg.OutputPrecision),
		Round(pos[2], cfg.OutputPrecision),
		Round(vel[0], cfg.OutputPrecision),
		Round(vel[1], cfg.OutputPrecision),
		Round(vel[2], cfg.OutputPrecision),
	}
}

// Round rounds x to the given number of decimal places. Negative zero
// comes back as zero.
func Round(x float64, places int) float64 {
	scale := math.Pow10(places)
	r := math.Round(x*scale) / scale
	if r == 0 {
		return 0
	}
	return r
}

// Columns returns the column names of a Row.
func Columns(alt bool) [7]string {
	if alt {
		return [7]string{"t", "n", "u", "e", "vn", "vu", "ve"}
	}
	return [7]string{"t", "n", "e", "d", "vn", "ve", "vd"}
}
