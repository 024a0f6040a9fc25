// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/OCAP2/trajgen/internal/geo"
	"github.com/OCAP2/trajgen/internal/storage"
	"github.com/OCAP2/trajgen/pkg/core"
	"github.com/vmihailenco/msgpack/v5"
)

// Export formats
const (
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
)

// RunExport is the root export document
type RunExport struct {
	RunID   string       `json:"runId"`
	Targets []TargetJSON `json:"targets"`
}

// TargetJSON is one target's header and samples. Each sample row is
// [t, x, y, z, vx, vy, vz] in the frame named by Columns.
type TargetJSON struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Config       core.Configuration `json:"config"`
	Columns      [7]string          `json:"columns"`
	TrackLengthM float64            `json:"trackLengthM"`
	Samples      [][7]float64       `json:"samples"`
}

// export writes the run to a file in the configured format
func (b *Backend) export() error {
	format := b.cfg.Format
	if format == "" {
		format = FormatJSON
	}
	if format != FormatJSON && format != FormatMsgpack {
		return fmt.Errorf("unknown export format: %s", format)
	}

	filename := fmt.Sprintf("trajectories_%s.%s", b.runID, format)
	if b.cfg.CompressOutput {
		filename += ".gz"
	}
	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	var w io.Writer = f
	if b.cfg.CompressOutput {
		gzWriter := gzip.NewWriter(f)
		defer gzWriter.Close()
		w = gzWriter
	}

	if err := encode(w, format, b.buildExport()); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport() RunExport {
	export := RunExport{
		RunID:   b.runID,
		Targets: make([]TargetJSON, 0, len(b.order)),
	}

	for _, id := range b.order {
		record := b.targets[id]
		target := TargetJSON{
			ID:           record.Info.ID,
			Name:         record.Info.Name,
			Config:       record.Config,
			Columns:      storage.Columns(record.Config.AltCoordinates),
			TrackLengthM: storage.Round(geo.GroundTrackLength(record.Samples), record.Config.OutputPrecision),
			Samples:      make([][7]float64, 0, len(record.Samples)),
		}
		for _, s := range record.Samples {
			target.Samples = append(target.Samples, storage.Row(s, record.Config))
		}
		export.Targets = append(export.Targets, target)
	}

	return export
}

func encode(w io.Writer, format string, data RunExport) error {
	if format == FormatMsgpack {
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		return enc.Encode(data)
	}
	return json.NewEncoder(w).Encode(data)
}
