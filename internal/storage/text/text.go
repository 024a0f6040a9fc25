// Package text writes one plain-text sample file per target: a commented
// header followed by one whitespace-separated row per sample.
package text

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/OCAP2/trajgen/internal/config"
	"github.com/OCAP2/trajgen/internal/storage"
	"github.com/OCAP2/trajgen/pkg/core"
)

type targetFile struct {
	f   *os.File
	w   *bufio.Writer
	cfg core.Configuration
}

// Backend writes sample rows as they arrive.
type Backend struct {
	cfg config.TextConfig

	files map[string]*targetFile
	paths map[string]string
	mu    sync.Mutex
}

// New creates a text backend writing into cfg.OutputDir.
func New(cfg config.TextConfig) *Backend {
	return &Backend{
		cfg:   cfg,
		files: make(map[string]*targetFile),
		paths: make(map[string]string),
	}
}

// Init creates the output directory.
func (b *Backend) Init() error {
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// StartTarget creates the target's file and writes its header.
func (b *Backend) StartTarget(info core.TargetInfo, cfg core.Configuration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.files[info.ID]; ok {
		return fmt.Errorf("target %s already started", info.ID)
	}

	path := filepath.Join(b.cfg.OutputDir, FileName(info))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	tf := &targetFile{f: f, w: bufio.NewWriter(f), cfg: cfg}
	writeHeader(tf.w, info, cfg)
	b.files[info.ID] = tf
	b.paths[info.ID] = path
	return nil
}

// Append writes one row per sample.
func (b *Backend) Append(targetID string, samples []core.Sample) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	tf, ok := b.files[targetID]
	if !ok {
		return fmt.Errorf("target %s not started", targetID)
	}
	for _, s := range samples {
		row := storage.Row(s, tf.cfg)
		for i, v := range row {
			if i > 0 {
				tf.w.WriteByte(' ')
			}
			tf.w.WriteString(strconv.FormatFloat(v, 'f', tf.cfg.OutputPrecision, 64))
		}
		if err := tf.w.WriteByte('\n'); err != nil {
			return fmt.Errorf("failed to write %s: %w", targetID, err)
		}
	}
	return nil
}

// Close flushes and closes every target file.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var firstErr error
	for id, tf := range b.files {
		if err := tf.w.Flush(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to flush %s: %w", id, err)
		}
		if err := tf.f.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close %s: %w", id, err)
		}
	}
	b.files = make(map[string]*targetFile)
	return firstErr
}

// Path returns the file a target is written to.
func (b *Backend) Path(targetID string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.paths[targetID]
}

// FileName returns the file name used for a target.
func FileName(info core.TargetInfo) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ' ', ':', '/', '\\':
			return '_'
		}
		return r
	}, info.Name)
	if name == "" {
		return info.ID + ".txt"
	}
	return fmt.Sprintf("%s_%s.txt", name, info.ID)
}

func writeHeader(w *bufio.Writer, info core.TargetInfo, cfg core.Configuration) {
	frame := "NED"
	if cfg.AltCoordinates {
		frame = "NUE"
	}
	fmt.Fprintf(w, "# target: %s (%s)\n", info.Name, info.ID)
	fmt.Fprintf(w, "# maxAcceleration: %g g, maxJerk: %g g/s, updateRate: %g s, thickUpdates: %t\n",
		cfg.MaxAcceleration, cfg.MaxJerk, cfg.UpdateRate, cfg.ThickUpdates)
	fmt.Fprintf(w, "# frame: %s\n", frame)
	cols := storage.Columns(cfg.AltCoordinates)
	fmt.Fprintf(w, "# %s\n", strings.Join(cols[:], " "))
}
