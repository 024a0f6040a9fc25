// Package gormstorage implements storage.Sink on GORM. Targets are inserted
// synchronously; samples go through a queue that a background writer drains
// in batches. The same models serve sqlite and postgres.
package gormstorage

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/OCAP2/trajgen/internal/config"
	"github.com/OCAP2/trajgen/internal/geo"
	"github.com/OCAP2/trajgen/internal/queue"
	"github.com/OCAP2/trajgen/internal/storage"
	"github.com/OCAP2/trajgen/pkg/core"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Defaults applied to a zero GormConfig.
const (
	DefaultFlushInterval = 2 * time.Second
	DefaultBatchSize     = 2000
)

// Dependencies holds what the backend needs from its caller.
type Dependencies struct {
	DB        *gorm.DB
	Projector *geo.Projector
	Logger    zerolog.Logger
}

// target is the in-process view of a started target.
type target struct {
	cfg     core.Configuration
	samples []core.Sample
}

// Backend implements storage.Sink with queue-based batch writes.
type Backend struct {
	cfg   config.GormConfig
	runID string
	deps  Dependencies

	samples *queue.Queue[SampleRow]

	mu      sync.Mutex
	targets map[string]*target
	order   []string

	stopChan chan struct{}
	done     chan struct{}
}

// New creates a GORM backend writing rows tagged with runID.
func New(cfg config.GormConfig, runID string, deps Dependencies) *Backend {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultFlushInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if deps.Projector == nil {
		deps.Projector = geo.NewProjector(geo.Origin{})
	}
	return &Backend{
		cfg:     cfg,
		runID:   runID,
		deps:    deps,
		samples: queue.New[SampleRow](),
		targets: make(map[string]*target),
	}
}

// Init migrates the schema and starts the writer goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return fmt.Errorf("no database configured")
	}

	b.deps.Logger.Info().Msg("Migrating schema")
	if err := b.deps.DB.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})
	b.startWriter()
	return nil
}

// Close stops the writer, flushes what is left and stores each target's
// track.
func (b *Backend) Close() error {
	if b.stopChan != nil {
		close(b.stopChan)
		<-b.done
		b.stopChan = nil
	}

	if err := b.flush(); err != nil {
		return err
	}
	return b.writeTracks()
}

// StartTarget inserts the target row. Unlike samples this is not queued so
// a duplicate is reported to the caller right away.
func (b *Backend) StartTarget(info core.TargetInfo, cfg core.Configuration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.targets[info.ID]; ok {
		return fmt.Errorf("target %s already started", info.ID)
	}

	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	frame := "NED"
	if cfg.AltCoordinates {
		frame = "NUE"
	}
	row := Target{
		RunID:    b.runID,
		TargetID: info.ID,
		Name:     info.Name,
		Frame:    frame,
		Config:   cfgJSON,
	}
	if err := b.deps.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert target %s: %w", info.ID, err)
	}

	b.targets[info.ID] = &target{cfg: cfg}
	b.order = append(b.order, info.ID)
	return nil
}

// Append converts samples to rows and queues them.
func (b *Backend) Append(targetID string, samples []core.Sample) error {
	b.mu.Lock()
	t, ok := b.targets[targetID]
	if !ok {
		b.mu.Unlock()
		return fmt.Errorf("target %s not started", targetID)
	}
	t.samples = append(t.samples, samples...)
	cfg := t.cfg
	b.mu.Unlock()

	rows := make([]SampleRow, len(samples))
	for i, s := range samples {
		r := storage.Row(s, cfg)
		rows[i] = SampleRow{
			RunID:    b.runID,
			TargetID: targetID,
			Time:     r[0],
			X:        r[1],
			Y:        r[2],
			Z:        r[3],
			VX:       r[4],
			VY:       r[5],
			VZ:       r[6],
		}
	}
	b.samples.Push(rows...)
	return nil
}

// startWriter drains the sample queue every flush interval until Close.
func (b *Backend) startWriter() {
	go func() {
		defer close(b.done)

		ticker := time.NewTicker(b.cfg.FlushInterval)
		defer ticker.Stop()

		for {
			select {
			case <-b.stopChan:
				return
			case <-ticker.C:
				start := time.Now()
				n := b.samples.Len()
				if err := b.flush(); err != nil {
					b.deps.Logger.Error().Err(err).Msg("Error writing samples")
					continue
				}
				if n > 0 {
					b.deps.Logger.Debug().Int("rows", n).Dur("elapsed", time.Since(start)).Msg("Wrote samples")
				}
			}
		}
	}()
}

// flush writes queued rows in batches. A failed batch goes back to the
// front of the queue and stops the flush.
func (b *Backend) flush() error {
	for !b.samples.Empty() {
		batch := b.samples.Take(b.cfg.BatchSize)
		if err := b.deps.DB.CreateInBatches(&batch, b.cfg.BatchSize).Error; err != nil {
			b.samples.Requeue(batch...)
			return fmt.Errorf("failed to write %d samples: %w", len(batch), err)
		}
	}
	return nil
}

// writeTracks stores the projected track, its ground length and the sample
// count on every target row.
func (b *Backend) writeTracks() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, id := range b.order {
		t := b.targets[id]
		updates := map[string]any{
			"track_wkb":    b.deps.Projector.TrackLine(t.samples).AsBinary(),
			"track_length": geo.GroundTrackLength(t.samples),
			"sample_count": len(t.samples),
		}
		err := b.deps.DB.Model(&Target{}).
			Where("run_id = ? AND target_id = ?", b.runID, id).
			Updates(updates).Error
		if err != nil {
			return fmt.Errorf("failed to store track of %s: %w", id, err)
		}
	}
	return nil
}
