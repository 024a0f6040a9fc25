// internal/storage/memory/memory.go
package memory

import (
	"fmt"
	"sync"

	"github.com/OCAP2/trajgen/internal/config"
	"github.com/OCAP2/trajgen/pkg/core"
)

// TargetRecord groups a target with its full sample history
type TargetRecord struct {
	Info    core.TargetInfo
	Config  core.Configuration
	Samples []core.Sample
}

// Backend keeps every sample in memory and exports them on Close
type Backend struct {
	cfg   config.MemoryConfig
	runID string

	targets map[string]*TargetRecord // keyed by target ID
	order   []string                 // registration order

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig, runID string) *Backend {
	return &Backend{
		cfg:     cfg,
		runID:   runID,
		targets: make(map[string]*TargetRecord),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close exports the recorded targets when an output directory is set
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cfg.OutputDir == "" {
		return nil
	}
	return b.export()
}

// StartTarget registers a target
func (b *Backend) StartTarget(info core.TargetInfo, cfg core.Configuration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.targets[info.ID]; ok {
		return fmt.Errorf("target %s already started", info.ID)
	}
	b.targets[info.ID] = &TargetRecord{Info: info, Config: cfg}
	b.order = append(b.order, info.ID)
	return nil
}

// Append records samples for a started target
func (b *Backend) Append(targetID string, samples []core.Sample) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	record, ok := b.targets[targetID]
	if !ok {
		return fmt.Errorf("target %s not started", targetID)
	}
	record.Samples = append(record.Samples, samples...)
	return nil
}

// Target returns a copy of a target's record
func (b *Backend) Target(targetID string) (TargetRecord, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	record, ok := b.targets[targetID]
	if !ok {
		return TargetRecord{}, false
	}
	out := *record
	out.Samples = append([]core.Sample(nil), record.Samples...)
	return out, true
}

// ExportedFilePath returns the path of the last export, empty before Close.
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
