// Package influx implements storage.Sink on InfluxDB. Each sample becomes one
// point in the configured bucket. When the server cannot be reached at Init,
// points are written as gzip line protocol to a backup file instead.
package influx

import (
	"compress/gzip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/OCAP2/trajgen/internal/config"
	"github.com/OCAP2/trajgen/internal/geo"
	"github.com/OCAP2/trajgen/internal/storage"
	"github.com/OCAP2/trajgen/pkg/core"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"
)

// Measurement is the name every sample point is written under.
const Measurement = "sample"

// PingTimeout bounds the health check at Init.
const PingTimeout = 2 * time.Second

// retention applied to a bucket created by the sink
const retentionSeconds = 60 * 60 * 24 * 90

// Backend writes samples to InfluxDB or the backup file.
type Backend struct {
	cfg       config.InfluxConfig
	runID     string
	projector *geo.Projector
	log       zerolog.Logger

	// epoch is the wall time of simulation time zero
	epoch time.Time

	client  influxdb2.Client
	writer  influxdb2_api.WriteAPI
	isValid bool

	backupFile   *os.File
	backupWriter *gzip.Writer

	mu      sync.Mutex
	targets map[string]target
}

type target struct {
	info core.TargetInfo
	cfg  core.Configuration
}

// New creates an InfluxDB backend. projector may be nil, in which case
// the local frame is anchored at 0°N 0°E.
func New(cfg config.InfluxConfig, runID string, projector *geo.Projector, log zerolog.Logger) *Backend {
	if projector == nil {
		projector = geo.NewProjector(geo.Origin{})
	}
	return &Backend{
		cfg:       cfg,
		runID:     runID,
		projector: projector,
		log:       log,
		epoch:     time.Now().UTC(),
		targets:   make(map[string]target),
	}
}

// Init connects to the server and falls back to the backup file when the
// server does not answer.
func (b *Backend) Init() error {
	b.client = influxdb2.NewClientWithOptions(
		b.cfg.URL(),
		b.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(2500).
			SetFlushInterval(1000),
	)

	ctx, cancel := context.WithTimeout(context.Background(), PingTimeout)
	defer cancel()
	running, err := b.client.Ping(ctx)
	if err != nil || !running {
		b.log.Info().Err(err).Str("backupPath", b.cfg.BackupPath).
			Msg("Failed to reach InfluxDB, writing to backup file")
		b.client.Close()
		b.client = nil
		return b.openBackup()
	}

	if err := b.setupOrganizationAndBucket(); err != nil {
		return err
	}
	b.createWriter()
	b.isValid = true
	b.log.Info().Str("url", b.cfg.URL()).Str("bucket", b.cfg.Bucket).Msg("InfluxDB client initialized")
	return nil
}

func (b *Backend) openBackup() error {
	if b.cfg.BackupPath == "" {
		return fmt.Errorf("influxDB unreachable and no backup path configured")
	}
	if err := os.MkdirAll(filepath.Dir(b.cfg.BackupPath), 0755); err != nil {
		return fmt.Errorf("error creating backup directory: %w", err)
	}
	file, err := os.OpenFile(b.cfg.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	b.backupFile = file
	b.backupWriter = gzip.NewWriter(file)
	return nil
}

func (b *Backend) setupOrganizationAndBucket() error {
	ctx := context.Background()
	orgName := b.cfg.Org

	org, err := b.client.OrganizationsAPI().FindOrganizationByName(ctx, orgName)
	if err != nil {
		b.log.Info().Str("org", orgName).Msg("Organization not found, creating")
		org, err = b.client.OrganizationsAPI().CreateOrganizationWithName(ctx, orgName)
		if err != nil {
			return fmt.Errorf("error creating organization %s: %w", orgName, err)
		}
	}

	if _, err = b.client.BucketsAPI().FindBucketByName(ctx, b.cfg.Bucket); err != nil {
		b.log.Info().Str("bucket", b.cfg.Bucket).Msg("Bucket not found, creating")
		rule := domain.RetentionRuleTypeExpire
		_, err = b.client.BucketsAPI().CreateBucketWithName(ctx, org, b.cfg.Bucket, domain.RetentionRule{
			Type:         &rule,
			EverySeconds: retentionSeconds,
		})
		if err != nil {
			return fmt.Errorf("error creating bucket %s: %w", b.cfg.Bucket, err)
		}
	}
	return nil
}

func (b *Backend) createWriter() {
	b.writer = b.client.WriteAPI(b.cfg.Org, b.cfg.Bucket)

	errorsCh := b.writer.Errors()
	go func() {
		for writeErr := range errorsCh {
			b.log.Error().Err(writeErr).Str("bucket", b.cfg.Bucket).
				Msg("Error sending data to InfluxDB")
		}
	}()
}

// Close flushes pending points and releases the client or backup file.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.isValid {
		b.writer.Flush()
		b.client.Close()
		b.isValid = false
		return nil
	}

	if b.backupWriter != nil {
		if err := b.backupWriter.Close(); err != nil {
			b.backupFile.Close()
			return fmt.Errorf("error closing backup writer: %w", err)
		}
		b.backupWriter = nil
		return b.backupFile.Close()
	}
	return nil
}

// StartTarget registers a target.
func (b *Backend) StartTarget(info core.TargetInfo, cfg core.Configuration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.targets[info.ID]; ok {
		return fmt.Errorf("target %s already started", info.ID)
	}
	b.targets[info.ID] = target{info: info, cfg: cfg}
	return nil
}

// Append writes one point per sample.
func (b *Backend) Append(targetID string, samples []core.Sample) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.targets[targetID]
	if !ok {
		return fmt.Errorf("target %s not started", targetID)
	}

	for _, s := range samples {
		if err := b.writePoint(b.point(t, s)); err != nil {
			return err
		}
	}
	return nil
}

// point builds the sample point: frame-ordered components as in every other
// sink, plus the geodetic position.
func (b *Backend) point(t target, s core.Sample) *influxdb2_write.Point {
	row := storage.Row(s, t.cfg)
	cols := storage.Columns(t.cfg.AltCoordinates)
	lon, lat, alt := b.projector.Geodetic(s.Position)

	p := influxdb2_write.NewPointWithMeasurement(Measurement).
		AddTag("run", b.runID).
		AddTag("target", t.info.ID).
		SetTime(b.epoch.Add(time.Duration(s.Time * float64(time.Second))))
	if t.info.Name != "" {
		p.AddTag("name", t.info.Name)
	}
	for i, col := range cols {
		p.AddField(col, row[i])
	}
	p.AddField("lon", lon).
		AddField("lat", lat).
		AddField("alt", alt)
	return p
}

func (b *Backend) writePoint(p *influxdb2_write.Point) error {
	if b.isValid {
		b.writer.WritePoint(p)
		return nil
	}
	if b.backupWriter == nil {
		return fmt.Errorf("influxDB client not initialized and backup writer not available")
	}

	line := influxdb2_write.PointToLineProtocol(p, time.Nanosecond)
	if _, err := b.backupWriter.Write([]byte(line + "\n")); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

// ExportedFilePath returns the backup file path when the backup was used.
func (b *Backend) ExportedFilePath() string {
	if b.backupFile == nil {
		return ""
	}
	return b.cfg.BackupPath
}
