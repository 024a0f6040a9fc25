package main

import (
	"fmt"

	"github.com/OCAP2/trajgen/internal/config"
	"github.com/OCAP2/trajgen/internal/geo"
	"github.com/OCAP2/trajgen/internal/storage"
	gormstorage "github.com/OCAP2/trajgen/internal/storage/gorm"
	"github.com/OCAP2/trajgen/internal/storage/influx"
	"github.com/OCAP2/trajgen/internal/storage/memory"
	"github.com/OCAP2/trajgen/internal/storage/text"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Storage types accepted by storage.type and --storage.
const (
	StorageMemory   = "memory"
	StorageText     = "text"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageInflux   = "influx"
)

// closeFunc releases what a sink was built on, after the sink is closed.
type closeFunc func() error

func nopClose() error { return nil }

func createStorageBackend(cfg config.StorageConfig, runID string, projector *geo.Projector, dbLog zerolog.Logger) (storage.Sink, closeFunc, error) {
	switch cfg.Type {
	case StorageMemory, "":
		Logger.Info("Memory storage backend initialized", "outputDir", cfg.Memory.OutputDir, "format", cfg.Memory.Format)
		return memory.New(cfg.Memory, runID), nopClose, nil

	case StorageText:
		Logger.Info("Text storage backend initialized", "outputDir", cfg.Text.OutputDir)
		return text.New(cfg.Text), nopClose, nil

	case StorageSQLite:
		db, err := gormstorage.OpenSQLite(cfg.SQLite.Path, dbLog)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		Logger.Info("SQLite storage backend initialized", "path", cfg.SQLite.Path)
		return newGormBackend(cfg, runID, db, projector, dbLog), closeDB(db), nil

	case StoragePostgres:
		db, err := gormstorage.OpenPostgres(cfg.Postgres.DSN(), dbLog)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Postgres backend: %w", err)
		}
		Logger.Info("Postgres storage backend initialized", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
		return newGormBackend(cfg, runID, db, projector, dbLog), closeDB(db), nil

	case StorageInflux:
		Logger.Info("InfluxDB storage backend initialized", "url", cfg.Influx.URL(), "bucket", cfg.Influx.Bucket)
		return influx.New(cfg.Influx, runID, projector, dbLog), nopClose, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

func newGormBackend(cfg config.StorageConfig, runID string, db *gorm.DB, projector *geo.Projector, dbLog zerolog.Logger) *gormstorage.Backend {
	return gormstorage.New(cfg.Gorm, runID, gormstorage.Dependencies{
		DB:        db,
		Projector: projector,
		Logger:    dbLog,
	})
}

func closeDB(db *gorm.DB) closeFunc {
	return func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to access sql interface: %w", err)
		}
		return sqlDB.Close()
	}
}
