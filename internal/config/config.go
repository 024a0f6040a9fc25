package config

import (
	"fmt"
	"time"

	"github.com/OCAP2/trajgen/internal/geo"
	"github.com/OCAP2/trajgen/pkg/core"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "trajgen.cfg.json"

// MemoryConfig holds in-memory storage settings. Format is "json" or
// "msgpack".
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
	Format         string `json:"format" mapstructure:"format"`
}

// TextConfig holds plain-text storage settings.
type TextConfig struct {
	OutputDir string `json:"outputDir" mapstructure:"outputDir"`
}

// SQLiteConfig holds the sqlite database location.
type SQLiteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// GormConfig tunes the relational writer shared by sqlite and postgres.
type GormConfig struct {
	FlushInterval time.Duration `json:"flushInterval" mapstructure:"flushInterval"`
	BatchSize     int           `json:"batchSize" mapstructure:"batchSize"`
}

// DBConfig holds postgres connection settings.
type DBConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// DSN returns the postgres connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		c.Host, c.Port, c.Username, c.Password, c.Database)
}

// InfluxConfig holds InfluxDB settings. BackupPath receives gzip line
// protocol when the server cannot be reached.
type InfluxConfig struct {
	Protocol   string `json:"protocol" mapstructure:"protocol"`
	Host       string `json:"host" mapstructure:"host"`
	Port       string `json:"port" mapstructure:"port"`
	Token      string `json:"token" mapstructure:"token"`
	Org        string `json:"org" mapstructure:"org"`
	Bucket     string `json:"bucket" mapstructure:"bucket"`
	BackupPath string `json:"backupPath" mapstructure:"backupPath"`
}

// URL returns the server address.
func (c InfluxConfig) URL() string {
	return fmt.Sprintf("%s://%s:%s", c.Protocol, c.Host, c.Port)
}

// StorageConfig selects and configures the output sink.
type StorageConfig struct {
	Type     string       `json:"type" mapstructure:"type"`
	Memory   MemoryConfig `json:"memory" mapstructure:"memory"`
	Text     TextConfig   `json:"text" mapstructure:"text"`
	SQLite   SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
	Gorm     GormConfig   `json:"gorm" mapstructure:"gorm"`
	Postgres DBConfig     `json:"-" mapstructure:"-"`
	Influx   InfluxConfig `json:"-" mapstructure:"-"`
}

// OTelConfig holds metric export settings.
type OTelConfig struct {
	Enabled        bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName    string        `json:"serviceName" mapstructure:"serviceName"`
	ExportInterval time.Duration `json:"exportInterval" mapstructure:"exportInterval"`
}

// GraylogConfig holds GELF output settings.
type GraylogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
}

// Load reads configuration from the JSON file in configDir and sets
// default values.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./trajgen-logs")

	def := core.DefaultConfiguration()
	viper.SetDefault("generator.maxAcceleration", def.MaxAcceleration)
	viper.SetDefault("generator.maxJerk", def.MaxJerk)
	viper.SetDefault("generator.updateRate", def.UpdateRate)
	viper.SetDefault("generator.outputPrecision", def.OutputPrecision)
	viper.SetDefault("generator.thickUpdates", def.ThickUpdates)
	viper.SetDefault("generator.altCoordinates", def.AltCoordinates)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./trajectories")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.memory.format", "json")
	viper.SetDefault("storage.text.outputDir", "./trajectories")
	viper.SetDefault("storage.sqlite.path", "./trajectories/trajgen.db")
	viper.SetDefault("storage.gorm.flushInterval", "2s")
	viper.SetDefault("storage.gorm.batchSize", 2000)

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "trajgen")

	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "trajgen")
	viper.SetDefault("influx.bucket", "trajectories")
	viper.SetDefault("influx.backupPath", "./trajectories/influx_backup.lp.gz")

	viper.SetDefault("origin.latitude", 0.0)
	viper.SetDefault("origin.longitude", 0.0)
	viper.SetDefault("origin.altitude", 0.0)

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "trajgen")
	viper.SetDefault("otel.exportInterval", "10s")
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetGeneratorConfig returns the configuration targets start with. It is
// not validated here.
func GetGeneratorConfig() core.Configuration {
	return core.Configuration{
		MaxAcceleration: viper.GetFloat64("generator.maxAcceleration"),
		MaxJerk:         viper.GetFloat64("generator.maxJerk"),
		UpdateRate:      viper.GetFloat64("generator.updateRate"),
		OutputPrecision: viper.GetInt("generator.outputPrecision"),
		ThickUpdates:    viper.GetBool("generator.thickUpdates"),
		AltCoordinates:  viper.GetBool("generator.altCoordinates"),
	}
}

// GetStorageConfig returns the sink settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
			Format:         viper.GetString("storage.memory.format"),
		},
		Text: TextConfig{
			OutputDir: viper.GetString("storage.text.outputDir"),
		},
		SQLite: SQLiteConfig{
			Path: viper.GetString("storage.sqlite.path"),
		},
		Gorm: GormConfig{
			FlushInterval: viper.GetDuration("storage.gorm.flushInterval"),
			BatchSize:     viper.GetInt("storage.gorm.batchSize"),
		},
		Postgres: DBConfig{
			Host:     viper.GetString("db.host"),
			Port:     viper.GetString("db.port"),
			Username: viper.GetString("db.username"),
			Password: viper.GetString("db.password"),
			Database: viper.GetString("db.database"),
		},
		Influx: InfluxConfig{
			Protocol:   viper.GetString("influx.protocol"),
			Host:       viper.GetString("influx.host"),
			Port:       viper.GetString("influx.port"),
			Token:      viper.GetString("influx.token"),
			Org:        viper.GetString("influx.org"),
			Bucket:     viper.GetString("influx.bucket"),
			BackupPath: viper.GetString("influx.backupPath"),
		},
	}
}

// GetOTelConfig returns the metric export settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:        viper.GetBool("otel.enabled"),
		ServiceName:    viper.GetString("otel.serviceName"),
		ExportInterval: viper.GetDuration("otel.exportInterval"),
	}
}

// GetGraylogConfig returns the GELF output settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// GetOrigin returns the geodetic anchor of the local NED frame.
func GetOrigin() geo.Origin {
	return geo.Origin{
		Latitude:  viper.GetFloat64("origin.latitude"),
		Longitude: viper.GetFloat64("origin.longitude"),
		Altitude:  viper.GetFloat64("origin.altitude"),
	}
}
