// Package config loads the pipeline settings from the environment (usually
// populated from .env in main) and an optional YAML config file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Odoo        OdooConfig
	Destination DestinationConfig
	Watermark   WatermarkConfig

	StagingDir     string
	PageSize       int
	LoadBatchSize  int
	Schedule       string
	Retries        int
	RetryDelay     time.Duration
	LockFile       string
	LockStaleAfter time.Duration
	LogFile        string
	LogLevel       string
}

type OdooConfig struct {
	URL      string
	DB       string
	Username string
	Password string
	Timeout  time.Duration
}

type DestinationConfig struct {
	Driver   string
	DSN      string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

type WatermarkConfig struct {
	Backend       string
	File          string
	Key           string
	RedisAddr     string
	RedisDB       int
	MongoURI      string
	MongoDatabase string
}

var defaults = map[string]interface{}{
	"ODOO_URL":          "http://localhost:8069",
	"ODOO_DB":           "odooops_db",
	"ODOO_USERNAME":     "odoo",
	"ODOO_PASSWORD":     "odoo",
	"RPC_TIMEOUT":       "60s",
	"DEST_DRIVER":       "postgres",
	"DEST_DSN":          "",
	"PG_HOST":           "localhost",
	"PG_PORT":           5432,
	"PG_DB":             "analytics",
	"PG_USER":           "analyst",
	"PG_PASSWORD":       "analyst",
	"PG_SSLMODE":        "disable",
	"STAGING_DIR":       "outputs",
	"WATERMARK_BACKEND": "file",
	"WATERMARK_FILE":    "outputs/last_extract_timestamp.txt",
	"WATERMARK_KEY":     "odoo_etl:last_extract_timestamp",
	"REDIS_ADDR":        "localhost:6379",
	"REDIS_DB":          0,
	"MONGO_URI":         "mongodb://localhost:27017",
	"MONGO_DATABASE":    "odoo_etl",
	"PAGE_SIZE":         1000,
	"LOAD_BATCH_SIZE":   500,
	"SCHEDULE":          "@daily",
	"RETRIES":           1,
	"RETRY_DELAY":       "5m",
	"LOCK_FILE":         "outputs/.odoo-etl.lock",
	"LOCK_STALE_AFTER":  "6h",
	"LOG_FILE":          "",
	"LOG_LEVEL":         "info",
}

// Load reads settings from configFile, when given, and the environment,
// which takes precedence. Keys in the file use the environment names.
func Load(configFile string) (*Config, error) {
	return load(viper.New(), configFile)
}

func load(v *viper.Viper, configFile string) (*Config, error) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", configFile, err)
		}
	}

	cfg := &Config{
		Odoo: OdooConfig{
			URL:      v.GetString("ODOO_URL"),
			DB:       v.GetString("ODOO_DB"),
			Username: v.GetString("ODOO_USERNAME"),
			Password: v.GetString("ODOO_PASSWORD"),
			Timeout:  v.GetDuration("RPC_TIMEOUT"),
		},
		Destination: DestinationConfig{
			Driver:   strings.ToLower(v.GetString("DEST_DRIVER")),
			DSN:      v.GetString("DEST_DSN"),
			Host:     v.GetString("PG_HOST"),
			Port:     v.GetInt("PG_PORT"),
			Name:     v.GetString("PG_DB"),
			User:     v.GetString("PG_USER"),
			Password: v.GetString("PG_PASSWORD"),
			SSLMode:  v.GetString("PG_SSLMODE"),
		},
		Watermark: WatermarkConfig{
			Backend:       strings.ToLower(v.GetString("WATERMARK_BACKEND")),
			File:          v.GetString("WATERMARK_FILE"),
			Key:           v.GetString("WATERMARK_KEY"),
			RedisAddr:     v.GetString("REDIS_ADDR"),
			RedisDB:       v.GetInt("REDIS_DB"),
			MongoURI:      v.GetString("MONGO_URI"),
			MongoDatabase: v.GetString("MONGO_DATABASE"),
		},
		StagingDir:     v.GetString("STAGING_DIR"),
		PageSize:       v.GetInt("PAGE_SIZE"),
		LoadBatchSize:  v.GetInt("LOAD_BATCH_SIZE"),
		Schedule:       v.GetString("SCHEDULE"),
		Retries:        v.GetInt("RETRIES"),
		RetryDelay:     v.GetDuration("RETRY_DELAY"),
		LockFile:       v.GetString("LOCK_FILE"),
		LockStaleAfter: v.GetDuration("LOCK_STALE_AFTER"),
		LogFile:        v.GetString("LOG_FILE"),
		LogLevel:       v.GetString("LOG_LEVEL"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Odoo.URL == "" {
		errs = append(errs, errors.New("ODOO_URL must be set"))
	}
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize))
	}
	if c.LoadBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("LOAD_BATCH_SIZE must be positive, got %d", c.LoadBatchSize))
	}
	if c.Retries < 0 {
		errs = append(errs, fmt.Errorf("RETRIES must not be negative, got %d", c.Retries))
	}
	switch c.Destination.Driver {
	case "postgres", "sqlserver", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unknown DEST_DRIVER %q (want postgres, sqlserver or sqlite)", c.Destination.Driver))
	}
	if c.Destination.Driver == "sqlite" && c.Destination.DSN == "" {
		errs = append(errs, errors.New("DEST_DSN must name the database file when DEST_DRIVER is sqlite"))
	}
	switch c.Watermark.Backend {
	case "file", "redis", "mongo":
	default:
		errs = append(errs, fmt.Errorf("unknown WATERMARK_BACKEND %q (want file, redis or mongo)", c.Watermark.Backend))
	}
	return errors.Join(errs...)
}

// DestinationDSN returns DEST_DSN when set, otherwise a connection string
// assembled from the PG_* settings.
func (c *Config) DestinationDSN() string {
	d := c.Destination
	if d.DSN != "" {
		return d.DSN
	}
	if d.Driver == "sqlserver" {
		u := url.URL{
			Scheme:   "sqlserver",
			User:     url.UserPassword(d.User, d.Password),
			Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
			RawQuery: url.Values{"database": {d.Name}}.Encode(),
		}
		return u.String()
	}
	port := d.Port
	if port == 0 {
		port = 5432
	}
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, port, d.User, d.Password, d.Name, sslMode)
}
