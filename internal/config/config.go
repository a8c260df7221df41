// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath locates the SQLite database backing the event store.
	DBPath string `koanf:"db_path"`

	// CatalogPath locates the exported course catalog JSON. Empty means an
	// empty catalog: every attempt is out-of-catalog and reports hold no
	// slots.
	CatalogPath string `koanf:"catalog_path"`

	// BatchSize is the event-store page size used during aggregation scans.
	BatchSize int `koanf:"batch_size"`

	// ReportEvery sets how often (in records) the event scan reports progress.
	ReportEvery int `koanf:"report_every"`

	// WorkerCount bounds concurrent per-student recomputations.
	WorkerCount int `koanf:"worker_count"`

	// MaxStudentsPerRequest caps the number of students one report may cover.
	MaxStudentsPerRequest int `koanf:"max_students_per_request"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":8080",
		DBPath:                "activityscores.db",
		BatchSize:             500,
		ReportEvery:           1000,
		WorkerCount:           runtime.NumCPU() * 2,
		MaxStudentsPerRequest: 100,
	}
}
