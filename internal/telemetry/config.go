// Package telemetry provides OpenTelemetry instrumentation for rerankd.
package telemetry

import (
	"fmt"
	"time"

	"github.com/fyrsmithlabs/rerankd/internal/config"
)

// Config holds telemetry configuration.
type Config struct {
	Enabled        bool            `koanf:"enabled"`
	Endpoint       string          `koanf:"endpoint"`
	ServiceName    string          `koanf:"service_name"`
	ServiceVersion string          `koanf:"service_version"`
	Protocol       string          `koanf:"protocol"` // "grpc" or "http"
	Insecure       bool            `koanf:"insecure"` // Use insecure connection (no TLS)
	SampleRatio    float64         `koanf:"sample_ratio"`
	ExportInterval config.Duration `koanf:"export_interval"`
	ShutdownWait   config.Duration `koanf:"shutdown_wait"`
}

// NewDefaultConfig returns telemetry defaults.
// Telemetry is disabled by default for users without an OTEL collector.
func NewDefaultConfig() *Config {
	return &Config{
		Enabled:        false,
		Endpoint:       "localhost:4317",
		ServiceName:    "rerankd",
		ServiceVersion: "0.1.0",
		Protocol:       "grpc",
		Insecure:       true, // local dev default; set false for production TLS
		SampleRatio:    1.0,
		ExportInterval: config.Duration(15 * time.Second),
		ShutdownWait:   config.Duration(5 * time.Second),
	}
}

// Validate checks configuration for errors.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required when telemetry is enabled")
	}
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required when telemetry is enabled")
	}
	if c.Protocol != "grpc" && c.Protocol != "http" {
		return fmt.Errorf("protocol must be 'grpc' or 'http', got %q", c.Protocol)
	}
	if c.SampleRatio < 0 || c.SampleRatio > 1 {
		return fmt.Errorf("sample_ratio must be between 0 and 1, got %f", c.SampleRatio)
	}
	if c.ExportInterval.Duration() <= 0 {
		return fmt.Errorf("export_interval must be positive")
	}
	if c.ShutdownWait.Duration() <= 0 {
		return fmt.Errorf("shutdown_wait must be positive")
	}
	return nil
}
