// Package config provides configuration models and helpers for the pipeline.
//
// This file adds a lightweight linter/validator for Config values. It
// performs static checks over a loaded Config and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Config.
//
// Path names the offending knob in its flag spelling (e.g. "db_host",
// "metrics_backend"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Validate performs static validation / linting of a Config.
//
// It does not mutate the config. Instead it returns a slice of Issue values.
// Callers may decide whether to treat warnings as fatal or not.
func Validate(c *Config) []Issue {
	var issues []Issue

	if strings.TrimSpace(c.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateInput(c)...)
	issues = append(issues, validateStore(c)...)
	issues = append(issues, validateLoad(c)...)
	issues = append(issues, validateMetrics(c)...)

	return issues
}

// HasErrors reports whether issues contains at least one error-severity
// finding. Warnings alone do not block a run.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// validateInput validates the CSV input locations.
func validateInput(c *Config) []Issue {
	var issues []Issue

	if strings.TrimSpace(c.RawDataPath) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "raw_data_path",
			Message:  "raw_data_path must not be empty",
		})
	}
	if strings.TrimSpace(c.TripsCSV) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "trips_csv",
			Message:  "trips_csv must not be empty",
		})
	}
	if strings.TrimSpace(c.ZonesCSV) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "zones_csv",
			Message:  "zones_csv must not be empty",
		})
	}

	return issues
}

// validateStore validates storage selection and connectivity settings.
func validateStore(c *Config) []Issue {
	var issues []Issue

	kind := strings.TrimSpace(c.StorageKind)
	if kind == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage_kind",
			Message:  "storage_kind must not be empty",
		})
		return issues
	}

	known := map[string]struct{}{
		"postgres": {},
		"mysql":    {},
		"mssql":    {},
		"sqlite":   {},
	}
	if _, ok := known[kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage_kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", kind),
		})
	}

	// A full DSN carries everything the backend needs.
	if c.DSNOverride != "" {
		return issues
	}

	if kind == "sqlite" {
		if strings.TrimSpace(c.DBName) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "db_name",
				Message:  "sqlite needs db_name (the database file path) or an explicit dsn",
			})
		}
		return issues
	}

	for _, p := range []struct{ path, val string }{
		{"db_host", c.DBHost},
		{"db_port", c.DBPort},
		{"db_name", c.DBName},
		{"db_user", c.DBUser},
	} {
		if strings.TrimSpace(p.val) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     p.path,
				Message:  fmt.Sprintf("%s must not be empty when no dsn is set", p.path),
			})
		}
	}

	return issues
}

// validateLoad validates the batching knobs for obvious misconfigurations
// (negative values, zero-sized batches, etc.).
func validateLoad(c *Config) []Issue {
	var issues []Issue

	if c.BatchSize <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "batch_size",
			Message:  fmt.Sprintf("batch_size=%d; the loader falls back to its default for non-positive values", c.BatchSize),
		})
	}
	if c.Workers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "workers",
			Message:  "workers must not be negative",
		})
	}
	if c.BatchTimeout < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "batch_timeout",
			Message:  "batch_timeout must not be negative",
		})
	}

	return issues
}

// validateMetrics validates the metrics backend selection.
func validateMetrics(c *Config) []Issue {
	var issues []Issue

	switch c.MetricsBackend {
	case "", "none":
	case "prometheus":
		if strings.TrimSpace(c.PushgatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "pushgateway_url",
				Message:  "pushgateway_url must not be empty when metrics_backend=prometheus",
			})
		}
	case "datadog":
		if strings.TrimSpace(c.DogstatsdAddr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "dogstatsd_addr",
				Message:  "dogstatsd_addr must not be empty when metrics_backend=datadog",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics_backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; use none, prometheus or datadog", c.MetricsBackend),
		})
	}

	return issues
}
