// Package config centralizes pipeline configuration. It follows a
// "clean" configuration pattern where all tunables live outside the
// code and are sourced from command-line flags with environment-variable
// fallbacks (12-factor friendly). A .env file in the working directory is
// loaded first so local runs match containerized ones. Flags are defined
// before parsing so that `-help` shows all available knobs and their
// defaults.
//
// Typical usage:
//
//	cfg := config.Load() // reads .env, os.Environ and os.Args
//
// For tests, prefer LoadFromArgs to keep them hermetic:
//
//	fs := flag.NewFlagSet("test", flag.ContinueOnError)
//	getenv := func(k string) string { return testEnv[k] }
//	cfg := config.LoadFromArgs(fs, getenv, []string{"-workers=4"})
package config

import (
	"flag"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

// Config holds all process configuration derived from flags and
// environment variables. All fields are plain values so the struct
// can be safely copied and used across goroutines after construction.
type Config struct {
	// Job names this run in logs and metrics labels.
	Job string

	// IO controls input file locations.
	RawDataPath string // directory holding the raw CSV inputs
	TripsCSV    string // trip data file name inside RawDataPath
	ZonesCSV    string // zone lookup file name inside RawDataPath

	// Store describes the target database. A full DSN overrides the
	// discrete DB_* parts when set.
	StorageKind string // storage backend: postgres, sqlite, mysql or mssql
	DSNOverride string
	DBUser      string
	DBPassword  string
	DBHost      string
	DBPort      string
	DBName      string // for sqlite this is the database file path

	// Load tunables control ingestion throughput.
	BatchSize    int           // trip rows per bulk write
	Workers      int           // concurrent trip batches; 1 means sequential
	BatchTimeout time.Duration // per-batch deadline; 0 disables

	// Toggles.
	FullRefresh bool // drop and recreate tables before loading
	Audit       bool // run the post-load audit queries

	// Metrics backend selection.
	MetricsBackend string // "", "none", "prometheus" or "datadog"
	PushgatewayURL string
	DogstatsdAddr  string
}

// LoadFromArgs builds a Config by defining flags on fs, wiring each flag
// to an environment-variable fallback via getenv, and then parsing args.
// This is the most testable entry point: callers supply a private FlagSet,
// a getenv func (often backed by a map), and a synthetic arg slice.
//
// Precedence:
//  1. Environment values seed each flag's default.
//  2. Explicit CLI flags (in args) override the seeded defaults.
//
// The returned Config is fully populated; no further mutation occurs.
func LoadFromArgs(fs *flag.FlagSet, getenv func(string) string, args []string) *Config {
	cfg := &Config{}

	// Inline helpers use the provided getenv to avoid touching process env.
	envOrDefaultFn := func(k, d string) string {
		if v := getenv(k); v != "" {
			return v
		}
		return d
	}
	intEnvOrDefaultFn := func(k string, d int) int {
		if v := getenv(k); v != "" {
			if i, err := strconv.Atoi(v); err == nil {
				return i
			}
		}
		return d
	}
	boolEnvOrDefaultFn := func(k string, d bool) bool {
		if v := strings.ToLower(getenv(k)); v != "" {
			switch v {
			case "1", "true", "yes", "on":
				return true
			case "0", "false", "no", "off":
				return false
			}
		}
		return d
	}
	durationEnvOrDefaultFn := func(k string, d time.Duration) time.Duration {
		if v := getenv(k); v != "" {
			if parsed, err := time.ParseDuration(v); err == nil {
				return parsed
			}
		}
		return d
	}

	fs.StringVar(&cfg.Job, "job", envOrDefaultFn("JOB", "taxietl"), "Job name for logs and metrics labels")

	// IO paths
	fs.StringVar(&cfg.RawDataPath, "raw_data_path", envOrDefaultFn("RAW_DATA_PATH", "data/raw"), "Directory holding the raw CSV inputs")
	fs.StringVar(&cfg.TripsCSV, "trips_csv", envOrDefaultFn("TRIPS_CSV", "yellow_tripdata_2019-01.csv"), "Trip data CSV file name")
	fs.StringVar(&cfg.ZonesCSV, "zones_csv", envOrDefaultFn("ZONES_CSV", "taxi_zone_lookup.csv"), "Zone lookup CSV file name")

	// DB connectivity
	fs.StringVar(&cfg.StorageKind, "storage_kind", envOrDefaultFn("STORAGE_KIND", "postgres"), "Storage backend: postgres, sqlite, mysql or mssql")
	fs.StringVar(&cfg.DSNOverride, "dsn", getenv("DB_DSN"), "Full DSN; overrides the discrete db_* parts")
	fs.StringVar(&cfg.DBUser, "db_user", envOrDefaultFn("DB_USER", "taxi_user"), "DB user")
	fs.StringVar(&cfg.DBPassword, "db_password", envOrDefaultFn("DB_PASSWORD", "taxi_password"), "DB password")
	fs.StringVar(&cfg.DBHost, "db_host", envOrDefaultFn("DB_HOST", "localhost"), "DB host")
	fs.StringVar(&cfg.DBPort, "db_port", envOrDefaultFn("DB_PORT", "5432"), "DB port")
	fs.StringVar(&cfg.DBName, "db_name", envOrDefaultFn("DB_NAME", "taxi_db"), "DB name (file path for sqlite)")

	// Throughput & toggles
	fs.IntVar(&cfg.BatchSize, "batch_size", intEnvOrDefaultFn("BATCH_SIZE", 10000), "Trip rows per bulk write")
	fs.IntVar(&cfg.Workers, "workers", intEnvOrDefaultFn("WORKERS", 1), "Concurrent trip batches; 1 loads sequentially")
	fs.DurationVar(&cfg.BatchTimeout, "batch_timeout", durationEnvOrDefaultFn("BATCH_TIMEOUT", 0), "Per-batch deadline, e.g. 90s; 0 disables")
	fs.BoolVar(&cfg.FullRefresh, "full_refresh", boolEnvOrDefaultFn("FULL_REFRESH", true), "Drop and recreate tables before loading")
	fs.BoolVar(&cfg.Audit, "audit", boolEnvOrDefaultFn("AUDIT", false), "Run the post-load audit queries")

	// Metrics
	fs.StringVar(&cfg.MetricsBackend, "metrics_backend", envOrDefaultFn("METRICS_BACKEND", ""), "Metrics backend: none, prometheus or datadog")
	fs.StringVar(&cfg.PushgatewayURL, "pushgateway_url", envOrDefaultFn("PUSHGATEWAY_URL", ""), "Prometheus Pushgateway base URL")
	fs.StringVar(&cfg.DogstatsdAddr, "dogstatsd_addr", envOrDefaultFn("DOGSTATSD_ADDR", "127.0.0.1:8125"), "DogStatsD address")

	// Parse the provided args (nil means no extra args).
	if args == nil {
		args = []string{}
	}
	_ = fs.Parse(args)
	return cfg
}

// Load is the production entry point. It loads .env into the environment,
// wires the loader to the process flag set (flag.CommandLine), reads
// environment variables via os.Getenv, and parses os.Args[1:] as the CLI
// arguments.
func Load() *Config {
	_ = godotenv.Load() // .env is optional
	return LoadFromArgs(flag.CommandLine, os.Getenv, os.Args[1:])
}

// TripsPath is the path to the trip data CSV.
func (c *Config) TripsPath() string {
	return filepath.Join(c.RawDataPath, c.TripsCSV)
}

// ZonesPath is the path to the zone lookup CSV.
func (c *Config) ZonesPath() string {
	return filepath.Join(c.RawDataPath, c.ZonesCSV)
}

// DSN returns the connection string for the configured backend. An explicit
// -dsn (or DB_DSN) value wins; otherwise the discrete DB_* parts are
// assembled in the backend's shape. For sqlite the database name is already
// the file path, so -dsn is only needed for forms like :memory:.
func (c *Config) DSN() string {
	if c.DSNOverride != "" {
		return c.DSNOverride
	}
	switch c.StorageKind {
	case "postgres":
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(c.DBUser, c.DBPassword),
			Host:   c.DBHost + ":" + c.DBPort,
			Path:   "/" + c.DBName,
		}
		return u.String()
	case "mysql":
		mc := mysql.NewConfig()
		mc.User = c.DBUser
		mc.Passwd = c.DBPassword
		mc.Net = "tcp"
		mc.Addr = c.DBHost + ":" + c.DBPort
		mc.DBName = c.DBName
		mc.ParseTime = true
		return mc.FormatDSN()
	case "mssql":
		u := url.URL{
			Scheme:   "sqlserver",
			User:     url.UserPassword(c.DBUser, c.DBPassword),
			Host:     c.DBHost + ":" + c.DBPort,
			RawQuery: "database=" + url.QueryEscape(c.DBName),
		}
		return u.String()
	case "sqlite":
		return c.DBName
	}
	return ""
}
