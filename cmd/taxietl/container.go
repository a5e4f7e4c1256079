// Package main wires the taxi ETL pipeline end-to-end: extract both CSV
// inputs, transform and validate the trip collection in memory, (re)create
// the warehouse schema, bulk-load zones then trips, and verify the loaded
// tables with aggregate queries. The CLI layer stays thin: it depends on the
// storage-agnostic Repository and never imports database drivers directly.
package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"taxietl/internal/config"
	"taxietl/internal/load"
	"taxietl/internal/metrics"
	"taxietl/internal/schema"
	"taxietl/internal/source"
	"taxietl/internal/storage"
	"taxietl/internal/transform"
	"taxietl/internal/validate"
	"taxietl/internal/verify"
)

type Repository = storage.Repository

// Function variables used to introduce test seams.
// In production these point to real implementations; tests can override them.
var newRepositoryFn = func(ctx context.Context, cfg storage.Config) (Repository, error) {
	return storage.New(ctx, cfg)
}

// runStats aggregates the counters reported in the end-of-run summary. The
// stages run strictly one after another, so plain ints are fine.
type runStats struct {
	tripsExtracted int
	zonesExtracted int
	droppedTime    int   // pickup after dropoff
	droppedAmounts int   // fare or distance not positive
	zonesLoaded    int64 // rows the store reported written
	tripsLoaded    int64
	batches        int // committed trip batches
}

// run executes the staged batch pipeline. Every stage must fully complete
// before the next starts; the first error aborts the run and carries its
// stage prefix.
func run(ctx context.Context, cfg *config.Config) error {
	banner := strings.Repeat("=", 60)
	log.Printf("%s", banner)
	log.Printf("NYC TAXI ETL PIPELINE")
	log.Printf("%s", banner)

	start := time.Now()
	var st runStats

	log.Printf("[STEP 1: EXTRACT]")
	t0 := time.Now()
	trips, zones, err := extractStage(ctx, cfg)
	observe(cfg.Job, "extract", t0, err)
	if err != nil {
		return err
	}
	st.tripsExtracted = len(trips)
	st.zonesExtracted = len(zones)
	metrics.RecordRows(cfg.Job, "extracted", int64(len(trips)))

	log.Printf("[STEP 2: TRANSFORM]")
	t0 = time.Now()
	cleanTrips, cleanZones, rep, err := transformStage(trips, zones)
	observe(cfg.Job, "transform", t0, err)
	if err != nil {
		return err
	}
	st.droppedTime = rep.DroppedTimeOrder
	st.droppedAmounts = rep.DroppedAmounts
	metrics.RecordRows(cfg.Job, "transformed", int64(rep.Output))
	metrics.RecordRows(cfg.Job, "dropped", int64(rep.DroppedTimeOrder+rep.DroppedAmounts))

	log.Printf("[STEP 3: VALIDATE]")
	t0 = time.Now()
	err = validateStage(cleanTrips)
	observe(cfg.Job, "validate", t0, err)
	if err != nil {
		return err
	}

	log.Printf("[STEP 4: SCHEMA]")
	dialect, err := schema.ParseDialect(cfg.StorageKind)
	if err != nil {
		return err
	}
	t0 = time.Now()
	repo, err := connectStore(ctx, cfg)
	if err != nil {
		observe(cfg.Job, "schema", t0, err)
		return err
	}
	defer repo.Close()
	err = prepareSchema(ctx, repo, dialect, cfg.FullRefresh)
	observe(cfg.Job, "schema", t0, err)
	if err != nil {
		return err
	}

	log.Printf("[STEP 5: LOAD]")
	loader := load.New(repo, load.Options{
		BatchSize:    cfg.BatchSize,
		Workers:      cfg.Workers,
		BatchTimeout: cfg.BatchTimeout,
	})
	t0 = time.Now()
	zonesLoaded, result, err := loadStage(ctx, loader, cleanZones, cleanTrips)
	observe(cfg.Job, "load", t0, err)
	st.zonesLoaded = zonesLoaded
	st.tripsLoaded = result.Total
	st.batches = committedBatches(result)
	metrics.RecordRows(cfg.Job, "zones_loaded", zonesLoaded)
	metrics.RecordRows(cfg.Job, "trips_loaded", result.Total)
	metrics.RecordBatches(cfg.Job, int64(st.batches))
	if err != nil {
		return err
	}

	log.Printf("[STEP 6: VERIFY]")
	t0 = time.Now()
	summary, err := verify.Run(ctx, repo)
	observe(cfg.Job, "verify", t0, err)
	if err != nil {
		return err
	}

	if cfg.Audit {
		log.Printf("[STEP 7: AUDIT]")
		t0 = time.Now()
		err = verify.Audit(ctx, repo, dialect)
		observe(cfg.Job, "audit", t0, err)
		if err != nil {
			return err
		}
	}

	logRunSummary(&st, summary, time.Since(start))
	log.Printf("%s", banner)
	log.Printf("ETL pipeline completed successfully")
	log.Printf("%s", banner)
	return nil
}

// observe records one stage outcome for the metrics backend.
func observe(job, stage string, start time.Time, err error) {
	metrics.RecordStage(job, stage, err, time.Since(start))
}

// extractStage reads both CSV inputs into memory, trips first. Either file
// missing is fatal before anything else runs.
func extractStage(ctx context.Context, cfg *config.Config) (trips, zones []source.Record, err error) {
	rd := source.NewReader(source.Options{TrimSpace: true})

	trips, _, err = rd.ReadFile(ctx, cfg.TripsPath())
	if err != nil {
		return nil, nil, fmt.Errorf("extract: trips: %w", err)
	}
	log.Printf("extracted %d trip rows from %s", len(trips), cfg.TripsPath())

	zones, _, err = rd.ReadFile(ctx, cfg.ZonesPath())
	if err != nil {
		return nil, nil, fmt.Errorf("extract: zones: %w", err)
	}
	log.Printf("extracted %d zone rows from %s", len(zones), cfg.ZonesPath())
	return trips, zones, nil
}

// transformStage cleans and enriches the trip rows and renames the zone
// fields. A timestamp that fails to parse aborts the run; the drop counters
// land in the returned report.
func transformStage(trips, zones []source.Record) ([]source.Record, []source.Record, transform.TripReport, error) {
	cleanTrips, rep, err := transform.Trips(trips)
	if err != nil {
		return nil, nil, rep, fmt.Errorf("transform: %w", err)
	}
	log.Printf("transform: kept %d/%d trips (dropped %d out-of-order, %d non-positive amounts)",
		rep.Output, rep.Input, rep.DroppedTimeOrder, rep.DroppedAmounts)

	cleanZones := transform.Zones(zones)
	log.Printf("transform: renamed %d zone rows", len(cleanZones))
	return cleanTrips, cleanZones, rep, nil
}

// validateStage gates the load on the dataset-level checks. Null counts are
// logged as diagnostics; only a blocking issue stops the run.
func validateStage(trips []source.Record) error {
	rep := validate.Check(trips)
	log.Printf("validate: %s", rep)
	if !rep.OK() {
		return fmt.Errorf("validate: %s", rep)
	}
	return nil
}

// connectStore opens the configured repository and verifies connectivity
// with a trivial query, so a bad DSN or unreachable server surfaces before
// any DDL runs.
func connectStore(ctx context.Context, cfg *config.Config) (Repository, error) {
	repo, err := newRepositoryFn(ctx, storage.Config{Kind: cfg.StorageKind, DSN: cfg.DSN()})
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	var one int64
	if err := repo.QueryRow(ctx, "SELECT 1", &one); err != nil {
		repo.Close()
		return nil, fmt.Errorf("store: connectivity check: %w", err)
	}
	log.Printf("connected to %s store", cfg.StorageKind)
	return repo, nil
}

// prepareSchema creates the taxi tables. A full refresh drops and recreates
// them so a rerun never appends to a previous load; otherwise existing
// tables and their data are left alone.
func prepareSchema(ctx context.Context, repo Repository, d schema.Dialect, fullRefresh bool) error {
	mgr := schema.NewManager(d, repo)
	if fullRefresh {
		log.Printf("schema: full refresh, dropping and recreating tables")
		if err := mgr.Reset(ctx); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
		return nil
	}
	log.Printf("schema: ensuring tables exist")
	if err := mgr.Ensure(ctx); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}

// loadStage writes zones first, then the trip batches. Zones must be fully
// committed before the first trip batch because trips reference
// zones(location_id). Loader errors already carry their own load prefix.
func loadStage(ctx context.Context, loader *load.Loader, zones, trips []source.Record) (int64, load.TripLoadResult, error) {
	zonesLoaded, err := loader.LoadZones(ctx, zones)
	if err != nil {
		return zonesLoaded, load.TripLoadResult{}, err
	}

	result, err := loader.LoadTrips(ctx, trips)
	if err != nil {
		logFailedLoad(result)
		return zonesLoaded, result, err
	}
	log.Printf("trips loaded: rows=%d batches=%d", result.Total, len(result.Batches))
	return zonesLoaded, result, nil
}

// logFailedLoad spells out the partial-load shape after a trip batch
// failure: which batches committed, which failed, and which never ran.
// Committed batches stay committed; there is no rollback and no retry.
func logFailedLoad(result load.TripLoadResult) {
	for _, b := range result.Batches {
		switch {
		case b.Err != nil:
			log.Printf("load: batch %d failed (fingerprint=%016x): %v", b.Index+1, b.Fingerprint, b.Err)
		case b.Rows > 0:
			log.Printf("load: batch %d committed rows=%d fingerprint=%016x", b.Index+1, b.Rows, b.Fingerprint)
		default:
			log.Printf("load: batch %d not attempted", b.Index+1)
		}
	}
	log.Printf("load: %d rows were committed before the failure; rerun with -full_refresh to reload cleanly", result.Total)
}

// committedBatches counts the batches the store acknowledged.
func committedBatches(result load.TripLoadResult) int {
	n := 0
	for _, b := range result.Batches {
		if b.Err == nil && b.Rows > 0 {
			n++
		}
	}
	return n
}

// logRunSummary prints the end-of-run accounting lines.
func logRunSummary(st *runStats, sum verify.Summary, elapsed time.Duration) {
	log.Printf(
		"summary: trips_extracted=%d zones_extracted=%d dropped_time_order=%d dropped_amounts=%d zones_loaded=%d trips_loaded=%d batches=%d elapsed=%s",
		st.tripsExtracted,
		st.zonesExtracted,
		st.droppedTime,
		st.droppedAmounts,
		st.zonesLoaded,
		st.tripsLoaded,
		st.batches,
		elapsed.Truncate(time.Millisecond),
	)
	log.Printf(
		"summary: store zones=%d trips=%d avg_fare=%.2f avg_distance=%.2f avg_duration=%.1f avg_cost_per_mile=%.2f",
		sum.ZoneCount,
		sum.TripCount,
		sum.AvgFare,
		sum.AvgDistance,
		sum.AvgDuration,
		sum.AvgCostMile,
	)

	// Row accounting: every extracted trip row must end up dropped or loaded.
	accounted := int64(st.droppedTime+st.droppedAmounts) + st.tripsLoaded
	if accounted != int64(st.tripsExtracted) {
		log.Printf(
			"WARNING: row accounting mismatch: extracted=%d accounted=%d (delta=%d)",
			st.tripsExtracted,
			accounted,
			int64(st.tripsExtracted)-accounted,
		)
	}
}
