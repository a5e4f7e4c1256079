// Package verify runs read-only checks against the warehouse after a load:
// row counts and trip averages first, then an optional audit pass over data
// quality and distribution.
package verify

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"taxietl/internal/storage"
)

// Summary holds the post-load row counts and trip averages. Averages are
// zero when the trips table is empty.
type Summary struct {
	ZoneCount   int64
	TripCount   int64
	AvgFare     float64
	AvgDistance float64
	AvgDuration float64
	AvgCostMile float64
}

const tripAggregateSQL = "SELECT COUNT(*), AVG(fare_amount), AVG(trip_distance), " +
	"AVG(trip_duration_minutes), AVG(cost_per_mile) FROM trips"

// Run counts both tables and computes the trip averages in one aggregate
// query. Any query error is fatal; there is no pass or fail verdict, the
// numbers are the output.
func Run(ctx context.Context, repo storage.Repository) (Summary, error) {
	var s Summary
	if err := repo.QueryRow(ctx, "SELECT COUNT(*) FROM zones", &s.ZoneCount); err != nil {
		return Summary{}, fmt.Errorf("verify: count zones: %w", err)
	}

	var fare, dist, dur, cpm sql.NullFloat64
	if err := repo.QueryRow(ctx, tripAggregateSQL, &s.TripCount, &fare, &dist, &dur, &cpm); err != nil {
		return Summary{}, fmt.Errorf("verify: trip aggregates: %w", err)
	}
	s.AvgFare = fare.Float64
	s.AvgDistance = dist.Float64
	s.AvgDuration = dur.Float64
	s.AvgCostMile = cpm.Float64

	log.Printf("verify: zones=%d trips=%d", s.ZoneCount, s.TripCount)
	log.Printf("verify: avg_fare=%.2f avg_distance=%.2f avg_duration=%.1f avg_cost_per_mile=%.2f",
		s.AvgFare, s.AvgDistance, s.AvgDuration, s.AvgCostMile)
	return s, nil
}
