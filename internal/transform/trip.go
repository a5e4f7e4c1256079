// Package transform implements the record-cleaning stage of the pipeline:
// trip rows are filtered and enriched with derived fields, zone rows have
// their field names normalized. Both transformers consume full in-memory
// collections and never mutate their input; surviving rows keep their
// relative input order.
package transform

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"taxietl/internal/source"
)

// TimestampLayout is the wire format of the pickup/dropoff timestamp fields.
const TimestampLayout = "2006-01-02 15:04:05"

// Raw trip field names, exactly as they appear in the input header.
const (
	FieldPickupTime  = "tpep_pickup_datetime"
	FieldDropoffTime = "tpep_dropoff_datetime"
	FieldFareAmount  = "fare_amount"
	FieldDistance    = "trip_distance"
)

// intFields are coerced to int64; missing or unparsable values become 0.
var intFields = []string{
	"VendorID",
	"passenger_count",
	"RatecodeID",
	"PULocationID",
	"DOLocationID",
	"payment_type",
}

// floatFields are coerced to float64; missing or unparsable values become 0.
var floatFields = []string{
	"trip_distance",
	"fare_amount",
	"extra",
	"mta_tax",
	"tip_amount",
	"tolls_amount",
	"improvement_surcharge",
	"total_amount",
	"congestion_surcharge",
}

// stringFields are coerced to string; missing values become "".
var stringFields = []string{
	"store_and_fwd_flag",
}

// TripReport summarizes a trip transform run for logging and metrics. The
// counts are observability output only; correctness lives in the returned
// rows.
type TripReport struct {
	Input            int // raw rows consumed
	DroppedTimeOrder int // pickup after dropoff
	DroppedAmounts   int // fare <= 0 or distance <= 0
	Output           int // rows surviving all filters
}

// Trips cleans and enriches raw trip rows.
//
// Per row, in order:
//  1. Parse both timestamp fields. Any parse failure (including a missing
//     value) aborts the whole run; there is no per-row skip for timestamps.
//  2. Drop the row when pickup is after dropoff.
//  3. Drop the row when fare_amount <= 0 or trip_distance <= 0. Missing or
//     unparsable numerics count as 0 here, so they are dropped too.
//  4. Derive trip_duration_minutes (whole minutes, truncated toward zero),
//     cost_per_mile (fare/distance rounded to 2 decimals), pickup_hour and
//     pickup_date from the pickup timestamp.
//  5. Coerce every remaining field to its storage type, turning missing
//     values into zero values (0 or "").
//
// The input slice and its records are never mutated.
func Trips(in []source.Record) ([]source.Record, TripReport, error) {
	rep := TripReport{Input: len(in)}
	out := make([]source.Record, 0, len(in))

	for i, rec := range in {
		pickup, err := parseTimestamp(rec, FieldPickupTime)
		if err != nil {
			return nil, rep, fmt.Errorf("row %d: %w", i, err)
		}
		dropoff, err := parseTimestamp(rec, FieldDropoffTime)
		if err != nil {
			return nil, rep, fmt.Errorf("row %d: %w", i, err)
		}

		if pickup.After(dropoff) {
			rep.DroppedTimeOrder++
			continue
		}

		fare := toFloat(rec[FieldFareAmount])
		dist := toFloat(rec[FieldDistance])
		if fare <= 0 || dist <= 0 {
			rep.DroppedAmounts++
			continue
		}

		r := rec.Clone()
		r[FieldPickupTime] = pickup
		r[FieldDropoffTime] = dropoff

		// Derived fields. Division is safe: dist > 0 was just enforced.
		r["trip_duration_minutes"] = int64(dropoff.Sub(pickup) / time.Minute)
		r["cost_per_mile"] = round2(fare / dist)
		r["pickup_hour"] = int64(pickup.Hour())
		r["pickup_date"] = midnight(pickup)

		for _, f := range intFields {
			r[f] = toInt(r[f])
		}
		for _, f := range floatFields {
			r[f] = toFloat(r[f])
		}
		for _, f := range stringFields {
			r[f] = toString(r[f])
		}

		out = append(out, r)
	}

	rep.Output = len(out)
	return out, rep, nil
}

// parseTimestamp reads a timestamp field from rec. A nil value or a string
// that does not match TimestampLayout is an error.
func parseTimestamp(rec source.Record, field string) (time.Time, error) {
	v := rec[field]
	if v == nil {
		return time.Time{}, fmt.Errorf("%s: missing timestamp", field)
	}
	if t, ok := v.(time.Time); ok {
		return t, nil
	}
	s, ok := v.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("%s: unexpected type %T", field, v)
	}
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: parse %q: %w", field, s, err)
	}
	return t, nil
}

// midnight strips the time component, keeping the calendar date.
func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// round2 rounds to 2 decimal digits, half away from zero.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// toInt coerces v to int64. Missing and unparsable values become 0.
func toInt(v any) int64 {
	switch t := v.(type) {
	case nil:
		return 0
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
		// Integer columns sometimes arrive as "1.0"; accept the float form.
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return int64(f)
		}
		return 0
	default:
		return 0
	}
}

// toFloat coerces v to float64. Missing and unparsable values become 0.
func toFloat(v any) float64 {
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		return t
	case int64:
		return float64(t)
	case int:
		return float64(t)
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return f
		}
		return 0
	default:
		return 0
	}
}

// toString coerces v to string. Missing values become "".
func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
