package verify

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"taxietl/internal/schema"
	"taxietl/internal/storage"
)

// auditQuery is one read-only check: a log title plus the SQL to run.
type auditQuery struct {
	title string
	sql   string
}

// Audit runs the data-quality and distribution queries and logs every result
// row. The dialect drives identifier quoting and row caps; queries never
// write, so a failed audit leaves the store exactly as the load did.
func Audit(ctx context.Context, repo storage.Repository, d schema.Dialect) error {
	for _, q := range auditQueries(d) {
		rows, err := repo.QueryAll(ctx, q.sql)
		if err != nil {
			return fmt.Errorf("audit: %s: %w", q.title, err)
		}
		log.Printf("audit: %s (%d rows)", q.title, len(rows))
		for _, row := range rows {
			log.Printf("audit:   %s", renderRow(row))
		}
	}
	return nil
}

func auditQueries(d schema.Dialect) []auditQuery {
	pu := schema.QuoteIdent(d, "PULocationID")
	do := schema.QuoteIdent(d, "DOLocationID")

	return []auditQuery{
		{
			title: "null check in critical columns",
			sql: "SELECT COUNT(*) AS total_records,\n" +
				"  COUNT(tpep_pickup_datetime) AS pickup_not_null,\n" +
				"  COUNT(tpep_dropoff_datetime) AS dropoff_not_null,\n" +
				"  COUNT(fare_amount) AS fare_not_null,\n" +
				"  COUNT(trip_distance) AS distance_not_null\n" +
				"FROM trips",
		},
		{
			title: "trips with invalid duration (<= 0 minutes)",
			sql:   "SELECT COUNT(*) AS invalid_duration_trips FROM trips WHERE trip_duration_minutes <= 0",
		},
		{
			title: "trips with invalid fares (<= 0 or > 1000)",
			sql:   "SELECT COUNT(*) AS invalid_fare_trips FROM trips WHERE fare_amount <= 0 OR fare_amount > 1000",
		},
		{
			title: "trips with invalid distances (<= 0 or > 500 miles)",
			sql:   "SELECT COUNT(*) AS invalid_distance_trips FROM trips WHERE trip_distance <= 0 OR trip_distance > 500",
		},
		{
			title: "top 10 busiest pickup hours",
			sql: capRows(d, "pickup_hour,\n"+
				"  COUNT(*) AS trip_count,\n"+
				"  "+floatExpr(d, "ROUND(AVG(fare_amount), 2)")+" AS avg_fare,\n"+
				"  "+floatExpr(d, "ROUND(AVG(trip_distance), 2)")+" AS avg_distance\n"+
				"FROM trips\n"+
				"GROUP BY pickup_hour\n"+
				"ORDER BY trip_count DESC", 10),
		},
		{
			title: "payment method distribution",
			sql: "SELECT payment_type,\n" +
				"  COUNT(*) AS trip_count,\n" +
				"  " + floatExpr(d, "ROUND(COUNT(*) * 100.0 / (SELECT COUNT(*) FROM trips), 2)") + " AS percentage\n" +
				"FROM trips\n" +
				"GROUP BY payment_type\n" +
				"ORDER BY trip_count DESC",
		},
		{
			title: "top 10 pickup locations",
			sql: capRows(d, "z.zone_name,\n"+
				"  z.borough,\n"+
				"  COUNT(*) AS pickup_count,\n"+
				"  "+floatExpr(d, "ROUND(AVG(t.fare_amount), 2)")+" AS avg_fare\n"+
				"FROM trips t\n"+
				"JOIN zones z ON t."+pu+" = z.location_id\n"+
				"GROUP BY z.zone_name, z.borough\n"+
				"ORDER BY pickup_count DESC", 10),
		},
		{
			title: "top 10 dropoff locations",
			sql: capRows(d, "z.zone_name,\n"+
				"  z.borough,\n"+
				"  COUNT(*) AS dropoff_count,\n"+
				"  "+floatExpr(d, "ROUND(AVG(t.fare_amount), 2)")+" AS avg_fare\n"+
				"FROM trips t\n"+
				"JOIN zones z ON t."+do+" = z.location_id\n"+
				"GROUP BY z.zone_name, z.borough\n"+
				"ORDER BY dropoff_count DESC", 10),
		},
	}
}

// capRows renders "SELECT body" with an n-row cap in the dialect's syntax.
func capRows(d schema.Dialect, body string, n int) string {
	if d == schema.MSSQL {
		return "SELECT TOP " + strconv.Itoa(n) + " " + body
	}
	return "SELECT " + body + "\nLIMIT " + strconv.Itoa(n)
}

// floatExpr casts DECIMAL aggregates to float8 on postgres, where numeric
// results do not come out of QueryAll as printable values. The other
// dialects already hand back plain numbers or strings.
func floatExpr(d schema.Dialect, expr string) string {
	if d == schema.Postgres {
		return "CAST(" + expr + " AS DOUBLE PRECISION)"
	}
	return expr
}

func renderRow(row []any) string {
	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = cell(v)
	}
	return strings.Join(parts, " | ")
}

// cell formats one result value. mysql's text protocol returns []byte for
// most columns, so those print as strings.
func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(t)
	case float64:
		return strconv.FormatFloat(t, 'f', 2, 64)
	}
	return fmt.Sprint(v)
}
