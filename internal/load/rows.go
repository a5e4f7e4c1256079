package load

import (
	"fmt"
	"strconv"
	"strings"

	"taxietl/internal/schema"
	"taxietl/internal/source"
)

// Column order comes from the schema so bulk writes always line up with the
// DDL, surrogate keys excluded.
var (
	zoneColumns = schema.Zones().LoadColumns()
	tripColumns = schema.Trips().LoadColumns()
)

// zoneRows projects zone records onto the zones column order. location_id is
// the referenced key, so it is coerced to an integer here and a missing or
// malformed value fails the whole load before anything is written.
func zoneRows(zones []source.Record) ([]string, [][]any, error) {
	rows := make([][]any, 0, len(zones))
	for i, z := range zones {
		row := make([]any, len(zoneColumns))
		for j, col := range zoneColumns {
			if col == "location_id" {
				id, err := locationID(z[col])
				if err != nil {
					return nil, nil, fmt.Errorf("zone row %d: %w", i, err)
				}
				row[j] = id
				continue
			}
			row[j] = z[col]
		}
		rows = append(rows, row)
	}
	return zoneColumns, rows, nil
}

// tripRows projects trip records onto the trips column order. The transform
// stage has already typed every value, so this is a straight projection;
// fields absent from a record become NULL.
func tripRows(trips []source.Record) ([]string, [][]any) {
	rows := make([][]any, 0, len(trips))
	for _, rec := range trips {
		row := make([]any, len(tripColumns))
		for j, col := range tripColumns {
			row[j] = rec[col]
		}
		rows = append(rows, row)
	}
	return tripColumns, rows
}

func locationID(v any) (int64, error) {
	switch t := v.(type) {
	case nil:
		return 0, fmt.Errorf("missing location_id")
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("location_id %q is not an integer", t)
		}
		return n, nil
	}
	return 0, fmt.Errorf("location_id has unsupported type %T", v)
}
