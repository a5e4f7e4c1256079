package transform

import "taxietl/internal/source"

// zoneRenames maps raw zone header names to their storage column names.
// service_zone is already correctly named and passes through untouched.
var zoneRenames = map[string]string{
	"LocationID": "location_id",
	"Borough":    "borough",
	"Zone":       "zone_name",
}

// Zones returns zone rows with their field names normalized. Exactly the
// mapped fields are renamed; values, row count, row order and any other
// fields are preserved as-is. Zone data is assumed authoritative, so there
// is no filtering or validation here.
func Zones(in []source.Record) []source.Record {
	out := make([]source.Record, 0, len(in))
	for _, rec := range in {
		r := rec.Clone()
		for old, renamed := range zoneRenames {
			if v, ok := r[old]; ok {
				r[renamed] = v
				delete(r, old)
			}
		}
		out = append(out, r)
	}
	return out
}
