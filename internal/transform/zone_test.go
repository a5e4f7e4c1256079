package transform_test

import (
	"testing"

	"taxietl/internal/source"
	"taxietl/internal/transform"
)

func zoneFixture() []source.Record {
	return []source.Record{
		{"LocationID": "151", "Borough": "Manhattan", "Zone": "Central Park", "service_zone": "Yellow Zone"},
		{"LocationID": "239", "Borough": "Queens", "Zone": "Jamaica", "service_zone": "Boro Zone"},
		{"LocationID": "246", "Borough": "Queens", "Zone": "JFK Airport", "service_zone": "Airports"},
	}
}

func TestZones_RenamesFields(t *testing.T) {
	t.Parallel()

	out := transform.Zones(zoneFixture())
	if got, want := len(out), 3; got != want {
		t.Fatalf("rows=%d want=%d", got, want)
	}

	r := out[0]
	if got := r["location_id"]; got != "151" {
		t.Fatalf("location_id=%v want 151", got)
	}
	if got := r["borough"]; got != "Manhattan" {
		t.Fatalf("borough=%v want Manhattan", got)
	}
	if got := r["zone_name"]; got != "Central Park" {
		t.Fatalf("zone_name=%v want Central Park", got)
	}
	if got := r["service_zone"]; got != "Yellow Zone" {
		t.Fatalf("service_zone=%v want Yellow Zone", got)
	}

	// Old names must be gone.
	for _, old := range []string{"LocationID", "Borough", "Zone"} {
		if _, ok := r[old]; ok {
			t.Fatalf("field %s still present after rename", old)
		}
	}
}

func TestZones_IdentityOnDataAndOrder(t *testing.T) {
	t.Parallel()

	out := transform.Zones(zoneFixture())
	wantIDs := []string{"151", "239", "246"}
	for i, want := range wantIDs {
		if got := out[i]["location_id"]; got != want {
			t.Fatalf("out[%d].location_id=%v want %v", i, got, want)
		}
	}
}

func TestZones_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	in := zoneFixture()
	_ = transform.Zones(in)
	if got := in[0]["LocationID"]; got != "151" {
		t.Fatalf("input mutated: LocationID=%v", got)
	}
	if _, ok := in[0]["location_id"]; ok {
		t.Fatal("input mutated: renamed key written to input record")
	}
}

func TestZones_PreservesUnknownFields(t *testing.T) {
	t.Parallel()

	in := []source.Record{{"LocationID": "1", "Borough": "EWR", "Zone": "Newark Airport", "service_zone": "EWR", "extra_col": "x"}}
	out := transform.Zones(in)
	if got := out[0]["extra_col"]; got != "x" {
		t.Fatalf("extra_col=%v want x", got)
	}
}
