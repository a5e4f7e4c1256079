package schema

// Zones returns the definition of the taxi zone lookup table. location_id is
// the natural key the trips table references.
func Zones() TableDef {
	return TableDef{
		Name: "zones",
		Columns: []ColumnDef{
			{Name: "location_id", SQLType: "INTEGER", PrimaryKey: true},
			{Name: "borough", SQLType: "VARCHAR(50)"},
			{Name: "zone_name", SQLType: "VARCHAR(100)"},
			{Name: "service_zone", SQLType: "VARCHAR(50)"},
		},
	}
}

// Trips returns the definition of the trip fact table. trip_id is a
// store-assigned surrogate key and is excluded from LoadColumns; the
// mixed-case vendor columns keep their upstream spelling and rely on quoting.
func Trips() TableDef {
	zoneRef := Ref{Table: "zones", Column: "location_id"}
	return TableDef{
		Name: "trips",
		Columns: []ColumnDef{
			{Name: "trip_id", SQLType: "INTEGER", PrimaryKey: true, AutoIncrement: true},
			{Name: "VendorID", SQLType: "INTEGER"},
			{Name: "tpep_pickup_datetime", SQLType: "TIMESTAMP"},
			{Name: "tpep_dropoff_datetime", SQLType: "TIMESTAMP"},
			{Name: "passenger_count", SQLType: "INTEGER"},
			{Name: "trip_distance", SQLType: "DECIMAL(10,2)"},
			{Name: "RatecodeID", SQLType: "INTEGER"},
			{Name: "store_and_fwd_flag", SQLType: "VARCHAR(1)"},
			{Name: "PULocationID", SQLType: "INTEGER", References: zoneRef},
			{Name: "DOLocationID", SQLType: "INTEGER", References: zoneRef},
			{Name: "payment_type", SQLType: "INTEGER"},
			{Name: "fare_amount", SQLType: "DECIMAL(10,2)"},
			{Name: "extra", SQLType: "DECIMAL(10,2)"},
			{Name: "mta_tax", SQLType: "DECIMAL(10,2)"},
			{Name: "tip_amount", SQLType: "DECIMAL(10,2)"},
			{Name: "tolls_amount", SQLType: "DECIMAL(10,2)"},
			{Name: "improvement_surcharge", SQLType: "DECIMAL(10,2)"},
			{Name: "total_amount", SQLType: "DECIMAL(10,2)"},
			{Name: "congestion_surcharge", SQLType: "DECIMAL(10,2)"},
			{Name: "trip_duration_minutes", SQLType: "INTEGER"},
			{Name: "cost_per_mile", SQLType: "DECIMAL(10,2)"},
			{Name: "pickup_hour", SQLType: "INTEGER"},
			{Name: "pickup_date", SQLType: "DATE"},
		},
	}
}
