package ocean

import (
	"fmt"
	"time"
)

// DataSource tags where a measurement (or a whole response) came from.
type DataSource string

const (
	// SourceLiveAPI marks data fetched from an upstream provider.
	SourceLiveAPI DataSource = "live_api"
	// SourceLocalDatabase marks data served from the local store,
	// including synthetic fill-in rows.
	SourceLocalDatabase DataSource = "local_database"
)

// Quality flag codes carried over from upstream conventions.
const (
	QualityGood         = 1
	QualityQuestionable = 2
	QualityBad          = 3
)

// Measurement is one oceanographic sample at a point in space, time, and depth.
type Measurement struct {
	Latitude        float64    `json:"latitude"`
	Longitude       float64    `json:"longitude"`
	Depth           float64    `json:"depth"`
	Temperature     *float64   `json:"temperature"` // °C
	Salinity        *float64   `json:"salinity"`    // PSU
	Pressure        *float64   `json:"pressure"`    // decibars
	MeasurementTime time.Time  `json:"measurement_time"`
	PlatformID      string     `json:"platform_id"`
	DataSource      DataSource `json:"data_source"`
	QualityFlag     int        `json:"quality_flag"`
}

// Validate checks the coordinate invariants. Both poles and the antimeridian
// are inclusive.
func (m Measurement) Validate() error {
	if m.Latitude < -90 || m.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90,90]", m.Latitude)
	}
	if m.Longitude < -180 || m.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range [-180,180]", m.Longitude)
	}
	return nil
}

// HasObservation reports whether the record carries at least one of the two
// observed quantities required of externally sourced data.
func (m Measurement) HasObservation() bool {
	return m.Temperature != nil || m.Salinity != nil
}

// BoundingBox is a rectangular region in degrees.
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// GlobalBox covers the whole ocean.
func GlobalBox() BoundingBox {
	return BoundingBox{MinLat: -90, MaxLat: 90, MinLon: -180, MaxLon: 180}
}

// Contains reports whether the point lies inside the box, edges included.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// BoundsOf computes the min/max latitude and longitude over the given
// measurements. The second return is false when the slice is empty.
func BoundsOf(measurements []Measurement) (BoundingBox, bool) {
	if len(measurements) == 0 {
		return BoundingBox{}, false
	}
	box := BoundingBox{
		MinLat: measurements[0].Latitude,
		MaxLat: measurements[0].Latitude,
		MinLon: measurements[0].Longitude,
		MaxLon: measurements[0].Longitude,
	}
	for _, m := range measurements[1:] {
		if m.Latitude < box.MinLat {
			box.MinLat = m.Latitude
		}
		if m.Latitude > box.MaxLat {
			box.MaxLat = m.Latitude
		}
		if m.Longitude < box.MinLon {
			box.MinLon = m.Longitude
		}
		if m.Longitude > box.MaxLon {
			box.MaxLon = m.Longitude
		}
	}
	return box, true
}

// Float64 returns a pointer to v, for the optional measurement fields.
func Float64(v float64) *float64 {
	return &v
}
