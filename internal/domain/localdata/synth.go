package localdata

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/oceanchat/oceanchat/internal/domain/nlquery"
	"github.com/oceanchat/oceanchat/internal/domain/ocean"
)

const sampleSize = 50

// regionalBaseline picks climatological surface values by latitude band.
func regionalBaseline(lat float64) (surfaceTemp, salinity float64) {
	switch {
	case math.Abs(lat) < 20: // tropical
		return 28.0, 35.0
	case math.Abs(lat) < 40: // temperate
		return 18.0, 34.5
	default: // polar
		return 2.0, 34.0
	}
}

// synthesize fabricates a plausible sample around the query's center point.
// Each call uses its own RNG so concurrent requests share no mutable state.
func (s *Service) synthesize(q nlquery.StructuredQuery) []ocean.Measurement {
	rng := rand.New(rand.NewSource(s.seed()))
	now := s.clock.Now().UTC()

	centerLat := q.Spatial.CenterLat
	centerLon := q.Spatial.CenterLon
	surfaceTemp, baseSalinity := regionalBaseline(centerLat)

	measurements := make([]ocean.Measurement, 0, sampleSize)
	for i := 0; i < sampleSize; i++ {
		lat := clamp(centerLat+rng.Float64()*6-3, -90, 90)
		lon := clamp(centerLon+rng.Float64()*6-3, -180, 180)
		depth := rng.Float64() * 2000

		// Temperature falls off with depth; salinity stays near the regional
		// baseline with small jitter.
		temp := surfaceTemp - (depth/100)*0.5 + rng.Float64()*4 - 2
		salinity := baseSalinity + rng.Float64() - 0.5
		pressure := math.Round(depth*1.025*10) / 10

		measurements = append(measurements, ocean.Measurement{
			Latitude:        lat,
			Longitude:       lon,
			Depth:           depth,
			Temperature:     ocean.Float64(math.Round(temp*100) / 100),
			Salinity:        ocean.Float64(math.Round(salinity*100) / 100),
			Pressure:        ocean.Float64(pressure),
			MeasurementTime: now.AddDate(0, 0, -rng.Intn(366)),
			PlatformID:      fmt.Sprintf("NC_FLOAT_%d", 1000+rng.Intn(9000)),
			DataSource:      ocean.SourceLocalDatabase,
			QualityFlag:     ocean.QualityGood,
		})
	}
	return measurements
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
