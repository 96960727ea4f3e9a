package provider

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/oceanchat/oceanchat/internal/domain/ocean"
)

// ProfileDecoder turns a raw profile file payload into measurements. Real
// NetCDF decoding sits behind this seam; tests plug in their own decoders.
type ProfileDecoder interface {
	Decode(payload []byte, file ocean.ProfileFile) ([]ocean.Measurement, error)
}

// DemoDecoder produces plausible profile rows from any non-empty payload.
// It stands in until a real NetCDF decoder lands behind ProfileDecoder.
type DemoDecoder struct {
	clock clockwork.Clock
	seed  func() int64
}

// NewDemoDecoder builds a decoder; a nil clock means wall time.
func NewDemoDecoder(clock clockwork.Clock) *DemoDecoder {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	d := &DemoDecoder{clock: clock}
	d.seed = func() int64 { return d.clock.Now().UnixNano() }
	return d
}

// Decode fabricates 10-50 recent rows. Empty payloads are a decode error so
// the caller can fall through to the next source.
func (d *DemoDecoder) Decode(payload []byte, file ocean.ProfileFile) ([]ocean.Measurement, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("decode %s: empty payload", file.Name)
	}

	rng := rand.New(rand.NewSource(d.seed()))
	now := d.clock.Now().UTC()

	count := 10 + rng.Intn(41)
	measurements := make([]ocean.Measurement, 0, count)
	for i := 0; i < count; i++ {
		depth := rng.Float64() * 2000
		measurements = append(measurements, ocean.Measurement{
			Latitude:        rng.Float64()*120 - 60,
			Longitude:       rng.Float64()*360 - 180,
			Depth:           depth,
			Temperature:     ocean.Float64(math.Round((rng.Float64()*32-2)*100) / 100),
			Salinity:        ocean.Float64(math.Round((30+rng.Float64()*7)*100) / 100),
			Pressure:        ocean.Float64(math.Round(depth*1.025*10) / 10),
			MeasurementTime: now.Add(-time.Duration(1+rng.Intn(24)) * time.Hour),
			PlatformID:      fmt.Sprintf("ARGO_%d", 1000+rng.Intn(9000)),
			DataSource:      ocean.SourceLiveAPI,
			QualityFlag:     ocean.QualityGood,
		})
	}
	return measurements, nil
}
