package oceanstore

import (
	"context"
	"sort"
	"sync"

	"github.com/oceanchat/oceanchat/internal/domain/ingest"
	"github.com/oceanchat/oceanchat/internal/domain/localdata"
	"github.com/oceanchat/oceanchat/internal/domain/ocean"
)

// MemoryRepository is an in-memory store used for tests/dev.
type MemoryRepository struct {
	mu           sync.RWMutex
	measurements []ocean.Measurement
	files        map[string]ingest.FileRecord
}

// NewMemoryRepository constructs a repo backed by memory.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{files: make(map[string]ingest.FileRecord)}
}

// Find implements localdata.Repository.
func (r *MemoryRepository) Find(_ context.Context, filter localdata.Filter) ([]ocean.Measurement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []ocean.Measurement
	for _, m := range r.measurements {
		if !filter.Box.Contains(m.Latitude, m.Longitude) {
			continue
		}
		if !filter.Start.IsZero() && m.MeasurementTime.Before(filter.Start) {
			continue
		}
		if !filter.End.IsZero() && m.MeasurementTime.After(filter.End) {
			continue
		}
		if filter.MinDepth != nil && m.Depth < *filter.MinDepth {
			continue
		}
		if filter.MaxDepth != nil && m.Depth > *filter.MaxDepth {
			continue
		}
		if filter.RequireTemperature && m.Temperature == nil {
			continue
		}
		if filter.RequireSalinity && m.Salinity == nil {
			continue
		}
		row := m
		row.DataSource = ocean.SourceLocalDatabase
		matched = append(matched, row)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].MeasurementTime.After(matched[j].MeasurementTime)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Coverage implements localdata.Repository.
func (r *MemoryRepository) Coverage(_ context.Context) (localdata.CoverageSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summary := localdata.CoverageSummary{TotalMeasurements: int64(len(r.measurements))}
	if len(r.measurements) == 0 {
		return summary, nil
	}

	start, end := r.measurements[0].MeasurementTime, r.measurements[0].MeasurementTime
	for _, m := range r.measurements[1:] {
		if m.MeasurementTime.Before(start) {
			start = m.MeasurementTime
		}
		if m.MeasurementTime.After(end) {
			end = m.MeasurementTime
		}
	}
	summary.TemporalStart, summary.TemporalEnd = &start, &end

	if box, ok := ocean.BoundsOf(r.measurements); ok {
		summary.SpatialBounds = &box
	}
	return summary, nil
}

// InsertMeasurements implements ingest.MeasurementWriter.
func (r *MemoryRepository) InsertMeasurements(_ context.Context, measurements []ocean.Measurement) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.measurements = append(r.measurements, measurements...)
	return int64(len(measurements)), nil
}

// RecordFile implements ingest.FileRecorder.
func (r *MemoryRepository) RecordFile(_ context.Context, record ingest.FileRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[record.Filename] = record
	return nil
}

// FileRecords returns the recorded files, for tests.
func (r *MemoryRepository) FileRecords() []ingest.FileRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	records := make([]ingest.FileRecord, 0, len(r.files))
	for _, record := range r.files {
		records = append(records, record)
	}
	return records
}

var (
	_ localdata.Repository     = (*MemoryRepository)(nil)
	_ ingest.MeasurementWriter = (*MemoryRepository)(nil)
	_ ingest.FileRecorder      = (*MemoryRepository)(nil)
)
