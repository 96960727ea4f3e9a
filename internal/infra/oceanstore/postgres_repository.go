package oceanstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oceanchat/oceanchat/internal/domain/ingest"
	"github.com/oceanchat/oceanchat/internal/domain/localdata"
	"github.com/oceanchat/oceanchat/internal/domain/ocean"
)

// PostgresRepository implements localdata.Repository plus the ingestion
// writer interfaces using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Find returns measurements matching the filter conjunction, newest first.
func (r *PostgresRepository) Find(ctx context.Context, filter localdata.Filter) ([]ocean.Measurement, error) {
	var (
		conditions []string
		args       []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	conditions = append(conditions,
		"latitude BETWEEN "+arg(filter.Box.MinLat)+" AND "+arg(filter.Box.MaxLat),
		"longitude BETWEEN "+arg(filter.Box.MinLon)+" AND "+arg(filter.Box.MaxLon),
	)
	if !filter.Start.IsZero() {
		conditions = append(conditions, "measurement_time >= "+arg(filter.Start))
	}
	if !filter.End.IsZero() {
		conditions = append(conditions, "measurement_time <= "+arg(filter.End))
	}
	if filter.MinDepth != nil {
		conditions = append(conditions, "depth >= "+arg(*filter.MinDepth))
	}
	if filter.MaxDepth != nil {
		conditions = append(conditions, "depth <= "+arg(*filter.MaxDepth))
	}
	if filter.RequireTemperature {
		conditions = append(conditions, "temperature IS NOT NULL")
	}
	if filter.RequireSalinity {
		conditions = append(conditions, "salinity IS NOT NULL")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}

	query := fmt.Sprintf(`
		SELECT latitude, longitude, depth, temperature, salinity, pressure,
		       measurement_time, platform_id, quality_flag
		FROM ocean_measurements
		WHERE %s
		ORDER BY measurement_time DESC
		LIMIT %s
	`, strings.Join(conditions, " AND "), arg(limit))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query measurements: %w", err)
	}
	defer rows.Close()

	var measurements []ocean.Measurement
	for rows.Next() {
		m, err := scanMeasurement(rows)
		if err != nil {
			return nil, err
		}
		measurements = append(measurements, m)
	}
	return measurements, rows.Err()
}

// Coverage aggregates the stored extent in one round trip.
func (r *PostgresRepository) Coverage(ctx context.Context) (localdata.CoverageSummary, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       MIN(measurement_time), MAX(measurement_time),
		       MIN(latitude), MAX(latitude),
		       MIN(longitude), MAX(longitude)
		FROM ocean_measurements
	`)

	var (
		summary                        localdata.CoverageSummary
		minLat, maxLat, minLon, maxLon *float64
	)
	if err := row.Scan(
		&summary.TotalMeasurements,
		&summary.TemporalStart, &summary.TemporalEnd,
		&minLat, &maxLat, &minLon, &maxLon,
	); err != nil {
		return localdata.CoverageSummary{}, fmt.Errorf("coverage aggregate: %w", err)
	}
	if minLat != nil && maxLat != nil && minLon != nil && maxLon != nil {
		summary.SpatialBounds = &ocean.BoundingBox{
			MinLat: *minLat, MaxLat: *maxLat,
			MinLon: *minLon, MaxLon: *maxLon,
		}
	}
	return summary, nil
}

// InsertMeasurements batches rows into the store.
func (r *PostgresRepository) InsertMeasurements(ctx context.Context, measurements []ocean.Measurement) (int64, error) {
	batch := &pgx.Batch{}
	for _, m := range measurements {
		batch.Queue(`
			INSERT INTO ocean_measurements
				(latitude, longitude, depth, temperature, salinity, pressure,
				 measurement_time, platform_id, data_source, quality_flag)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, m.Latitude, m.Longitude, m.Depth, m.Temperature, m.Salinity, m.Pressure,
			m.MeasurementTime, m.PlatformID, string(m.DataSource), m.QualityFlag)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	var inserted int64
	for range measurements {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("insert measurement: %w", err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

// RecordFile upserts the ingestion bookkeeping row for a file.
func (r *PostgresRepository) RecordFile(ctx context.Context, record ingest.FileRecord) error {
	var minLat, maxLat, minLon, maxLon *float64
	if record.SpatialBounds != nil {
		minLat, maxLat = &record.SpatialBounds.MinLat, &record.SpatialBounds.MaxLat
		minLon, maxLon = &record.SpatialBounds.MinLon, &record.SpatialBounds.MaxLon
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO ingested_files
			(filename, status, row_count, min_lat, max_lat, min_lon, max_lon,
			 temporal_start, temporal_end, ingested_at, failure_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (filename) DO UPDATE SET
			status = EXCLUDED.status,
			row_count = EXCLUDED.row_count,
			ingested_at = EXCLUDED.ingested_at,
			failure_reason = EXCLUDED.failure_reason
	`, record.Filename, record.Status, record.RowCount,
		minLat, maxLat, minLon, maxLon,
		nullableTime(record.TemporalStart), nullableTime(record.TemporalEnd),
		record.IngestedAt, nullableString(record.FailureReason))
	if err != nil {
		return fmt.Errorf("record file %s: %w", record.Filename, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeasurement(row rowScanner) (ocean.Measurement, error) {
	var m ocean.Measurement
	if err := row.Scan(
		&m.Latitude, &m.Longitude, &m.Depth,
		&m.Temperature, &m.Salinity, &m.Pressure,
		&m.MeasurementTime, &m.PlatformID, &m.QualityFlag,
	); err != nil {
		return ocean.Measurement{}, fmt.Errorf("scan measurement: %w", err)
	}
	m.DataSource = ocean.SourceLocalDatabase
	return m, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var (
	_ localdata.Repository     = (*PostgresRepository)(nil)
	_ ingest.MeasurementWriter = (*PostgresRepository)(nil)
	_ ingest.FileRecorder      = (*PostgresRepository)(nil)
)
