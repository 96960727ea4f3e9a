package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/oceanchat/oceanchat/internal/domain/ocean"
	"github.com/oceanchat/oceanchat/internal/observability"
	apperrors "github.com/oceanchat/oceanchat/pkg/errors"
)

// Ingestion status of one processed file.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ProfileSource discovers, downloads, and decodes upstream profile files.
type ProfileSource interface {
	LatestFiles(ctx context.Context) (files []ocean.ProfileFile, fromFallback bool)
	Download(ctx context.Context, file ocean.ProfileFile) ([]byte, error)
	Decode(payload []byte, file ocean.ProfileFile) ([]ocean.Measurement, error)
}

// Archive stores raw file payloads before decoding, so a decoder bug never
// loses upstream data.
type Archive interface {
	Store(ctx context.Context, name string, payload []byte) error
}

// MeasurementWriter persists decoded rows.
type MeasurementWriter interface {
	InsertMeasurements(ctx context.Context, measurements []ocean.Measurement) (int64, error)
}

// FileRecord is the per-file ingestion bookkeeping row.
type FileRecord struct {
	Filename      string
	Status        string
	RowCount      int
	SpatialBounds *ocean.BoundingBox
	TemporalStart time.Time
	TemporalEnd   time.Time
	IngestedAt    time.Time
	FailureReason string
}

// FileRecorder persists FileRecords.
type FileRecorder interface {
	RecordFile(ctx context.Context, record FileRecord) error
}

// Report summarizes one ingestion run.
type Report struct {
	FilesProcessed int
	FilesFailed    int
	RowsInserted   int64
	FromFallback   bool
}

// Service pulls the newest upstream files into the local store.
type Service struct {
	source   ProfileSource
	archive  Archive
	writer   MeasurementWriter
	recorder FileRecorder
	metrics  *observability.Metrics
	logger   *slog.Logger
	clock    clockwork.Clock
}

// NewService wires the ingestion pipeline.
func NewService(source ProfileSource, archive Archive, writer MeasurementWriter, recorder FileRecorder, metrics *observability.Metrics, logger *slog.Logger, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		source:   source,
		archive:  archive,
		writer:   writer,
		recorder: recorder,
		metrics:  metrics,
		logger:   logger.With("component", "ingest.service"),
		clock:    clock,
	}
}

// Run processes one batch of the newest files. A failing file is recorded and
// skipped; only the discovery step failing entirely aborts the run.
func (s *Service) Run(ctx context.Context) (Report, error) {
	files, fromFallback := s.source.LatestFiles(ctx)
	if len(files) == 0 {
		return Report{}, fmt.Errorf("ingest: no upstream files discovered")
	}

	report := Report{FromFallback: fromFallback}
	for _, file := range files {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		inserted, err := s.processFile(ctx, file)
		if err != nil {
			report.FilesFailed++
			s.metrics.IngestFilesTotal.WithLabelValues(StatusFailed).Inc()
			s.logger.Warn("file ingestion failed", "file", file.Name, "error", err)
			s.record(ctx, FileRecord{
				Filename:      file.Name,
				Status:        StatusFailed,
				IngestedAt:    s.clock.Now().UTC(),
				FailureReason: err.Error(),
			})
			continue
		}
		report.FilesProcessed++
		report.RowsInserted += inserted
		s.metrics.IngestFilesTotal.WithLabelValues(StatusCompleted).Inc()
		s.metrics.IngestRowsInserted.Add(float64(inserted))
	}

	s.logger.Info("ingestion run complete",
		"processed", report.FilesProcessed,
		"failed", report.FilesFailed,
		"rows", report.RowsInserted,
		"fallback_names", report.FromFallback)
	return report, nil
}

func (s *Service) processFile(ctx context.Context, file ocean.ProfileFile) (int64, error) {
	payload, err := s.source.Download(ctx, file)
	if err != nil {
		return 0, fmt.Errorf("download: %w", err)
	}

	// Archival is best-effort; a missing archive must not block ingestion.
	if s.archive != nil {
		if err := s.archive.Store(ctx, file.Name, payload); err != nil {
			s.logger.Warn("raw payload archive failed", "file", file.Name, "error", err)
		}
	}

	rows, err := s.source.Decode(payload, file)
	if err != nil {
		return 0, fmt.Errorf("decode: %w", err)
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("decode: no rows")
	}

	inserted, err := s.writer.InsertMeasurements(ctx, rows)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeStorageUnavailable, "insert measurements", err)
	}

	record := FileRecord{
		Filename:   file.Name,
		Status:     StatusCompleted,
		RowCount:   len(rows),
		IngestedAt: s.clock.Now().UTC(),
	}
	if box, ok := ocean.BoundsOf(rows); ok {
		record.SpatialBounds = &box
	}
	record.TemporalStart, record.TemporalEnd = timeSpan(rows)
	s.record(ctx, record)

	return inserted, nil
}

func (s *Service) record(ctx context.Context, record FileRecord) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordFile(ctx, record); err != nil {
		s.logger.Warn("file record write failed", "file", record.Filename, "error", err)
	}
}

func timeSpan(rows []ocean.Measurement) (start, end time.Time) {
	for _, m := range rows {
		if m.MeasurementTime.IsZero() {
			continue
		}
		if start.IsZero() || m.MeasurementTime.Before(start) {
			start = m.MeasurementTime
		}
		if end.IsZero() || m.MeasurementTime.After(end) {
			end = m.MeasurementTime
		}
	}
	return start, end
}
