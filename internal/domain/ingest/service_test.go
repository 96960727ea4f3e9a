package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/oceanchat/oceanchat/internal/domain/ocean"
	"github.com/oceanchat/oceanchat/internal/observability"
)

var ingestTestNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type stubSource struct {
	files        []ocean.ProfileFile
	fromFallback bool
	payloads     map[string][]byte
	downloadErr  map[string]error
	rows         map[string][]ocean.Measurement
	decodeErr    map[string]error
}

func (s *stubSource) LatestFiles(context.Context) ([]ocean.ProfileFile, bool) {
	return s.files, s.fromFallback
}

func (s *stubSource) Download(_ context.Context, f ocean.ProfileFile) ([]byte, error) {
	if err := s.downloadErr[f.Name]; err != nil {
		return nil, err
	}
	return s.payloads[f.Name], nil
}

func (s *stubSource) Decode(_ []byte, f ocean.ProfileFile) ([]ocean.Measurement, error) {
	if err := s.decodeErr[f.Name]; err != nil {
		return nil, err
	}
	return s.rows[f.Name], nil
}

type stubArchive struct {
	stored map[string][]byte
	err    error
}

func (a *stubArchive) Store(_ context.Context, name string, payload []byte) error {
	if a.err != nil {
		return a.err
	}
	if a.stored == nil {
		a.stored = make(map[string][]byte)
	}
	a.stored[name] = payload
	return nil
}

type stubWriter struct {
	inserted [][]ocean.Measurement
	err      error
}

func (w *stubWriter) InsertMeasurements(_ context.Context, rows []ocean.Measurement) (int64, error) {
	if w.err != nil {
		return 0, w.err
	}
	w.inserted = append(w.inserted, rows)
	return int64(len(rows)), nil
}

type stubRecorder struct {
	records []FileRecord
}

func (r *stubRecorder) RecordFile(_ context.Context, record FileRecord) error {
	r.records = append(r.records, record)
	return nil
}

func file(name string) ocean.ProfileFile {
	return ocean.ProfileFile{Name: name, Date: ingestTestNow.Truncate(24 * time.Hour), URL: "https://argo.test/" + name}
}

func rows(n int) []ocean.Measurement {
	out := make([]ocean.Measurement, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, ocean.Measurement{
			Latitude:        float64(i),
			Longitude:       float64(i * 2),
			Temperature:     ocean.Float64(20),
			MeasurementTime: ingestTestNow.Add(-time.Duration(i) * time.Hour),
			DataSource:      ocean.SourceLiveAPI,
			QualityFlag:     ocean.QualityGood,
		})
	}
	return out
}

func testIngest(source ProfileSource, archive Archive, writer MeasurementWriter, recorder FileRecorder) *Service {
	return NewService(source, archive, writer, recorder,
		observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		clockwork.NewFakeClockAt(ingestTestNow))
}

func TestRunIngestsAllFiles(t *testing.T) {
	source := &stubSource{
		files: []ocean.ProfileFile{file("R20250310_prof_0.nc"), file("R20250310_prof_1.nc")},
		payloads: map[string][]byte{
			"R20250310_prof_0.nc": []byte("a"),
			"R20250310_prof_1.nc": []byte("b"),
		},
		rows: map[string][]ocean.Measurement{
			"R20250310_prof_0.nc": rows(5),
			"R20250310_prof_1.nc": rows(3),
		},
	}
	archive := &stubArchive{}
	writer := &stubWriter{}
	recorder := &stubRecorder{}

	report, err := testIngest(source, archive, writer, recorder).Run(context.Background())

	require.NoError(t, err)
	require.Equal(t, 2, report.FilesProcessed)
	require.Zero(t, report.FilesFailed)
	require.Equal(t, int64(8), report.RowsInserted)
	require.Len(t, archive.stored, 2)
	require.Len(t, writer.inserted, 2)

	require.Len(t, recorder.records, 2)
	first := recorder.records[0]
	require.Equal(t, StatusCompleted, first.Status)
	require.Equal(t, 5, first.RowCount)
	require.NotNil(t, first.SpatialBounds)
	require.Equal(t, ingestTestNow.Add(-4*time.Hour), first.TemporalStart)
	require.Equal(t, ingestTestNow, first.TemporalEnd)
}

func TestRunRecordsFailedFileAndContinues(t *testing.T) {
	source := &stubSource{
		files: []ocean.ProfileFile{file("bad.nc"), file("good.nc")},
		payloads: map[string][]byte{
			"bad.nc":  []byte("x"),
			"good.nc": []byte("y"),
		},
		decodeErr: map[string]error{"bad.nc": errors.New("corrupt header")},
		rows:      map[string][]ocean.Measurement{"good.nc": rows(2)},
	}
	writer := &stubWriter{}
	recorder := &stubRecorder{}

	report, err := testIngest(source, nil, writer, recorder).Run(context.Background())

	require.NoError(t, err)
	require.Equal(t, 1, report.FilesProcessed)
	require.Equal(t, 1, report.FilesFailed)
	require.Equal(t, int64(2), report.RowsInserted)

	require.Len(t, recorder.records, 2)
	require.Equal(t, StatusFailed, recorder.records[0].Status)
	require.Contains(t, recorder.records[0].FailureReason, "corrupt header")
	require.Equal(t, StatusCompleted, recorder.records[1].Status)
}

func TestRunArchiveFailureDoesNotBlockIngestion(t *testing.T) {
	source := &stubSource{
		files:    []ocean.ProfileFile{file("a.nc")},
		payloads: map[string][]byte{"a.nc": []byte("x")},
		rows:     map[string][]ocean.Measurement{"a.nc": rows(1)},
	}
	writer := &stubWriter{}

	report, err := testIngest(source, &stubArchive{err: errors.New("bucket gone")}, writer, nil).Run(context.Background())

	require.NoError(t, err)
	require.Equal(t, 1, report.FilesProcessed)
	require.Len(t, writer.inserted, 1)
}

func TestRunDownloadFailureMarksFile(t *testing.T) {
	source := &stubSource{
		files:       []ocean.ProfileFile{file("a.nc")},
		downloadErr: map[string]error{"a.nc": errors.New("404")},
	}
	recorder := &stubRecorder{}

	report, err := testIngest(source, nil, &stubWriter{}, recorder).Run(context.Background())

	require.NoError(t, err)
	require.Equal(t, 1, report.FilesFailed)
	require.Equal(t, StatusFailed, recorder.records[0].Status)
}

func TestRunErrorsWhenNoFilesDiscovered(t *testing.T) {
	_, err := testIngest(&stubSource{}, nil, &stubWriter{}, nil).Run(context.Background())
	require.Error(t, err)
}
