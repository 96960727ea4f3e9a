package localdata

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/oceanchat/oceanchat/internal/domain/nlquery"
	"github.com/oceanchat/oceanchat/internal/domain/ocean"
)

type stubRepo struct {
	rows       []ocean.Measurement
	err        error
	coverage   CoverageSummary
	covErr     error
	lastFilter Filter
}

func (s *stubRepo) Find(_ context.Context, filter Filter) ([]ocean.Measurement, error) {
	s.lastFilter = filter
	return s.rows, s.err
}

func (s *stubRepo) Coverage(_ context.Context) (CoverageSummary, error) {
	return s.coverage, s.covErr
}

func testService(repo Repository) *Service {
	svc := NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)), clockwork.NewFakeClockAt(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)))
	svc.seed = func() int64 { return 42 }
	return svc
}

func parsedQuery(t *testing.T, text string) nlquery.StructuredQuery {
	t.Helper()
	parser := nlquery.NewParser(clockwork.NewFakeClockAt(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)))
	return parser.Parse(text)
}

func TestQueryPassesFilterThrough(t *testing.T) {
	repo := &stubRepo{rows: []ocean.Measurement{{Latitude: 1, Longitude: 2, DataSource: ocean.SourceLocalDatabase}}}
	svc := testService(repo)

	q := parsedQuery(t, "deep salinity in the pacific during 2022")
	got := svc.Query(context.Background(), q)

	require.Len(t, got, 1)
	require.Equal(t, q.Spatial.Box, repo.lastFilter.Box)
	require.Equal(t, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), repo.lastFilter.Start)
	require.Equal(t, time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC), repo.lastFilter.End)
	require.NotNil(t, repo.lastFilter.MinDepth)
	require.Equal(t, 1000.0, *repo.lastFilter.MinDepth)
	require.NotNil(t, repo.lastFilter.MaxDepth)
	require.Equal(t, 5000.0, *repo.lastFilter.MaxDepth)
	require.True(t, repo.lastFilter.RequireSalinity)
	require.Equal(t, 1000, repo.lastFilter.Limit)
}

func TestQuerySynthesizesOnEmptyStore(t *testing.T) {
	svc := testService(&stubRepo{})

	got := svc.Query(context.Background(), parsedQuery(t, "temperature in the pacific"))

	require.Len(t, got, 50)
	for _, m := range got {
		require.NoError(t, m.Validate())
		require.Equal(t, ocean.SourceLocalDatabase, m.DataSource)
		require.True(t, m.HasObservation())
		require.NotNil(t, m.Pressure)
		require.InDelta(t, m.Depth*1.025, *m.Pressure, 0.06)
	}
}

func TestQuerySynthesizesOnStorageError(t *testing.T) {
	svc := testService(&stubRepo{err: errors.New("connection refused")})

	got := svc.Query(context.Background(), parsedQuery(t, "salinity"))

	require.Len(t, got, 50)
	for _, m := range got {
		require.Equal(t, ocean.SourceLocalDatabase, m.DataSource)
	}
}

func TestSynthesizeRegionalBaselines(t *testing.T) {
	svc := testService(&stubRepo{})

	cases := []struct {
		text         string
		wantTempNear float64
		wantSalNear  float64
	}{
		{"temperature in the pacific", 28.0, 35.0},  // tropical center lat 0
		{"temperature in the atlantic", 18.0, 34.5}, // temperate center lat 20
		{"temperature in the arctic", 2.0, 34.0},    // polar center lat 80
	}
	for _, tc := range cases {
		got := svc.Query(context.Background(), parsedQuery(t, tc.text))
		require.Len(t, got, 50, "text=%q", tc.text)

		// Shallow rows should sit near the regional surface baseline.
		for _, m := range got {
			if m.Depth > 100 {
				continue
			}
			require.InDelta(t, tc.wantTempNear, *m.Temperature, 3.0, "text=%q", tc.text)
			require.InDelta(t, tc.wantSalNear, *m.Salinity, 0.6, "text=%q", tc.text)
		}
	}
}

func TestSynthesizeTimestampsWithinTrailingYear(t *testing.T) {
	svc := testService(&stubRepo{})
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	got := svc.Query(context.Background(), parsedQuery(t, "temperature"))
	for _, m := range got {
		age := now.Sub(m.MeasurementTime)
		require.GreaterOrEqual(t, age, time.Duration(0))
		require.LessOrEqual(t, age.Hours(), 366*24.0)
	}
}

func TestSynthesizeDeterministicWithFixedSeed(t *testing.T) {
	svc := testService(&stubRepo{})

	q := parsedQuery(t, "temperature in the indian ocean")
	first := svc.Query(context.Background(), q)
	second := svc.Query(context.Background(), q)

	require.Equal(t, first, second)
}

func TestCoverage(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := &stubRepo{coverage: CoverageSummary{
		TotalMeasurements: 123,
		TemporalStart:     &start,
		TemporalEnd:       &end,
		SpatialBounds:     &ocean.BoundingBox{MinLat: -10, MaxLat: 10, MinLon: -20, MaxLon: 20},
	}}
	svc := testService(repo)

	got := svc.Coverage(context.Background())
	require.Equal(t, int64(123), got.TotalMeasurements)
	require.Equal(t, &start, got.TemporalStart)

	repo.covErr = errors.New("down")
	got = svc.Coverage(context.Background())
	require.Equal(t, CoverageSummary{}, got)
}

func TestRegionalBaseline(t *testing.T) {
	temp, sal := regionalBaseline(0)
	require.Equal(t, 28.0, temp)
	require.Equal(t, 35.0, sal)

	temp, sal = regionalBaseline(-35)
	require.Equal(t, 18.0, temp)
	require.Equal(t, 34.5, sal)

	temp, sal = regionalBaseline(60)
	require.Equal(t, 2.0, temp)
	require.Equal(t, 34.0, sal)
}
