package oceanstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oceanchat/oceanchat/internal/domain/ingest"
	"github.com/oceanchat/oceanchat/internal/domain/localdata"
	"github.com/oceanchat/oceanchat/internal/domain/ocean"
)

var storeTestNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func seedRepo(t *testing.T) *MemoryRepository {
	t.Helper()
	repo := NewMemoryRepository()
	_, err := repo.InsertMeasurements(context.Background(), []ocean.Measurement{
		{Latitude: 10, Longitude: -150, Depth: 50, Temperature: ocean.Float64(27), Salinity: ocean.Float64(35), MeasurementTime: storeTestNow.AddDate(0, 0, -1), PlatformID: "A"},
		{Latitude: 12, Longitude: -148, Depth: 1500, Temperature: ocean.Float64(4), MeasurementTime: storeTestNow.AddDate(0, 0, -10), PlatformID: "B"},
		{Latitude: 50, Longitude: -30, Depth: 20, Salinity: ocean.Float64(34), MeasurementTime: storeTestNow.AddDate(0, 0, -5), PlatformID: "C"},
		{Latitude: 11, Longitude: -149, Depth: 30, Temperature: ocean.Float64(26), MeasurementTime: storeTestNow.AddDate(-2, 0, 0), PlatformID: "D"},
	})
	require.NoError(t, err)
	return repo
}

func TestMemoryFindAppliesFilterConjunction(t *testing.T) {
	repo := seedRepo(t)
	pacific := ocean.BoundingBox{MinLat: -60, MaxLat: 60, MinLon: -180, MaxLon: -100}

	got, err := repo.Find(context.Background(), localdata.Filter{
		Box:   pacific,
		Start: storeTestNow.AddDate(-1, 0, 0),
		End:   storeTestNow,
		Limit: 1000,
	})

	require.NoError(t, err)
	require.Len(t, got, 2) // atlantic row out of box, two-year-old row out of range
	// Newest first.
	require.Equal(t, "A", got[0].PlatformID)
	require.Equal(t, "B", got[1].PlatformID)
	for _, m := range got {
		require.Equal(t, ocean.SourceLocalDatabase, m.DataSource)
	}
}

func TestMemoryFindDepthAndParameterFilters(t *testing.T) {
	repo := seedRepo(t)

	minDepth := 1000.0
	got, err := repo.Find(context.Background(), localdata.Filter{
		Box:      ocean.GlobalBox(),
		MinDepth: &minDepth,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "B", got[0].PlatformID)

	got, err = repo.Find(context.Background(), localdata.Filter{
		Box:             ocean.GlobalBox(),
		RequireSalinity: true,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestMemoryFindHonorsLimit(t *testing.T) {
	repo := seedRepo(t)

	got, err := repo.Find(context.Background(), localdata.Filter{Box: ocean.GlobalBox(), Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestMemoryCoverage(t *testing.T) {
	repo := seedRepo(t)

	summary, err := repo.Coverage(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(4), summary.TotalMeasurements)
	require.Equal(t, storeTestNow.AddDate(-2, 0, 0), *summary.TemporalStart)
	require.Equal(t, storeTestNow.AddDate(0, 0, -1), *summary.TemporalEnd)
	require.NotNil(t, summary.SpatialBounds)
	require.Equal(t, 10.0, summary.SpatialBounds.MinLat)
	require.Equal(t, 50.0, summary.SpatialBounds.MaxLat)
}

func TestMemoryCoverageEmpty(t *testing.T) {
	repo := NewMemoryRepository()

	summary, err := repo.Coverage(context.Background())
	require.NoError(t, err)
	require.Zero(t, summary.TotalMeasurements)
	require.Nil(t, summary.TemporalStart)
	require.Nil(t, summary.SpatialBounds)
}

func TestMemoryRecordFileUpserts(t *testing.T) {
	repo := NewMemoryRepository()

	require.NoError(t, repo.RecordFile(context.Background(), ingest.FileRecord{Filename: "a.nc", Status: ingest.StatusFailed}))
	require.NoError(t, repo.RecordFile(context.Background(), ingest.FileRecord{Filename: "a.nc", Status: ingest.StatusCompleted, RowCount: 9}))

	records := repo.FileRecords()
	require.Len(t, records, 1)
	require.Equal(t, ingest.StatusCompleted, records[0].Status)
	require.Equal(t, 9, records[0].RowCount)
}
