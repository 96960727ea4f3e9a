package oceanstore

import (
	"github.com/oceanchat/oceanchat/internal/domain/ingest"
	"github.com/oceanchat/oceanchat/internal/domain/localdata"
)

// Store bundles the read and write sides of the measurement store, so the
// injector can hand one backend to both the query path and ingestion.
type Store interface {
	localdata.Repository
	ingest.MeasurementWriter
	ingest.FileRecorder
}

var (
	_ Store = (*PostgresRepository)(nil)
	_ Store = (*MemoryRepository)(nil)
)
