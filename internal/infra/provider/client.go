package provider

import (
	"context"
	"log/slog"
	"time"

	"github.com/oceanchat/oceanchat/internal/domain/nlquery"
	"github.com/oceanchat/oceanchat/internal/domain/ocean"
)

// Source is one upstream candidate. Errors never reach the router; the client
// falls through to the next candidate.
type Source interface {
	Name() string
	Fetch(ctx context.Context, q nlquery.StructuredQuery) ([]ocean.Measurement, error)
}

// Freshness classification of the primary source.
const (
	StatusActive           = "active"
	StatusDelayed          = "delayed"
	StatusSignificantDelay = "significant_delay"
	StatusUnavailable      = "unavailable"
)

// LiveStatus reports how fresh the upstream data is.
type LiveStatus struct {
	Available  bool      `json:"live_data_available"`
	Status     string    `json:"status"`
	LatestFile string    `json:"latest_file,omitempty"`
	LatestDate time.Time `json:"latest_date,omitzero"`
	HoursOld   float64   `json:"hours_old,omitempty"`
	TotalFiles int       `json:"total_files,omitempty"`
	Files      []string  `json:"file_list_sample,omitempty"`
	Fallback   bool      `json:"fallback_active,omitempty"`
}

// StatusReporter is implemented by sources that can classify freshness.
type StatusReporter interface {
	LiveStatus(ctx context.Context) LiveStatus
}

// Client tries each source in order and folds their errors into a single
// FetchResult. It satisfies the router's external source contract.
type Client struct {
	sources []Source
	status  StatusReporter
	logger  *slog.Logger
}

// NewClient wires the candidate sources in priority order.
func NewClient(sources []Source, status StatusReporter, logger *slog.Logger) *Client {
	return &Client{
		sources: sources,
		status:  status,
		logger:  logger.With("component", "provider.client"),
	}
}

// Fetch walks the candidates. The first one to return rows wins. A candidate
// error or empty result falls through to the next; it never surfaces to the
// caller as an error.
func (c *Client) Fetch(ctx context.Context, q nlquery.StructuredQuery) ocean.FetchResult {
	anyResponded := false
	for _, source := range c.sources {
		if ctx.Err() != nil {
			return ocean.FetchFailed(ctx.Err().Error())
		}

		rows, err := source.Fetch(ctx, q)
		if err != nil {
			c.logger.Warn("source failed, falling through", "source", source.Name(), "error", err)
			continue
		}
		anyResponded = true
		if len(rows) == 0 {
			c.logger.Info("source returned no rows, falling through", "source", source.Name())
			continue
		}
		c.logger.Info("data retrieved", "source", source.Name(), "rows", len(rows))
		return ocean.Fetched(rows)
	}

	if anyResponded {
		return ocean.NoData()
	}
	return ocean.FetchFailed("all external sources unavailable")
}

// LiveStatus reports freshness of the primary source.
func (c *Client) LiveStatus(ctx context.Context) LiveStatus {
	if c.status == nil {
		return LiveStatus{Status: StatusUnavailable}
	}
	return c.status.LiveStatus(ctx)
}
