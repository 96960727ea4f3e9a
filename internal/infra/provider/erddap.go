package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"

	"github.com/oceanchat/oceanchat/internal/domain/nlquery"
	"github.com/oceanchat/oceanchat/internal/domain/ocean"
	apperrors "github.com/oceanchat/oceanchat/pkg/errors"
)

const (
	defaultERDDAPBaseURL = "https://coastwatch.pfeg.noaa.gov/erddap"
	defaultERDDAPDataset = "ArgoFloats"
)

// ERDDAPConfig tunes the secondary source.
type ERDDAPConfig struct {
	BaseURL string
	Dataset string
}

// ERDDAPSource queries a tabledap endpoint with bounding-box and time-range
// constraints. It is the secondary external source.
type ERDDAPSource struct {
	cfg     ERDDAPConfig
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
	backoff Backoff
	clock   clockwork.Clock
	logger  *slog.Logger
}

// NewERDDAPSource builds the source with the pack-standard resilience wrapper.
func NewERDDAPSource(cfg ERDDAPConfig, client *http.Client, clock clockwork.Clock, logger *slog.Logger) *ERDDAPSource {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultERDDAPBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Dataset == "" {
		cfg.Dataset = defaultERDDAPDataset
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ERDDAPSource{
		cfg:     cfg,
		client:  client,
		circuit: newCircuit("erddap"),
		backoff: defaultBackoff(),
		clock:   clock,
		logger:  logger.With("component", "provider.erddap"),
	}
}

func (s *ERDDAPSource) Name() string { return "erddap" }

// Fetch runs the tabledap query and normalizes the column-oriented response.
func (s *ERDDAPSource) Fetch(ctx context.Context, q nlquery.StructuredQuery) ([]ocean.Measurement, error) {
	endpoint := s.queryURL(q)

	resp, err := doResilient(ctx, s.client, s.circuit, s.backoff, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeExternalUnavailable, "erddap request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfilePayload))
	if err != nil {
		return nil, fmt.Errorf("read erddap response: %w", err)
	}

	var raw tabledapResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode erddap response: %w", err)
	}

	measurements := s.normalizeRows(raw)
	s.logger.Info("erddap fetch complete", "rows", len(raw.Table.Rows), "accepted", len(measurements))
	return measurements, nil
}

// queryURL builds the tabledap constraint string. ERDDAP constraints carry
// the operator in the key itself, so they are appended raw after encoding
// only the values.
func (s *ERDDAPSource) queryURL(q nlquery.StructuredQuery) string {
	box := q.Spatial.Box
	constraints := []string{
		"latitude>=" + formatFloat(box.MinLat),
		"latitude<=" + formatFloat(box.MaxLat),
		"longitude>=" + formatFloat(box.MinLon),
		"longitude<=" + formatFloat(box.MaxLon),
		"time>=" + url.QueryEscape(q.Temporal.Start.UTC().Format(time.RFC3339)),
		"time<=" + url.QueryEscape(q.Temporal.End.UTC().Format(time.RFC3339)),
	}
	return fmt.Sprintf("%s/tabledap/%s.json?%s", s.cfg.BaseURL, s.cfg.Dataset, strings.Join(constraints, "&"))
}

type tabledapResponse struct {
	Table struct {
		ColumnNames []string        `json:"columnNames"`
		Rows        [][]interface{} `json:"rows"`
	} `json:"table"`
}

// normalizeRows maps column-oriented rows into measurements using
// case-insensitive column aliases. Rows without coordinates, or with both
// temperature and salinity missing, are dropped.
func (s *ERDDAPSource) normalizeRows(raw tabledapResponse) []ocean.Measurement {
	columns := make([]string, len(raw.Table.ColumnNames))
	for i, name := range raw.Table.ColumnNames {
		columns[i] = strings.ToLower(name)
	}

	measurements := make([]ocean.Measurement, 0, len(raw.Table.Rows))
	for i, row := range raw.Table.Rows {
		fields := make(map[string]interface{}, len(columns))
		for col, value := range row {
			if col < len(columns) {
				fields[columns[col]] = value
			}
		}

		lat := safeFloat(firstField(fields, "latitude", "lat"))
		lon := safeFloat(firstField(fields, "longitude", "lon"))
		temp := safeFloat(firstField(fields, "temperature", "temp"))
		sal := safeFloat(firstField(fields, "salinity", "sal", "psal"))
		pres := safeFloat(firstField(fields, "pressure", "pres"))
		if lat == nil || lon == nil {
			continue
		}
		if temp == nil && sal == nil {
			continue
		}

		m := ocean.Measurement{
			Latitude:        *lat,
			Longitude:       *lon,
			Temperature:     temp,
			Salinity:        sal,
			Pressure:        pres,
			MeasurementTime: s.parseTime(firstField(fields, "time")),
			PlatformID:      platformID(fields, i),
			DataSource:      ocean.SourceLiveAPI,
			QualityFlag:     ocean.QualityGood,
		}
		// Argo floats report pressure in decibars, which tracks depth in
		// meters closely enough for display.
		if pres != nil {
			m.Depth = *pres
		}
		if err := m.Validate(); err != nil {
			continue
		}
		measurements = append(measurements, m)
	}
	return measurements
}

func firstField(fields map[string]interface{}, names ...string) interface{} {
	for _, name := range names {
		if v, ok := fields[name]; ok && v != nil {
			return v
		}
	}
	return nil
}

func safeFloat(v interface{}) *float64 {
	switch t := v.(type) {
	case float64:
		return &t
	case string:
		if t == "" {
			return nil
		}
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

func (s *ERDDAPSource) parseTime(v interface{}) time.Time {
	str, ok := v.(string)
	if !ok || str == "" {
		return s.clock.Now().UTC()
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, str); err == nil {
			return ts
		}
	}
	return s.clock.Now().UTC()
}

func platformID(fields map[string]interface{}, rowIdx int) string {
	v := firstField(fields, "platform_number", "wmo")
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("ARGO_%d", rowIdx)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
