package provider

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"

	"github.com/oceanchat/oceanchat/internal/domain/nlquery"
	"github.com/oceanchat/oceanchat/internal/domain/ocean"
	apperrors "github.com/oceanchat/oceanchat/pkg/errors"
)

const (
	defaultArgoBaseURL         = "https://data-argo.ifremer.fr"
	defaultArgoMaxFiles        = 3
	defaultArgoDownloadTimeout = 30 * time.Second

	maxProfilePayload = 32 << 20 // 32 MiB per file
)

// Profile filenames look like R20250921_prof_0.nc; the 8 digits after the R
// are the publication date.
var profileFilePattern = regexp.MustCompile(`R(\d{8})_prof_\d+\.nc`)

// ArgoConfig tunes the primary source.
type ArgoConfig struct {
	BaseURL         string
	MaxFiles        int
	DownloadTimeout time.Duration
}

// ArgoSource discovers and downloads the newest profile files from the Argo
// real-time mirror. It is the primary external source.
type ArgoSource struct {
	cfg     ArgoConfig
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
	backoff Backoff
	decoder ProfileDecoder
	clock   clockwork.Clock
	logger  *slog.Logger
}

// NewArgoSource builds the source. Nil client, decoder, and clock fall back
// to sane defaults.
func NewArgoSource(cfg ArgoConfig, client *http.Client, decoder ProfileDecoder, clock clockwork.Clock, logger *slog.Logger) *ArgoSource {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultArgoBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = defaultArgoMaxFiles
	}
	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = defaultArgoDownloadTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.DownloadTimeout}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if decoder == nil {
		decoder = NewDemoDecoder(clock)
	}
	return &ArgoSource{
		cfg:     cfg,
		client:  client,
		circuit: newCircuit("argo"),
		backoff: defaultBackoff(),
		decoder: decoder,
		clock:   clock,
		logger:  logger.With("component", "provider.argo"),
	}
}

func (s *ArgoSource) Name() string { return "argo" }

// Fetch downloads and decodes the newest profile files, then filters the rows
// against the query's spatial box and depth range.
func (s *ArgoSource) Fetch(ctx context.Context, q nlquery.StructuredQuery) ([]ocean.Measurement, error) {
	files, fromFallback := s.LatestFiles(ctx)
	if len(files) == 0 {
		return nil, apperrors.Wrap(apperrors.CodeExternalUnavailable, "argo: no profile files discovered", nil)
	}
	if fromFallback {
		s.logger.Warn("argo discovery failed, trying fallback file names")
	}

	var measurements []ocean.Measurement
	for _, file := range files {
		payload, err := s.Download(ctx, file)
		if err != nil {
			s.logger.Warn("profile download failed", "file", file.Name, "error", err)
			continue
		}
		rows, err := s.decoder.Decode(payload, file)
		if err != nil {
			s.logger.Warn("profile decode failed", "file", file.Name, "error", err)
			continue
		}
		measurements = append(measurements, rows...)
	}
	if len(measurements) == 0 {
		return nil, apperrors.Wrap(apperrors.CodeExternalUnavailable, fmt.Sprintf("argo: no measurements decoded from %d files", len(files)), nil)
	}

	filtered := filterByQuery(measurements, q)
	s.logger.Info("argo fetch complete", "files", len(files), "rows", len(measurements), "after_filter", len(filtered))
	return filtered, nil
}

// LatestFiles discovers the newest profile files, newest first, capped at
// MaxFiles. On discovery failure it substitutes file names dated today so the
// download step and staleness math still have something to work on; the
// second return reports that substitution.
func (s *ArgoSource) LatestFiles(ctx context.Context) ([]ocean.ProfileFile, bool) {
	listURL := s.cfg.BaseURL + "/latest_data/"

	resp, err := doResilient(ctx, s.client, s.circuit, s.backoff, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, listURL, nil)
	})
	if err != nil {
		s.logger.Warn("argo directory listing failed", "url", listURL, "error", err)
		return s.fallbackFiles(), true
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfilePayload))
	if err != nil {
		return s.fallbackFiles(), true
	}

	files := extractProfileFiles(string(body), listURL)
	if len(files) == 0 {
		s.logger.Warn("no profile files in directory listing", "url", listURL)
		return s.fallbackFiles(), true
	}
	if len(files) > s.cfg.MaxFiles {
		files = files[:s.cfg.MaxFiles]
	}
	return files, false
}

// Download fetches one profile file under its own timeout, independent of the
// caller's remaining budget.
func (s *ArgoSource) Download(ctx context.Context, file ocean.ProfileFile) ([]byte, error) {
	dlCtx, cancel := context.WithTimeout(ctx, s.cfg.DownloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(dlCtx, http.MethodGet, file.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	req.Header.Set("User-Agent", "OceanChat/1.0 (Ocean Data Analysis)")
	req.Header.Set("Accept", "application/octet-stream")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", file.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: status %d", file.Name, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxProfilePayload))
}

// Decode exposes the configured decoder for the ingestion pipeline.
func (s *ArgoSource) Decode(payload []byte, file ocean.ProfileFile) ([]ocean.Measurement, error) {
	return s.decoder.Decode(payload, file)
}

// LiveStatus classifies upstream freshness from the newest discovered file.
func (s *ArgoSource) LiveStatus(ctx context.Context) LiveStatus {
	files, fromFallback := s.LatestFiles(ctx)
	if len(files) == 0 {
		return LiveStatus{Status: StatusUnavailable}
	}

	latest := files[0]
	hoursOld := s.clock.Now().UTC().Sub(latest.Date).Hours()

	status := StatusActive
	switch {
	case hoursOld > 72:
		status = StatusSignificantDelay
	case hoursOld > 48:
		status = StatusDelayed
	}

	sample := make([]string, 0, len(files))
	for _, f := range files {
		sample = append(sample, f.Name)
	}
	return LiveStatus{
		Available:  true,
		Status:     status,
		LatestFile: latest.Name,
		LatestDate: latest.Date,
		HoursOld:   roundTenth(hoursOld),
		TotalFiles: len(files),
		Files:      sample,
		Fallback:   fromFallback,
	}
}

func (s *ArgoSource) fallbackFiles() []ocean.ProfileFile {
	today := s.clock.Now().UTC().Truncate(24 * time.Hour)
	files := make([]ocean.ProfileFile, 0, s.cfg.MaxFiles)
	for i := 0; i < s.cfg.MaxFiles; i++ {
		name := fmt.Sprintf("R%s_prof_%d.nc", today.Format("20060102"), i)
		files = append(files, ocean.ProfileFile{
			Name: name,
			Date: today,
			URL:  s.cfg.BaseURL + "/latest_data/" + name,
		})
	}
	return files
}

// extractProfileFiles pulls profile file names from a directory listing and
// orders them newest first. Names whose date digits do not parse are skipped.
func extractProfileFiles(listing, baseURL string) []ocean.ProfileFile {
	matches := profileFilePattern.FindAllStringSubmatch(listing, -1)

	seen := make(map[string]struct{}, len(matches))
	files := make([]ocean.ProfileFile, 0, len(matches))
	for _, m := range matches {
		name := m[0]
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		date, err := time.Parse("20060102", m[1])
		if err != nil {
			continue
		}
		files = append(files, ocean.ProfileFile{Name: name, Date: date, URL: baseURL + name})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].Date.Equal(files[j].Date) {
			return files[i].Name < files[j].Name
		}
		return files[i].Date.After(files[j].Date)
	})
	return files
}

// filterByQuery keeps rows inside the query's spatial box and depth range.
func filterByQuery(measurements []ocean.Measurement, q nlquery.StructuredQuery) []ocean.Measurement {
	filtered := make([]ocean.Measurement, 0, len(measurements))
	for _, m := range measurements {
		if !q.Spatial.Box.Contains(m.Latitude, m.Longitude) {
			continue
		}
		if q.Depth != nil && (m.Depth < q.Depth.Min || m.Depth > q.Depth.Max) {
			continue
		}
		filtered = append(filtered, m)
	}
	return filtered
}

func roundTenth(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
