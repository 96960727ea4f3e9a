package routing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/oceanchat/oceanchat/internal/domain/nlquery"
	"github.com/oceanchat/oceanchat/internal/domain/ocean"
	"github.com/oceanchat/oceanchat/internal/observability"
)

// ExternalSource is the upstream provider chain. It reports failure by value,
// never by error: the router treats Empty and Failure identically.
type ExternalSource interface {
	Fetch(ctx context.Context, q nlquery.StructuredQuery) ocean.FetchResult
}

// LocalSource is the local store client; by contract it cannot fail.
type LocalSource interface {
	Query(ctx context.Context, q nlquery.StructuredQuery) []ocean.Measurement
}

// EnvelopeCache stores recent envelopes keyed by normalized query text.
type EnvelopeCache interface {
	Get(ctx context.Context, key string) (Envelope, bool, error)
	Set(ctx context.Context, key string, env Envelope, ttl time.Duration) error
}

// Config carries the router's knobs. It is passed in explicitly; there is no
// ambient global configuration.
type Config struct {
	// ExternalTimeout bounds the TryExternal step. It is deliberately shorter
	// than the providers' own per-request timeouts.
	ExternalTimeout time.Duration
	CacheEnabled    bool
	CacheTTL        time.Duration
	// Debug leaks raw error text into failure envelopes. Off in production.
	Debug bool
}

// Service routes a natural-language question through the pipeline and always
// hands back one Envelope.
type Service interface {
	Route(ctx context.Context, queryText, userID string) Envelope
}

type service struct {
	cfg      Config
	parser   *nlquery.Parser
	external ExternalSource
	local    LocalSource
	cache    EnvelopeCache
	metrics  *observability.Metrics
	logger   *slog.Logger
	clock    clockwork.Clock
}

// NewService wires up the data router.
func NewService(cfg Config, parser *nlquery.Parser, external ExternalSource, local LocalSource, cache EnvelopeCache, metrics *observability.Metrics, logger *slog.Logger, clock clockwork.Clock) Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.ExternalTimeout <= 0 {
		cfg.ExternalTimeout = 3 * time.Second
	}
	return &service{
		cfg:      cfg,
		parser:   parser,
		external: external,
		local:    local,
		cache:    cache,
		metrics:  metrics,
		logger:   logger.With("component", "routing.service"),
		clock:    clock,
	}
}

// Route runs Parse → TryExternal → Fallback → Success. Failures in the middle
// steps are recovered internally; only a defect escaping the whole pipeline
// yields an error envelope, and even then with a fixed user-facing message.
func (s *service) Route(ctx context.Context, queryText, userID string) (env Envelope) {
	start := s.clock.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("routing pipeline panicked", "panic", r, "query", queryText)
			s.metrics.TotalFailures.Inc()
			env = failureEnvelope(queryText, fmt.Errorf("%v", r), s.cfg.Debug, s.clock.Since(start), s.clock.Now().UTC())
		}
		s.metrics.RouteDuration.Observe(s.clock.Since(start).Seconds())
	}()

	s.logger.Info("processing query", "query", truncate(queryText, 100), "user_id", userID)

	parsed := s.parser.Parse(queryText)

	if s.cfg.CacheEnabled && s.cache != nil {
		if cached, ok := s.cacheGet(ctx, queryText); ok {
			return cached
		}
	}

	result := s.tryExternal(ctx, parsed)
	if result.OK() {
		s.metrics.QueriesTotal.WithLabelValues(string(ocean.SourceLiveAPI)).Inc()
		env = successEnvelope(parsed, result.Measurements, ocean.SourceLiveAPI, s.clock.Since(start), s.clock.Now().UTC())
		s.cacheSet(ctx, queryText, env)
		return env
	}

	s.metrics.ExternalFallbacks.Inc()
	s.logger.Info("falling back to local store", "reason", result.Reason)

	measurements := s.local.Query(ctx, parsed)
	s.metrics.QueriesTotal.WithLabelValues(string(ocean.SourceLocalDatabase)).Inc()
	env = successEnvelope(parsed, measurements, ocean.SourceLocalDatabase, s.clock.Since(start), s.clock.Now().UTC())
	s.cacheSet(ctx, queryText, env)
	return env
}

// tryExternal races the fetch against the timeout budget. On expiry the
// in-flight fetch is abandoned, not cancelled remotely; its eventual result
// is ignored. A timeout is no-data, never an error.
func (s *service) tryExternal(ctx context.Context, q nlquery.StructuredQuery) ocean.FetchResult {
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.ExternalTimeout)
	defer cancel()

	results := make(chan ocean.FetchResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				results <- ocean.FetchFailed(fmt.Sprintf("provider panic: %v", r))
			}
		}()
		results <- s.external.Fetch(fetchCtx, q)
	}()

	select {
	case <-fetchCtx.Done():
		s.metrics.ExternalTimeouts.Inc()
		s.logger.Warn("external fetch abandoned", "budget", s.cfg.ExternalTimeout)
		return ocean.FetchFailed("external fetch timed out")
	case result := <-results:
		return result
	}
}

func (s *service) cacheGet(ctx context.Context, queryText string) (Envelope, bool) {
	env, ok, err := s.cache.Get(ctx, cacheKey(queryText))
	if err != nil {
		s.logger.Warn("envelope cache read failed", "error", err)
		s.metrics.CacheLookups.WithLabelValues("miss").Inc()
		return Envelope{}, false
	}
	if ok {
		s.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return env, true
	}
	s.metrics.CacheLookups.WithLabelValues("miss").Inc()
	return Envelope{}, false
}

func (s *service) cacheSet(ctx context.Context, queryText string, env Envelope) {
	if !s.cfg.CacheEnabled || s.cache == nil || !env.Success {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(queryText), env, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("envelope cache write failed", "error", err)
	}
}

func normalizeText(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit]
}
