package routing

import (
	"fmt"
	"time"

	"github.com/oceanchat/oceanchat/internal/domain/nlquery"
	"github.com/oceanchat/oceanchat/internal/domain/ocean"
)

// Envelope is the one response shape handed to callers regardless of which
// data source served the request. It is constructed once and never mutated.
type Envelope struct {
	Success                 bool                    `json:"success"`
	OriginalQuery           string                  `json:"original_query"`
	StructuredQuery         nlquery.StructuredQuery `json:"structured_query"`
	Measurements            []ocean.Measurement     `json:"measurements"`
	Count                   int                     `json:"count"`
	Source                  ocean.DataSource        `json:"source,omitempty"`
	ResponseTimeMs          int64                   `json:"response_time_ms"`
	SuggestedVisualizations []string                `json:"suggested_visualizations,omitempty"`
	MapBounds               *ocean.BoundingBox      `json:"map_bounds,omitempty"`
	Error                   *ErrorDetail            `json:"error,omitempty"`
	Suggestions             []string                `json:"suggestions,omitempty"`
	GeneratedAt             time.Time               `json:"generated_at"`
}

// ErrorDetail is only present on failure envelopes.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

const failureMessage = "Unable to process query at this time"

var failureSuggestions = []string{
	"Try a different geographic region",
	"Specify a different time range",
	"Check your query format",
}

func successEnvelope(q nlquery.StructuredQuery, measurements []ocean.Measurement, source ocean.DataSource, elapsed time.Duration, at time.Time) Envelope {
	env := Envelope{
		Success:                 true,
		OriginalQuery:           q.OriginalText,
		StructuredQuery:         q,
		Measurements:            measurements,
		Count:                   len(measurements),
		Source:                  source,
		ResponseTimeMs:          elapsed.Milliseconds(),
		SuggestedVisualizations: suggestVisualizations(measurements),
		GeneratedAt:             at,
	}
	if box, ok := ocean.BoundsOf(measurements); ok {
		env.MapBounds = &box
	}
	return env
}

func failureEnvelope(original string, cause error, debug bool, elapsed time.Duration, at time.Time) Envelope {
	detail := &ErrorDetail{
		Code:    "DATA_UNAVAILABLE",
		Message: failureMessage,
	}
	if debug && cause != nil {
		detail.Details = cause.Error()
	}
	return Envelope{
		Success:        false,
		OriginalQuery:  original,
		ResponseTimeMs: elapsed.Milliseconds(),
		Error:          detail,
		Suggestions:    failureSuggestions,
		GeneratedAt:    at,
	}
}

// suggestVisualizations picks chart hints from the shape of the result set.
func suggestVisualizations(measurements []ocean.Measurement) []string {
	if len(measurements) == 0 {
		return nil
	}

	suggestions := []string{"map", "3d_globe"}

	sample := measurements[0]
	if len(measurements) > 1 {
		if sample.Temperature != nil {
			suggestions = append(suggestions, "temperature_timeseries")
		}
		if sample.Salinity != nil {
			suggestions = append(suggestions, "salinity_timeseries")
		}
	}
	if sample.Temperature != nil {
		suggestions = append(suggestions, "temperature_depth_profile")
	}
	if len(measurements) > 10 {
		suggestions = append(suggestions, "heatmap")
	}
	return suggestions
}

// cacheKey normalizes the query text into a stable cache key.
func cacheKey(text string) string {
	return fmt.Sprintf("envelope:%s", normalizeText(text))
}
