package nlquery

import (
	"time"

	"github.com/oceanchat/oceanchat/internal/domain/ocean"
)

// Parameter is an oceanographic quantity a user can ask about.
type Parameter string

const (
	ParamTemperature Parameter = "temperature"
	ParamSalinity    Parameter = "salinity"
	ParamDepth       Parameter = "depth"
	ParamCurrent     Parameter = "current"
	ParamPressure    Parameter = "pressure"
)

// Category classifies the intent of a query.
type Category string

const (
	CategoryGeneral    Category = "general"
	CategorySpatial    Category = "spatial_query"
	CategoryTemporal   Category = "temporal_query"
	CategoryTrend      Category = "trend_analysis"
	CategoryComparison Category = "comparison"
	CategoryPattern    Category = "pattern_analysis"
)

// SpatialBounds is the resolved region of interest. Region is a gazetteer tag
// ("pacific", ...) or "global" when nothing matched.
type SpatialBounds struct {
	Region    string            `json:"region"`
	CenterLat float64           `json:"center_lat"`
	CenterLon float64           `json:"center_lon"`
	Box       ocean.BoundingBox `json:"box"`
}

// TemporalBounds is a closed calendar-date range.
type TemporalBounds struct {
	Start time.Time `json:"start_time"`
	End   time.Time `json:"end_time"`
}

// DepthBounds restricts depth in meters. Only set when the query implies one.
type DepthBounds struct {
	Min float64 `json:"min_depth"`
	Max float64 `json:"max_depth"`
}

// StructuredQuery is the parsed, typed representation of a natural-language
// request. It is built once per query and never mutated afterwards; spatial
// and temporal bounds are always populated (defaults fill any gap).
type StructuredQuery struct {
	OriginalText string          `json:"original_text"`
	Parameters   []Parameter     `json:"parameters"`
	Spatial      SpatialBounds   `json:"spatial"`
	Temporal     TemporalBounds  `json:"temporal"`
	Depth        *DepthBounds    `json:"depth,omitempty"`
	Category     Category        `json:"category"`
}

// HasParameter reports whether p was extracted from the query text.
func (q StructuredQuery) HasParameter(p Parameter) bool {
	for _, candidate := range q.Parameters {
		if candidate == p {
			return true
		}
	}
	return false
}
