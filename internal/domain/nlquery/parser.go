package nlquery

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/oceanchat/oceanchat/internal/domain/ocean"
)

// Parser maps free-form text to a StructuredQuery using keyword matching over
// a fixed vocabulary. Parsing never fails: unmatched aspects fall back to
// defaults, so the result always carries parameters, spatial bounds, and
// temporal bounds.
type Parser struct {
	clock clockwork.Clock
}

// NewParser builds a Parser. A nil clock means real time.
func NewParser(clock clockwork.Clock) *Parser {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Parser{clock: clock}
}

var parameterVocabulary = []struct {
	param Parameter
	terms []string
}{
	{ParamTemperature, []string{"temperature", "temp", "warm", "cold", "thermal"}},
	{ParamSalinity, []string{"salinity", "salt", "sal", "saline"}},
	{ParamDepth, []string{"depth", "deep", "shallow", "surface", "bottom"}},
	{ParamCurrent, []string{"current", "flow", "velocity", "circulation"}},
	{ParamPressure, []string{"pressure", "press", "atm"}},
}

var basins = []struct {
	name                 string
	centerLat, centerLon float64
	box                  ocean.BoundingBox
}{
	{"pacific", 0, -150, ocean.BoundingBox{MinLat: -60, MaxLat: 60, MinLon: -180, MaxLon: -100}},
	{"atlantic", 20, -30, ocean.BoundingBox{MinLat: -60, MaxLat: 70, MinLon: -80, MaxLon: 20}},
	{"indian", -20, 80, ocean.BoundingBox{MinLat: -60, MaxLat: 30, MinLon: 40, MaxLon: 120}},
	{"arctic", 80, 0, ocean.BoundingBox{MinLat: 66, MaxLat: 90, MinLon: -180, MaxLon: 180}},
	{"southern", -60, 0, ocean.BoundingBox{MinLat: -90, MaxLat: -60, MinLon: -180, MaxLon: 180}},
}

var (
	latPattern  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*°?\s*([ns])`)
	lonPattern  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*°?\s*([ew])`)
	yearPattern = regexp.MustCompile(`(20\d{2})`)
)

// Parse turns query text into a StructuredQuery. It is a pure function of the
// text and the parser's clock.
func (p *Parser) Parse(text string) StructuredQuery {
	lower := strings.ToLower(text)

	query := StructuredQuery{
		OriginalText: text,
		Parameters:   extractParameters(lower),
	}

	spatial, spatialMatched := extractSpatial(lower)
	query.Spatial = spatial

	temporal, temporalMatched := p.extractTemporal(lower)
	query.Temporal = temporal

	query.Depth = extractDepth(lower)
	query.Category = classify(lower, spatialMatched, temporalMatched)

	return query
}

func extractParameters(lower string) []Parameter {
	var params []Parameter
	for _, entry := range parameterVocabulary {
		for _, term := range entry.terms {
			if strings.Contains(lower, term) {
				params = append(params, entry.param)
				break
			}
		}
	}
	if len(params) == 0 {
		params = []Parameter{ParamTemperature}
	}
	return params
}

// extractSpatial resolves the region of interest with a fixed precedence:
// named basin, then explicit coordinates, then directional keywords. A match
// at one level short-circuits the levels below it, so the center always lies
// inside the returned box.
func extractSpatial(lower string) (SpatialBounds, bool) {
	for _, basin := range basins {
		if strings.Contains(lower, basin.name) {
			return SpatialBounds{
				Region:    basin.name,
				CenterLat: basin.centerLat,
				CenterLon: basin.centerLon,
				Box:       basin.box,
			}, true
		}
	}

	if bounds, ok := extractCoordinates(lower); ok {
		return bounds, true
	}

	if bounds, ok := extractDirectional(lower); ok {
		return bounds, true
	}

	return defaultSpatial(), false
}

func extractCoordinates(lower string) (SpatialBounds, bool) {
	latMatch := latPattern.FindStringSubmatch(lower)
	lonMatch := lonPattern.FindStringSubmatch(lower)
	if latMatch == nil || lonMatch == nil {
		return SpatialBounds{}, false
	}

	lat, latErr := strconv.ParseFloat(latMatch[1], 64)
	lon, lonErr := strconv.ParseFloat(lonMatch[1], 64)
	if latErr != nil || lonErr != nil {
		return SpatialBounds{}, false
	}
	if latMatch[2] == "s" {
		lat = -lat
	}
	if lonMatch[2] == "w" {
		lon = -lon
	}
	// Numbers that happen to precede a hemisphere letter (years, depths) can
	// masquerade as coordinates; reject anything outside the valid ranges.
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return SpatialBounds{}, false
	}

	return SpatialBounds{
		Region:    "point",
		CenterLat: lat,
		CenterLon: lon,
		Box: ocean.BoundingBox{
			MinLat: lat - 5,
			MaxLat: lat + 5,
			MinLon: lon - 5,
			MaxLon: lon + 5,
		},
	}, true
}

func extractDirectional(lower string) (SpatialBounds, bool) {
	bounds := defaultSpatial()
	matched := false

	if strings.Contains(lower, "north") {
		bounds.CenterLat = 45
		matched = true
	} else if strings.Contains(lower, "south") {
		bounds.CenterLat = -45
		matched = true
	}

	if strings.Contains(lower, "east") {
		bounds.CenterLon = 90
		matched = true
	} else if strings.Contains(lower, "west") {
		bounds.CenterLon = -90
		matched = true
	}

	if !matched {
		return SpatialBounds{}, false
	}
	bounds.Region = "directional"
	return bounds, true
}

func defaultSpatial() SpatialBounds {
	return SpatialBounds{Region: "global", Box: ocean.GlobalBox()}
}

func (p *Parser) extractTemporal(lower string) (TemporalBounds, bool) {
	var bounds TemporalBounds
	matched := false

	if yearMatch := yearPattern.FindStringSubmatch(lower); yearMatch != nil {
		year, err := strconv.Atoi(yearMatch[1])
		if err == nil {
			bounds = calendarYear(year)
			matched = true
		}
	}

	today := dateOnly(p.clock.Now().UTC())
	if strings.Contains(lower, "recent") || strings.Contains(lower, "latest") {
		bounds = TemporalBounds{Start: today.AddDate(0, 0, -30), End: today}
		matched = true
	} else if strings.Contains(lower, "last year") {
		bounds = calendarYear(today.Year() - 1)
		matched = true
	}

	if !matched {
		return TemporalBounds{Start: today.AddDate(0, 0, -365), End: today}, false
	}
	return bounds, true
}

func extractDepth(lower string) *DepthBounds {
	if strings.Contains(lower, "surface") {
		return &DepthBounds{Min: 0, Max: 50}
	}
	if strings.Contains(lower, "deep") {
		return &DepthBounds{Min: 1000, Max: 5000}
	}
	return nil
}

func classify(lower string, spatialMatched, temporalMatched bool) Category {
	switch {
	case strings.Contains(lower, "trend") || strings.Contains(lower, "change"):
		return CategoryTrend
	case strings.Contains(lower, "compare") || strings.Contains(lower, "difference"):
		return CategoryComparison
	case strings.Contains(lower, "pattern") || strings.Contains(lower, "distribution"):
		return CategoryPattern
	case spatialMatched:
		return CategorySpatial
	case temporalMatched:
		return CategoryTemporal
	default:
		return CategoryGeneral
	}
}

func calendarYear(year int) TemporalBounds {
	return TemporalBounds{
		Start: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
