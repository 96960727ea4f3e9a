package provider

import (
	"context"
	"strings"

	"github.com/oceanchat/oceanchat/internal/domain/nlquery"
	"github.com/oceanchat/oceanchat/internal/domain/ocean"
	apperrors "github.com/oceanchat/oceanchat/pkg/errors"
)

// NOAASource is the tertiary candidate. The tides-and-currents API does not
// serve subsurface profiles yet, so it always falls through.
// TODO: wire the CO-OPS water temperature product once station mapping lands.
type NOAASource struct {
	baseURL string
}

func NewNOAASource(baseURL string) *NOAASource {
	if baseURL == "" {
		baseURL = "https://api.tidesandcurrents.noaa.gov/api"
	}
	return &NOAASource{baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *NOAASource) Name() string { return "noaa" }

func (s *NOAASource) Fetch(_ context.Context, _ nlquery.StructuredQuery) ([]ocean.Measurement, error) {
	return nil, apperrors.Wrap(apperrors.CodeExternalUnavailable, "noaa source not implemented", nil)
}
