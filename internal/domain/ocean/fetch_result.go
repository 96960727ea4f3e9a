package ocean

// FetchOutcome discriminates the FetchResult sum type.
type FetchOutcome int

const (
	// FetchSuccess carries a non-empty measurement set.
	FetchSuccess FetchOutcome = iota
	// FetchEmpty means the source responded but had nothing matching.
	FetchEmpty
	// FetchFailure means every attempt errored; Reason says why.
	FetchFailure
)

// FetchResult is the single shape every data source hands back, replacing the
// ad-hoc "sometimes a list, sometimes a dict" responses upstream systems emit.
type FetchResult struct {
	Outcome      FetchOutcome
	Measurements []Measurement
	Reason       string
}

// Fetched wraps a successful result; an empty slice degrades to FetchEmpty.
func Fetched(measurements []Measurement) FetchResult {
	if len(measurements) == 0 {
		return NoData()
	}
	return FetchResult{Outcome: FetchSuccess, Measurements: measurements}
}

// NoData is a well-formed but empty result.
func NoData() FetchResult {
	return FetchResult{Outcome: FetchEmpty}
}

// FetchFailed records why a fetch could not be served.
func FetchFailed(reason string) FetchResult {
	return FetchResult{Outcome: FetchFailure, Reason: reason}
}

// OK reports whether the result carries usable data.
func (r FetchResult) OK() bool {
	return r.Outcome == FetchSuccess && len(r.Measurements) > 0
}
