package risk

import "errors"

var (
	// ErrMissingField marks an hour dropped for a missing measurement.
	ErrMissingField = errors.New("risk: reading missing required measurement")

	// ErrUnresolvedTimeZone marks an hour dropped for an unresolvable zone.
	ErrUnresolvedTimeZone = errors.New("risk: reading timestamp has no resolvable zone")

	// ErrEmptySiteSeries marks a site with zero usable readings after filtering.
	ErrEmptySiteSeries = errors.New("risk: site has no usable readings")

	// ErrInvalidTriggerToken marks an unrecognized trigger token. Tokens are
	// discarded during normalization; the error exists for callers that want
	// to report them.
	ErrInvalidTriggerToken = errors.New("risk: unrecognized trigger token")
)
