package domain

import "errors"

// Sentinel errors for request validation. Handlers convert these into
// rendered failure artifacts rather than plain error bodies, so the
// message text ends up inside the returned image or PDF.
var (
	// ErrMissingChart is returned when neither `c` nor `chart` carries a
	// non-empty chart definition.
	ErrMissingChart = errors.New("missing `c` or `chart` parameter")

	// ErrMissingText is returned when a QR request has no `text` value.
	ErrMissingText = errors.New("missing `text` parameter")

	// ErrMalformedURI is returned when the QR `text` value cannot be
	// percent-decoded.
	ErrMalformedURI = errors.New("malformed percent-encoding in `text`")
)
