package analysis

import "errors"

var (
	// ErrInvalidTranscript is returned when the transcript is missing or blank.
	ErrInvalidTranscript = errors.New("transcript is required")

	// ErrConfiguration indicates the completion client has no API credential.
	ErrConfiguration = errors.New("configuration error")

	// ErrUpstream covers non-2xx statuses, transport failures and timeouts from the completion service.
	ErrUpstream = errors.New("upstream error")

	// ErrEmptyResponse means the completion envelope carried no text payload.
	ErrEmptyResponse = errors.New("no content returned from completion API")

	// ErrPersistence indicates the analysis log could not be written.
	ErrPersistence = errors.New("persistence error")
)

// ErrNotConfigured is returned by optional features (history, archive) that are switched off.
var ErrNotConfigured = errors.New("not configured")
