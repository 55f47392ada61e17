package types

import "errors"

// Sentinel errors for common error conditions.
var (
	// ErrInvalidConfig is returned when client configuration is incomplete
	// or malformed (missing model, bad option pairs, unknown format).
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnknownClient is returned when a client name is not in the registry.
	ErrUnknownClient = errors.New("unknown client")

	// ErrMalformedInput is returned when a caller-supplied payload cannot be
	// parsed (invalid JSON, wrong arity, missing fields).
	ErrMalformedInput = errors.New("malformed input")

	// ErrEmptyInput is returned when a batch operation receives zero items.
	ErrEmptyInput = errors.New("empty input")

	// ErrResponseShape is returned when a provider response is missing an
	// expected key or holds the wrong type at an expected path.
	ErrResponseShape = errors.New("unexpected response shape")

	// ErrTimeout is returned when a provider request exceeds the deadline.
	ErrTimeout = errors.New("request timed out")

	// ErrUnsupported is returned for operations the extension rejects by
	// design, such as DELETE or UPDATE on rembed_clients.
	ErrUnsupported = errors.New("unsupported operation")
)
