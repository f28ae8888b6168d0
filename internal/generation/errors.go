package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrMalformedResponse is returned when model output cannot be parsed
	// into the expected shape, even after the single truncation repair.
	ErrMalformedResponse = errors.New("malformed response from language model")

	// ErrEmptyResponse is returned when the model produced no candidate text.
	ErrEmptyResponse = errors.New("empty response from language model")

	// ErrUnknownTask is returned when a request is built for a task kind
	// that has no descriptor.
	ErrUnknownTask = errors.New("unknown generation task")
)
