package errorutil

import (
	"errors"
	"fmt"
)

// ErrNoUsableData indicates the input was present but did not carry the
// shape an ingestor requires (e.g. a profile document without frames or
// profiles). Callers may fall back to another input interpretation.
var ErrNoUsableData = errors.New("no usable data")

// ErrNoSamples indicates a well-formed input that contained zero
// observations. It is distinct from ErrNoUsableData so callers can show
// "trace empty" rather than "trace unreadable".
var ErrNoSamples = errors.New("no samples observed")

// ErrObjectNotFound indicates an object was not found in storage.
var ErrObjectNotFound = errors.New("object not found")

// DecodeError wraps a failure of the underlying trace container decoder so
// it stays distinguishable from the no-data conditions above.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("trace decode: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
