// BYZRA ⸻ internal/meta/errors.go
// the two failures that leave the core

package meta

import "errors"

var (
	// returned by sources that cannot write a format back
	ErrUnsupportedWrite = errors.New("format does not support metadata write-back")

	ErrInvalidTransition = errors.New("invalid session transition")
)

// the file could not be opened or parsed
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return "Failed reading metadata: " + e.Err.Error()
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// the cleared file could not be persisted
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return "Failed writing metadata: " + e.Err.Error()
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
