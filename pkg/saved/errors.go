package saved

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingURL is returned by Add when the candidate has no URL.
	ErrMissingURL = errors.New("saved: url is required")

	// ErrDataFormat matches every *DataFormatError via errors.Is.
	ErrDataFormat = errors.New("saved: invalid data format")
)

// DataFormatError reports a payload that cannot be parsed into saved items.
// Source is "import" for ImportMerge payloads and "stored" for a persisted
// collection that no longer decodes.
type DataFormatError struct {
	Source string
	Err    error
}

func (e *DataFormatError) Error() string {
	return fmt.Sprintf("saved: invalid %s data: %v", e.Source, e.Err)
}

func (e *DataFormatError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrDataFormat) match.
func (e *DataFormatError) Is(target error) bool { return target == ErrDataFormat }
