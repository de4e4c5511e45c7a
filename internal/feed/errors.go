package feed

import (
	"errors"
	"fmt"
)

// ErrNoInput means a required feed file is absent. It is a precondition
// failure, not a parse error: the pipeline guard normally prevents it from
// ever reaching a parser.
var ErrNoInput = errors.New("no file attached")

// FormatError means a feed file is malformed. It is permanent: retrying the
// same bytes cannot succeed, and no partial results are ever returned
// alongside it.
type FormatError struct {
	Format string // "CSV" or "JSON"
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid %s format: %v", e.Format, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }
