package reduce

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// Fatal pipeline errors. Per-file failures are SourceError values and never
// abort the run on their own.
var (
	// ErrNoValidData means no source file yielded any usable records.
	ErrNoValidData = eris.New("reduce: no valid data in any source")

	// ErrPersistence means the final sample could not be written.
	ErrPersistence = eris.New("reduce: persist sample")
)

// SourceError records a per-file read or projection failure. The aggregator
// collects these and continues with the remaining sources.
type SourceError struct {
	Path string
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Path, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }
