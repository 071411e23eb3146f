package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoPivotLabels indicates that no source row carried a recognizable pivot
// value, so the catalog cannot be partitioned.
var ErrNoPivotLabels = errors.New("catalog: no recognizable pivot labels")

// ErrMissingColumns indicates that required catalog columns are absent.
// This is fatal at load time; the engine must not serve a partial index.
type ErrMissingColumns struct {
	Columns []string
}

func (e *ErrMissingColumns) Error() string {
	return fmt.Sprintf("catalog: missing required columns: %s", strings.Join(e.Columns, ", "))
}

// ErrEmptySegment indicates that a pivot partition has no rows after
// cleaning. Also fatal at load time.
type ErrEmptySegment struct {
	Pivot string
}

func (e *ErrEmptySegment) Error() string {
	return fmt.Sprintf("catalog: no rows for pivot %q", e.Pivot)
}
