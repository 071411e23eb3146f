package covermatch

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery is the common ancestor of all client-input errors.
	// Use errors.Is(err, ErrInvalidQuery) to distinguish client mistakes
	// from empty results (which are not errors) and from load failures.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrNoSource is returned by Reload when the engine was built directly
	// from a catalog and has no reloadable source.
	ErrNoSource = errors.New("engine has no reloadable source")

	// ErrReloadThrottled is returned when reloads exceed the configured
	// rate limit.
	ErrReloadThrottled = errors.New("reload rate limit exceeded")
)

// ErrUnknownMode indicates a ranking-mode selector that normalizes to none
// of balanced/premium/coverage.
type ErrUnknownMode struct {
	Text string
}

func (e *ErrUnknownMode) Error() string {
	return fmt.Sprintf("unknown ranking mode: %q", e.Text)
}

func (e *ErrUnknownMode) Unwrap() error { return ErrInvalidQuery }

// ErrInvalidTarget indicates a numeric target that is negative or not
// finite.
type ErrInvalidTarget struct {
	Field string
	Value float64
}

func (e *ErrInvalidTarget) Error() string {
	return fmt.Sprintf("invalid %s target: %v", e.Field, e.Value)
}

func (e *ErrInvalidTarget) Unwrap() error { return ErrInvalidQuery }

// ErrUnknownPivot indicates a pivot value that resolves to no segment.
type ErrUnknownPivot struct {
	Pivot string
}

func (e *ErrUnknownPivot) Error() string {
	return fmt.Sprintf("unknown pivot value: %q", e.Pivot)
}

func (e *ErrUnknownPivot) Unwrap() error { return ErrInvalidQuery }
