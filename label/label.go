// Package label provides a reversible mapping between free-text categorical
// values and dense integer codes, with tolerant fuzzy lookup for text that
// was never seen during fitting.
package label

import (
	"fmt"
	"sort"
	"strings"

	"github.com/covermatch/covermatch/internal/fuzzy"
)

// DefaultFuzzyCutoff is the minimum similarity for a fuzzy label match.
const DefaultFuzzyCutoff = 0.5

// ErrUnknownLabel indicates that a text value could not be resolved to a
// fitted label, even fuzzily.
type ErrUnknownLabel struct {
	Text string
}

func (e *ErrUnknownLabel) Error() string {
	return fmt.Sprintf("unknown label: %q", e.Text)
}

// ErrInvalidCode indicates a code outside the fitted range.
type ErrInvalidCode struct {
	Code int
	Max  int
}

func (e *ErrInvalidCode) Error() string {
	return fmt.Sprintf("invalid code %d: fitted range is [0, %d)", e.Code, e.Max)
}

// Codec is a bidirectional label/code mapping fitted once from catalog
// values. Codes are dense integers in [0, Len()), assigned in lexicographic
// label order so that they are stable for a given value set. A fitted Codec
// is immutable; lookups never mutate it, so it is safe for concurrent use.
type Codec struct {
	classes []string
	codes   map[string]int
	cutoff  float64
}

// Fit builds a Codec from the given values. Duplicates are collapsed;
// values are used verbatim (no normalization).
func Fit(values []string) *Codec {
	seen := make(map[string]struct{}, len(values))
	classes := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		classes = append(classes, v)
	}
	sort.Strings(classes)

	codes := make(map[string]int, len(classes))
	for i, c := range classes {
		codes[c] = i
	}
	return &Codec{classes: classes, codes: codes, cutoff: DefaultFuzzyCutoff}
}

// WithCutoff returns a copy of the codec using the given fuzzy similarity
// cutoff for Encode.
func (c *Codec) WithCutoff(cutoff float64) *Codec {
	cp := *c
	cp.cutoff = cutoff
	return &cp
}

// Len returns the number of fitted classes.
func (c *Codec) Len() int {
	return len(c.classes)
}

// Classes returns the fitted labels in code order. The slice must not be
// modified.
func (c *Codec) Classes() []string {
	return c.classes
}

// Encode resolves text to its code. An exact (whitespace-trimmed) match wins;
// otherwise the closest fitted label above the fuzzy cutoff is used. Returns
// *ErrUnknownLabel when neither applies.
func (c *Codec) Encode(text string) (int, error) {
	if code, ok := c.codes[text]; ok {
		return code, nil
	}
	trimmed := strings.TrimSpace(text)
	if code, ok := c.codes[trimmed]; ok {
		return code, nil
	}
	if match, ok := fuzzy.Closest(trimmed, c.classes, c.cutoff); ok {
		return c.codes[match], nil
	}
	return 0, &ErrUnknownLabel{Text: text}
}

// Decode returns the label for code, or *ErrInvalidCode if code is outside
// the fitted range.
func (c *Codec) Decode(code int) (string, error) {
	if code < 0 || code >= len(c.classes) {
		return "", &ErrInvalidCode{Code: code, Max: len(c.classes)}
	}
	return c.classes[code], nil
}

// DecodeOr returns the label for code, or fallback when code is outside the
// fitted range. Display paths use this so a stale code degrades instead of
// failing the result.
func (c *Codec) DecodeOr(code int, fallback string) string {
	s, err := c.Decode(code)
	if err != nil {
		return fallback
	}
	return s
}
