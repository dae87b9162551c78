// Package browser holds the client-visible tab and window model:
// qualified identifier parsing and the normalization of raw entities
// coming back from a bridge.
package browser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tabscope/tabctl/internal/protocol"
)

// windowMarker is the single-letter prefix accepted on window ids.
const windowMarker = "w"

// ParseQualifiedID splits a tab identifier of the form "chrome:42" into
// its browser label and numeric id. A bare "42" returns an empty label;
// the caller resolves that against the sole discovered bridge or
// reports ambiguity. Anything whose numeric part does not parse fails
// with the invalid-id error, never a truncated value.
func ParseQualifiedID(text string) (label string, id int, err error) {
	num := text
	if i := strings.Index(text, ":"); i >= 0 {
		label = text[:i]
		num = text[i+1:]
	}
	id, convErr := strconv.Atoi(num)
	if convErr != nil || (label == "" && strings.Contains(text, ":")) {
		return "", 0, fmt.Errorf("%w: %q", protocol.ErrInvalidID, text)
	}
	return label, id, nil
}

// ParseWindowID accepts a bare integer or one prefixed with the window
// marker: "7" and "w7" both yield 7.
func ParseWindowID(text string) (int, error) {
	num := strings.TrimPrefix(text, windowMarker)
	id, err := strconv.Atoi(num)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", protocol.ErrInvalidWindowID, text)
	}
	return id, nil
}

// QualifyID renders a numeric id with its browser label prefix, or bare
// when no label is known.
func QualifyID(label string, id int) string {
	if label == "" {
		return strconv.Itoa(id)
	}
	return label + ":" + strconv.Itoa(id)
}
