// internal/nodeid/parser.go
package nodeid

import (
	"fmt"
	"regexp"
	"strconv"
)

// indexRegex matches the canonical `<slot>#<gen>` form.
var indexRegex = regexp.MustCompile(`^(\d+)#(\d+)$`)

// Parse creates an Index from its canonical string representation. "nil"
// and the empty string parse to Nil.
func Parse(raw string) (Index, error) {
	if raw == "" || raw == "nil" {
		return Nil, nil
	}

	matches := indexRegex.FindStringSubmatch(raw)
	if matches == nil {
		return Nil, fmt.Errorf("invalid node index format: %q", raw)
	}

	slot, err := strconv.ParseUint(matches[1], 10, 32)
	if err != nil {
		return Nil, fmt.Errorf("invalid slot in node index %q: %w", raw, err)
	}
	gen, err := strconv.ParseUint(matches[2], 10, 32)
	if err != nil {
		return Nil, fmt.Errorf("invalid generation in node index %q: %w", raw, err)
	}
	if gen == 0 {
		return Nil, fmt.Errorf("invalid node index %q: generation 0 is reserved", raw)
	}

	return New(uint32(slot), uint32(gen)), nil
}
