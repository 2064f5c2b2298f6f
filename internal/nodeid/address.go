// internal/nodeid/address.go
package nodeid

import (
	"fmt"
	"strconv"
)

// String serializes the Index into its canonical `<slot>#<gen>` form. The
// Nil index is rendered as "nil".
func (i Index) String() string {
	if i.IsNil() {
		return "nil"
	}
	return strconv.FormatUint(uint64(i.Slot), 10) + "#" + strconv.FormatUint(uint64(i.Gen), 10)
}

// MarshalText implements encoding.TextMarshaler so indices appear in their
// canonical form inside JSON, YAML and msgpack payloads.
func (i Index) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *Index) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// Less orders indices by slot, then generation.
func (i Index) Less(other Index) bool {
	if i.Slot != other.Slot {
		return i.Slot < other.Slot
	}
	return i.Gen < other.Gen
}

// GoString keeps test failure output readable.
func (i Index) GoString() string {
	return fmt.Sprintf("nodeid.Index(%s)", i.String())
}
