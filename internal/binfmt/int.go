package binfmt

import (
	"encoding/binary"
	"fmt"
)

// I32 reads a little-endian signed 32-bit value from b and widens it to
// uint64. Negative values are rejected rather than wrapped.
func I32(b []byte, field string) (uint64, error) {
	v := int32(binary.LittleEndian.Uint32(b))
	if v < 0 {
		return 0, fmt.Errorf("%s is negative (%d): %w", field, v, ErrMalformedArchive)
	}
	return uint64(v), nil
}
