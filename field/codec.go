package field

import (
	"encoding/binary"
	"fmt"

	"github.com/sarchlab/korfield/core"
	"github.com/sarchlab/korfield/fixed"
)

// WireSize is the encoded size of a field: five Q16.16 components, a 64-bit
// timestamp, an 8-bit source and an 8-bit sequence, little-endian.
const WireSize = core.FieldCount*4 + 8 + 1 + 1

// MarshalBinary encodes the field in its fixed wire layout.
func (f Field) MarshalBinary() ([]byte, error) {
	if int(f.Source) >= core.MaxModules {
		return nil, fmt.Errorf("source %d: %w", f.Source, core.ErrInvalidArg)
	}

	buf := make([]byte, WireSize)
	off := 0

	for _, c := range f.Components {
		binary.LittleEndian.PutUint32(buf[off:], uint32(c.Bits()))
		off += 4
	}

	binary.LittleEndian.PutUint64(buf[off:], f.Timestamp)
	off += 8

	buf[off] = uint8(f.Source)
	buf[off+1] = f.Sequence

	return buf, nil
}

// UnmarshalBinary decodes a field from its fixed wire layout.
func (f *Field) UnmarshalBinary(data []byte) error {
	if len(data) != WireSize {
		return fmt.Errorf(
			"field encoding is %d bytes, want %d: %w",
			len(data), WireSize, core.ErrInvalidArg)
	}

	off := 0
	for i := range f.Components {
		bits := binary.LittleEndian.Uint32(data[off:])
		f.Components[i] = fixed.FromBits(int32(bits))
		off += 4
	}

	f.Timestamp = binary.LittleEndian.Uint64(data[off:])
	off += 8

	f.Source = core.ModuleID(data[off])
	f.Sequence = data[off+1]

	return nil
}
