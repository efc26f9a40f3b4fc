package cell

import (
	"encoding/binary"
	"fmt"
	"math"
)

// --------------------------------------------------------------------------
// Cell Structure
// --------------------------------------------------------------------------

// Cell is the wire representation of a single scalar value.
// At most one field is set, a Cell without any field set represents null.
// Presence is expressed by a non-nil field, so false, 0 and "" are all
// legitimately present values.
type Cell struct {
	BinaryValue    []byte   `json:"binary_value"`              // string-like values (nil = absent)
	IntegerValue   *int64   `json:"integer_value,omitempty"`   // whole numbers
	DoubleValue    *float64 `json:"double_value,omitempty"`    // IEEE-754 64-bit floats
	FloatValue     *float32 `json:"float_value,omitempty"`     // legacy wire variant, only decoded
	NumericValue   *string  `json:"numeric_value,omitempty"`   // arbitrary precision decimal string
	TimestampValue *int64   `json:"timestamp_value,omitempty"` // milliseconds since epoch
	BooleanValue   *bool    `json:"boolean_value,omitempty"`   // booleans
}

// IsNull reports whether no tag is set.
func (c Cell) IsNull() bool {
	return c.Tag() == TagNull
}

// Tag returns the first present tag (in decode precedence).
func (c Cell) Tag() Tag {
	switch {
	case c.BinaryValue != nil:
		return TagBinary
	case c.IntegerValue != nil:
		return TagInteger
	case c.DoubleValue != nil:
		return TagDouble
	case c.FloatValue != nil:
		return TagFloat
	case c.NumericValue != nil:
		return TagNumeric
	case c.TimestampValue != nil:
		return TagTimestamp
	case c.BooleanValue != nil:
		return TagBoolean
	default:
		return TagNull
	}
}

// --------------------------------------------------------------------------
// Tag Definition
// --------------------------------------------------------------------------

// Tag identifies which field of a Cell is set.
type Tag uint8

const (
	TagNull Tag = iota
	TagBinary
	TagInteger
	TagDouble
	TagFloat
	TagNumeric
	TagTimestamp
	TagBoolean
)

// String returns the string representation of a Tag.
func (t Tag) String() string {
	switch t {
	case TagNull:
		return "null"
	case TagBinary:
		return "binary"
	case TagInteger:
		return "integer"
	case TagDouble:
		return "double"
	case TagFloat:
		return "float"
	case TagNumeric:
		return "numeric"
	case TagTimestamp:
		return "timestamp"
	case TagBoolean:
		return "boolean"
	default:
		return "unknown"
	}
}

// --------------------------------------------------------------------------
// Binary Wire Format
// --------------------------------------------------------------------------

// Bit flags to indicate which fields are present
const (
	hasBinary    byte = 1 << 0
	hasInteger   byte = 1 << 1
	hasDouble    byte = 1 << 2
	hasFloat     byte = 1 << 3
	hasNumeric   byte = 1 << 4
	hasTimestamp byte = 1 << 5
	hasBoolean   byte = 1 << 6
)

// Size returns the number of bytes MarshalBinary produces for the cell.
func (c Cell) Size() int {
	// 1 byte for flags
	size := 1
	if c.BinaryValue != nil {
		size += 4 + len(c.BinaryValue)
	}
	if c.IntegerValue != nil {
		size += 8
	}
	if c.DoubleValue != nil {
		size += 8
	}
	if c.FloatValue != nil {
		size += 4
	}
	if c.NumericValue != nil {
		size += 4 + len(*c.NumericValue)
	}
	if c.TimestampValue != nil {
		size += 8
	}
	if c.BooleanValue != nil {
		size += 1
	}
	return size
}

// MarshalBinary encodes the cell as a flags byte followed by all present fields.
// It implements encoding.BinaryMarshaler, so gob uses it as well.
func (c Cell) MarshalBinary() ([]byte, error) {
	buf := make([]byte, c.Size())
	c.PutBinary(buf)
	return buf, nil
}

// PutBinary writes the binary encoding of the cell into buf and returns the number
// of bytes written. buf must be at least Size() bytes long.
func (c Cell) PutBinary(buf []byte) int {
	var flags byte
	pos := 1

	if c.BinaryValue != nil {
		flags |= hasBinary
		binary.BigEndian.PutUint32(buf[pos:pos+4], uint32(len(c.BinaryValue)))
		pos += 4
		pos += copy(buf[pos:], c.BinaryValue)
	}

	if c.IntegerValue != nil {
		flags |= hasInteger
		binary.BigEndian.PutUint64(buf[pos:pos+8], uint64(*c.IntegerValue))
		pos += 8
	}

	if c.DoubleValue != nil {
		flags |= hasDouble
		binary.BigEndian.PutUint64(buf[pos:pos+8], math.Float64bits(*c.DoubleValue))
		pos += 8
	}

	if c.FloatValue != nil {
		flags |= hasFloat
		binary.BigEndian.PutUint32(buf[pos:pos+4], math.Float32bits(*c.FloatValue))
		pos += 4
	}

	if c.NumericValue != nil {
		flags |= hasNumeric
		binary.BigEndian.PutUint32(buf[pos:pos+4], uint32(len(*c.NumericValue)))
		pos += 4
		pos += copy(buf[pos:], *c.NumericValue)
	}

	if c.TimestampValue != nil {
		flags |= hasTimestamp
		binary.BigEndian.PutUint64(buf[pos:pos+8], uint64(*c.TimestampValue))
		pos += 8
	}

	if c.BooleanValue != nil {
		flags |= hasBoolean
		if *c.BooleanValue {
			buf[pos] = 1
		} else {
			buf[pos] = 0
		}
		pos += 1
	}

	buf[0] = flags
	return pos
}

// UnmarshalBinary decodes a cell produced by MarshalBinary.
// Trailing bytes are rejected.
func (c *Cell) UnmarshalBinary(data []byte) error {
	n, err := c.ReadBinary(data)
	if err != nil {
		return err
	}
	if n != len(data) {
		return fmt.Errorf("cell: %d trailing bytes", len(data)-n)
	}
	return nil
}

// ReadBinary decodes one cell from the start of data and returns the number of
// bytes consumed.
func (c *Cell) ReadBinary(data []byte) (int, error) {
	*c = Cell{}

	if len(data) < 1 {
		return 0, fmt.Errorf("cell: data too short for flags")
	}
	flags := data[0]
	pos := 1

	if flags&hasBinary != 0 {
		if pos+4 > len(data) {
			return 0, fmt.Errorf("cell: data too short for binary length")
		}
		l := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		pos += 4
		if pos+l > len(data) {
			return 0, fmt.Errorf("cell: data too short for binary data")
		}
		// create an empty slice (not nil) if length is 0
		c.BinaryValue = make([]byte, l)
		copy(c.BinaryValue, data[pos:pos+l])
		pos += l
	}

	if flags&hasInteger != 0 {
		if pos+8 > len(data) {
			return 0, fmt.Errorf("cell: data too short for integer")
		}
		v := int64(binary.BigEndian.Uint64(data[pos : pos+8]))
		c.IntegerValue = &v
		pos += 8
	}

	if flags&hasDouble != 0 {
		if pos+8 > len(data) {
			return 0, fmt.Errorf("cell: data too short for double")
		}
		v := math.Float64frombits(binary.BigEndian.Uint64(data[pos : pos+8]))
		c.DoubleValue = &v
		pos += 8
	}

	if flags&hasFloat != 0 {
		if pos+4 > len(data) {
			return 0, fmt.Errorf("cell: data too short for float")
		}
		v := math.Float32frombits(binary.BigEndian.Uint32(data[pos : pos+4]))
		c.FloatValue = &v
		pos += 4
	}

	if flags&hasNumeric != 0 {
		if pos+4 > len(data) {
			return 0, fmt.Errorf("cell: data too short for numeric length")
		}
		l := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		pos += 4
		if pos+l > len(data) {
			return 0, fmt.Errorf("cell: data too short for numeric data")
		}
		v := string(data[pos : pos+l])
		c.NumericValue = &v
		pos += l
	}

	if flags&hasTimestamp != 0 {
		if pos+8 > len(data) {
			return 0, fmt.Errorf("cell: data too short for timestamp")
		}
		v := int64(binary.BigEndian.Uint64(data[pos : pos+8]))
		c.TimestampValue = &v
		pos += 8
	}

	if flags&hasBoolean != 0 {
		if pos+1 > len(data) {
			return 0, fmt.Errorf("cell: data too short for boolean")
		}
		v := data[pos] != 0
		c.BooleanValue = &v
		pos += 1
	}

	return pos, nil
}
