package cell

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Encoding
// --------------------------------------------------------------------------

// Encode converts a native value into a Cell. The branch is chosen by the kind
// of v, earlier branches win:
//
//   - string, []byte                          -> binary
//   - signed and unsigned integers             -> integer (uint64 above MaxInt64 -> numeric)
//   - float32, float64                         -> double
//   - big.Rat                                  -> *UnsupportedValueError("rational")
//   - complex64, complex128                    -> *UnsupportedValueError("complex")
//   - big.Int, big.Float, json.Number          -> numeric
//   - time.Time                                -> timestamp (ms, truncated toward zero)
//   - bool                                     -> boolean
//   - nil                                      -> null cell
//
// Any other kind is a programming error and panics.
func Encode(v any) (Cell, error) {
	switch val := v.(type) {

	// string-like
	case string:
		return Binary([]byte(val)), nil
	case []byte:
		if val == nil {
			val = []byte{}
		}
		return Binary(val), nil

	// whole integers
	case int:
		return Integer(int64(val)), nil
	case int8:
		return Integer(int64(val)), nil
	case int16:
		return Integer(int64(val)), nil
	case int32:
		return Integer(int64(val)), nil
	case int64:
		return Integer(val), nil
	case uint8:
		return Integer(int64(val)), nil
	case uint16:
		return Integer(int64(val)), nil
	case uint32:
		return Integer(int64(val)), nil
	case uint:
		return encodeUnsigned(uint64(val)), nil
	case uint64:
		return encodeUnsigned(val), nil

	// floating point
	case float32:
		return Double(float64(val)), nil
	case float64:
		return Double(val), nil

	// no lossless wire representation
	case *big.Rat, big.Rat:
		return Cell{}, &UnsupportedValueError{Kind: "rational"}
	case complex64, complex128:
		return Cell{}, &UnsupportedValueError{Kind: "complex"}

	// arbitrary precision
	case *big.Int:
		if val == nil {
			return Cell{}, nil
		}
		return Numeric(val.String()), nil
	case big.Int:
		return Numeric(val.String()), nil
	case *big.Float:
		if val == nil {
			return Cell{}, nil
		}
		return Numeric(formatBigFloat(val)), nil
	case big.Float:
		return Numeric(formatBigFloat(&val)), nil
	case json.Number:
		return Numeric(val.String()), nil

	// point in time
	case time.Time:
		return Timestamp(TruncateMillis(val)), nil
	case *time.Time:
		if val == nil {
			return Cell{}, nil
		}
		return Timestamp(TruncateMillis(*val)), nil

	case bool:
		return Boolean(val), nil

	case nil:
		return Cell{}, nil

	default:
		panic(fmt.Sprintf("cell: no wire representation for value of type %T", v))
	}
}

// EncodeRow encodes every value of a row. The first failing value aborts the row.
func EncodeRow(values []any) ([]Cell, error) {
	cells := make([]Cell, len(values))
	for i, v := range values {
		c, err := Encode(v)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
		cells[i] = c
	}
	return cells, nil
}

// TruncateMillis converts t into milliseconds since the epoch, dropping any
// sub-millisecond fraction toward zero (also for times before the epoch).
func TruncateMillis(t time.Time) int64 {
	sec := t.Unix()
	nsec := int64(t.Nanosecond())
	ms := sec*1000 + nsec/int64(time.Millisecond)
	// nsec is always positive, so for negative times the division above floors
	if sec < 0 && nsec%int64(time.Millisecond) != 0 {
		ms++
	}
	return ms
}

// encodeUnsigned maps unsigned values that do not fit into an int64 to numeric
func encodeUnsigned(v uint64) Cell {
	if v > math.MaxInt64 {
		return Numeric(strconv.FormatUint(v, 10))
	}
	return Integer(int64(v))
}

// formatBigFloat renders f in plain decimal notation with the shortest
// representation that round-trips at f's precision
func formatBigFloat(f *big.Float) string {
	return f.Text('f', -1)
}

// --------------------------------------------------------------------------
// Decoding
// --------------------------------------------------------------------------

// Decode converts a Cell back into a native value. Tags are checked in the order
// binary, integer, double, float, numeric, timestamp, boolean and the first present
// one wins. A cell without any tag decodes to nil.
//
// The mapping is lossy: binary always decodes to string, a numeric decodes to
// float64 if it contains a decimal point or exponent (or is non-finite) and to
// int64 (or *big.Int if it does not fit) otherwise, and timestamps decode to
// time.Time in UTC.
func Decode(c Cell) (any, error) {
	switch {
	case c.BinaryValue != nil:
		return string(c.BinaryValue), nil
	case c.IntegerValue != nil:
		return *c.IntegerValue, nil
	case c.DoubleValue != nil:
		return *c.DoubleValue, nil
	case c.FloatValue != nil:
		return float64(*c.FloatValue), nil
	case c.NumericValue != nil:
		return decodeNumeric(*c.NumericValue)
	case c.TimestampValue != nil:
		return time.UnixMilli(*c.TimestampValue).UTC(), nil
	case c.BooleanValue != nil:
		// checked by presence, a false value must not decode to nil
		return *c.BooleanValue, nil
	default:
		return nil, nil
	}
}

// DecodeRow decodes every cell of a row.
func DecodeRow(cells []Cell) ([]any, error) {
	values := make([]any, len(cells))
	for i, c := range cells {
		v, err := Decode(c)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
		values[i] = v
	}
	return values, nil
}

// decodeNumeric applies the decimal point heuristic to a numeric wire value.
// Exponent forms and non-finite values (as written for json.Number or an
// infinite big.Float) are not integers either and decode as float64.
func decodeNumeric(s string) (any, error) {
	if strings.ContainsAny(s, ".eE") {
		return parseNumericFloat(s)
	}

	i, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return i, nil
	}

	// whole numbers outside of the int64 range
	if b, ok := new(big.Int).SetString(s, 10); ok {
		return b, nil
	}

	// +Inf, -Inf, NaN
	if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
		return f, nil
	}
	return nil, &MalformedCellError{Tag: TagNumeric, Value: s, Err: err}
}

func parseNumericFloat(s string) (any, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, &MalformedCellError{Tag: TagNumeric, Value: s, Err: err}
	}
	return f, nil
}

// --------------------------------------------------------------------------
// Constructors
// --------------------------------------------------------------------------

// Binary returns a cell with the binary tag set.
func Binary(v []byte) Cell {
	if v == nil {
		v = []byte{}
	}
	return Cell{BinaryValue: v}
}

// Integer returns a cell with the integer tag set.
func Integer(v int64) Cell {
	return Cell{IntegerValue: &v}
}

// Double returns a cell with the double tag set.
func Double(v float64) Cell {
	return Cell{DoubleValue: &v}
}

// Numeric returns a cell with the numeric tag set.
func Numeric(v string) Cell {
	return Cell{NumericValue: &v}
}

// Timestamp returns a cell with the timestamp tag set (milliseconds since epoch).
func Timestamp(ms int64) Cell {
	return Cell{TimestampValue: &ms}
}

// Boolean returns a cell with the boolean tag set.
func Boolean(v bool) Cell {
	return Cell{BooleanValue: &v}
}
