package cell

import "fmt"

// UnsupportedValueError is returned by Encode for values that have no lossless
// wire representation. Kind is either "rational" or "complex".
type UnsupportedValueError struct {
	Kind string
}

// Error implements the error interface.
func (e *UnsupportedValueError) Error() string {
	return fmt.Sprintf("cell: cannot serialize %s number", e.Kind)
}

// MalformedCellError is returned by Decode if a present field holds a value that
// cannot be converted back into a native value.
type MalformedCellError struct {
	Tag   Tag
	Value string
	Err   error
}

// Error implements the error interface.
func (e *MalformedCellError) Error() string {
	return fmt.Sprintf("cell: malformed %s value %q: %v", e.Tag, e.Value, e.Err)
}

// Unwrap returns the underlying parse error.
func (e *MalformedCellError) Unwrap() error {
	return e.Err
}
