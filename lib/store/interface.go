package store

import (
	"errors"
	"fmt"

	"github.com/ValentinKolb/dIndex/lib/cell"
	"github.com/ValentinKolb/dIndex/lib/index"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IndexEntry assigns an object to a secondary index under one term.
// Terms are strings or integers. Index names ending in "_int" only accept
// integer terms and names ending in "_bin" only accept string terms.
type IndexEntry struct {
	Name string
	Term any
}

// Info contains statistics about a store.
type Info struct {
	Version      string `json:"version"`
	Objects      int    `json:"objects"`
	IndexEntries int    `json:"index_entries"`
	Rows         int    `json:"rows"`
}

// IStore is the interface of a store that can answer index queries.
// In addition to the read side used by index.Query, it allows writing objects
// together with their index entries and time series rows.
// All methods return a *Error on failure.
type IStore interface {
	index.Backend

	// Put stores an object and replaces all of its index entries.
	// If key is empty, a new random key is assigned. The (assigned) key is returned.
	Put(bucket, key string, value []byte, entries []IndexEntry) (string, error)
	// Delete removes an object and its index entries. Deleting a missing key is not an error.
	Delete(bucket, key string) error
	// PutRow stores a time series row, replacing an existing row with the same key.
	PutRow(table, key string, row []cell.Cell) error
	// GetRow returns a time series row. The boolean return value indicates whether the row was found.
	GetRow(table, key string) (row []cell.Cell, loaded bool, err error)
	// GetInfo returns statistics about the store.
	// It is not guaranteed that the information is up-to-date!
	GetInfo() (Info, error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("StoreError (code %s): %s", e.Code, e.Msg)
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// Errorf creates a new Error with a formatted message.
func Errorf(code RetCode, format string, args ...any) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

// CodeOf returns the return code of err, RetCSuccess for nil and
// RetCInternalError for errors that are not of type *Error.
func CodeOf(err error) RetCode {
	if err == nil {
		return RetCSuccess
	}
	var storeErr *Error
	if errors.As(err, &storeErr) {
		return storeErr.Code
	}
	return RetCInternalError
}

// IsNotFound reports whether err is an Error with code RetCNotFound.
func IsNotFound(err error) bool {
	return CodeOf(err) == RetCNotFound
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Command executed successfully.
	RetCInternalError                       // 1: Command failed due to an internal error.
	RetCUnsupportedOperation                // 2: Operation is not supported by the server version.
	RetCInvalidOperation                    // 3: Invalid operation (e.g. wrong term type for an index).
	RetCNotFound                            // 4: The requested object does not exist.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	case RetCInvalidOperation:
		return "InvalidOperation"
	case RetCNotFound:
		return "NotFound"
	default:
		return "Unknown"
	}
}
