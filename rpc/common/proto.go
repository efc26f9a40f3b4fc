package common

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ValentinKolb/dIndex/lib/cell"
	"github.com/ValentinKolb/dIndex/lib/index"
	"github.com/ValentinKolb/dIndex/lib/store"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// IndexEntry is the wire representation of store.IndexEntry, the term travels as a cell
type IndexEntry struct {
	Name string    `json:"name"`
	Term cell.Cell `json:"term"`
}

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// General fields
	Bucket string `json:"bucket,omitempty"` // Used for: all object and index operations, table name of row operations
	Key    string `json:"key,omitempty"`    // Used for: Fetch, Put, Delete, PutRow, GetRow
	Value  []byte `json:"value,omitempty"`  // Used for: Put (request), Fetch (response)

	// Index query fields
	Index         string     `json:"index,omitempty"`          // Used for: QueryIndex
	Term          *cell.Cell `json:"term,omitempty"`           // Used for: QueryIndex (exact term or range start)
	RangeEnd      *cell.Cell `json:"range_end,omitempty"`      // Used for: QueryIndex (nil for exact queries)
	MaxResults    uint32     `json:"max_results,omitempty"`    // Used for: QueryIndex
	Continuation  string     `json:"continuation,omitempty"`   // Used for: QueryIndex (request and response)
	ReturnTerms   bool       `json:"return_terms,omitempty"`   // Used for: QueryIndex
	Stream        bool       `json:"stream,omitempty"`         // Used for: QueryIndex (request is one chunk of a stream)
	IgnoreMissing bool       `json:"ignore_missing,omitempty"` // Used for: Fetch

	// Write fields
	Entries []IndexEntry `json:"entries,omitempty"` // Used for: Put
	Cells   []cell.Cell  `json:"cells,omitempty"`   // Used for: PutRow (request), GetRow (response)

	// Response only fields
	Keys    []string        `json:"keys,omitempty"`     // Used for: QueryIndex
	Results []index.TermKey `json:"results,omitempty"`  // Used for: QueryIndex with return terms
	Version string          `json:"version,omitempty"`  // Used for: Version
	Info    *store.Info     `json:"info,omitempty"`     // Used for: Info
	Ok      bool            `json:"ok,omitempty"`       // Used for: Fetch, GetRow responses
	Err     string          `json:"err,omitempty"`      // Empty if no error, otherwise contains the error message
	ErrCode uint64          `json:"err_code,omitempty"` // store.RetCode of the error
}

// setError stores err (if any) in the message
func (m *Message) setError(err error) *Message {
	if err != nil {
		m.Err = err.Error()
		m.ErrCode = uint64(store.CodeOf(err))
		// keep the plain message of store errors, the client wraps it again
		var storeErr *store.Error
		if errors.As(err, &storeErr) {
			m.Err = storeErr.Msg
		}
	}
	return m
}

// ResponseError returns the error carried by a response, nil if there is none.
// Error codes are restored, so store.CodeOf works on both sides of the wire.
func (m *Message) ResponseError() error {
	if m.MsgType != MsgTError && m.Err == "" {
		return nil
	}
	code := store.RetCode(m.ErrCode)
	if code == store.RetCSuccess {
		code = store.RetCInternalError
	}
	return store.NewError(code, m.Err)
}

// Criterion returns the index criterion of a QueryIndex request
func (m *Message) Criterion() (index.Criterion, error) {
	if m.Term == nil {
		return index.Criterion{}, fmt.Errorf("query without term")
	}
	start, err := cell.Decode(*m.Term)
	if err != nil {
		return index.Criterion{}, err
	}
	if m.RangeEnd == nil {
		return index.Exact(start), nil
	}
	end, err := cell.Decode(*m.RangeEnd)
	if err != nil {
		return index.Criterion{}, err
	}
	return index.Range(start, end), nil
}

// Options returns the index query options of a QueryIndex request
func (m *Message) Options() index.Options {
	return index.Options{
		MaxResults:   int(m.MaxResults),
		Continuation: m.Continuation,
		ReturnTerms:  m.ReturnTerms,
		Stream:       m.Stream,
	}
}

// StoreEntries returns the index entries of a Put request
func (m *Message) StoreEntries() ([]store.IndexEntry, error) {
	entries := make([]store.IndexEntry, 0, len(m.Entries))
	for _, e := range m.Entries {
		t, err := cell.Decode(e.Term)
		if err != nil {
			return nil, err
		}
		entries = append(entries, store.IndexEntry{Name: e.Name, Term: t})
	}
	return entries, nil
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewQueryIndexRequest creates a new QueryIndex request.
// Terms that cannot be encoded as cells are returned as error.
func NewQueryIndexRequest(bucket, indexName string, criterion index.Criterion, opts index.Options) (*Message, error) {
	if opts.MaxResults < 0 {
		return nil, fmt.Errorf("max results must not be negative, got %d", opts.MaxResults)
	}

	start, err := cell.Encode(criterion.Start)
	if err != nil {
		return nil, err
	}
	msg := &Message{
		MsgType:      MsgTQueryIndex,
		Bucket:       bucket,
		Index:        indexName,
		Term:         &start,
		MaxResults:   uint32(opts.MaxResults),
		Continuation: opts.Continuation,
		ReturnTerms:  opts.ReturnTerms,
		Stream:       opts.Stream,
	}
	if criterion.IsRange() {
		end, err := cell.Encode(criterion.End)
		if err != nil {
			return nil, err
		}
		msg.RangeEnd = &end
	}
	return msg, nil
}

// NewQueryIndexResponse creates a new QueryIndex response
func NewQueryIndexResponse(result *index.Collection, err error) *Message {
	msg := &Message{
		MsgType: MsgTQueryIndex,
	}
	if result != nil {
		msg.Continuation = result.Continuation
		if result.HasTerms() {
			msg.Results = result.Results()
			msg.ReturnTerms = true
		} else {
			msg.Keys = result.Keys
		}
	}
	return msg.setError(err)
}

// Collection builds the index collection of a QueryIndex response
func (m *Message) Collection() *index.Collection {
	if m.ReturnTerms {
		results := m.Results
		if results == nil {
			results = []index.TermKey{}
		}
		return index.NewCollection(nil, results, m.Continuation)
	}
	return index.NewCollection(m.Keys, nil, m.Continuation)
}

// NewFetchRequest creates a new Fetch request
func NewFetchRequest(bucket, key string, opts index.FetchOptions) *Message {
	return &Message{
		MsgType:       MsgTFetch,
		Bucket:        bucket,
		Key:           key,
		IgnoreMissing: opts.IgnoreMissing,
	}
}

// NewFetchResponse creates a new Fetch response
func NewFetchResponse(value []byte, err error) *Message {
	msg := &Message{
		MsgType: MsgTFetch,
		Ok:      value != nil,
		Value:   value,
	}
	return msg.setError(err)
}

// NewPutRequest creates a new Put request
func NewPutRequest(bucket, key string, value []byte, entries []store.IndexEntry) (*Message, error) {
	wireEntries := make([]IndexEntry, 0, len(entries))
	for _, e := range entries {
		t, err := cell.Encode(e.Term)
		if err != nil {
			return nil, err
		}
		wireEntries = append(wireEntries, IndexEntry{Name: e.Name, Term: t})
	}
	return &Message{
		MsgType: MsgTPut,
		Bucket:  bucket,
		Key:     key,
		Value:   value,
		Entries: wireEntries,
	}, nil
}

// NewPutResponse creates a new Put response carrying the (assigned) key
func NewPutResponse(key string, err error) *Message {
	msg := &Message{
		MsgType: MsgTPut,
		Key:     key,
	}
	return msg.setError(err)
}

// NewDeleteRequest creates a new Delete request
func NewDeleteRequest(bucket, key string) *Message {
	return &Message{
		MsgType: MsgTDelete,
		Bucket:  bucket,
		Key:     key,
	}
}

// NewDeleteResponse creates a new Delete response
func NewDeleteResponse(err error) *Message {
	msg := &Message{
		MsgType: MsgTDelete,
	}
	return msg.setError(err)
}

// NewPutRowRequest creates a new PutRow request
func NewPutRowRequest(table, key string, row []cell.Cell) *Message {
	return &Message{
		MsgType: MsgTPutRow,
		Bucket:  table,
		Key:     key,
		Cells:   row,
	}
}

// NewPutRowResponse creates a new PutRow response
func NewPutRowResponse(err error) *Message {
	msg := &Message{
		MsgType: MsgTPutRow,
	}
	return msg.setError(err)
}

// NewGetRowRequest creates a new GetRow request
func NewGetRowRequest(table, key string) *Message {
	return &Message{
		MsgType: MsgTGetRow,
		Bucket:  table,
		Key:     key,
	}
}

// NewGetRowResponse creates a new GetRow response
func NewGetRowResponse(row []cell.Cell, ok bool, err error) *Message {
	msg := &Message{
		MsgType: MsgTGetRow,
		Cells:   row,
		Ok:      ok,
	}
	return msg.setError(err)
}

// NewVersionRequest creates a new Version request
func NewVersionRequest() *Message {
	return &Message{
		MsgType: MsgTVersion,
	}
}

// NewVersionResponse creates a new Version response
func NewVersionResponse(version string, err error) *Message {
	msg := &Message{
		MsgType: MsgTVersion,
		Version: version,
	}
	return msg.setError(err)
}

// NewInfoRequest creates a new Info request
func NewInfoRequest() *Message {
	return &Message{
		MsgType: MsgTInfo,
	}
}

// NewInfoResponse creates a new Info response
func NewInfoResponse(info store.Info, err error) *Message {
	msg := &Message{
		MsgType: MsgTInfo,
	}
	if err == nil {
		msg.Info = &info
	}
	return msg.setError(err)
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
		ErrCode: uint64(store.RetCInternalError),
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTQueryIndex:
		return "queryIndex"
	case MsgTFetch:
		return "fetch"
	case MsgTPut:
		return "put"
	case MsgTDelete:
		return "delete"
	case MsgTPutRow:
		return "putRow"
	case MsgTGetRow:
		return "getRow"
	case MsgTVersion:
		return "version"
	case MsgTInfo:
		return "info"
	case MsgTError:
		return "error"
	case MsgTSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	// Convert string back to MessageType
	switch s {
	case "queryIndex":
		*t = MsgTQueryIndex
	case "fetch":
		*t = MsgTFetch
	case "put":
		*t = MsgTPut
	case "delete":
		*t = MsgTDelete
	case "putRow":
		*t = MsgTPutRow
	case "getRow":
		*t = MsgTGetRow
	case "version":
		*t = MsgTVersion
	case "info":
		*t = MsgTInfo
	case "error":
		*t = MsgTError
	case "success":
		*t = MsgTSuccess
	default:
		return fmt.Errorf("unknown message type: %s", s)
	}

	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// index.Backend operations

	MsgTQueryIndex // Query a secondary index (one page or one stream chunk)
	MsgTFetch      // Fetch the value of an object
	MsgTVersion    // Get the server version

	// IStore write operations

	MsgTPut    // Store an object with its index entries
	MsgTDelete // Delete an object
	MsgTPutRow // Store a time series row
	MsgTGetRow // Get a time series row
	MsgTInfo   // Get store statistics
)
