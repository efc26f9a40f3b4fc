package serializer

import (
	"reflect"
	"testing"

	"github.com/ValentinKolb/dIndex/lib/cell"
	"github.com/ValentinKolb/dIndex/lib/index"
	"github.com/ValentinKolb/dIndex/lib/store"
	"github.com/ValentinKolb/dIndex/rpc/common"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON":   NewJSONSerializer,
	"GOB":    NewGOBSerializer,
	"Binary": NewBinarySerializer,
}

func cellPtr(c cell.Cell) *cell.Cell {
	return &c
}

// testRow contains one cell per tag, including a false boolean and a null cell
func testRow() []cell.Cell {
	f := float32(1.25)
	return []cell.Cell{
		cell.Binary([]byte("sensor-1")),
		cell.Integer(-42),
		cell.Double(21.5),
		{FloatValue: &f},
		cell.Numeric("12345678901234567890.5"),
		cell.Timestamp(1700000000123),
		cell.Boolean(false),
		{},
	}
}

// testMessages creates a set of test messages with different fields filled
func testMessages() []common.Message {
	return []common.Message{
		// Basic message with just a type
		{MsgType: common.MsgTSuccess},

		// Range query request with all options
		{
			MsgType:      common.MsgTQueryIndex,
			Bucket:       "foo",
			Index:        "asdf_bin",
			Term:         cellPtr(cell.Binary([]byte("aaaa"))),
			RangeEnd:     cellPtr(cell.Binary([]byte("zzzz"))),
			MaxResults:   5,
			Continuation: "examplecontinuation",
			ReturnTerms:  true,
			Stream:       true,
		},

		// Exact query request on an integer index
		{
			MsgType: common.MsgTQueryIndex,
			Bucket:  "foo",
			Index:   "age_int",
			Term:    cellPtr(cell.Integer(42)),
		},

		// Query response with keys
		{
			MsgType:      common.MsgTQueryIndex,
			Keys:         []string{"aaaa", "bbbb", "aaaa"},
			Continuation: "T1",
		},

		// Query response with terms
		{
			MsgType:     common.MsgTQueryIndex,
			ReturnTerms: true,
			Results: []index.TermKey{
				{Term: "aaaa", Key: "aaaa"},
				{Term: "bbbb", Key: "bbbb"},
				{Term: "bbbb", Key: "bbbb2"},
			},
		},

		// Put request
		{
			MsgType: common.MsgTPut,
			Bucket:  "foo",
			Key:     "k1",
			Value:   []byte("test-value"),
			Entries: []common.IndexEntry{
				{Name: "age_int", Term: cell.Integer(42)},
				{Name: "name_bin", Term: cell.Binary([]byte("bob"))},
			},
		},

		// Row request and response
		{
			MsgType: common.MsgTPutRow,
			Bucket:  "weather",
			Key:     "r1",
			Cells:   testRow(),
		},
		{
			MsgType: common.MsgTGetRow,
			Cells:   testRow(),
			Ok:      true,
		},

		// Fetch request and response
		{
			MsgType:       common.MsgTFetch,
			Bucket:        "foo",
			Key:           "k1",
			IgnoreMissing: true,
		},
		{
			MsgType: common.MsgTFetch,
			Value:   []byte("test-value"),
			Ok:      true,
		},

		// Version and info responses
		{
			MsgType: common.MsgTVersion,
			Version: "2.0.0",
		},
		{
			MsgType: common.MsgTInfo,
			Info:    &store.Info{Version: "1.4.0", Objects: 3, IndexEntries: 7, Rows: 1},
		},

		// Error response
		{
			MsgType: common.MsgTError,
			Err:     "test error message",
			ErrCode: uint64(store.RetCNotFound),
		},
	}
}

// TestSerializerRoundTrip tests that messages can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	messages := testMessages()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range messages {
				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message %d: %v", i, err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message %d: %v", i, err)
					continue
				}

				// Compare
				if !reflect.DeepEqual(msg, result) {
					t.Errorf("Message %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
						i, msg, result)
				}
			}
		})
	}
}

// TestCellsKeepTheirType tests that decoding a row gives the same values for every serializer
func TestCellsKeepTheirType(t *testing.T) {
	expected, err := cell.DecodeRow(testRow())
	if err != nil {
		t.Fatalf("Failed to decode row: %v", err)
	}

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()
			data, err := serializer.Serialize(common.Message{MsgType: common.MsgTGetRow, Cells: testRow()})
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}

			var result common.Message
			if err := serializer.Deserialize(data, &result); err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}

			values, err := cell.DecodeRow(result.Cells)
			if err != nil {
				t.Fatalf("Failed to decode row: %v", err)
			}
			if !reflect.DeepEqual(expected, values) {
				t.Errorf("Row values don't match:\nExpected: %v\nResult: %v", expected, values)
			}
			if values[6] != false {
				t.Errorf("Expected false boolean to survive, got %v", values[6])
			}
			if values[7] != nil {
				t.Errorf("Expected null cell to stay null, got %v", values[7])
			}
		})
	}
}

// TestMessageTypes tests each message type with each serializer
func TestMessageTypes(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			// Test each message type (don't test for MsgTUnknown since this should raise an error)
			for msgType := common.MsgTSuccess; msgType <= common.MsgTInfo; msgType++ {
				msg := common.Message{MsgType: msgType}

				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message type %s: %v", msgType.String(), err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message type %s: %v", msgType.String(), err)
					continue
				}

				// Check type
				if result.MsgType != msgType {
					t.Errorf("Message type doesn't match after round trip: Expected %s, got %s",
						msgType.String(), result.MsgType.String())
				}
			}
		})
	}
}

// TestBinarySerializerSpecific tests specific edge cases for the binary serializer
func TestBinarySerializerSpecific(t *testing.T) {
	serializer := NewBinarySerializer()

	// Test cases for empty or zero values, these are compared exactly
	testCases := []struct {
		name string
		msg  common.Message
	}{
		{
			name: "Empty message",
			msg:  common.Message{},
		},
		{
			name: "Message with empty value slice but not nil",
			msg: common.Message{
				MsgType: common.MsgTPut,
				Key:     "test",
				Value:   []byte{},
			},
		},
		{
			name: "Query response with empty key list",
			msg: common.Message{
				MsgType: common.MsgTQueryIndex,
				Keys:    []string{},
			},
		},
		{
			name: "Query response with empty results",
			msg: common.Message{
				MsgType:     common.MsgTQueryIndex,
				ReturnTerms: true,
				Results:     []index.TermKey{},
			},
		},
		{
			name: "Empty strings inside lists",
			msg: common.Message{
				MsgType: common.MsgTQueryIndex,
				Keys:    []string{"", "a", ""},
				Results: []index.TermKey{{Term: "", Key: ""}},
			},
		},
		{
			name: "Null term",
			msg: common.Message{
				MsgType: common.MsgTQueryIndex,
				Term:    &cell.Cell{},
			},
		},
		{
			name: "Empty binary cell",
			msg: common.Message{
				MsgType: common.MsgTPutRow,
				Cells:   []cell.Cell{cell.Binary(nil)},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Serialize
			data, err := serializer.Serialize(tc.msg)
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}

			// Deserialize
			var result common.Message
			err = serializer.Deserialize(data, &result)
			if err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}

			if !reflect.DeepEqual(tc.msg, result) {
				t.Errorf("Message doesn't match after round trip:\nOriginal: %+v\nResult: %+v", tc.msg, result)
			}
		})
	}
}

// TestBinaryDeserializeResetsMessage tests that a reused message does not keep old fields
func TestBinaryDeserializeResetsMessage(t *testing.T) {
	serializer := NewBinarySerializer()

	data, err := serializer.Serialize(common.Message{MsgType: common.MsgTDelete, Bucket: "foo", Key: "k1"})
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}

	msg := common.Message{Value: []byte("old"), Keys: []string{"old"}, Ok: true, Err: "old"}
	if err := serializer.Deserialize(data, &msg); err != nil {
		t.Fatalf("Failed to deserialize: %v", err)
	}

	expected := common.Message{MsgType: common.MsgTDelete, Bucket: "foo", Key: "k1"}
	if !reflect.DeepEqual(expected, msg) {
		t.Errorf("Expected %+v, got %+v", expected, msg)
	}
}

// TestBinaryTruncatedData tests that every truncation of a valid message is rejected
func TestBinaryTruncatedData(t *testing.T) {
	serializer := NewBinarySerializer()

	for i, msg := range testMessages() {
		data, err := serializer.Serialize(msg)
		if err != nil {
			t.Fatalf("Failed to serialize message %d: %v", i, err)
		}

		for n := 0; n < len(data); n++ {
			var result common.Message
			if err := serializer.Deserialize(data[:n], &result); err == nil {
				t.Errorf("Expected error for message %d truncated to %d of %d bytes", i, n, len(data))
			}
		}
	}
}

// TestInvalidBinaryData tests how the binary serializer handles corrupt or invalid data
func TestInvalidBinaryData(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name        string
		data        []byte
		expectError bool
	}{
		{
			name:        "Empty data",
			data:        []byte{},
			expectError: true,
		},
		{
			name:        "Too short header",
			data:        []byte{1, 0, 0}, // Message type and half of the flags
			expectError: true,
		},
		{
			name:        "Valid header only",
			data:        []byte{1, 0, 0, 0, 0}, // Message type 1, no flags
			expectError: false,
		},
		{
			name:        "Invalid length for key",
			data:        []byte{1, 0, 0, 0, 2, 0, 0, 0, 5, 'a', 'b', 'c'}, // Claims key length 5 but only 3 bytes provided
			expectError: true,
		},
		{
			name:        "Invalid length for value",
			data:        []byte{1, 0, 0, 0, 4, 0, 0, 0, 10}, // Claims value length 10 but no bytes provided
			expectError: true,
		},
		{
			name:        "Huge key count",
			data:        []byte{1, 0, 0, 0x20, 0, 0xff, 0xff, 0xff, 0xff}, // Claims 4 billion keys
			expectError: true,
		},
		{
			name:        "Invalid term cell",
			data:        []byte{1, 0, 0, 0, 0x10, 0x02, 0, 0}, // Integer cell with only 2 bytes
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var msg common.Message
			err := serializer.Deserialize(tc.data, &msg)

			if tc.expectError && err == nil {
				t.Errorf("Expected error but got none")
			} else if !tc.expectError && err != nil {
				t.Errorf("Did not expect error but got: %v", err)
			}
		})
	}
}
