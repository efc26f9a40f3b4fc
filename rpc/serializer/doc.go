// Package serializer turns dIndex RPC messages (common.Message) into byte payloads
// and back. The transports move these payloads without looking into them.
//
// Implementations:
//
//   - Binary (NewBinarySerializer): a flag based format that writes only the fields
//     a message uses. Index terms and row columns are embedded in the cell wire
//     format of lib/cell, so a cell holding false, 0 or "" keeps its type. This is
//     the smallest and fastest format and the default of the CLI.
//
//   - JSON (NewJSONSerializer): readable payloads for debugging and for the http
//     transport when it is called by hand. Message types are written by name.
//
//   - GOB (NewGOBSerializer): Go's gob encoding. Cells implement
//     encoding.BinaryMarshaler and reuse the cell wire format inside gob.
//     Every payload carries its own type description, which makes it the largest
//     format. It exists for compatibility and comparison.
//
// The benchmarks in this package compare the three formats for query requests,
// key and term results, rows and large values.
//
// All serializers are stateless and safe for concurrent use.
//
// Usage:
//
//	s := serializer.NewBinarySerializer()
//	data, err := s.Serialize(*common.NewFetchRequest("users", "alice", index.FetchOptions{}))
//	// ... send data ...
//	var resp common.Message
//	err = s.Deserialize(received, &resp)
package serializer
