// Package cell implements the typed scalar codec used for time-series rows and
// index criteria. It converts native Go values into Cells, the tagged wire
// representation of a single scalar, and back.
//
// The package focuses on:
//   - A closed set of encodable value kinds with deterministic failures
//   - Tag presence based decoding (a false boolean is not null)
//   - A compact flag based binary encoding of a single Cell
//
// Key Components:
//
//   - Cell: Tagged union with one optional field per wire type. A Cell without any
//     field set represents null.
//
//   - Encode / Decode: Pure conversion functions. Encode fails with an
//     *UnsupportedValueError for rational and complex numbers and panics for value
//     kinds that are not part of the contract.
//
//   - MarshalBinary / UnmarshalBinary: Flag byte followed by the present fields,
//     the same layout the rpc binary serializer uses for messages.
//
// Round trips are lossy: an integer valued numeric and an integer decode
// to the same int64, []byte decodes to string, and the float vs integer distinction
// of a numeric is recovered only from the presence of a decimal point.
//
// Thread Safety:
//
//	All functions are stateless and safe for concurrent use.
package cell
