// Package store defines the contract of a store that answers secondary index
// queries, together with a unified error type.
//
// Key Components:
//
//   - IStore Interface: extends index.Backend (the read side used by index.Query)
//     with object writes carrying index entries and time series rows. The rpc client
//     and the in-memory store both implement it, so queries run unchanged against a
//     local store or a remote server.
//
//   - Error System: a structured error with typed return codes (RetCode). The codes
//     survive the rpc round trip, so callers can check for RetCNotFound or
//     RetCInvalidOperation on both sides of the wire.
//
// Implementations:
//
//	- Memory Store (memstore): a single node store keeping objects in maps and the
//	  index entries in an ordered btree. Available in the
//	  "github.com/ValentinKolb/dIndex/lib/store/memstore" package.
//
//	- RPC Store: a client for a remote dindex server. Available in the
//	  "github.com/ValentinKolb/dIndex/rpc/client" package.
package store
