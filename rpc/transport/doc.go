// Package transport defines how serialized dIndex messages travel between client
// and server. A transport only moves opaque byte payloads addressed to a shard,
// it knows nothing about messages or stores.
//
// Implementations live in the subpackages:
//
//   - tcp and unix: multiplexed connections built on the framing of package base.
//     Many requests share one connection and are matched to their responses by a
//     request id.
//   - http: one POST request per message to /<shardId>, easy to call with curl
//     together with the JSON serializer.
//
// A streamed index query is a chain of ordinary requests, so every transport
// supports it without special handling.
package transport
