// Package rpc connects index.Backend clients to stores served by a remote dIndex
// server.
//
// Subpackages:
//
//   - common: the Message exchanged for every operation, client and server
//     configuration, and the loggers.
//   - serializer: Binary, JSON and GOB encodings of a Message.
//   - transport: tcp, unix and http transports moving the encoded messages.
//   - client: NewRPCStore, a store.IStore (and therefore index.Backend) that sends
//     every call to the server. Streamed queries are fetched in chunks.
//   - server: RPCServer hosting one store per shard and the adapter translating
//     messages into store calls.
//
// A typical client:
//
//	backend, err := client.NewRPCStore(100, config, tcp.NewTCPClientTransport(), serializer.NewBinarySerializer())
//	keys, err := index.NewQuery(backend, "users", "age_int", index.Range(18, 30), index.Options{MaxResults: 50}).Keys()
package rpc
