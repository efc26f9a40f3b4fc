// Package server implements the RPC server of the dIndex system.
// It routes requests to shards, each shard being a store answering index queries,
// fetches and writes.
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for all server adapters,
//     with the Handle method that processes incoming requests against a store.IStore.
//
//   - NewIStoreServerAdapter: Factory function creating the adapter translating RPC
//     requests to store.IStore method calls. Streamed queries arrive as a chain of
//     paginated requests, each answered with one page of keys and a continuation.
//
//   - NewRPCServer: Factory function creating a configured server with the specified
//     transport and serializer mechanisms.
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  Shards: []common.ServerShard{
//	    {ShardID: 100, Type: common.ShardTypeMemStore},
//	    {ShardID: 200, Type: common.ShardTypeMemStore, Version: "1.3.0"},
//	  },
//	  Transport:     common.ServerTransportConfig{Endpoint: "0.0.0.0:8080"},
//	  TimeoutSecond: 5,
//	  LogLevel:      "info",
//	}
//
//	s := server.NewRPCServer(config, tcp.NewTCPServerTransport(), serializer.NewBinarySerializer())
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Shards:
//
//	The only shard type is ShardTypeMemStore, an in-memory store (see memstore).
//	A shard may report an older server version, in which case it rejects
//	pagination and return terms like servers before index.PaginationVersion did.
//
// Metrics:
//
//	Request durations and errors are recorded with VictoriaMetrics metrics and
//	served in the prometheus format on ServerConfig.MetricsEndpoint (/metrics).
//
// Thread Safety:
//
//	The server implementation is thread-safe and can handle concurrent requests
//	across multiple connections. Serve should be called only once.
package server
