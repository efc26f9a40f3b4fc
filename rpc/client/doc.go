// Package client implements the RPC client of the dIndex system.
// It provides an implementation of the store.IStore interface (and therefore of
// index.Backend) that communicates with a remote server via RPC.
//
// The package focuses on:
//   - Transparent RPC access to a remote store shard
//   - Integration with the transport and serialization layers
//   - Error handling and conversion between RPC and domain errors
//
// Key Components:
//
//   - NewRPCStore: Factory function that creates a client implementing the store.IStore
//     interface. This client forwards all operations to remote servers via the configured
//     transport layer. Error responses are returned as *store.Error with the code the
//     server reported, so store.CodeOf and store.IsNotFound work on remote errors.
//
// Streaming:
//
//	StreamIndex is served as a chain of paginated requests of StreamChunkSize keys.
//	The visitor is called for the keys of a chunk as soon as the chunk arrived, so
//	a stream of any length is never buffered completely. Servers older than
//	index.PaginationVersion cannot paginate and answer with a single chunk.
//
// Usage Example:
//
//	config := common.ClientConfig{
//	  TimeoutSecond: 5,
//	  Transport: common.ClientTransportConfig{
//	    Endpoints:  []string{"localhost:8080"},
//	    RetryCount: 3,
//	  },
//	}
//
//	s, _ := client.NewRPCStore(100, config, tcp.NewTCPClientTransport(), serializer.NewBinarySerializer())
//
//	s.Put("users", "bob", []byte("..."), []store.IndexEntry{{Name: "age_int", Term: 42}})
//	keys, _ := index.NewQuery(s, "users", "age_int", index.Range(18, 65), index.Options{}).Keys()
//
// Metrics:
//
//	Every request updates the VictoriaMetrics histogram
//	dindex_client_request_duration_seconds and, on failure, the counter
//	dindex_client_request_errors_total (both labeled by message type).
//
// Thread Safety:
//
//	The client is thread-safe and can be used concurrently from multiple
//	goroutines without additional synchronization.
package client
