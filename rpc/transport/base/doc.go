// Package base implements the connection handling shared by the tcp and unix
// transports. The protocol specific parts (dialing, listening and socket options)
// are supplied through IClientConnector and IServerConnector.
//
// Framing:
//
// Every request and response is one frame:
//
//	shardId (8 bytes) | requestID (8 bytes) | length (4 bytes) | payload
//
// All integers are big endian. The server echoes shardId and requestID, which lets
// the client match responses to requests while many requests share a connection.
// Frames larger than 256 MB are rejected by both sides.
//
// Client:
//
// The client keeps ConnectionsPerEndpoint connections to every endpoint and picks one
// round robin per request. A reader goroutine per connection delivers responses to the
// waiting Send calls. If a connection breaks, its pending requests fail, the reader
// reconnects, and Send retries up to RetryCount times. TimeoutSecond bounds each
// attempt.
//
// Server:
//
// The server reads frames from a connection and handles up to WorkersPerConn of them
// concurrently. Responses may therefore leave in a different order than the requests
// arrived. Read buffers come from a sync.Pool of BufferSize sized slices.
package base
