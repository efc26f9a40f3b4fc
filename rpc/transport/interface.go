package transport

import (
	"github.com/ValentinKolb/dIndex/rpc/common"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerHandleFunc is called by a server transport once per request with the shard
// the request is addressed to and the serialized message. The returned bytes are sent
// back as the response. It may be called concurrently.
type ServerHandleFunc func(shardId uint64, req []byte) (resp []byte)

// IRPCServerTransport accepts requests and hands them to the registered handler.
type IRPCServerTransport interface {
	// RegisterHandler sets the handler, it must be called before Listen
	RegisterHandler(handler ServerHandleFunc)
	// Listen serves config.Transport.Endpoint.
	// It blocks until the transport is closed (returns nil) or fails
	Listen(config common.ServerConfig) error
	// Close stops listening, open connections are finished by their workers
	Close() error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport sends serialized requests to a server and waits for the response.
// Implementations are safe for concurrent use.
type IRPCClientTransport interface {
	// Connect opens the connections to config.Transport.Endpoints
	Connect(config common.ClientConfig) error
	// Send delivers req to the given shard and returns the raw response.
	// Retries and timeouts follow the ClientConfig passed to Connect.
	Send(shardId uint64, req []byte) (resp []byte, err error)
	// Close closes all connections, pending requests fail
	Close() error
}
