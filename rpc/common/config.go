package common

import (
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Socket configuration (shared by client and server)
// --------------------------------------------------------------------------

// SocketConf contains the socket buffer settings of the tcp and unix transports
type SocketConf struct {
	WriteBufferSize int // in bytes, 0 = os default
	ReadBufferSize  int // in bytes, 0 = os default
}

// TCPConf contains the settings only applied to tcp connections
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int // 0 = disabled
	TCPLingerSec    int // <= 0 = os default
}

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

type ServerShardType string

const (
	ShardTypeMemStore ServerShardType = "memory store"
)

type ServerShard struct {
	// ShardID is the ID of the shard
	ShardID uint64
	// Type is the store implementation of the shard
	Type ServerShardType
	// Version is the server version the shard reports ("" = current version)
	Version string
}

// ServerTransportConfig contains the transport settings of the server
type ServerTransportConfig struct {
	// Endpoint the server listens on (host:port, socket path or http address)
	Endpoint string
	// WorkersPerConn limits the concurrent requests per connection (tcp and unix)
	WorkersPerConn int
	// BufferSize is the size of the pooled read buffers in bytes (tcp and unix)
	BufferSize int
	SocketConf
	TCPConf
}

// ServerConfig holds all configuration parameters of the rpc server.
type ServerConfig struct {
	// Shards served by this server
	Shards []ServerShard

	// TimeoutSecond is the read and write timeout of a connection (0 = none)
	TimeoutSecond int64

	// Transport settings
	Transport ServerTransportConfig

	// MetricsEndpoint exposes prometheus metrics over http if set (e.g. localhost:9100)
	MetricsEndpoint string

	// Logging configuration
	LogLevel string
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// RPC settings
	addSection("RPC Server")
	addField("Endpoint", c.Transport.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Workers Per Conn", strconv.Itoa(c.Transport.WorkersPerConn))
	addField("Buffer Size", fmt.Sprintf("%d bytes", c.Transport.BufferSize))
	if c.MetricsEndpoint != "" {
		addField("Metrics", "http://"+c.MetricsEndpoint+"/metrics")
	}

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	// Shards
	addSection("Shards")
	for _, shard := range c.Shards {
		desc := string(shard.Type)
		if shard.Version != "" {
			desc += fmt.Sprintf(" (version %s)", shard.Version)
		}
		addField(strconv.FormatUint(shard.ShardID, 10), desc)
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClientTransportConfig contains the transport settings of the client
type ClientTransportConfig struct {
	Endpoints              []string
	RetryCount             int
	ConnectionsPerEndpoint int
	SocketConf
	TCPConf
}

type ClientConfig struct {
	TimeoutSecond int
	// StreamChunkSize is the number of keys requested per round trip of a streamed query
	StreamChunkSize int
	Transport       ClientTransportConfig
}

// DefaultStreamChunkSize is used if ClientConfig.StreamChunkSize is not set
const DefaultStreamChunkSize = 1000

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Stream Chunk Size", strconv.Itoa(c.StreamChunkSize))
	addField("Retry Count", strconv.Itoa(c.Transport.RetryCount))
	addField("Connections Per Endpoint", strconv.Itoa(max(1, c.Transport.ConnectionsPerEndpoint)))

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Transport.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
