package base

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dIndex/rpc/common"
	"github.com/ValentinKolb/dIndex/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("transport/rpc")

var (
	errConnectionClosed = errors.New("connection is closed")
	errRequestTimeout   = errors.New("request timed out")
)

const (
	initialBackoff = 50 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector supplies the protocol specific parts of a client transport
type IClientConnector interface {
	// Connect dials a single connection to endpoint
	Connect(endpoint string) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

type responseResult struct {
	data []byte
	err  error
}

// clientConnection is one multiplexed connection. The reader goroutine owns
// reconnects, senders only take the current conn under connMu.
type clientConnection struct {
	endpoint string
	parent   *clientTransport
	stopCh   chan struct{} // closed when the transport closes

	connMu sync.Mutex // Protects conn and serializes frame writes
	conn   net.Conn

	requestChans *xsync.MapOf[uint64, chan responseResult]
}

// clientTransport implements the client side of the framed protocol
// independent of the specific transport medium (unix, tcp, etc.)
type clientTransport struct {
	connector     IClientConnector
	config        common.ClientConfig
	connections   []*clientConnection
	connectionsMu sync.RWMutex
	nextConnIndex atomic.Uint64 // Round Robin counter
	nextRequestID atomic.Uint64
	stopping      atomic.Bool

	reconnects *metrics.Counter
	retries    *metrics.Counter
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	return &clientTransport{
		connector:  connector,
		reconnects: metrics.GetOrCreateCounter(fmt.Sprintf(`dindex_transport_reconnects_total{transport=%q}`, connector.GetName())),
		retries:    metrics.GetOrCreateCounter(fmt.Sprintf(`dindex_transport_retries_total{transport=%q}`, connector.GetName())),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(config common.ClientConfig) error {
	if len(config.Transport.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}

	// Drop the connections of an earlier Connect
	t.closeConnections()
	t.config = config
	t.stopping.Store(false)

	connectionsPerEP := max(config.Transport.ConnectionsPerEndpoint, 1)
	total := len(config.Transport.Endpoints) * connectionsPerEP
	connections := make([]*clientConnection, 0, total)

	for _, endpoint := range config.Transport.Endpoints {
		for i := 0; i < connectionsPerEP; i++ {
			c := &clientConnection{
				endpoint:     endpoint,
				parent:       t,
				stopCh:       make(chan struct{}),
				requestChans: xsync.NewMapOf[uint64, chan responseResult](),
			}

			conn, err := c.dial()
			if err != nil {
				Logger.Warningf("Failed to connect to %s (connection %d/%d): %v", endpoint, i+1, connectionsPerEP, err)
				continue
			}
			c.conn = conn
			connections = append(connections, c)

			Logger.Debugf("Connected to %s (connection %d/%d)", endpoint, i+1, connectionsPerEP)
			go c.readResponses(conn)
		}
	}

	if len(connections) == 0 {
		return fmt.Errorf("failed to connect to any endpoint")
	}

	t.connectionsMu.Lock()
	t.connections = connections
	t.connectionsMu.Unlock()

	Logger.Infof("Connected with %d of %d connections to %d endpoints using %s transport",
		len(connections), total, len(config.Transport.Endpoints), t.connector.GetName())

	return nil
}

func (t *clientTransport) Send(shardId uint64, req []byte) ([]byte, error) {
	attempts := max(t.config.Transport.RetryCount, 1)
	backoff := initialBackoff

	var lastErr error
	for i := 0; i < attempts; i++ {
		c := t.nextConnection()
		if c == nil {
			return nil, fmt.Errorf("no active connections available")
		}

		// every attempt gets its own id, a late response of a timed out attempt is dropped
		data, err := c.roundTrip(shardId, t.nextRequestID.Add(1), req)
		if err == nil {
			return data, nil
		}

		lastErr = err
		Logger.Debugf("Request attempt %d/%d to %s failed: %v", i+1, attempts, c.endpoint, err)

		if i < attempts-1 {
			t.retries.Inc()
			time.Sleep(jitter(backoff))
			backoff = min(backoff*2, maxBackoff)
		}
	}

	return nil, fmt.Errorf("failed to send request after %d attempts: %w", attempts, lastErr)
}

func (t *clientTransport) Close() error {
	t.stopping.Store(true)
	t.closeConnections()
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// nextConnection selects the next connection via Round Robin
func (t *clientTransport) nextConnection() *clientConnection {
	t.connectionsMu.RLock()
	defer t.connectionsMu.RUnlock()

	switch len(t.connections) {
	case 0:
		return nil
	case 1:
		return t.connections[0]
	default:
		return t.connections[t.nextConnIndex.Add(1)%uint64(len(t.connections))]
	}
}

// closeConnections stops all readers and closes their connections
func (t *clientTransport) closeConnections() {
	t.connectionsMu.Lock()
	connections := t.connections
	t.connections = nil
	t.connectionsMu.Unlock()

	for _, c := range connections {
		close(c.stopCh)

		c.connMu.Lock()
		if c.conn != nil {
			_ = c.conn.Close()
			c.conn = nil
		}
		c.connMu.Unlock()

		c.failPending(errConnectionClosed)
	}
}

// jitter spreads d by +-10%
func jitter(d time.Duration) time.Duration {
	return time.Duration(float64(d) * (0.9 + 0.2*rand.Float64()))
}

// --------------------------------------------------------------------------
// Connection
// --------------------------------------------------------------------------

// roundTrip writes one request frame and waits for the matching response
func (c *clientConnection) roundTrip(shardId, requestID uint64, req []byte) ([]byte, error) {
	timeout := time.Duration(c.parent.config.TimeoutSecond) * time.Second

	respCh := make(chan responseResult, 1)
	c.requestChans.Store(requestID, respCh)
	defer c.requestChans.Delete(requestID)

	c.connMu.Lock()
	if c.conn == nil {
		c.connMu.Unlock()
		return nil, errConnectionClosed
	}
	if timeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	err := writeFrame(c.conn, shardId, requestID, req)
	c.connMu.Unlock()
	if err != nil {
		return nil, err
	}

	if timeout <= 0 {
		result := <-respCh
		return result.data, result.err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case result := <-respCh:
		return result.data, result.err
	case <-timer.C:
		return nil, errRequestTimeout
	}
}

// readResponses delivers the responses read from conn to the waiting requests.
// If conn breaks, the pending requests fail and the connection is re-dialed with
// backoff until it succeeds or the transport closes.
// No read deadline is set, request timeouts are enforced by roundTrip.
func (c *clientConnection) readResponses(conn net.Conn) {
	for {
		shardID, requestID, data, err := readFrame(conn, nil)
		if err == nil {
			respCh, found := c.requestChans.Load(requestID)
			if !found {
				// e.g. the request has timed out
				Logger.Warningf("Received response for unknown request ID %d with shard ID %d", requestID, shardID)
				continue
			}
			select {
			case respCh <- responseResult{data: data}:
			default:
			}
			continue
		}

		if c.stopped() {
			return
		}

		Logger.Warningf("Error reading response from %s: %v", c.endpoint, err)
		c.failPending(fmt.Errorf("error reading response: %w", err))

		if conn = c.reconnect(conn); conn == nil {
			return
		}
	}
}

// reconnect replaces the broken connection, retrying with backoff.
// It returns nil once the transport is closed.
func (c *clientConnection) reconnect(broken net.Conn) net.Conn {
	c.connMu.Lock()
	if c.conn == broken {
		c.conn = nil
	}
	c.connMu.Unlock()
	_ = broken.Close()

	backoff := initialBackoff
	for {
		if c.stopped() {
			return nil
		}

		conn, err := c.dial()
		if err == nil {
			c.connMu.Lock()
			if c.stopped() {
				c.connMu.Unlock()
				_ = conn.Close()
				return nil
			}
			c.conn = conn
			c.connMu.Unlock()

			c.parent.reconnects.Inc()
			Logger.Infof("Reconnected to %s", c.endpoint)
			return conn
		}

		Logger.Errorf("Failed to reconnect to %s: %v", c.endpoint, err)
		select {
		case <-c.stopCh:
			return nil
		case <-time.After(jitter(backoff)):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

// dial opens and upgrades a new connection to the endpoint
func (c *clientConnection) dial() (net.Conn, error) {
	conn, err := c.parent.connector.Connect(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", c.endpoint, err)
	}

	if err := c.parent.connector.UpgradeConnection(conn, c.parent.config); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to upgrade connection to %s: %w", c.endpoint, err)
	}
	return conn, nil
}

// failPending answers all waiting requests with err
func (c *clientConnection) failPending(err error) {
	c.requestChans.Range(func(_ uint64, respCh chan responseResult) bool {
		select {
		case respCh <- responseResult{err: err}:
		default:
		}
		return true
	})
}

func (c *clientConnection) stopped() bool {
	if c.parent.stopping.Load() {
		return true
	}
	select {
	case <-c.stopCh:
		return true
	default:
		return false
	}
}
