package server

import (
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/ValentinKolb/dIndex/lib/store"
	"github.com/ValentinKolb/dIndex/lib/store/memstore"
	"github.com/ValentinKolb/dIndex/rpc/common"
	"github.com/ValentinKolb/dIndex/rpc/serializer"
	"github.com/ValentinKolb/dIndex/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("server")

// serverShard is a struct that represents a shard in the RPC server
// It contains the store it encapsulates and the adapter
// that handles requests for the store
type serverShard struct {
	Store   store.IStore
	Adapter IRPCServerAdapter
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		tcp.NewTCPServerTransport(),
//		serializer.NewBinarySerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	 }
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *RPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	// Create shards map
	shardMap := xsync.NewMapOf[uint64, serverShard]()

	// Create the RPC server
	return &RPCServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		shards:     shardMap,
	}
}

// RPCServer serves the shards of its config over one transport
type RPCServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	shards     *xsync.MapOf[uint64, serverShard]

	metricsMu     sync.Mutex
	metricsServer *http.Server
}

// Serve starts the RPC server
// This function will also initialize the shards, the metrics endpoint and start the transport layer.
// It blocks until the server is closed.
func (s *RPCServer) Serve() error {
	err := s.init()
	if err != nil {
		return err
	}
	return s.transport.Listen(s.config)
}

// Close stops the transport and the metrics endpoint
func (s *RPCServer) Close() error {
	s.metricsMu.Lock()
	if s.metricsServer != nil {
		s.metricsServer.Close()
	}
	s.metricsMu.Unlock()

	return s.transport.Close()
}

// Store returns the store of a shard, used to preload data
func (s *RPCServer) Store(shardId uint64) (store.IStore, bool) {
	shard, ok := s.shards.Load(shardId)
	return shard.Store, ok
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (s *RPCServer) init() error {
	if len(s.config.Shards) == 0 {
		return fmt.Errorf("no shards configured")
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof(s.config.String())

	// CREATE SHARDS
	for _, shardConfig := range s.config.Shards {
		if err := s.createShard(shardConfig); err != nil {
			return err
		}
	}

	Logger.Infof("dIndex setup completed successfully")

	// Expose metrics
	if s.config.MetricsEndpoint != "" {
		s.serveMetrics()
	}

	// Configure the transport layer
	s.registerTransportHandler()

	return nil
}

// createShard creates the store of one shard
func (s *RPCServer) createShard(shardConfig common.ServerShard) error {
	if _, exists := s.shards.Load(shardConfig.ShardID); exists {
		return fmt.Errorf("duplicate shard id %d", shardConfig.ShardID)
	}

	switch shardConfig.Type {
	case common.ShardTypeMemStore:
		var opts []memstore.Option
		if shardConfig.Version != "" {
			opts = append(opts, memstore.WithVersion(shardConfig.Version))
		}
		s.shards.Store(shardConfig.ShardID, serverShard{
			Store:   memstore.NewMemStore(opts...),
			Adapter: NewIStoreServerAdapter(),
		})
		Logger.Infof("created memory store for shard %d", shardConfig.ShardID)
		return nil
	default:
		return fmt.Errorf("invalid shard type: %s", shardConfig.Type)
	}
}

func (s *RPCServer) registerTransportHandler() {
	s.transport.RegisterHandler(func(shardId uint64, req []byte) []byte {
		var msg common.Message
		var respMsg common.Message

		start := time.Now()

		// Get appropriate shard
		shard, ok := s.shards.Load(shardId)

		// Case shard does not exist -> error
		if !ok {
			respMsg = common.Message{
				MsgType: common.MsgTError,
				Err:     fmt.Sprintf("shard %d not found", shardId),
				ErrCode: uint64(store.RetCNotFound),
			}
		} else {
			// Decode the request
			err := s.serializer.Deserialize(req, &msg)

			if err != nil {
				respMsg = *common.NewErrorResponse(fmt.Sprintf("failed to deserialize request: %s", err))
			} else {
				// Let the adapter handle the request
				respMsg = *shard.Adapter.Handle(&msg, shard.Store)
			}
		}

		metrics.GetOrCreateHistogram(fmt.Sprintf(`dindex_server_request_duration_seconds{type=%q}`, msg.MsgType)).UpdateDuration(start)
		if respMsg.MsgType == common.MsgTError || respMsg.Err != "" {
			metrics.GetOrCreateCounter(fmt.Sprintf(`dindex_server_request_errors_total{type=%q,code=%q}`, msg.MsgType, store.RetCode(respMsg.ErrCode))).Inc()
		}

		// Return result
		val, err := s.serializer.Serialize(respMsg)
		if err != nil {
			Logger.Errorf("failed to serialize response: %v", err)
			val, _ = s.serializer.Serialize(*common.NewErrorResponse(fmt.Sprintf("failed to serialize response: %s", err)))
		}
		return val
	})
}

// serveMetrics exposes the VictoriaMetrics registry in the prometheus text format
func (s *RPCServer) serveMetrics() {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w, true)
	})

	server := &http.Server{Addr: s.config.MetricsEndpoint, Handler: mux}
	s.metricsMu.Lock()
	s.metricsServer = server
	s.metricsMu.Unlock()

	go func() {
		Logger.Infof("Serving metrics on http://%s/metrics", s.config.MetricsEndpoint)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			Logger.Errorf("metrics endpoint failed: %v", err)
		}
	}()
}
