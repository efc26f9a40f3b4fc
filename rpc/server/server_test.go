package server

import (
	"fmt"
	"net"
	"path/filepath"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/dIndex/lib/index"
	"github.com/ValentinKolb/dIndex/lib/store"
	storetesting "github.com/ValentinKolb/dIndex/lib/store/testing"
	"github.com/ValentinKolb/dIndex/rpc/client"
	"github.com/ValentinKolb/dIndex/rpc/common"
	"github.com/ValentinKolb/dIndex/rpc/serializer"
	"github.com/ValentinKolb/dIndex/rpc/transport"
	"github.com/ValentinKolb/dIndex/rpc/transport/http"
	"github.com/ValentinKolb/dIndex/rpc/transport/tcp"
	"github.com/ValentinKolb/dIndex/rpc/transport/unix"
)

const (
	numTestShards = 16
	oldShardID    = 99 // shard reporting a version without pagination
)

type transportFactory struct {
	server   func() transport.IRPCServerTransport
	client   func() transport.IRPCClientTransport
	endpoint func(t *testing.T) string
}

var testTransports = map[string]transportFactory{
	"TCP": {
		server:   tcp.NewTCPServerTransport,
		client:   tcp.NewTCPClientTransport,
		endpoint: freeAddr,
	},
	"Unix": {
		server: unix.NewUnixServerTransport,
		client: unix.NewUnixClientTransport,
		endpoint: func(t *testing.T) string {
			return filepath.Join(t.TempDir(), "dindex.sock")
		},
	},
	"HTTP": {
		server:   http.NewHttpServerTransport,
		client:   http.NewHttpClientTransport,
		endpoint: freeAddr,
	},
}

var testSerializers = map[string]func() serializer.IRPCSerializer{
	"JSON":   serializer.NewJSONSerializer,
	"GOB":    serializer.NewGOBSerializer,
	"Binary": serializer.NewBinarySerializer,
}

// freeAddr returns a local tcp address that was free a moment ago
func freeAddr(t *testing.T) string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to find a free port: %v", err)
	}
	defer l.Close()
	return l.Addr().String()
}

// startServer starts a server with numTestShards memory stores (ids 1..n) and
// one store of an old version
func startServer(t *testing.T, tf transportFactory, sf func() serializer.IRPCSerializer) string {
	endpoint := tf.endpoint(t)

	shards := make([]common.ServerShard, 0, numTestShards+1)
	for i := 1; i <= numTestShards; i++ {
		shards = append(shards, common.ServerShard{ShardID: uint64(i), Type: common.ShardTypeMemStore})
	}
	shards = append(shards, common.ServerShard{ShardID: oldShardID, Type: common.ShardTypeMemStore, Version: "1.3.0"})

	s := NewRPCServer(common.ServerConfig{
		Shards:        shards,
		TimeoutSecond: 5,
		Transport: common.ServerTransportConfig{
			Endpoint:       endpoint,
			WorkersPerConn: 4,
		},
		LogLevel: "error",
	}, tf.server(), sf())

	done := make(chan error, 1)
	go func() { done <- s.Serve() }()

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Failed to close server: %v", err)
		}
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Serve returned error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Errorf("Server did not stop")
		}
	})
	return endpoint
}

// connect creates a client for one shard, waiting for the server to come up
func connect(t *testing.T, tf transportFactory, sf func() serializer.IRPCSerializer, endpoint string, shardID uint64) store.IStore {
	config := common.ClientConfig{
		TimeoutSecond:   5,
		StreamChunkSize: 4,
		Transport: common.ClientTransportConfig{
			Endpoints:  []string{endpoint},
			RetryCount: 3,
		},
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		tr := tf.client()
		s, err := client.NewRPCStore(shardID, config, tr, sf())
		if err == nil {
			// the http transport does not dial on connect
			if _, err = s.ServerVersion(); err == nil {
				t.Cleanup(func() { tr.Close() })
				return s
			}
			tr.Close()
		}
		if time.Now().After(deadline) {
			t.Fatalf("Failed to connect to %s: %v", endpoint, err)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

// TestRPCStore runs the store test suite against a remote store for every
// transport and serializer
func TestRPCStore(t *testing.T) {
	for tName, tf := range testTransports {
		for sName, sf := range testSerializers {
			t.Run(tName+"_"+sName, func(t *testing.T) {
				endpoint := startServer(t, tf, sf)

				var nextShard atomic.Uint64
				storetesting.RunStoreTests(t, "RPCStore", func() store.IStore {
					shardID := nextShard.Add(1)
					if shardID > numTestShards {
						t.Fatalf("Not enough test shards")
					}
					return connect(t, tf, sf, endpoint, shardID)
				})
			})
		}
	}
}

func TestUnknownShard(t *testing.T) {
	tf := testTransports["TCP"]
	sf := serializer.NewBinarySerializer
	endpoint := startServer(t, tf, sf)

	// wait for the server with a known shard
	connect(t, tf, sf, endpoint, 1)

	tr := tf.client()
	s, err := client.NewRPCStore(12345, common.ClientConfig{
		TimeoutSecond: 5,
		Transport:     common.ClientTransportConfig{Endpoints: []string{endpoint}},
	}, tr, sf())
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer tr.Close()

	if _, err := s.FetchValue("foo", "k1", index.FetchOptions{}); !store.IsNotFound(err) {
		t.Errorf("Expected not found error for unknown shard, got %v", err)
	}
}

func TestOldServerVersion(t *testing.T) {
	tf := testTransports["TCP"]
	sf := serializer.NewBinarySerializer
	endpoint := startServer(t, tf, sf)
	s := connect(t, tf, sf, endpoint, oldShardID)

	version, err := s.ServerVersion()
	if err != nil || version != "1.3.0" {
		t.Fatalf("Expected version 1.3.0, got %q (%v)", version, err)
	}

	var expected []string
	for i := 0; i < 10; i++ {
		key := fmt.Sprintf("k%d", i)
		expected = append(expected, key)
		if _, err := s.Put("foo", key, []byte("v"), []store.IndexEntry{{Name: "n_int", Term: i}}); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	// pagination and terms are rejected
	_, err = index.NewQuery(s, "foo", "n_int", index.Range(0, 9), index.Options{MaxResults: 2}).Keys()
	if store.CodeOf(err) != store.RetCUnsupportedOperation {
		t.Errorf("Expected unsupported operation for max results, got %v", err)
	}
	_, err = index.NewQuery(s, "foo", "n_int", index.Range(0, 9), index.Options{ReturnTerms: true}).Keys()
	if store.CodeOf(err) != store.RetCUnsupportedOperation {
		t.Errorf("Expected unsupported operation for return terms, got %v", err)
	}

	// plain queries still work
	keys, err := index.NewQuery(s, "foo", "n_int", index.Range(0, 9), index.Options{}).Keys()
	if err != nil || !slices.Equal(keys.Keys, expected) {
		t.Errorf("Expected keys %v, got %v (%v)", expected, keys, err)
	}

	// a stream is answered in a single chunk
	var streamed []string
	err = index.NewQuery(s, "foo", "n_int", index.Range(0, 9), index.Options{Stream: true}).Stream(func(key string) {
		streamed = append(streamed, key)
	})
	if err != nil || !slices.Equal(streamed, expected) {
		t.Errorf("Expected streamed keys %v, got %v (%v)", expected, streamed, err)
	}
}

func TestStreamRespectsMaxResults(t *testing.T) {
	tf := testTransports["Unix"]
	sf := serializer.NewBinarySerializer
	endpoint := startServer(t, tf, sf)
	s := connect(t, tf, sf, endpoint, 1)

	for i := 0; i < 10; i++ {
		if _, err := s.Put("foo", fmt.Sprintf("k%d", i), []byte("v"), []store.IndexEntry{{Name: "n_int", Term: i}}); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	// chunk size is 4, so the limit ends in the middle of the second chunk
	var streamed []string
	err := index.NewQuery(s, "foo", "n_int", index.Range(0, 9), index.Options{Stream: true, MaxResults: 6}).Stream(func(key string) {
		streamed = append(streamed, key)
	})
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	if !slices.Equal(streamed, []string{"k0", "k1", "k2", "k3", "k4", "k5"}) {
		t.Errorf("Expected the first 6 keys, got %v", streamed)
	}
}

func TestGetInfo(t *testing.T) {
	tf := testTransports["HTTP"]
	sf := serializer.NewJSONSerializer
	endpoint := startServer(t, tf, sf)
	s := connect(t, tf, sf, endpoint, 1)

	if _, err := s.Put("foo", "k1", []byte("v"), []store.IndexEntry{{Name: "a_bin", Term: "x"}, {Name: "b_int", Term: 1}}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	info, err := s.GetInfo()
	if err != nil {
		t.Fatalf("GetInfo failed: %v", err)
	}
	if info.Objects != 1 || info.IndexEntries != 2 || info.Version != "2.0.0" {
		t.Errorf("Unexpected info %+v", info)
	}
}
