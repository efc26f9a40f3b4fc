package client

import (
	"fmt"
	"time"

	"github.com/ValentinKolb/dIndex/rpc/common"
	"github.com/ValentinKolb/dIndex/rpc/serializer"
	"github.com/ValentinKolb/dIndex/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("client")
)

// rpcClientAdapter is a struct that stores all data needed for an implementation of an RPC client
// Used by the RPCStore with composition pattern
type rpcClientAdapter struct {
	shardId    uint64
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// invoke sends a request to the shard of the adapter
func (a *rpcClientAdapter) invoke(req *common.Message) (*common.Message, error) {
	return invokeRPCRequest(a.shardId, req, a.transport, a.serializer)
}

// invokeRPCRequest is a helper function used for all RPC Clients to send requests
// It takes a shard ID, a request message, a transport layer and a serializer as parameters
// It returns a response message and an error if any occurs
// This method also checks if the response is an error response and if the type of the response is the expected type.
// Error responses are returned as *store.Error with the code set by the server.
func invokeRPCRequest(shardId uint64, req *common.Message, transport transport.IRPCClientTransport, serializer serializer.IRPCSerializer) (resp *common.Message, err error) {
	start := time.Now()
	defer func() {
		metrics.GetOrCreateHistogram(fmt.Sprintf(`dindex_client_request_duration_seconds{type=%q}`, req.MsgType)).UpdateDuration(start)
		if err != nil {
			metrics.GetOrCreateCounter(fmt.Sprintf(`dindex_client_request_errors_total{type=%q}`, req.MsgType)).Inc()
		}
	}()

	// Serialize the request
	reqBytes, err := serializer.Serialize(*req)
	if err != nil {
		return nil, err
	}

	// Send the handler
	respBytes, err := transport.Send(shardId, reqBytes)
	if err != nil {
		return nil, err
	}

	// Deserialize the response
	resp = &common.Message{}
	err = serializer.Deserialize(respBytes, resp)
	if err != nil {
		return nil, fmt.Errorf("RPC client - failed to deserialize response: %w", err)
	}

	// Check if the response is an error response
	if err := resp.ResponseError(); err != nil {
		return nil, err
	}

	// Check if the type of the response is the expected type
	if resp.MsgType != req.MsgType {
		return nil, fmt.Errorf("RPC client - unexpected message type: %s, expected %s", resp.MsgType, req.MsgType)
	}

	// Return the response
	return resp, nil
}
