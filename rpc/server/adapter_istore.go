package server

import (
	"fmt"

	"github.com/ValentinKolb/dIndex/lib/cell"
	"github.com/ValentinKolb/dIndex/lib/index"
	"github.com/ValentinKolb/dIndex/lib/store"
	"github.com/ValentinKolb/dIndex/rpc/common"
)

// NewIStoreServerAdapter creates the adapter translating RPC requests to store.IStore calls
func NewIStoreServerAdapter() IRPCServerAdapter {
	return &iStoreServerAdapterImpl{}
}

type iStoreServerAdapterImpl struct{}

func (adapter *iStoreServerAdapterImpl) Handle(req *common.Message, s store.IStore) *common.Message {
	// Check for nil store
	if s == nil {
		return common.NewErrorResponse("handler: store is nil")
	}

	// Handle different message types
	switch req.MsgType {
	case common.MsgTQueryIndex:
		return adapter.handleQuery(req, s)
	case common.MsgTFetch:
		value, err := s.FetchValue(req.Bucket, req.Key, index.FetchOptions{IgnoreMissing: req.IgnoreMissing})
		return common.NewFetchResponse(value, err)
	case common.MsgTPut:
		entries, err := req.StoreEntries()
		if err != nil {
			return common.NewPutResponse("", invalid(err))
		}
		key, err := s.Put(req.Bucket, req.Key, req.Value, entries)
		return common.NewPutResponse(key, err)
	case common.MsgTDelete:
		err := s.Delete(req.Bucket, req.Key)
		return common.NewDeleteResponse(err)
	case common.MsgTPutRow:
		row := req.Cells
		if row == nil {
			row = []cell.Cell{}
		}
		err := s.PutRow(req.Bucket, req.Key, row)
		return common.NewPutRowResponse(err)
	case common.MsgTGetRow:
		row, ok, err := s.GetRow(req.Bucket, req.Key)
		return common.NewGetRowResponse(row, ok, err)
	case common.MsgTVersion:
		version, err := s.ServerVersion()
		return common.NewVersionResponse(version, err)
	case common.MsgTInfo:
		info, err := s.GetInfo()
		return common.NewInfoResponse(info, err)
	default:
		return common.NewErrorResponse(
			fmt.Sprintf("RPC IStoreAdapter - Unsupported message type: %s", req.MsgType),
		)
	}
}

// handleQuery answers buffered queries and single chunks of streamed queries.
// A chunk is a page without terms, the client follows the continuation.
func (adapter *iStoreServerAdapterImpl) handleQuery(req *common.Message, s store.IStore) *common.Message {
	criterion, err := req.Criterion()
	if err != nil {
		return common.NewQueryIndexResponse(nil, invalid(err))
	}

	opts := req.Options()
	if opts.Stream {
		opts.Stream = false
		opts.ReturnTerms = false
	}

	result, err := s.QueryIndex(req.Bucket, req.Index, criterion, opts)
	return common.NewQueryIndexResponse(result, err)
}

// invalid marks a malformed request
func invalid(err error) error {
	return store.NewError(store.RetCInvalidOperation, err.Error())
}
