package client

import (
	"sync"

	"github.com/ValentinKolb/dIndex/lib/cell"
	"github.com/ValentinKolb/dIndex/lib/index"
	"github.com/ValentinKolb/dIndex/lib/store"
	"github.com/ValentinKolb/dIndex/rpc/common"
	"github.com/ValentinKolb/dIndex/rpc/serializer"
	"github.com/ValentinKolb/dIndex/rpc/transport"
)

// NewRPCStore creates a new RPC store
// The function takes a shard ID, a config, a transport and a serializer as parameters
// It returns a store.IStore and an error
//
// The returned store also implements index.Backend, so it can be passed to index.NewQuery.
func NewRPCStore(
	shardId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (store.IStore, error) {

	// Connect the transport
	err := transport.Connect(config)
	if err != nil {
		return nil, err
	}

	// Create a new RPC store
	s := rpcStore{
		rpcClientAdapter: rpcClientAdapter{
			shardId:    shardId,
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}

	// Return the RPC store
	return &s, nil
}

type rpcStore struct {
	rpcClientAdapter

	// cached server version, requested once
	versionMu sync.Mutex
	version   string
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the store and index package)
// --------------------------------------------------------------------------

func (i *rpcStore) QueryIndex(bucket, indexName string, criterion index.Criterion, opts index.Options) (*index.Collection, error) {
	req, err := common.NewQueryIndexRequest(bucket, indexName, criterion, opts)
	if err != nil {
		return nil, store.NewError(store.RetCInvalidOperation, err.Error())
	}
	resp, err := i.invoke(req)
	if err != nil {
		return nil, err
	}
	return resp.Collection(), nil
}

// StreamIndex fetches the keys in chunks of ClientConfig.StreamChunkSize keys and
// calls visit for every key of a chunk as soon as it arrived. Servers without
// pagination support answer in a single chunk.
func (i *rpcStore) StreamIndex(bucket, indexName string, criterion index.Criterion, opts index.Options, visit index.KeyVisitor) error {
	chunked, err := i.supportsPagination()
	if err != nil {
		return err
	}

	chunkSize := i.config.StreamChunkSize
	if chunkSize <= 0 {
		chunkSize = common.DefaultStreamChunkSize
	}

	remaining := opts.MaxResults // 0 = no limit
	chunkOpts := index.Options{
		MaxResults:   opts.MaxResults,
		Continuation: opts.Continuation,
		Stream:       true,
	}

	for {
		if chunked {
			chunkOpts.MaxResults = chunkSize
			if remaining > 0 && remaining < chunkSize {
				chunkOpts.MaxResults = remaining
			}
		}

		req, err := common.NewQueryIndexRequest(bucket, indexName, criterion, chunkOpts)
		if err != nil {
			return store.NewError(store.RetCInvalidOperation, err.Error())
		}
		resp, err := i.invoke(req)
		if err != nil {
			return err
		}

		for _, key := range resp.Keys {
			visit(key)
		}

		if remaining > 0 {
			remaining -= len(resp.Keys)
			if remaining <= 0 {
				return nil
			}
		}
		if !chunked || resp.Continuation == "" {
			return nil
		}
		chunkOpts.Continuation = resp.Continuation
	}
}

func (i *rpcStore) FetchValue(bucket, key string, opts index.FetchOptions) ([]byte, error) {
	resp, err := i.invoke(common.NewFetchRequest(bucket, key, opts))
	if err != nil {
		return nil, err
	}
	if !resp.Ok {
		return nil, nil
	}
	if resp.Value == nil {
		// empty values do not survive every serializer
		return []byte{}, nil
	}
	return resp.Value, nil
}

func (i *rpcStore) ServerVersion() (string, error) {
	i.versionMu.Lock()
	defer i.versionMu.Unlock()

	if i.version != "" {
		return i.version, nil
	}
	resp, err := i.invoke(common.NewVersionRequest())
	if err != nil {
		return "", err
	}
	i.version = resp.Version
	return i.version, nil
}

func (i *rpcStore) Put(bucket, key string, value []byte, entries []store.IndexEntry) (string, error) {
	req, err := common.NewPutRequest(bucket, key, value, entries)
	if err != nil {
		return "", store.NewError(store.RetCInvalidOperation, err.Error())
	}
	resp, err := i.invoke(req)
	if err != nil {
		return "", err
	}
	return resp.Key, nil
}

func (i *rpcStore) Delete(bucket, key string) error {
	_, err := i.invoke(common.NewDeleteRequest(bucket, key))
	return err
}

func (i *rpcStore) PutRow(table, key string, row []cell.Cell) error {
	_, err := i.invoke(common.NewPutRowRequest(table, key, row))
	return err
}

func (i *rpcStore) GetRow(table, key string) ([]cell.Cell, bool, error) {
	resp, err := i.invoke(common.NewGetRowRequest(table, key))
	if err != nil {
		return nil, false, err
	}
	if !resp.Ok {
		return nil, false, nil
	}
	if resp.Cells == nil {
		resp.Cells = []cell.Cell{}
	}
	return resp.Cells, true, nil
}

func (i *rpcStore) GetInfo() (store.Info, error) {
	resp, err := i.invoke(common.NewInfoRequest())
	if err != nil {
		return store.Info{}, err
	}
	if resp.Info == nil {
		return store.Info{}, store.NewError(store.RetCInternalError, "info response without info")
	}
	return *resp.Info, nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// supportsPagination reports whether the connected server can serve chunked streams
func (i *rpcStore) supportsPagination() (bool, error) {
	version, err := i.ServerVersion()
	if err != nil {
		return false, err
	}
	return index.SupportsPagination(version), nil
}
