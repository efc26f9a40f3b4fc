package server

import (
	"github.com/ValentinKolb/dIndex/lib/store"
	"github.com/ValentinKolb/dIndex/rpc/common"
)

// IRPCServerAdapter maps one decoded request onto a store of a shard.
// Failures of the store are reported inside the returned message (Err and ErrCode),
// the adapter itself never fails.
type IRPCServerAdapter interface {
	Handle(req *common.Message, store store.IStore) (resp *common.Message)
}
