package serializer

import "github.com/ValentinKolb/dIndex/rpc/common"

// IRPCSerializer converts messages to and from their wire payload.
// Client and server must use the same implementation.
type IRPCSerializer interface {
	// Serialize encodes a message into a new byte slice
	Serialize(msg common.Message) ([]byte, error)
	// Deserialize decodes b into msg. msg is reset first, so no field of a
	// previous message survives. Truncated or corrupt input returns an error.
	Deserialize(b []byte, msg *common.Message) error
}
