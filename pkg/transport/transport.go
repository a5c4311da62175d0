package transport

import (
	"github.com/richard-senior/matchodds/pkg/protocol"
)

// Transport defines the interface for communication methods.
// ReadRequest returns a *protocol.JsonRpcError for a malformed message
// the caller may answer and continue past, and io.EOF once the peer has gone.
type Transport interface {
	ReadRequest() (*protocol.JsonRpcRequest, error)
	WriteResponse(*protocol.JsonRpcResponse) error
}
