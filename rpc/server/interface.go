package server

import (
	"github.com/ValentinKolb/stry/lib/stats"
	"github.com/ValentinKolb/stry/rpc/common"
)

// IRequestHandler is the interface for the request handlers of the server.
// It is called for every request the decoder accepted.
type IRequestHandler interface {
	// Handle handles a request and returns the response.
	// local holds the not yet merged counters of the calling connection,
	// the handler may read or modify them.
	// The payload of req aliases the connection's read buffer and the
	// response payload may alias it as well.
	Handle(req common.Request, local *stats.Local) (resp common.Response)
}
