package client

import (
	"fmt"
	"github.com/ValentinKolb/stry/rpc/common"
	"github.com/ValentinKolb/stry/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("rpc/client")
)

// StatusError is returned when the server answers with a status other than Ok
type StatusError struct {
	Request common.RequestCode
	Status  common.Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("stry: %s request failed with status %s (%d)", e.Request, e.Status, uint8(e.Status))
}

// invokeRPCRequest is a helper function used by the client methods to send requests.
// It returns the response if its status is Ok, and a *StatusError otherwise.
func invokeRPCRequest(req common.Request, transport transport.IRPCClientTransport) (common.Response, error) {
	resp, err := transport.Send(req)
	if err != nil {
		return common.Response{}, err
	}

	if resp.Status != common.StatusOk {
		Logger.Debugf("%s request answered with %s", req.Code, resp.Status)
		return common.Response{}, &StatusError{Request: req.Code, Status: resp.Status}
	}

	return resp, nil
}
