package server

import (
	"github.com/ValentinKolb/stry/lib/compress"
	"github.com/ValentinKolb/stry/lib/stats"
	"github.com/ValentinKolb/stry/rpc/common"
)

// NewStryHandler creates the handler serving all stry requests against agg
func NewStryHandler(agg *stats.Aggregator) IRequestHandler {
	return &stryHandler{stats: agg}
}

type stryHandler struct {
	stats *stats.Aggregator
}

func (h *stryHandler) Handle(req common.Request, local *stats.Local) common.Response {
	switch req.Code {
	case common.ReqPing:
		return common.NewOkResponse(nil)

	case common.ReqCompress:
		original := len(req.Payload)
		out := compress.InPlace(req.Payload)
		local.RecordCompression(original, len(out))
		return common.NewOkResponse(out)

	case common.ReqGetStats:
		snap := h.stats.Snapshot(local)
		return common.NewOkResponse(snap.AppendBinary(make([]byte, 0, stats.SnapshotLen)))

	case common.ReqResetStats:
		h.stats.Reset()
		// the bytes of the reset request itself belong to the old period
		local.Reset()
		return common.NewOkResponse(nil)

	default:
		return common.NewErrorResponse(common.StatusUnsupportedRequest)
	}
}
