package server

import (
	"fmt"
	"github.com/ValentinKolb/stry/lib/stats"
	"github.com/ValentinKolb/stry/rpc/codec"
	"github.com/ValentinKolb/stry/rpc/common"
	"github.com/google/uuid"
	"net"
	"time"
)

// session drives the request/response loop of one connection. It is only
// used by the goroutine serving the connection.
type session struct {
	id      string
	conn    net.Conn
	server  *rpcServer
	buf     *codec.Buffer
	decoder *codec.Decoder
	local   stats.Local

	started   time.Time
	responses uint64
}

func newSession(s *rpcServer, conn net.Conn, buf *codec.Buffer) (*session, error) {
	decoder, err := codec.NewDecoder(s.config.MaxPayload)
	if err != nil {
		return nil, err
	}

	return &session{
		id:      uuid.NewString(),
		conn:    conn,
		server:  s,
		buf:     buf,
		decoder: decoder,
		started: time.Now(),
	}, nil
}

// run serves the connection until the stream ends or fails.
// The returned error is never nil, io.EOF marks a regular close by the client.
//
// The loop has two suspension points: reading into the buffer and writing a
// response. The stats aggregator is only touched between them.
func (s *session) run() error {
	for {
		msg, ok := s.decoder.Decode(s.buf, &s.local)
		if !ok {
			// suspension point 1
			if _, err := s.buf.Fill(s.conn); err != nil {
				return err
			}
			continue
		}

		resp := s.dispatch(msg)

		// account the response before it is written, then publish the
		// counters of this transaction
		s.local.AddSent(codec.FrameLen(resp))
		s.server.metrics.observeTransaction(s.local.Counters)
		s.server.stats.Merge(&s.local)

		// suspension point 2
		if _, err := codec.WriteResponse(s.conn, resp); err != nil {
			return fmt.Errorf("failed to write response: %w", err)
		}
		s.responses++
	}
}

// dispatch turns a decoded message into its response
func (s *session) dispatch(msg codec.Message) common.Response {
	if msg.Rejected() {
		Logger.Debugf("session %s: rejected %s request: %s", s.id, msg.Request.Code, msg.Status)
		s.server.metrics.observeResponse(msg.Request.Code, msg.Status)
		s.server.report.observeRejected()
		return common.NewErrorResponse(msg.Status)
	}

	start := time.Now()
	original := len(msg.Request.Payload)
	resp := s.server.handler.Handle(msg.Request, &s.local)

	if msg.Request.Code == common.ReqCompress && resp.Status == common.StatusOk {
		s.server.metrics.observeCompression(start)
		s.server.report.observeCompression(original, len(resp.Payload))
	}
	s.server.metrics.observeResponse(msg.Request.Code, resp.Status)
	s.server.report.observeRequest()
	return resp
}

// String returns a short description for logs
func (s *session) String() string {
	return fmt.Sprintf("session %s (%s, %d responses in %s, %s)", s.id, s.conn.RemoteAddr(), s.responses, time.Since(s.started).Round(time.Millisecond), s.decoder)
}
