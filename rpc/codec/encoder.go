package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"github.com/ValentinKolb/stry/rpc/common"
	"io"
	"net"
)

// --------------------------------------------------------------------------
// Frame layout
// --------------------------------------------------------------------------

// putHeader writes a frame header to h with the format:
// - 4 bytes: magic marker "STRY"
// - 2 bytes: payload length (uint16, big endian)
// - 1 byte:  request or status code
func putHeader(h []byte, code byte, payloadLen int) {
	copy(h[0:4], common.Magic)
	binary.BigEndian.PutUint16(h[4:6], uint16(payloadLen))
	h[6] = code
}

// FrameLen returns the number of bytes WriteResponse writes for resp
func FrameLen(resp common.Response) int {
	return HeaderLen + len(resp.Payload)
}

// --------------------------------------------------------------------------
// Responses (server side)
// --------------------------------------------------------------------------

// WriteResponse writes resp as one frame to w. The payload is passed to w
// as is without copying it into a frame buffer.
func WriteResponse(w io.Writer, resp common.Response) (int, error) {
	if len(resp.Payload) > common.MaxWirePayload {
		return 0, ErrPayloadTooLarge
	}

	header := make([]byte, HeaderLen)
	putHeader(header, byte(resp.Status), len(resp.Payload))

	if len(resp.Payload) == 0 {
		return w.Write(header)
	}

	b := net.Buffers{header, resp.Payload}
	n, err := b.WriteTo(w)
	return int(n), err
}

// --------------------------------------------------------------------------
// Requests (client side)
// --------------------------------------------------------------------------

// AppendRequest appends the encoded frame of req to dst. The payload is
// written as is, even for codes that do not take one.
func AppendRequest(dst []byte, req common.Request) []byte {
	var header [HeaderLen]byte
	putHeader(header[:], byte(req.Code), len(req.Payload))
	dst = append(dst, header[:]...)
	return append(dst, req.Payload...)
}

// WriteRequest writes req as one frame to w
func WriteRequest(w io.Writer, req common.Request) error {
	if len(req.Payload) > common.MaxWirePayload {
		return ErrPayloadTooLarge
	}
	_, err := w.Write(AppendRequest(make([]byte, 0, HeaderLen+len(req.Payload)), req))
	return err
}

// ReadResponse reads exactly one response frame from r. Unlike the Decoder it
// does not resynchronize: the frame must start at the current position.
func ReadResponse(r io.Reader) (common.Response, error) {
	var header [HeaderLen]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return common.Response{}, err
	}
	if !bytes.Equal(header[0:4], magic) {
		return common.Response{}, fmt.Errorf("%w: % x", ErrInvalidMagic, header[0:4])
	}

	length := int(binary.BigEndian.Uint16(header[4:6]))
	resp := common.Response{Status: common.Status(header[6])}

	if length > 0 {
		resp.Payload = make([]byte, length)
		if _, err := io.ReadFull(r, resp.Payload); err != nil {
			return common.Response{}, err
		}
	}
	return resp, nil
}
