package common

import (
	"encoding/json"
	"fmt"
)

// --------------------------------------------------------------------------
// Wire Constants
// --------------------------------------------------------------------------

const (
	// Magic is the marker every frame starts with (0x53545259)
	Magic = "STRY"

	// HeaderLen is the size of the fixed frame header:
	// 4 bytes magic + 2 bytes payload length (uint16, big endian) + 1 byte code
	HeaderLen = 4 + 2 + 1

	// MaxWirePayload is the largest payload the length field can describe
	MaxWirePayload = 1<<16 - 1
)

// --------------------------------------------------------------------------
// Request Structure
// --------------------------------------------------------------------------

// RequestCode identifies the operation a client asks for.
type RequestCode uint8

const (
	ReqPing       RequestCode = 1
	ReqGetStats   RequestCode = 2
	ReqResetStats RequestCode = 3
	ReqCompress   RequestCode = 4
)

// Known reports whether the code is one the server can dispatch
func (c RequestCode) Known() bool {
	return c >= ReqPing && c <= ReqCompress
}

// TakesPayload reports whether a frame with this code carries a payload.
// Only compress requests do.
func (c RequestCode) TakesPayload() bool {
	return c == ReqCompress
}

// String returns the string representation of a RequestCode.
func (c RequestCode) String() string {
	switch c {
	case ReqPing:
		return "ping"
	case ReqGetStats:
		return "getStats"
	case ReqResetStats:
		return "resetStats"
	case ReqCompress:
		return "compress"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// Request is a decoded request frame.
// Payload is only set for compress requests. On the server it aliases the
// connection's read buffer and is only valid until the response was written.
type Request struct {
	Code    RequestCode
	Payload []byte
}

// NewPingRequest creates a new Ping request
func NewPingRequest() Request {
	return Request{Code: ReqPing}
}

// NewGetStatsRequest creates a new GetStats request
func NewGetStatsRequest() Request {
	return Request{Code: ReqGetStats}
}

// NewResetStatsRequest creates a new ResetStats request
func NewResetStatsRequest() Request {
	return Request{Code: ReqResetStats}
}

// NewCompressRequest creates a new Compress request
func NewCompressRequest(payload []byte) Request {
	return Request{Code: ReqCompress, Payload: payload}
}

// --------------------------------------------------------------------------
// Response Structure
// --------------------------------------------------------------------------

// Status is the code of a response frame.
type Status uint8

const (
	StatusOk                 Status = 0
	StatusUnknownError       Status = 1
	StatusMessageTooLarge    Status = 2
	StatusUnsupportedRequest Status = 3

	// 4 to 32 are reserved, implementation specific codes start at 33

	StatusMissingPayload    Status = 33
	StatusUnexpectedPayload Status = 34
	StatusNonAscii          Status = 35
	StatusNonAlphabetic     Status = 36
	StatusNonLowercase      Status = 37
)

// String returns the string representation of a Status.
func (s Status) String() string {
	switch s {
	case StatusOk:
		return "ok"
	case StatusUnknownError:
		return "unknownError"
	case StatusMessageTooLarge:
		return "messageTooLarge"
	case StatusUnsupportedRequest:
		return "unsupportedRequest"
	case StatusMissingPayload:
		return "missingPayload"
	case StatusUnexpectedPayload:
		return "unexpectedPayload"
	case StatusNonAscii:
		return "nonAscii"
	case StatusNonAlphabetic:
		return "nonAlphabetic"
	case StatusNonLowercase:
		return "nonLowercase"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// MarshalJSON implements the json.Marshaller interface for Status.
// This allows Status to be printed as a string by the cli.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Response is a response frame. An Ok response may or may not carry a payload,
// every other status is sent without one.
type Response struct {
	Status  Status
	Payload []byte
}

// NewOkResponse creates a new successful response with an optional payload
func NewOkResponse(payload []byte) Response {
	return Response{Status: StatusOk, Payload: payload}
}

// NewErrorResponse creates a new response for a rejected frame
func NewErrorResponse(status Status) Response {
	return Response{Status: status}
}
