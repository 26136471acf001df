package codec

import (
	"encoding/binary"
	"fmt"
	"github.com/ValentinKolb/stry/rpc/common"
)

// HeaderLen is the size of a frame header
const HeaderLen = common.HeaderLen

// headerFieldsLen is the part of the header following the magic marker:
// 2 bytes payload length + 1 byte code
const headerFieldsLen = HeaderLen - len(common.Magic)

var (
	magic = []byte(common.Magic)

	// magicFallback[i] is the length of the longest proper prefix of
	// magic[:i+1] that is also a suffix of it
	magicFallback = prefixTable(magic)
)

// ByteCounter is told about every byte the decoder consumes
type ByteCounter interface {
	AddReceived(n int)
}

type nopCounter struct{}

func (nopCounter) AddReceived(int) {}

// --------------------------------------------------------------------------
// Decode results
// --------------------------------------------------------------------------

// Message is the outcome of one parsed header. Either Status is StatusOk and
// Request is ready to be dispatched, or Status tells why the frame was
// rejected. Request.Code is set in both cases.
type Message struct {
	Request common.Request
	Status  common.Status
}

// Rejected reports whether the frame was rejected by the decoder
func (m Message) Rejected() bool {
	return m.Status != common.StatusOk
}

// --------------------------------------------------------------------------
// Decoder
// --------------------------------------------------------------------------

type decodeState uint8

const (
	stateScanning        decodeState = iota // looking for the magic marker
	stateHeaderFields                       // marker found, waiting for length and code
	stateAwaitingPayload                    // waiting for length payload bytes
)

func (s decodeState) String() string {
	switch s {
	case stateScanning:
		return "scanning"
	case stateHeaderFields:
		return "headerFields"
	case stateAwaitingPayload:
		return "awaitingPayload"
	default:
		return "invalid"
	}
}

// Decoder turns the bytes of a connection into request messages. It is
// resumable: when the buffer runs dry in any state, the next call continues
// at the exact byte where the previous one stopped. A Decoder is owned by a
// single connection.
type Decoder struct {
	maxPayload int

	state   decodeState
	matched int // number of magic bytes matched so far
	length  int
	code    common.RequestCode
}

// NewDecoder creates a decoder accepting compress payloads of up to maxPayload bytes
func NewDecoder(maxPayload int) (*Decoder, error) {
	if maxPayload < common.MinMaxPayload || maxPayload >= common.MaxMaxPayload {
		return nil, fmt.Errorf("%w: %d not in [%d, %d)", ErrInvalidMaxPayload, maxPayload, common.MinMaxPayload, common.MaxMaxPayload)
	}
	return &Decoder{maxPayload: maxPayload}, nil
}

// MaxPayload returns the payload limit of the decoder
func (d *Decoder) MaxPayload() int {
	return d.maxPayload
}

// Decode consumes bytes from buf until one header was parsed and judged. It
// returns false if buf ran out of bytes before that, in which case the
// caller must add more bytes to buf and call Decode again.
//
// Bytes that do not start a frame are skipped one at a time. A rejected
// header never consumes its payload: scanning resumes right after the header.
// Every consumed byte is reported to counter when it is consumed, including
// the bytes of rejected frames. counter may be nil.
//
// The payload of a returned compress request aliases buf.
func (d *Decoder) Decode(buf *Buffer, counter ByteCounter) (Message, bool) {
	if counter == nil {
		counter = nopCounter{}
	}

	for {
		switch d.state {
		case stateScanning:
			if !d.scan(buf, counter) {
				return Message{}, false
			}
			d.state = stateHeaderFields

		case stateHeaderFields:
			if buf.Len() < headerFieldsLen {
				return Message{}, false
			}
			fields := buf.advance(headerFieldsLen)
			counter.AddReceived(headerFieldsLen)

			d.length = int(binary.BigEndian.Uint16(fields[0:2]))
			d.code = common.RequestCode(fields[2])

			if status := d.judgeHeader(); status != common.StatusOk {
				d.state = stateScanning
				return Message{Request: common.Request{Code: d.code}, Status: status}, true
			}
			if !d.code.TakesPayload() {
				d.state = stateScanning
				return Message{Request: common.Request{Code: d.code}}, true
			}
			d.state = stateAwaitingPayload

		case stateAwaitingPayload:
			if buf.Len() < d.length {
				return Message{}, false
			}
			payload := buf.advance(d.length)
			counter.AddReceived(d.length)
			d.state = stateScanning

			if status := ValidatePayload(payload); status != common.StatusOk {
				return Message{Request: common.Request{Code: d.code}, Status: status}, true
			}
			return Message{Request: common.NewCompressRequest(payload)}, true
		}
	}
}

// scan consumes bytes until the magic marker was matched completely or the
// buffer is empty. Partial matches are kept across calls.
func (d *Decoder) scan(buf *Buffer, counter ByteCounter) bool {
	data := buf.Bytes()

	i := 0
	for i < len(data) && d.matched < len(magic) {
		c := data[i]
		i++

		// fall back to the longest prefix that still matches, bytes that
		// were already consumed are never looked at again
		for d.matched > 0 && c != magic[d.matched] {
			d.matched = magicFallback[d.matched-1]
		}
		if c == magic[d.matched] {
			d.matched++
		}
	}

	buf.advance(i)
	counter.AddReceived(i)

	if d.matched == len(magic) {
		d.matched = 0
		return true
	}
	return false
}

// judgeHeader checks the parsed length and code against each other
func (d *Decoder) judgeHeader() common.Status {
	switch {
	case !d.code.Known():
		return common.StatusUnsupportedRequest
	case !d.code.TakesPayload() && d.length > 0:
		return common.StatusUnexpectedPayload
	case d.code.TakesPayload() && d.length == 0:
		return common.StatusMissingPayload
	case d.length > d.maxPayload:
		return common.StatusMessageTooLarge
	default:
		return common.StatusOk
	}
}

// String returns the decoder state for debug logs
func (d *Decoder) String() string {
	return fmt.Sprintf("decoder{state=%s matched=%d length=%d code=%s}", d.state, d.matched, d.length, d.code)
}

// prefixTable computes the failure function of pattern
func prefixTable(pattern []byte) []int {
	table := make([]int, len(pattern))
	k := 0
	for i := 1; i < len(pattern); i++ {
		for k > 0 && pattern[i] != pattern[k] {
			k = table[k-1]
		}
		if pattern[i] == pattern[k] {
			k++
		}
		table[i] = k
	}
	return table
}
