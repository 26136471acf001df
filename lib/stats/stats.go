package stats

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
)

// SnapshotLen is the size of a serialized Snapshot:
// 4 bytes received + 4 bytes sent + 1 byte compression ratio
const SnapshotLen = 4 + 4 + 1

// ----------------------------------------------------------------------------
// Counters
// ----------------------------------------------------------------------------

// Counters is the set of usage counters tracked by the service
type Counters struct {
	BytesReceived uint64 `json:"bytes_received"`
	BytesSent     uint64 `json:"bytes_sent"`
	PayloadIn     uint64 `json:"payload_in"`  // original bytes of successful compressions
	PayloadOut    uint64 `json:"payload_out"` // compressed bytes of successful compressions
}

// add adds other to c
func (c *Counters) add(other Counters) {
	c.BytesReceived += other.BytesReceived
	c.BytesSent += other.BytesSent
	c.PayloadIn += other.PayloadIn
	c.PayloadOut += other.PayloadOut
}

// IsZero reports whether all counters are zero
func (c Counters) IsZero() bool {
	return c == Counters{}
}

// ----------------------------------------------------------------------------
// Local
// ----------------------------------------------------------------------------

// Local accumulates the counters of one connection since its last merge.
// It is owned by a single connection and must not be shared.
type Local struct {
	Counters
}

// AddReceived counts n bytes consumed from the stream
func (l *Local) AddReceived(n int) {
	l.BytesReceived += uint64(n)
}

// AddSent counts n bytes about to be written to the stream
func (l *Local) AddSent(n int) {
	l.BytesSent += uint64(n)
}

// RecordCompression records a successful compression of original bytes into
// compressed bytes
func (l *Local) RecordCompression(original, compressed int) {
	l.PayloadIn += uint64(original)
	l.PayloadOut += uint64(compressed)
}

// Reset zeroes all counters
func (l *Local) Reset() {
	l.Counters = Counters{}
}

// ----------------------------------------------------------------------------
// Aggregator
// ----------------------------------------------------------------------------

// Aggregator holds the process wide counters. All operations are serialized
// by one mutex which is only held for in-memory updates.
//
// Thread-safe: This type is safe for concurrent use
type Aggregator struct {
	mutex  sync.Mutex
	global Counters
}

// NewAggregator creates an aggregator with all counters at zero
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Merge adds the local counters to the global counters and clears local
func (a *Aggregator) Merge(local *Local) {
	a.mutex.Lock()
	a.global.add(local.Counters)
	a.mutex.Unlock()

	local.Reset()
}

// Snapshot returns the global counters plus the not yet merged counters of
// the caller. Unmerged counters of other connections are not included.
func (a *Aggregator) Snapshot(local *Local) Snapshot {
	a.mutex.Lock()
	c := a.global
	a.mutex.Unlock()

	if local != nil {
		c.add(local.Counters)
	}
	return Snapshot(c)
}

// Reset zeroes the global counters. Unmerged local counters are not affected
// and are added to the new base at their next merge.
func (a *Aggregator) Reset() {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.global = Counters{}
}

// Load returns a copy of the global counters
func (a *Aggregator) Load() Counters {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.global
}

// ----------------------------------------------------------------------------
// Snapshot
// ----------------------------------------------------------------------------

// Snapshot is a point in time view of the counters as returned to clients
type Snapshot Counters

// Ratio returns the compressed size as percentage of the original size over
// all successful compressions, or 0 if nothing was compressed yet.
func (s Snapshot) Ratio() uint8 {
	if s.PayloadIn == 0 {
		return 0
	}
	ratio := s.PayloadOut * 100 / s.PayloadIn
	if ratio > math.MaxUint8 {
		return math.MaxUint8
	}
	return uint8(ratio)
}

// MarshalBinary encodes the snapshot as sent in a GetStats response:
//   - 4 bytes: bytes received (uint32, big endian, saturating)
//   - 4 bytes: bytes sent (uint32, big endian, saturating)
//   - 1 byte:  compression ratio in percent
func (s Snapshot) MarshalBinary() ([]byte, error) {
	return s.AppendBinary(make([]byte, 0, SnapshotLen)), nil
}

// AppendBinary appends the encoded snapshot to b
func (s Snapshot) AppendBinary(b []byte) []byte {
	b = binary.BigEndian.AppendUint32(b, saturate32(s.BytesReceived))
	b = binary.BigEndian.AppendUint32(b, saturate32(s.BytesSent))
	return append(b, s.Ratio())
}

// WireStats is the decoded form of a GetStats payload
type WireStats struct {
	BytesReceived uint32 `json:"bytes_received"`
	BytesSent     uint32 `json:"bytes_sent"`
	Ratio         uint8  `json:"compression_ratio"`
}

// ParseSnapshot decodes a GetStats payload
func ParseSnapshot(b []byte) (WireStats, error) {
	if len(b) != SnapshotLen {
		return WireStats{}, fmt.Errorf("stats: invalid payload length %d, expected %d", len(b), SnapshotLen)
	}
	return WireStats{
		BytesReceived: binary.BigEndian.Uint32(b[0:4]),
		BytesSent:     binary.BigEndian.Uint32(b[4:8]),
		Ratio:         b[8],
	}, nil
}

func saturate32(v uint64) uint32 {
	if v > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}
