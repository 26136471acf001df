// Package codec implements the framing of the stry wire protocol. It owns no
// network I/O, only byte buffers.
//
// Frame format (requests and responses):
//
//	┌────────────┬──────────────┬────────────┬──────────────────────┐
//	│   MAGIC    │    LENGTH    │    CODE    │       PAYLOAD        │
//	│  (4 bytes) │  (2 bytes)   │  (1 byte)  │   (LENGTH bytes)     │
//	├────────────┼──────────────┼────────────┼──────────────────────┤
//	│   "STRY"   │ uint16, BE   │ req/status │ compress data only   │
//	└────────────┴──────────────┴────────────┴──────────────────────┘
//
// Payload layouts of Ok responses:
//
//   - Compress: the run-length encoded payload (see lib/compress).
//   - GetStats: 4 bytes bytes received (uint32, BE), 4 bytes bytes sent
//     (uint32, BE), 1 byte compression ratio in percent (see lib/stats).
//   - Ping, ResetStats: no payload.
//
// Key Components:
//
//   - Buffer: the read buffer of one connection, sized to hold one header
//     plus the largest accepted payload.
//
//   - Decoder: a resumable state machine (scanning → header fields →
//     awaiting payload) that finds frames in a stream with arbitrary
//     fragmentation and leading garbage. Unmatched bytes are skipped one at a
//     time, a partially matched marker survives chunk boundaries. Once a
//     header was found it is judged, and a rejected header yields a status
//     without consuming its payload bytes. Every consumed byte is reported to
//     a ByteCounter.
//
//   - Encoder functions: WriteResponse writes header and payload with
//     net.Buffers, so a compressed payload goes from the read buffer to the
//     socket without a copy. WriteRequest and ReadResponse serve clients.
package codec
