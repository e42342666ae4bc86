// Package arena implements the append-only framed-file channel primitives
// the rest of the daemon treats as pre-existing pub/sub transport
// (spec.md §1 lists the arena format itself as out of scope). Packet
// framing favors small explicit fields over a generic envelope, the
// same way the teacher's config structs stay flat rather than nesting
// a generic "Data map[string]any" wrapper everywhere.
package arena

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// headerSize is the fixed on-disk preamble: 16 bytes UUID, 8 bytes
// monotonic nanoseconds, 8 bytes wall unix-nanoseconds, 8 bytes payload
// length, all little-endian.
const headerSize = 16 + 8 + 8 + 8

// Packet is an immutable observed message: an opaque payload plus a
// header carrying a monotonic timestamp, a wall-clock timestamp, and a
// unique id (spec.md §3).
type Packet struct {
	ID       uuid.UUID
	MonoNS   int64
	WallTime time.Time
	Payload  []byte
}

// New builds a Packet with a fresh id from the current clock reading.
func New(monoNS int64, wallTime time.Time, payload []byte) Packet {
	return Packet{
		ID:       uuid.New(),
		MonoNS:   monoNS,
		WallTime: wallTime,
		Payload:  payload,
	}
}

// EncodedLen returns the number of bytes this packet occupies on disk,
// header included — used for size-cap accounting (spec.md §4.2: "counts
// bytes written to the output arena, not raw payload bytes").
func (p Packet) EncodedLen() int64 {
	return headerSize + int64(len(p.Payload))
}

func (p Packet) encode() []byte {
	buf := make([]byte, headerSize+len(p.Payload))
	copy(buf[0:16], p.ID[:])
	binary.LittleEndian.PutUint64(buf[16:24], uint64(p.MonoNS))
	binary.LittleEndian.PutUint64(buf[24:32], uint64(p.WallTime.UnixNano()))
	binary.LittleEndian.PutUint64(buf[32:40], uint64(len(p.Payload)))
	copy(buf[40:], p.Payload)
	return buf
}

// decodePacket reads one framed packet from r. When no full packet is
// available it returns an error matching io.EOF (possibly wrapped); a torn
// header/payload reported as io.ErrUnexpectedEOF is converted to io.EOF,
// which callers treat the same as "nothing new yet".
func decodePacket(r io.Reader) (Packet, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return Packet{}, err
	}

	var id uuid.UUID
	copy(id[:], header[0:16])
	monoNS := int64(binary.LittleEndian.Uint64(header[16:24]))
	wallNS := int64(binary.LittleEndian.Uint64(header[24:32]))
	payloadLen := binary.LittleEndian.Uint64(header[32:40])

	payload := make([]byte, payloadLen)
	if payloadLen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			if err == io.ErrUnexpectedEOF {
				err = io.EOF
			}
			return Packet{}, fmt.Errorf("reading packet payload: %w", err)
		}
	}

	return Packet{
		ID:       id,
		MonoNS:   monoNS,
		WallTime: time.Unix(0, wallNS),
		Payload:  payload,
	}, nil
}
