package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"
)

const (
	version   byte = 1
	kindEntry byte = 1

	// magic(4) | ver(1) | kind(1) | gen(8) | createdAt(8) | ttl(8) | vlen(4)
	headerLen = 4 + 1 + 1 + 8 + 8 + 8 + 4
)

var (
	ErrCorrupt = errors.New("lingocache: corrupt entry")
	magic4     = [...]byte{'L', 'N', 'G', 'C'}
)

// Entry is the persisted form of a cache entry.
// Gen is the namespace generation observed when the entry was written.
type Entry struct {
	Gen       uint64
	CreatedAt time.Time
	TTL       time.Duration // 0 => no expiry
	Payload   []byte
}

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Encode frames e as:
//
//	magic(4) | ver(1) | kind(1) | gen(u64 be) | createdAt(i64 unix nanos be) | ttl(i64 nanos be) | vlen(u32 be) | payload(vlen)
func Encode(e Entry) []byte {
	var buf bytes.Buffer
	buf.Grow(headerLen + len(e.Payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindEntry)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], e.Gen)
	buf.Write(u8[:])

	binary.BigEndian.PutUint64(u8[:], uint64(e.CreatedAt.UnixNano()))
	buf.Write(u8[:])

	binary.BigEndian.PutUint64(u8[:], uint64(e.TTL))
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(e.Payload)))
	buf.Write(u4[:])

	buf.Write(e.Payload)
	return buf.Bytes()
}

// Decode parses a frame produced by Encode. The returned payload aliases b.
// Trailing bytes after the payload are rejected.
func Decode(b []byte) (Entry, error) {
	if len(b) < headerLen || !hasMagic(b) || b[4] != version || b[5] != kindEntry {
		return Entry{}, ErrCorrupt
	}

	off := 6
	gen := binary.BigEndian.Uint64(b[off : off+8])
	off += 8

	created := int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8

	ttl := time.Duration(int64(binary.BigEndian.Uint64(b[off : off+8])))
	off += 8
	if ttl < 0 {
		return Entry{}, ErrCorrupt
	}

	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen != len(b)-off { // strict framing
		return Entry{}, ErrCorrupt
	}

	return Entry{
		Gen:       gen,
		CreatedAt: time.Unix(0, created),
		TTL:       ttl,
		Payload:   b[off : off+vlen],
	}, nil
}
