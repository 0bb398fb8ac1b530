package wire

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
	"time"
)

func mustDecode(t *testing.T, b []byte) Entry {
	t.Helper()
	e, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	return e
}

func TestEntryRoundTrip(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 123, time.UTC)
	cases := []Entry{
		{Gen: 0, CreatedAt: created, TTL: 0, Payload: nil},
		{Gen: 42, CreatedAt: created, TTL: 24 * time.Hour, Payload: []byte("hola")},
		{Gen: math.MaxUint64, CreatedAt: created, TTL: time.Millisecond, Payload: []byte{0, 1, 2, 3, 4}},
	}
	for _, tc := range cases {
		got := mustDecode(t, Encode(tc))
		if got.Gen != tc.Gen {
			t.Fatalf("gen mismatch: got %d want %d", got.Gen, tc.Gen)
		}
		if !got.CreatedAt.Equal(tc.CreatedAt) {
			t.Fatalf("createdAt mismatch: got %v want %v", got.CreatedAt, tc.CreatedAt)
		}
		if got.TTL != tc.TTL {
			t.Fatalf("ttl mismatch: got %v want %v", got.TTL, tc.TTL)
		}
		if !bytes.Equal(got.Payload, tc.Payload) {
			t.Fatalf("payload mismatch: got %x want %x", got.Payload, tc.Payload)
		}
	}
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	enc := Encode(Entry{Gen: 7, CreatedAt: time.Now(), Payload: []byte("x")})
	enc = append(enc, 0xDE, 0xAD)
	if _, err := Decode(enc); err == nil {
		t.Fatalf("expected error on trailing bytes")
	}
}

func TestDecodeCorruptHeadersAndLengths(t *testing.T) {
	enc := Encode(Entry{Gen: 1, CreatedAt: time.Now(), TTL: time.Minute, Payload: []byte("abc")})

	badMagic := append([]byte(nil), enc...)
	badMagic[0] = 'X'
	if _, err := Decode(badMagic); err == nil {
		t.Fatalf("expected error on bad magic")
	}

	badVer := append([]byte(nil), enc...)
	badVer[4] = version + 1
	if _, err := Decode(badVer); err == nil {
		t.Fatalf("expected error on bad version")
	}

	badKind := append([]byte(nil), enc...)
	badKind[5] = kindEntry + 1
	if _, err := Decode(badKind); err == nil {
		t.Fatalf("expected error on bad kind")
	}

	// ttl lives at 22..29 (4 magic +1 ver +1 kind +8 gen +8 createdAt)
	negTTL := append([]byte(nil), enc...)
	binary.BigEndian.PutUint64(negTTL[22:30], uint64(1)<<63)
	if _, err := Decode(negTTL); err == nil {
		t.Fatalf("expected error on negative ttl")
	}

	// vlen lives at 30..33
	tooLong := append([]byte(nil), enc...)
	binary.BigEndian.PutUint32(tooLong[30:34], uint32(len("abc")+1))
	if _, err := Decode(tooLong); err == nil {
		t.Fatalf("expected error on vlen beyond buffer")
	}

	if _, err := Decode(enc[:len(enc)-1]); err == nil {
		t.Fatalf("expected error on truncated buffer")
	}
	if _, err := Decode([]byte("not-a-frame")); err == nil {
		t.Fatalf("expected error on foreign bytes")
	}
}

func TestDecodeZeroCopyPayload(t *testing.T) {
	enc := Encode(Entry{Gen: 1, CreatedAt: time.Now(), Payload: []byte("Z")})
	e := mustDecode(t, enc)
	e.Payload[0] = 'Q'
	if mustDecode(t, enc).Payload[0] != 'Q' {
		t.Fatalf("expected zero-copy slice into enc buffer")
	}
}
