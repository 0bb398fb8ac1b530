package codec

import (
	"github.com/fxamacker/cbor/v2"
)

// Decode bounds for CBOR payloads read back from a shared backend.
const (
	cborMaxNesting  = 16
	cborMaxElements = 1 << 16
)

// CBOR encodes values with fxamacker/cbor. Construct with NewCBOR or
// MustCBOR; the zero value has no modes and panics.
//
// Articles are stored with deterministic=true (RFC 8949 core deterministic
// encoding) so two writers of the same article produce the same frame.
type CBOR[V any] struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Codec[struct{}] = CBOR[struct{}]{}

func NewCBOR[V any](deterministic bool) (CBOR[V], error) {
	eo := cbor.PreferredUnsortedEncOptions()
	if deterministic {
		eo = cbor.CoreDetEncOptions()
	}
	eo.Time = cbor.TimeRFC3339Nano

	em, err := eo.EncMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	dm, err := cbor.DecOptions{
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
		MaxNestedLevels:  cborMaxNesting,
		MaxArrayElements: cborMaxElements,
		MaxMapPairs:      cborMaxElements,
	}.DecMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	return CBOR[V]{enc: em, dec: dm}, nil
}

func MustCBOR[V any](deterministic bool) CBOR[V] {
	c, err := NewCBOR[V](deterministic)
	if err != nil {
		panic(err)
	}
	return c
}

func (c CBOR[V]) Encode(v V) ([]byte, error) { return c.enc.Marshal(v) }

// Decode ignores unknown fields, so an older binary reads entries written by
// a newer one.
func (c CBOR[V]) Decode(b []byte) (V, error) {
	var v V
	if err := c.dec.Unmarshal(b, &v); err != nil {
		var zero V
		return zero, err
	}
	return v, nil
}
