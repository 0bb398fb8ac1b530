// Package codec converts typed cache values to bytes and back.
//
// A Bucket pairs one namespace with one Codec. A Decode error on read is
// treated as a corrupt entry: the store deletes it and reports a miss.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
