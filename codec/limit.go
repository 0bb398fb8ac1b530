package codec

import "fmt"

// Limit wraps another codec and bounds payload size in both directions.
// Articles use it so one oversized page cannot crowd out the durable quota.
// A bound <= 0 disables that direction.
type Limit[V any] struct {
	Inner     Codec[V]
	MaxEncode int
	MaxDecode int
}

// TooLargeError reports a payload over a Limit bound.
type TooLargeError struct {
	Op    string // "encode" or "decode"
	Size  int
	Limit int
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("codec: %s payload too large: %d > %d", e.Op, e.Size, e.Limit)
}

func (c Limit[V]) Encode(v V) ([]byte, error) {
	b, err := c.Inner.Encode(v)
	if err != nil {
		return nil, err
	}
	if c.MaxEncode > 0 && len(b) > c.MaxEncode {
		return nil, &TooLargeError{Op: "encode", Size: len(b), Limit: c.MaxEncode}
	}
	return b, nil
}

func (c Limit[V]) Decode(b []byte) (V, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		var zero V
		return zero, &TooLargeError{Op: "decode", Size: len(b), Limit: c.MaxDecode}
	}
	return c.Inner.Decode(b)
}
