package codec

import (
	"errors"
	"unicode/utf8"
)

var ErrInvalidUTF8 = errors.New("codec: payload is not valid UTF-8")

// Bytes is an identity codec for []byte values.
type Bytes struct{}

func (Bytes) Encode(b []byte) ([]byte, error) { return b, nil }
func (Bytes) Decode(b []byte) ([]byte, error) { return b, nil }

// String stores translations, detected language codes and summaries as raw
// UTF-8. Decode rejects invalid UTF-8 so a damaged entry self-heals instead
// of reaching a reader.
type String struct{}

func (String) Encode(s string) ([]byte, error) { return []byte(s), nil }
func (String) Decode(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", ErrInvalidUTF8
	}
	return string(b), nil
}
