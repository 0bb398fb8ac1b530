package hash

import "strconv"

const (
	// inputs above sampleThreshold bytes are hashed over a sample only
	sampleThreshold = 1000
	sampleCount     = 100
	multiplier      = 31
	empty           = "0"
)

// Content returns a short deterministic key component for s.
//
// Inputs up to 1000 bytes are hashed in full. Longer inputs are sampled at a
// stride of len(s)/100, so the cost stays flat for large articles. Two long
// inputs of equal length that differ only between sampled positions collide.
func Content(s string) string {
	n := len(s)
	if n == 0 {
		return empty
	}

	step := 1
	var h uint32
	if n > sampleThreshold {
		step = n / sampleCount // n > 1000 so step >= 10
		h = uint32(n)
	}
	for i := 0; i < n; i += step {
		h = h*multiplier + uint32(s[i])
	}
	return strconv.FormatUint(uint64(h), 36)
}

// Sampled reports whether Content(s) hashes a sample rather than every byte.
func Sampled(s string) bool { return len(s) > sampleThreshold }
