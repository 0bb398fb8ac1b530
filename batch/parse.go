package batch

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	markerLine   = regexp.MustCompile(`^\s*\[(\d+)\]\s?(.*)$`)
	numberedLine = regexp.MustCompile(`^\s*(\d+)[.):]\s+(.*)$`)
	blankLines   = regexp.MustCompile(`\n\s*\n`)
)

// Parse splits a combined reply into n translations. found[i] reports whether
// part i was recovered. It tries, in order: "[i]" markers (partial results
// allowed), a numbered list, then paragraphs or lines when their count is
// exactly n. A reply that uses markers which cannot be mapped onto the items
// recovers nothing.
func Parse(reply string, n int) (parts []string, found []bool) {
	parts, found = make([]string, n), make([]bool, n)
	reply = strings.ReplaceAll(strings.TrimSpace(reply), "\r\n", "\n")
	if n == 0 || reply == "" {
		return parts, found
	}
	if byMarkers(reply, parts, found) {
		return parts, found
	}
	if byNumbers(reply, parts, found) {
		return parts, found
	}
	if n == 1 {
		parts[0], found[0] = reply, true
		return parts, found
	}
	for _, split := range [][]string{blankLines.Split(reply, -1), strings.Split(reply, "\n")} {
		lines := nonEmpty(split)
		if len(lines) == n {
			for i, l := range lines {
				parts[i], found[i] = l, true
			}
			return parts, found
		}
	}
	return parts, found
}

// byMarkers collects "[i] text" segments; lines without a marker continue the
// previous segment. The first segment for an index wins. Reports whether the
// reply used markers at all.
//
// Indices are zero-based when [0] is present and one-based when [n] is present
// without [0]. Anything else (an index out of range for its base, or neither
// [0] nor [n]) is ambiguous and nothing is written.
func byMarkers(reply string, parts []string, found []bool) (seen bool) {
	n := len(parts)
	indices := make(map[int]bool)
	segs := make(map[int]string)
	cur := -1
	var seg strings.Builder
	flush := func() {
		if cur < 0 {
			return
		}
		if _, dup := segs[cur]; !dup {
			if s := strings.TrimSpace(seg.String()); s != "" {
				segs[cur] = s
			}
		}
		seg.Reset()
	}
	for _, line := range strings.Split(reply, "\n") {
		if m := markerLine.FindStringSubmatch(line); m != nil {
			flush()
			seen = true
			i, err := strconv.Atoi(m[1])
			if err != nil {
				return true
			}
			indices[i] = true
			cur = i
			seg.WriteString(m[2])
			continue
		}
		if cur >= 0 {
			seg.WriteByte(' ')
			seg.WriteString(strings.TrimSpace(line))
		}
	}
	flush()
	if !seen {
		return false
	}

	base := 0
	if !indices[0] {
		if !indices[n] {
			return true
		}
		base = 1
	}
	for i := range indices {
		if i-base < 0 || i-base >= n {
			return true
		}
	}
	for i, s := range segs {
		parts[i-base], found[i-base] = s, true
	}
	return true
}

// byNumbers accepts a list numbered 1..n or 0..n-1 and nothing else.
func byNumbers(reply string, parts []string, found []bool) bool {
	n := len(parts)
	nums := map[int]string{}
	for _, line := range strings.Split(reply, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		m := numberedLine.FindStringSubmatch(line)
		if m == nil {
			return false
		}
		i, err := strconv.Atoi(m[1])
		if err != nil {
			return false
		}
		if _, dup := nums[i]; dup {
			return false
		}
		nums[i] = strings.TrimSpace(m[2])
	}
	if len(nums) != n {
		return false
	}
	base := 1
	if _, ok := nums[0]; ok {
		base = 0
	}
	for j := range n {
		if s, ok := nums[j+base]; !ok || s == "" {
			return false
		}
	}
	for j := range n {
		parts[j], found[j] = nums[j+base], true
	}
	return true
}

func nonEmpty(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
