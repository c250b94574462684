// Package mojibake reverses one specific corruption found in the story data:
// UTF-8 Bangla text that was decoded as Windows-1252/Latin-1 and saved again
// as UTF-8, which turns "আমি" into "à¦†à¦®à¦¿".
//
// It is a heuristic tied to that corruption mode, not a general encoding
// detector.
package mojibake

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// maxAttempts bounds how many decode passes Repair will try.
const maxAttempts = 2

// markers are the byte sequences the corruption leaves behind.
var markers = []string{"à¦", "à§", "â€", "Ã", "Â"}

// IsCandidate reports whether s contains any known mojibake marker.
func IsCandidate(s string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// MarkerCount returns the total number of marker occurrences in s.
func MarkerCount(s string) int {
	n := 0
	for _, m := range markers {
		n += strings.Count(s, m)
	}
	return n
}

// BanglaCount returns the number of runes in the Bengali block (U+0980–U+09FF).
func BanglaCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x0980 && r <= 0x09FF {
			n++
		}
	}
	return n
}

// Improves reports whether next is measurably better than prev: more Bangla
// runes, or fewer markers.
func Improves(prev, next string) bool {
	return BanglaCount(next) > BanglaCount(prev) || MarkerCount(next) < MarkerCount(prev)
}

// Repair undoes up to two layers of the corruption. Strings without markers
// are returned as is, and a pass is only kept when Improves says so.
func Repair(s string) string {
	if !IsCandidate(s) {
		return s
	}
	current := s
	for attempt := 0; attempt < maxAttempts; attempt++ {
		next, ok := decodeOnce(current)
		if !ok || !Improves(current, next) {
			break
		}
		current = next
		if !IsCandidate(current) {
			break
		}
	}
	return current
}

// decodeOnce maps every rune back to the single byte it was mistaken for and
// reads the bytes as UTF-8. It fails when a rune has no single-byte form or
// the bytes are not valid UTF-8.
func decodeOnce(s string) (string, bool) {
	buf := make([]byte, 0, len(s))
	for _, r := range s {
		if r == utf8.RuneError {
			return "", false
		}
		if b, ok := charmap.Windows1252.EncodeRune(r); ok {
			buf = append(buf, b)
			continue
		}
		// cp1252 leaves 0x81, 0x8D, 0x8F, 0x90 and 0x9D undefined; Latin-1 keeps them.
		if r <= 0xFF {
			buf = append(buf, byte(r))
			continue
		}
		return "", false
	}
	if !utf8.Valid(buf) {
		return "", false
	}
	return string(buf), true
}

// RepairValue applies Repair to every string inside v, which may be a string
// or any nesting of []any and map[string]any as produced by encoding/json.
// Other values are returned unchanged.
func RepairValue(v any) any {
	out, _ := RepairTree(v)
	return out
}

// RepairTree is RepairValue that also reports how many strings changed.
func RepairTree(v any) (any, int) {
	switch t := v.(type) {
	case string:
		fixed := Repair(t)
		if fixed != t {
			return fixed, 1
		}
		return t, 0
	case []any:
		out := make([]any, len(t))
		total := 0
		for i, item := range t {
			var n int
			out[i], n = RepairTree(item)
			total += n
		}
		return out, total
	case []string:
		out := make([]string, len(t))
		total := 0
		for i, item := range t {
			out[i] = Repair(item)
			if out[i] != item {
				total++
			}
		}
		return out, total
	case map[string]any:
		out := make(map[string]any, len(t))
		total := 0
		for k, item := range t {
			var n int
			out[k], n = RepairTree(item)
			total += n
		}
		return out, total
	default:
		return v, 0
	}
}
