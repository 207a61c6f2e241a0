package pathmatcher

import (
	"strings"
)

// UnescapeSpec selects which percent-encoded characters are decoded.
type UnescapeSpec uint8

const (
	// UnescapeAllExceptReserved decodes everything except the RFC 6570 reserved characters
	// ! # $ & ' ( ) * + , / : ; = ? @ [ ].
	UnescapeAllExceptReserved UnescapeSpec = iota
	// UnescapeAllExceptSlash decodes everything except '/'.
	UnescapeAllExceptSlash
	// UnescapeAll decodes every valid escape sequence.
	UnescapeAll

	unescapeSpecSentinel
)

func (s UnescapeSpec) String() string {
	switch s {
	case UnescapeAllExceptReserved:
		return "all-except-reserved"
	case UnescapeAllExceptSlash:
		return "all-except-slash"
	case UnescapeAll:
		return "all"
	default:
		return "unknown"
	}
}

// UnescapeString decodes the "%XX" sequences of part allowed by spec and, if unescapePlus is true,
// every '+' into a space. Malformed sequences (a '%' not followed by two hex digits) are kept
// verbatim. When nothing has to be decoded, part is returned as is.
func UnescapeString(part string, spec UnescapeSpec, unescapePlus bool) string {
	i := 0
	for ; i < len(part); i++ {
		if _, n := escapedChar(part, i, spec, unescapePlus); n > 0 {
			break
		}
	}
	if i == len(part) {
		return part
	}

	var sb strings.Builder
	sb.Grow(len(part))
	sb.WriteString(part[:i])
	for i < len(part) {
		if c, n := escapedChar(part, i, spec, unescapePlus); n > 0 {
			sb.WriteByte(c)
			i += n
			continue
		}
		sb.WriteByte(part[i])
		i++
	}
	return sb.String()
}

// escapedChar returns the byte encoded at s[i] and the number of bytes it spans, or 0 if s[i]
// does not start a sequence that should be decoded.
func escapedChar(s string, i int, spec UnescapeSpec, unescapePlus bool) (byte, int) {
	if unescapePlus && s[i] == '+' {
		return ' ', 1
	}
	if s[i] != '%' || i+2 >= len(s) {
		return 0, 0
	}
	hi, lo := unhex(s[i+1]), unhex(s[i+2])
	if hi < 0 || lo < 0 {
		return 0, 0
	}
	c := byte(hi<<4 | lo)
	switch spec {
	case UnescapeAllExceptReserved:
		if isReserved(c) {
			return 0, 0
		}
	case UnescapeAllExceptSlash:
		if c == '/' {
			return 0, 0
		}
	}
	return c, 3
}

// isReserved reports whether c belongs to the RFC 6570 reserved set.
func isReserved(c byte) bool {
	switch c {
	case '!', '#', '$', '&', '\'', '(', ')', '*', '+', ',', '/', ':', ';', '=', '?', '@', '[', ']':
		return true
	}
	return false
}

func unhex(c byte) int {
	switch {
	case '0' <= c && c <= '9':
		return int(c - '0')
	case 'a' <= c && c <= 'f':
		return int(c - 'a' + 10)
	case 'A' <= c && c <= 'F':
		return int(c - 'A' + 10)
	default:
		return -1
	}
}
