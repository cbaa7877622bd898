package resolver

import "strings"

const upperHex = "0123456789ABCDEF"

// EscapePath percent-encodes every byte of p outside the unreserved set
// (A-Z a-z 0-9 - _ . ~), keeping '/' as the separator. Well-formed %XX
// sequences are copied through, so escaping an escaped path is a no-op.
func EscapePath(p string) string {
	var sb strings.Builder
	sb.Grow(len(p) + len(p)/4)
	for i := 0; i < len(p); i++ {
		c := p[i]
		switch {
		case c == '/' || unreserved(c):
			sb.WriteByte(c)
		case c == '%' && i+2 < len(p) && isHex(p[i+1]) && isHex(p[i+2]):
			sb.WriteString(p[i : i+3])
			i += 2
		default:
			sb.WriteByte('%')
			sb.WriteByte(upperHex[c>>4])
			sb.WriteByte(upperHex[c&0x0f])
		}
	}
	return sb.String()
}

func unreserved(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-', c == '_', c == '.', c == '~':
		return true
	}
	return false
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
