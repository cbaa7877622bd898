package util

import (
	"unicode/utf8"

	"github.com/dustin/go-humanize"
)

// FormatBytes renders a catalog or file size in binary units, e.g. "1.5 KiB".
func FormatBytes(b int64) string {
	if b < 0 {
		b = 0
	}
	return humanize.IBytes(uint64(b))
}

// TruncatePath shortens s to at most maxLen runes by dropping its left side,
// so the file name at the end stays visible.
func TruncatePath(s string, maxLen int) string {
	n := utf8.RuneCountInString(s)
	if n <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string([]rune(s)[n-max(maxLen, 0):])
	}
	return "..." + string([]rune(s)[n-maxLen+3:])
}
