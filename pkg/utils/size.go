package utils

import "fmt"

type unit struct {
	size   int64
	long   string
	letter string
}

// largest first
var units = []unit{
	{1 << 40, "TB", "T"},
	{1 << 30, "GB", "G"},
	{1 << 20, "MB", "M"},
	{1 << 10, "KB", "K"},
}

// HumanizeBytes formats a byte count into a readable string, e.g. "1.50 KB".
func HumanizeBytes(b int64) string {
	for _, u := range units {
		if b >= u.size {
			return fmt.Sprintf("%.2f %s", float64(b)/float64(u.size), u.long)
		}
	}
	return fmt.Sprintf("%d B", b)
}

// HumanizeBytesCompact formats a byte count without a space, e.g. "2.25G".
func HumanizeBytesCompact(b int64) string {
	for _, u := range units {
		if b >= u.size {
			return fmt.Sprintf("%.2f%s", float64(b)/float64(u.size), u.letter)
		}
	}
	return fmt.Sprintf("%dB", b)
}
