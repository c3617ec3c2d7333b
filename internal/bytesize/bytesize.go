// Package bytesize renders byte counts for CLI display.
package bytesize

import "fmt"

// ByteSize is a size in bytes with a human-readable String form.
type ByteSize uint64

// Binary units (x1024).
const (
	B   ByteSize = 1
	KiB ByteSize = 1024
	MiB ByteSize = 1024 * KiB
	GiB ByteSize = 1024 * MiB
	TiB ByteSize = 1024 * GiB
)

var units = []struct {
	size   ByteSize
	suffix string
}{
	{TiB, "TiB"},
	{GiB, "GiB"},
	{MiB, "MiB"},
	{KiB, "KiB"},
}

// String renders the size with the largest unit that keeps the value
// above one, e.g. "1.50GiB" or "512B".
func (b ByteSize) String() string {
	for _, u := range units {
		if b >= u.size {
			return fmt.Sprintf("%.2f%s", float64(b)/float64(u.size), u.suffix)
		}
	}
	return fmt.Sprintf("%dB", b)
}

// Uint64 returns the ByteSize as a uint64.
func (b ByteSize) Uint64() uint64 {
	return uint64(b)
}
