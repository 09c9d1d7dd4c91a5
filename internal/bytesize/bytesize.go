// Package bytesize parses human-readable buffer sizes such as "8Ki" or "64KB"
// used by the server configuration.
package bytesize

import (
	"fmt"
	"strconv"
	"strings"
)

// ByteSize is a size in bytes.
type ByteSize int64

const (
	B   ByteSize = 1
	KB  ByteSize = 1000
	MB  ByteSize = 1000 * KB
	KiB ByteSize = 1024
	MiB ByteSize = 1024 * KiB
)

// suffixes are checked longest first so "KiB" is not read as "B".
var suffixes = []struct {
	unit string
	mult ByteSize
}{
	{"kib", KiB},
	{"mib", MiB},
	{"ki", KiB},
	{"mi", MiB},
	{"kb", KB},
	{"mb", MB},
	{"k", KB},
	{"m", MB},
	{"b", B},
}

// Parse converts s into a ByteSize. A plain number is taken as bytes.
func Parse(s string) (ByteSize, error) {
	str := strings.ToLower(strings.TrimSpace(s))
	if str == "" {
		return 0, fmt.Errorf("empty byte size string")
	}

	mult := B
	for _, sfx := range suffixes {
		if strings.HasSuffix(str, sfx.unit) {
			mult = sfx.mult
			str = strings.TrimSpace(strings.TrimSuffix(str, sfx.unit))
			break
		}
	}

	n, err := strconv.ParseInt(str, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid byte size %q", s)
	}
	return ByteSize(n) * mult, nil
}

// UnmarshalText lets ByteSize be decoded directly from config files.
func (b *ByteSize) UnmarshalText(text []byte) error {
	size, err := Parse(string(text))
	if err != nil {
		return err
	}
	*b = size
	return nil
}

// MarshalText writes the size back in its most compact binary unit.
func (b ByteSize) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b ByteSize) String() string {
	switch {
	case b >= MiB && b%MiB == 0:
		return fmt.Sprintf("%dMi", b/MiB)
	case b >= KiB && b%KiB == 0:
		return fmt.Sprintf("%dKi", b/KiB)
	default:
		return fmt.Sprintf("%d", int64(b))
	}
}

// Int returns the size as an int for buffer allocation.
func (b ByteSize) Int() int {
	return int(b)
}
