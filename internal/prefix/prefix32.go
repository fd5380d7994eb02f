// Package prefix provides the 32-bit and 128-bit network prefix types that
// back IPv4 and IPv6 address arithmetic.
package prefix

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

var (
	// ErrOutOfRange indicates a prefix length outside the valid range for
	// its address width.
	ErrOutOfRange = errors.New("prefix length out of range")

	// ErrInvalidMask indicates a dotted netmask whose one-bits are not a
	// single contiguous run.
	ErrInvalidMask = errors.New("invalid netmask")
)

// Prefix32 is an IPv4 network prefix: a mask length in [0, 32].
type Prefix32 struct {
	length int
}

// New32 constructs a 32-bit prefix from a mask length.
func New32(length int) (Prefix32, error) {
	if length < 0 || length > 32 {
		return Prefix32{}, fmt.Errorf("%w: /%d must be in 0..32", ErrOutOfRange, length)
	}
	return Prefix32{length: length}, nil
}

// Parse32Netmask constructs a 32-bit prefix from a dotted-decimal netmask
// such as "255.255.255.0". The mask must be four octets, each at most 255,
// and its binary form must be a contiguous run of ones followed by zeros.
func Parse32Netmask(s string) (Prefix32, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return Prefix32{}, fmt.Errorf("%w: %q is not a dotted quad", ErrInvalidMask, s)
	}
	var mask uint32
	for _, p := range parts {
		n, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return Prefix32{}, fmt.Errorf("%w: bad octet %q in %q", ErrInvalidMask, p, s)
		}
		mask = mask<<8 | uint32(n)
	}
	// A contiguous mask inverts to a value of the form 0...01...1.
	inverted := ^mask
	if inverted&(inverted+1) != 0 {
		return Prefix32{}, fmt.Errorf("%w: %q has non-contiguous bits", ErrInvalidMask, s)
	}
	return Prefix32{length: bits.OnesCount32(mask)}, nil
}

// Len returns the mask length.
func (p Prefix32) Len() int { return p.length }

// HostLen returns the number of host bits, 32 - Len().
func (p Prefix32) HostLen() int { return 32 - p.length }

// Mask returns the numeric bitmask: Len() leading one-bits over 32 bits.
func (p Prefix32) Mask() uint32 {
	if p.length == 0 {
		return 0
	}
	return ^uint32(0) << (32 - p.length)
}

// HostMask returns the bitwise complement of the mask.
func (p Prefix32) HostMask() uint32 { return ^p.Mask() }

// Bits returns the canonical binary string: Len() ones followed by zeros.
func (p Prefix32) Bits() string {
	return strings.Repeat("1", p.length) + strings.Repeat("0", 32-p.length)
}

// Netmask renders the mask in dotted-decimal form.
func (p Prefix32) Netmask() string { return dotted(p.Mask()) }

// HostMaskDotted renders the complement of the mask in dotted-decimal form.
func (p Prefix32) HostMaskDotted() string { return dotted(p.HostMask()) }

// Octets returns the four octets of the dotted netmask.
func (p Prefix32) Octets() [4]byte {
	m := p.Mask()
	return [4]byte{byte(m >> 24), byte(m >> 16), byte(m >> 8), byte(m)}
}

// Octet returns the i-th octet of the netmask, 0-based. It returns 0 for an
// index outside [0, 3].
func (p Prefix32) Octet(i int) byte {
	if i < 0 || i > 3 {
		return 0
	}
	return p.Octets()[i]
}

// Add returns the prefix whose length is the sum of both lengths. The result
// is not range-checked; callers validating derived prefixes use New32.
func (p Prefix32) Add(q Prefix32) int { return p.length + q.length }

// AddLen returns Len() + n, unchecked like Add.
func (p Prefix32) AddLen(n int) int { return p.length + n }

// Sub returns the absolute difference of the two lengths.
func (p Prefix32) Sub(q Prefix32) int {
	if p.length >= q.length {
		return p.length - q.length
	}
	return q.length - p.length
}

// Compare orders prefixes by length. It returns -1, 0 or +1.
func (p Prefix32) Compare(q Prefix32) int {
	switch {
	case p.length < q.length:
		return -1
	case p.length > q.length:
		return 1
	default:
		return 0
	}
}

// String returns the decimal mask length.
func (p Prefix32) String() string { return strconv.Itoa(p.length) }

func dotted(v uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d", byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}
