package prefix

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Prefix128 is an IPv6 network prefix: a mask length in [0, 128]. The mask
// exceeds native word width, so derived values use math/big.
type Prefix128 struct {
	length int
}

// New128 constructs a 128-bit prefix from a mask length.
func New128(length int) (Prefix128, error) {
	if length < 0 || length > 128 {
		return Prefix128{}, fmt.Errorf("%w: /%d must be in 0..128", ErrOutOfRange, length)
	}
	return Prefix128{length: length}, nil
}

// Len returns the mask length.
func (p Prefix128) Len() int { return p.length }

// HostLen returns the number of host bits, 128 - Len().
func (p Prefix128) HostLen() int { return 128 - p.length }

// Mask returns the numeric bitmask: Len() leading one-bits over 128 bits.
// The returned value is freshly allocated on every call.
func (p Prefix128) Mask() *big.Int {
	ones := new(big.Int).Lsh(big.NewInt(1), uint(p.length))
	ones.Sub(ones, big.NewInt(1))
	return ones.Lsh(ones, uint(128-p.length))
}

// HostMask returns the bitwise complement of the mask: HostLen() trailing
// one-bits.
func (p Prefix128) HostMask() *big.Int {
	m := new(big.Int).Lsh(big.NewInt(1), uint(128-p.length))
	return m.Sub(m, big.NewInt(1))
}

// Bits returns the canonical binary string: Len() ones followed by zeros.
func (p Prefix128) Bits() string {
	return strings.Repeat("1", p.length) + strings.Repeat("0", 128-p.length)
}

// Size returns the number of addresses covered by the prefix, 2^HostLen().
func (p Prefix128) Size() *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(128-p.length))
}

// Add returns the prefix whose length is the sum of both lengths, unchecked.
func (p Prefix128) Add(q Prefix128) int { return p.length + q.length }

// AddLen returns Len() + n, unchecked.
func (p Prefix128) AddLen(n int) int { return p.length + n }

// Sub returns the absolute difference of the two lengths.
func (p Prefix128) Sub(q Prefix128) int {
	if p.length >= q.length {
		return p.length - q.length
	}
	return q.length - p.length
}

// Compare orders prefixes by length. It returns -1, 0 or +1.
func (p Prefix128) Compare(q Prefix128) int {
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
func (p Prefix128) String() string { return strconv.Itoa(p.length) }
