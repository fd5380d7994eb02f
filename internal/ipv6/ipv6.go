// Package ipv6 models IPv6 addresses paired with a 128-bit network prefix.
// The numeric value exceeds native word width, so derivations that need it
// run on math/big integers; everything else works on the eight 16-bit
// groups.
package ipv6

import (
	"errors"
	"fmt"
	"iter"
	"math/big"
	"strconv"
	"strings"

	"github.com/cidrkit/cidrkit/internal/prefix"
)

var (
	// ErrInvalidAddress indicates a textual address that fails shape or
	// range validation: malformed hextet, more than one "::", or an
	// embedded dotted IPv4 tail outside the mapped form.
	ErrInvalidAddress = errors.New("invalid IPv6 address")

	// ErrInvalidPrefix indicates a prefix suffix outside 0..128.
	ErrInvalidPrefix = errors.New("invalid IPv6 prefix")

	// ErrOutOfRange indicates a group index outside 0..7.
	ErrOutOfRange = errors.New("value out of range")
)

var maxU128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// Address is an IPv6 address with an attached network prefix. The numeric
// value is always the big-endian packing of the groups; constructors keep
// the two in sync and methods never mutate an existing value, except for the
// allocation cursor which is explicit per-instance state.
type Address struct {
	groups [8]uint16
	num    *big.Int
	prefix prefix.Prefix128

	// allocator is the per-instance allocation cursor, an offset from the
	// network base. See Allocate.
	allocator *big.Int
}

// Parse constructs an address from the eight-hextet colon form or the "::"
// zero-run compression form, with an optional "/len" suffix defaulting to
// /128. A dotted-decimal IPv4 tail is rejected; use ParseMapped for the
// "::ffff:a.b.c.d" form.
func Parse(s string) (*Address, error) {
	addrPart, suffix, hasSuffix := strings.Cut(s, "/")

	groups, err := parseGroups(addrPart)
	if err != nil {
		return nil, err
	}

	p, err := prefix.New128(128)
	if err != nil {
		return nil, err
	}
	if hasSuffix {
		n, convErr := strconv.Atoi(suffix)
		if convErr != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPrefix, suffix)
		}
		p, err = prefix.New128(n)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPrefix, err)
		}
	}

	return fromGroups(groups, p), nil
}

// MustParse is Parse for known-good literals. It panics on error.
func MustParse(s string) *Address {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// FromBigInt constructs an address from its 128-bit numeric value and a
// prefix length.
func FromBigInt(v *big.Int, prefixLen int) (*Address, error) {
	if v == nil || v.Sign() < 0 || v.Cmp(maxU128) > 0 {
		return nil, fmt.Errorf("%w: numeric value outside 128 bits", ErrInvalidAddress)
	}
	p, err := prefix.New128(prefixLen)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPrefix, err)
	}
	return fromBig(v, p), nil
}

// FromBytes constructs an address from 16 raw bytes in network byte order
// and a prefix length.
func FromBytes(b []byte, prefixLen int) (*Address, error) {
	if len(b) != 16 {
		return nil, fmt.Errorf("%w: need 16 bytes, got %d", ErrInvalidAddress, len(b))
	}
	p, err := prefix.New128(prefixLen)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPrefix, err)
	}
	var groups [8]uint16
	for i := range groups {
		groups[i] = uint16(b[2*i])<<8 | uint16(b[2*i+1])
	}
	return fromGroups(groups, p), nil
}

// FromHex constructs an address from its 32-character hex string form and a
// prefix length.
func FromHex(s string, prefixLen int) (*Address, error) {
	if len(s) != 32 {
		return nil, fmt.Errorf("%w: hex form must be 32 characters, got %d", ErrInvalidAddress, len(s))
	}
	var groups [8]uint16
	for i := range groups {
		v, err := strconv.ParseUint(s[4*i:4*i+4], 16, 16)
		if err != nil {
			return nil, fmt.Errorf("%w: bad hex group %q", ErrInvalidAddress, s[4*i:4*i+4])
		}
		groups[i] = uint16(v)
	}
	p, err := prefix.New128(prefixLen)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPrefix, err)
	}
	return fromGroups(groups, p), nil
}

func fromGroups(groups [8]uint16, p prefix.Prefix128) *Address {
	num := new(big.Int)
	for _, g := range groups {
		num.Lsh(num, 16)
		num.Or(num, big.NewInt(int64(g)))
	}
	return &Address{groups: groups, num: num, prefix: p}
}

func fromBig(v *big.Int, p prefix.Prefix128) *Address {
	var b [16]byte
	v.FillBytes(b[:])
	var groups [8]uint16
	for i := range groups {
		groups[i] = uint16(b[2*i])<<8 | uint16(b[2*i+1])
	}
	return &Address{groups: groups, num: new(big.Int).Set(v), prefix: p}
}

func parseGroups(s string) ([8]uint16, error) {
	var groups [8]uint16

	if strings.Contains(s, ".") {
		return groups, fmt.Errorf("%w: %q embeds a dotted IPv4 tail; only the mapped ::ffff: form carries one", ErrInvalidAddress, s)
	}
	if s == "" {
		return groups, fmt.Errorf("%w: empty address", ErrInvalidAddress)
	}

	head, tail, compressed := strings.Cut(s, "::")
	if compressed && strings.Contains(tail, "::") {
		return groups, fmt.Errorf("%w: %q has more than one \"::\"", ErrInvalidAddress, s)
	}
	if !compressed && (strings.HasPrefix(s, ":") || strings.HasSuffix(s, ":")) {
		return groups, fmt.Errorf("%w: %q has a dangling colon", ErrInvalidAddress, s)
	}

	left, err := splitHextets(head, s)
	if err != nil {
		return groups, err
	}

	if !compressed {
		if len(left) != 8 {
			return groups, fmt.Errorf("%w: %q has %d groups, want 8", ErrInvalidAddress, s, len(left))
		}
		copy(groups[:], left)
		return groups, nil
	}

	right, err := splitHextets(tail, s)
	if err != nil {
		return groups, err
	}
	if len(left)+len(right) > 7 {
		return groups, fmt.Errorf("%w: %q compresses nothing", ErrInvalidAddress, s)
	}

	copy(groups[:], left)
	copy(groups[8-len(right):], right)
	return groups, nil
}

// splitHextets parses one side of a "::", or a full uncompressed address.
// An empty side contributes no groups.
func splitHextets(part, whole string) ([]uint16, error) {
	if part == "" {
		return nil, nil
	}
	pieces := strings.Split(part, ":")
	out := make([]uint16, 0, len(pieces))
	for _, piece := range pieces {
		if piece == "" || len(piece) > 4 {
			return nil, fmt.Errorf("%w: bad hextet %q in %q", ErrInvalidAddress, piece, whole)
		}
		v, err := strconv.ParseUint(piece, 16, 16)
		if err != nil {
			return nil, fmt.Errorf("%w: bad hextet %q in %q", ErrInvalidAddress, piece, whole)
		}
		out = append(out, uint16(v))
	}
	return out, nil
}

// Version returns 6.
func (a *Address) Version() int { return 6 }

// Groups returns the eight 16-bit groups.
func (a *Address) Groups() [8]uint16 { return a.groups }

// Group returns the i-th group, 0-based.
func (a *Address) Group(i int) (uint16, error) {
	if i < 0 || i > 7 {
		return 0, fmt.Errorf("%w: group index %d", ErrOutOfRange, i)
	}
	return a.groups[i], nil
}

// HexGroups returns the eight groups as four-hex-digit strings.
func (a *Address) HexGroups() []string {
	out := make([]string, 8)
	for i, g := range a.groups {
		out[i] = fmt.Sprintf("%04x", g)
	}
	return out
}

// BigInt returns the 128-bit numeric value. The returned value is a copy.
func (a *Address) BigInt() *big.Int { return new(big.Int).Set(a.num) }

// Prefix returns the attached network prefix.
func (a *Address) Prefix() prefix.Prefix128 { return a.prefix }

// Bytes returns the address as a fresh 16-byte slice in network byte order.
func (a *Address) Bytes() []byte {
	b := make([]byte, 16)
	for i, g := range a.groups {
		b[2*i] = byte(g >> 8)
		b[2*i+1] = byte(g)
	}
	return b
}

// Hex returns the address as 32 hex digits without separators.
func (a *Address) Hex() string { return strings.Join(a.HexGroups(), "") }

// Bits returns the 128-character binary form of the address.
func (a *Address) Bits() string {
	var b strings.Builder
	for _, g := range a.groups {
		fmt.Fprintf(&b, "%016b", g)
	}
	return b.String()
}

// Expand returns the uncompressed form: eight four-hex-digit groups joined
// by colons.
func (a *Address) Expand() string { return strings.Join(a.HexGroups(), ":") }

// Compress returns the canonical compressed form: the longest run of at
// least two all-zero groups (leftmost on ties) collapses to "::" and every
// other group drops its leading zeros.
func (a *Address) Compress() string {
	runStart, runLen := -1, 0
	for i := 0; i < 8; {
		if a.groups[i] != 0 {
			i++
			continue
		}
		j := i
		for j < 8 && a.groups[j] == 0 {
			j++
		}
		if j-i > runLen {
			runStart, runLen = i, j-i
		}
		i = j
	}

	short := func(gs []uint16) string {
		parts := make([]string, len(gs))
		for i, g := range gs {
			parts[i] = strconv.FormatUint(uint64(g), 16)
		}
		return strings.Join(parts, ":")
	}

	if runLen < 2 {
		return short(a.groups[:])
	}
	return short(a.groups[:runStart]) + "::" + short(a.groups[runStart+runLen:])
}

// String returns the compressed address without a prefix.
func (a *Address) String() string { return a.Compress() }

// Canonical returns the compressed address in "addr/len" form.
func (a *Address) Canonical() string {
	return a.Compress() + "/" + a.prefix.String()
}

// Uncompressed returns the expanded address in "addr/len" form.
func (a *Address) Uncompressed() string {
	return a.Expand() + "/" + a.prefix.String()
}

// Reverse returns the reverse-DNS name of the address in the ip6.arpa zone:
// every hex nibble of the expanded form, in reverse order, dot-joined.
func (a *Address) Reverse() string {
	hex := a.Hex()
	var b strings.Builder
	b.Grow(len(hex)*2 + len("ip6.arpa"))
	for i := len(hex) - 1; i >= 0; i-- {
		b.WriteByte(hex[i])
		b.WriteByte('.')
	}
	b.WriteString("ip6.arpa")
	return b.String()
}

// NetworkBigInt returns the numeric network base: the address masked down
// to its prefix.
func (a *Address) NetworkBigInt() *big.Int {
	return new(big.Int).And(a.num, a.prefix.Mask())
}

// BroadcastBigInt returns the numeric upper bound of the block: the network
// base plus 2^(128-prefix) - 1. IPv6 has no broadcast semantics; the value
// bounds iteration and containment.
func (a *Address) BroadcastBigInt() *big.Int {
	bound := a.NetworkBigInt()
	bound.Add(bound, a.prefix.Size())
	return bound.Sub(bound, big.NewInt(1))
}

// Network returns the network address of the block, carrying the same
// prefix.
func (a *Address) Network() *Address { return fromBig(a.NetworkBigInt(), a.prefix) }

// IsNetwork reports whether the address is the network address of its
// block. A /128 host route is never a network.
func (a *Address) IsNetwork() bool {
	return a.prefix.Len() < 128 && a.num.Cmp(a.NetworkBigInt()) == 0
}

// WithGroup returns a new address with the i-th group replaced. The
// existing value is left untouched.
func (a *Address) WithGroup(i int, v uint16) (*Address, error) {
	if i < 0 || i > 7 {
		return nil, fmt.Errorf("%w: group index %d", ErrOutOfRange, i)
	}
	groups := a.groups
	groups[i] = v
	return fromGroups(groups, a.prefix), nil
}

// WithPrefix returns a new address at the same numeric value with a
// different prefix length.
func (a *Address) WithPrefix(length int) (*Address, error) {
	p, err := prefix.New128(length)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPrefix, err)
	}
	return fromGroups(a.groups, p), nil
}

// Includes reports whether the block contains other: the prefix must be no
// longer than other's and the network bases must agree under this block's
// mask.
func (a *Address) Includes(other *Address) bool {
	if a.prefix.Len() > other.prefix.Len() {
		return false
	}
	masked := new(big.Int).And(other.num, a.prefix.Mask())
	return a.NetworkBigInt().Cmp(masked) == 0
}

// Compare orders addresses primarily by numeric value, with ties broken by
// prefix length ascending. It returns -1, 0 or +1.
func (a *Address) Compare(other *Address) int {
	if c := a.num.Cmp(other.num); c != 0 {
		return c
	}
	return a.prefix.Compare(other.prefix)
}

// Each returns a restartable iterator over every address in the block, from
// the network base to the upper bound in ascending order. Blocks with short
// prefixes cover astronomically many addresses; the caller bounds the
// traversal by breaking out.
func (a *Address) Each() iter.Seq[*Address] {
	p := a.prefix
	first, last := a.NetworkBigInt(), a.BroadcastBigInt()
	return func(yield func(*Address) bool) {
		one := big.NewInt(1)
		for v := new(big.Int).Set(first); v.Cmp(last) <= 0; v.Add(v, one) {
			if !yield(fromBig(v, p)) {
				return
			}
		}
	}
}

// Well-known ranges for the classification predicates.
var (
	linkLocalBlock   = MustParse("fe80::/10")
	uniqueLocalBlock = MustParse("fc00::/7")
	mappedBlock      = MustParse("::ffff:0:0/96")
)

// IsLinkLocal reports whether the address falls in fe80::/10.
func (a *Address) IsLinkLocal() bool { return linkLocalBlock.Includes(a.host()) }

// IsUniqueLocal reports whether the address falls in fc00::/7.
func (a *Address) IsUniqueLocal() bool { return uniqueLocalBlock.Includes(a.host()) }

// IsMapped reports whether the address falls in the IPv4-mapped range
// ::ffff:0:0/96.
func (a *Address) IsMapped() bool { return mappedBlock.Includes(a.host()) }

// IsUnspecified reports whether the address is ::.
func (a *Address) IsUnspecified() bool { return a.num.Sign() == 0 }

// IsLoopback reports whether the address is ::1.
func (a *Address) IsLoopback() bool { return a.num.Cmp(big.NewInt(1)) == 0 }

// host reinterprets the address as a /128 so range membership ignores the
// attached prefix.
func (a *Address) host() *Address {
	p, _ := prefix.New128(128)
	return fromGroups(a.groups, p)
}

// Allocate advances the per-instance allocation cursor by 1+skip addresses
// from the network base and returns the address at that offset. Once the
// offset passes the upper bound of the block it returns (nil, false);
// exhaustion is not an error. Callers sharing one instance must serialize
// their calls.
func (a *Address) Allocate(skip int) (*Address, bool) {
	if skip < 0 {
		return nil, false
	}
	if a.allocator == nil {
		a.allocator = new(big.Int)
	}
	a.allocator.Add(a.allocator, big.NewInt(int64(skip)+1))

	next := a.NetworkBigInt()
	next.Add(next, a.allocator)
	if next.Cmp(a.BroadcastBigInt()) > 0 {
		return nil, false
	}
	return fromBig(next, a.prefix), true
}
