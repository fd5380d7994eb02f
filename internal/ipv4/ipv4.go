// Package ipv4 models IPv4 addresses paired with a 32-bit network prefix and
// implements the derived network arithmetic: network and broadcast
// derivation, range iteration, containment, subnetting, uneven splitting,
// supernetting and summarization.
package ipv4

import (
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/cidrkit/cidrkit/internal/prefix"
)

var (
	// ErrInvalidAddress indicates a textual address that fails shape or
	// range validation.
	ErrInvalidAddress = errors.New("invalid IPv4 address")

	// ErrInvalidPrefix indicates a prefix suffix that is neither a CIDR
	// length nor a dotted netmask, or an operation-specific prefix
	// violation.
	ErrInvalidPrefix = errors.New("invalid IPv4 prefix")

	// ErrOutOfRange indicates an operation parameter outside its defined
	// range, such as a split count larger than the block.
	ErrOutOfRange = errors.New("value out of range")
)

// Address is an IPv4 address with an attached network prefix. The numeric
// value is always the big-endian packing of the octets; constructors keep
// the two in sync and methods never mutate an existing value, except for the
// allocation cursor which is explicit per-instance state.
type Address struct {
	octets [4]byte
	u32    uint32
	prefix prefix.Prefix32

	// allocator is the per-instance allocation cursor, an offset from the
	// network base. See Allocate.
	allocator uint64
}

// Parse constructs an address from "a.b.c.d", "a.b.c.d/len" or
// "a.b.c.d/netmask" form. Without a suffix the prefix defaults to /32.
func Parse(s string) (*Address, error) {
	addrPart, suffix, hasSuffix := strings.Cut(s, "/")

	octets, err := parseOctets(addrPart)
	if err != nil {
		return nil, err
	}

	p, err := prefix.New32(32)
	if err != nil {
		return nil, err
	}
	if hasSuffix {
		p, err = parsePrefixSuffix(suffix)
		if err != nil {
			return nil, err
		}
	}

	return fromOctets(octets, p), nil
}

// MustParse is Parse for known-good literals, such as the reserved-block
// tables. It panics on error.
func MustParse(s string) *Address {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// ParseClassful constructs an address from dotted form with its classful
// default prefix: leading bit 0 selects /8, leading bits 10 select /16 and
// everything else selects /24. A prefix suffix is not accepted.
func ParseClassful(s string) (*Address, error) {
	octets, err := parseOctets(s)
	if err != nil {
		return nil, err
	}
	p, err := prefix.New32(classfulLen(octets[0]))
	if err != nil {
		return nil, err
	}
	return fromOctets(octets, p), nil
}

// classful is the ordered rule table for default prefix selection, checked
// top-down against the leading bits of the first octet.
var classful = []struct {
	mask, pattern byte
	length        int
}{
	{0x80, 0x00, 8},  // 0xxxxxxx: class A
	{0xc0, 0x80, 16}, // 10xxxxxx: class B
	{0xe0, 0xc0, 24}, // 110xxxxx: class C
}

func classfulLen(first byte) int {
	for _, rule := range classful {
		if first&rule.mask == rule.pattern {
			return rule.length
		}
	}
	return 24
}

// FromU32 constructs an address from its 32-bit numeric value and a prefix
// length.
func FromU32(v uint32, prefixLen int) (*Address, error) {
	p, err := prefix.New32(prefixLen)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPrefix, err)
	}
	return fromU32(v, p), nil
}

// FromBytes constructs an address from four raw bytes in network byte order
// and a prefix length.
func FromBytes(b []byte, prefixLen int) (*Address, error) {
	if len(b) != 4 {
		return nil, fmt.Errorf("%w: need 4 bytes, got %d", ErrInvalidAddress, len(b))
	}
	p, err := prefix.New32(prefixLen)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPrefix, err)
	}
	return fromOctets([4]byte{b[0], b[1], b[2], b[3]}, p), nil
}

func fromOctets(o [4]byte, p prefix.Prefix32) *Address {
	return &Address{
		octets: o,
		u32:    uint32(o[0])<<24 | uint32(o[1])<<16 | uint32(o[2])<<8 | uint32(o[3]),
		prefix: p,
	}
}

func fromU32(v uint32, p prefix.Prefix32) *Address {
	return &Address{
		octets: [4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)},
		u32:    v,
		prefix: p,
	}
}

func parseOctets(s string) ([4]byte, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return [4]byte{}, fmt.Errorf("%w: %q is not a dotted quad", ErrInvalidAddress, s)
	}
	var o [4]byte
	for i, part := range parts {
		if part == "" || len(part) > 3 || !allDigits(part) {
			return [4]byte{}, fmt.Errorf("%w: bad octet %q in %q", ErrInvalidAddress, part, s)
		}
		n, err := strconv.ParseUint(part, 10, 16)
		if err != nil || n > 255 {
			return [4]byte{}, fmt.Errorf("%w: octet %q out of range in %q", ErrInvalidAddress, part, s)
		}
		o[i] = byte(n)
	}
	return o, nil
}

func parsePrefixSuffix(s string) (prefix.Prefix32, error) {
	if strings.Contains(s, ".") {
		return prefix.Parse32Netmask(s)
	}
	if len(s) >= 1 && len(s) <= 2 && allDigits(s) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return prefix.Prefix32{}, fmt.Errorf("%w: %q", ErrInvalidPrefix, s)
		}
		return prefix.New32(n)
	}
	return prefix.Prefix32{}, fmt.Errorf("%w: %q", ErrInvalidPrefix, s)
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// Version returns 4.
func (a *Address) Version() int { return 4 }

// U32 returns the 32-bit numeric value of the address.
func (a *Address) U32() uint32 { return a.u32 }

// Octets returns the four octets in network byte order.
func (a *Address) Octets() [4]byte { return a.octets }

// Octet returns the i-th octet, 0-based.
func (a *Address) Octet(i int) (byte, error) {
	if i < 0 || i > 3 {
		return 0, fmt.Errorf("%w: octet index %d", ErrOutOfRange, i)
	}
	return a.octets[i], nil
}

// Prefix returns the attached network prefix.
func (a *Address) Prefix() prefix.Prefix32 { return a.prefix }

// Bytes returns the address as a fresh 4-byte slice in network byte order.
func (a *Address) Bytes() []byte {
	b := make([]byte, 4)
	copy(b, a.octets[:])
	return b
}

// WithOctet returns a new address with the i-th octet replaced. The existing
// value is left untouched.
func (a *Address) WithOctet(i int, v byte) (*Address, error) {
	if i < 0 || i > 3 {
		return nil, fmt.Errorf("%w: octet index %d", ErrOutOfRange, i)
	}
	o := a.octets
	o[i] = v
	return fromOctets(o, a.prefix), nil
}

// WithPrefix returns a new address at the same numeric value with a
// different prefix length.
func (a *Address) WithPrefix(length int) (*Address, error) {
	p, err := prefix.New32(length)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPrefix, err)
	}
	return fromU32(a.u32, p), nil
}

// String returns the dotted-decimal address without a prefix.
func (a *Address) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", a.octets[0], a.octets[1], a.octets[2], a.octets[3])
}

// Canonical returns the address in "a.b.c.d/len" form.
func (a *Address) Canonical() string {
	return a.String() + "/" + a.prefix.String()
}

// Netmask returns the prefix mask in dotted-decimal form.
func (a *Address) Netmask() string { return a.prefix.Netmask() }

// Bits returns the 32-character binary form of the address.
func (a *Address) Bits() string {
	var b strings.Builder
	for _, o := range a.octets {
		fmt.Fprintf(&b, "%08b", o)
	}
	return b.String()
}

// Reverse returns the reverse-DNS name of the address in the in-addr.arpa
// zone.
func (a *Address) Reverse() string {
	return fmt.Sprintf("%d.%d.%d.%d.in-addr.arpa", a.octets[3], a.octets[2], a.octets[1], a.octets[0])
}

// Size returns the number of addresses in the network, 2^(32 - prefix).
func (a *Address) Size() uint64 {
	return uint64(1) << a.prefix.HostLen()
}

// NetworkU32 returns the numeric network base: the address masked down to
// its prefix.
func (a *Address) NetworkU32() uint32 { return a.u32 & a.prefix.Mask() }

// BroadcastU32 returns the numeric broadcast address: the network base with
// all host bits set.
func (a *Address) BroadcastU32() uint32 {
	return a.NetworkU32() | a.prefix.HostMask()
}

// Network returns the network address of the block, carrying the same
// prefix.
func (a *Address) Network() *Address { return fromU32(a.NetworkU32(), a.prefix) }

// Broadcast returns the broadcast address of the block, carrying the same
// prefix. For /31 the derivation degenerates to the upper address of the
// two-host link; for /32 it is the address itself.
func (a *Address) Broadcast() *Address { return fromU32(a.BroadcastU32(), a.prefix) }

// IsNetwork reports whether the address is the network address of its
// block. A /32 host route is never a network.
func (a *Address) IsNetwork() bool {
	return a.prefix.Len() < 32 && a.u32 == a.NetworkU32()
}

// First returns the first usable host: network+1, or the network itself for
// /31, or the address itself for /32.
func (a *Address) First() *Address {
	switch a.prefix.Len() {
	case 32:
		return fromU32(a.u32, a.prefix)
	case 31:
		return fromU32(a.NetworkU32(), a.prefix)
	default:
		return fromU32(a.NetworkU32()+1, a.prefix)
	}
}

// Last returns the last usable host: broadcast-1, or the broadcast itself
// for /31, or the address itself for /32.
func (a *Address) Last() *Address {
	switch a.prefix.Len() {
	case 32:
		return fromU32(a.u32, a.prefix)
	case 31:
		return fromU32(a.BroadcastU32(), a.prefix)
	default:
		return fromU32(a.BroadcastU32()-1, a.prefix)
	}
}

// Each returns a restartable iterator over every address in the block, from
// the network address to the broadcast address in ascending order. Each call
// starts a fresh traversal.
func (a *Address) Each() iter.Seq[*Address] {
	p := a.prefix
	first, last := a.NetworkU32(), a.BroadcastU32()
	return func(yield func(*Address) bool) {
		for v := first; ; v++ {
			if !yield(fromU32(v, p)) {
				return
			}
			if v == last {
				return
			}
		}
	}
}

// EachHost is Each without the network and broadcast endpoints. It yields
// nothing for /31 and /32 blocks.
func (a *Address) EachHost() iter.Seq[*Address] {
	p := a.prefix
	first, last := a.NetworkU32(), a.BroadcastU32()
	return func(yield func(*Address) bool) {
		if last-first < 2 {
			return
		}
		for v := first + 1; v < last; v++ {
			if !yield(fromU32(v, p)) {
				return
			}
		}
	}
}

// Includes reports whether the block contains other: the prefix must be no
// longer than other's and the network bases must agree under this block's
// mask.
func (a *Address) Includes(other *Address) bool {
	return a.prefix.Len() <= other.prefix.Len() &&
		a.NetworkU32() == other.u32&a.prefix.Mask()
}

// IncludesAll reports whether the block contains every given address.
func (a *Address) IncludesAll(others ...*Address) bool {
	for _, o := range others {
		if !a.Includes(o) {
			return false
		}
	}
	return true
}

// Compare orders addresses primarily by numeric value, with ties broken by
// prefix length ascending. It returns -1, 0 or +1.
func (a *Address) Compare(other *Address) int {
	switch {
	case a.u32 < other.u32:
		return -1
	case a.u32 > other.u32:
		return 1
	default:
		return a.prefix.Compare(other.prefix)
	}
}

// Distance returns the absolute difference of the two numeric values,
// symmetric in its operands.
func (a *Address) Distance(other *Address) uint32 {
	if a.u32 >= other.u32 {
		return a.u32 - other.u32
	}
	return other.u32 - a.u32
}

// Reserved blocks for the classification predicates.
var (
	privateBlocks = []*Address{
		MustParse("10.0.0.0/8"),
		MustParse("172.16.0.0/12"),
		MustParse("192.168.0.0/16"),
	}
	multicastBlock = MustParse("224.0.0.0/4")
	loopbackBlock  = MustParse("127.0.0.0/8")
	linkLocalBlock = MustParse("169.254.0.0/16")
)

// IsPrivate reports whether the address falls in one of the RFC 1918
// blocks.
func (a *Address) IsPrivate() bool {
	for _, block := range privateBlocks {
		if block.Includes(a) {
			return true
		}
	}
	return false
}

// IsMulticast reports whether the address falls in 224.0.0.0/4.
func (a *Address) IsMulticast() bool { return multicastBlock.Includes(a) }

// IsLoopback reports whether the address falls in 127.0.0.0/8.
func (a *Address) IsLoopback() bool { return loopbackBlock.Includes(a) }

// IsLinkLocal reports whether the address falls in 169.254.0.0/16.
func (a *Address) IsLinkLocal() bool { return linkLocalBlock.Includes(a) }

// IsClassA reports whether the leading bit of the address is 0.
func (a *Address) IsClassA() bool { return a.octets[0]&0x80 == 0x00 }

// IsClassB reports whether the leading bits of the address are 10.
func (a *Address) IsClassB() bool { return a.octets[0]&0xc0 == 0x80 }

// IsClassC reports whether the leading bits of the address are 110.
func (a *Address) IsClassC() bool { return a.octets[0]&0xe0 == 0xc0 }

// Allocate advances the per-instance allocation cursor by 1+skip addresses
// from the network base and returns the address at that offset. Once the
// offset passes the broadcast address it returns (nil, false); exhaustion is
// not an error. Callers sharing one instance must serialize their calls.
func (a *Address) Allocate(skip int) (*Address, bool) {
	if skip < 0 {
		return nil, false
	}
	a.allocator += uint64(skip) + 1
	offset := uint64(a.NetworkU32()) + a.allocator
	if offset > uint64(a.BroadcastU32()) {
		return nil, false
	}
	return fromU32(uint32(offset), a.prefix), true
}
