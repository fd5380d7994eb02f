package ipv6

import (
	"fmt"
	"strings"

	"github.com/cidrkit/cidrkit/internal/ipv4"
)

// Mapped is an IPv4-mapped IPv6 address: an address inside ::ffff:0:0/96
// that additionally carries the IPv4 view of its low 32 bits.
type Mapped struct {
	Address
	ipv4 *ipv4.Address
}

// ParseMapped constructs a mapped address from the "::ffff:a.b.c.d" form,
// with an optional "/len" suffix. The colon-hex head must place the address
// inside the mapped range; a dotted tail behind any other head is rejected.
func ParseMapped(s string) (*Mapped, error) {
	addrPart, suffix, hasSuffix := strings.Cut(s, "/")

	i := strings.LastIndex(addrPart, ":")
	if i < 0 || !strings.Contains(addrPart[i+1:], ".") {
		return nil, fmt.Errorf("%w: %q is not a mapped address", ErrInvalidAddress, s)
	}

	v4, err := ipv4.Parse(addrPart[i+1:])
	if err != nil {
		return nil, fmt.Errorf("%w: mapped tail: %w", ErrInvalidAddress, err)
	}

	// Rewrite the dotted tail as two hextets and parse the whole through
	// the ordinary IPv6 path.
	u := v4.U32()
	full := fmt.Sprintf("%s%x:%x", addrPart[:i+1], u>>16, u&0xffff)
	if hasSuffix {
		full += "/" + suffix
	}
	a, err := Parse(full)
	if err != nil {
		return nil, err
	}
	if !a.IsMapped() {
		return nil, fmt.Errorf("%w: %q is outside ::ffff:0:0/96; a dotted tail needs the ::ffff: head", ErrInvalidAddress, s)
	}

	return &Mapped{Address: *a, ipv4: v4}, nil
}

// MappedFromAddress wraps an address already inside ::ffff:0:0/96 with its
// derived IPv4 view.
func MappedFromAddress(a *Address) (*Mapped, error) {
	if !a.IsMapped() {
		return nil, fmt.Errorf("%w: %s is outside ::ffff:0:0/96", ErrInvalidAddress, a)
	}
	low := uint32(a.groups[6])<<16 | uint32(a.groups[7])
	v4, err := ipv4.FromU32(low, 32)
	if err != nil {
		return nil, err
	}
	return &Mapped{Address: *a, ipv4: v4}, nil
}

// IPv4 returns the embedded IPv4 view of the low 32 bits.
func (m *Mapped) IPv4() *ipv4.Address { return m.ipv4 }

// String renders the mapped address with its dotted IPv4 tail.
func (m *Mapped) String() string { return "::ffff:" + m.ipv4.String() }

// Canonical returns the mapped address in "::ffff:a.b.c.d/len" form.
func (m *Mapped) Canonical() string {
	return m.String() + "/" + m.Address.prefix.String()
}
