package ipaddr

import (
	"fmt"
	"net/netip"

	"go4.org/netipx"

	"github.com/cidrkit/cidrkit/internal/ipv4"
	"github.com/cidrkit/cidrkit/internal/ipv6"
)

// ToPrefix converts a core value to a netip.Prefix over the same address
// and prefix length.
func ToPrefix(ip IP) (netip.Prefix, error) {
	switch a := ip.(type) {
	case *ipv4.Address:
		addr, ok := netip.AddrFromSlice(a.Bytes())
		if !ok {
			return netip.Prefix{}, fmt.Errorf("converting %s to netip", a)
		}
		return netip.PrefixFrom(addr, a.Prefix().Len()), nil
	case *ipv6.Address:
		addr, ok := netip.AddrFromSlice(a.Bytes())
		if !ok {
			return netip.Prefix{}, fmt.Errorf("converting %s to netip", a)
		}
		return netip.PrefixFrom(addr, a.Prefix().Len()), nil
	case *ipv6.Mapped:
		addr, ok := netip.AddrFromSlice(a.Bytes())
		if !ok {
			return netip.Prefix{}, fmt.Errorf("converting %s to netip", a)
		}
		return netip.PrefixFrom(addr, a.Prefix().Len()), nil
	default:
		return netip.Prefix{}, fmt.Errorf("unsupported address type %T", ip)
	}
}

// FromPrefix converts a netip.Prefix to the matching core value: IPv4,
// IPv6, or the mapped variant for 4-in-6 addresses.
func FromPrefix(p netip.Prefix) (IP, error) {
	if !p.IsValid() {
		return nil, fmt.Errorf("%w: invalid prefix", ErrUnknownAddress)
	}
	addr := p.Addr()
	if addr.Is4() {
		b := addr.As4()
		return ipv4.FromBytes(b[:], p.Bits())
	}
	b := addr.As16()
	a, err := ipv6.FromBytes(b[:], p.Bits())
	if err != nil {
		return nil, err
	}
	if addr.Is4In6() {
		return ipv6.MappedFromAddress(a)
	}
	return a, nil
}

// Range returns the network-to-upper-bound span of ip's block as a
// netipx.IPRange.
func Range(ip IP) (netipx.IPRange, error) {
	p, err := ToPrefix(ip)
	if err != nil {
		return netipx.IPRange{}, err
	}
	return netipx.RangeOfPrefix(p.Masked()), nil
}

// RangePrefixes decomposes an arbitrary address range into the minimal set
// of CIDR blocks covering it exactly.
func RangePrefixes(start, end netip.Addr) []netip.Prefix {
	r := netipx.IPRangeFrom(start, end)
	if !r.IsValid() {
		return nil
	}
	return r.Prefixes()
}
