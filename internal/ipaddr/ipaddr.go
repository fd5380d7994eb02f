// Package ipaddr dispatches textual input to the IPv4, IPv6 or IPv4-mapped
// constructors by the shape of the string, and bridges the core value types
// to net/netip and go4.org/netipx.
package ipaddr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cidrkit/cidrkit/internal/ipv4"
	"github.com/cidrkit/cidrkit/internal/ipv6"
	"github.com/cidrkit/cidrkit/internal/prefix"
)

// ErrUnknownAddress indicates input whose shape matches neither an IPv4 nor
// an IPv6 address.
var ErrUnknownAddress = errors.New("unknown address form")

// IP is the surface common to IPv4, IPv6 and mapped addresses.
type IP interface {
	// String renders the address without its prefix.
	String() string
	// Canonical renders the address in "addr/prefix" form.
	Canonical() string
	// Version returns 4 or 6.
	Version() int
	// Bits returns the full-width binary form.
	Bits() string
	// Reverse returns the reverse-DNS name (in-addr.arpa or ip6.arpa).
	Reverse() string
	// Bytes returns the raw address in network byte order.
	Bytes() []byte
}

// Parse routes s by syntax: a colon followed somewhere by a dot selects the
// IPv4-mapped form, otherwise IPv4 construction is attempted with IPv6 as
// the fallback.
func Parse(s string) (IP, error) {
	if isMappedForm(s) {
		return ipv6.ParseMapped(s)
	}
	if v4, err := ipv4.Parse(s); err == nil {
		return v4, nil
	}
	v6, err := ipv6.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrUnknownAddress, s, err)
	}
	return v6, nil
}

// isMappedForm reports whether s has a dotted tail behind a colon, the
// shape of "::ffff:a.b.c.d".
func isMappedForm(s string) bool {
	i := strings.Index(s, ":")
	return i >= 0 && strings.Contains(s[i+1:], ".")
}

// Valid reports whether s parses as any supported address form.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// ValidIPv4 reports whether s parses as an IPv4 address or network.
func ValidIPv4(s string) bool {
	_, err := ipv4.Parse(s)
	return err == nil
}

// ValidIPv6 reports whether s parses as an IPv6 address or network.
func ValidIPv6(s string) bool {
	_, err := ipv6.Parse(s)
	return err == nil
}

// ValidNetmask reports whether s is a contiguous dotted-decimal netmask.
func ValidNetmask(s string) bool {
	_, err := prefix.Parse32Netmask(s)
	return err == nil
}
