package ipv4

import (
	"fmt"
	"slices"

	"github.com/cidrkit/cidrkit/internal/prefix"
)

// Subnet divides the block into 2^(newLen - current) contiguous subnets of
// equal size, each tagged with newLen. newLen must lie between the current
// prefix length and 32.
func (a *Address) Subnet(newLen int) ([]*Address, error) {
	cur := a.prefix.Len()
	if newLen < cur || newLen > 32 {
		return nil, fmt.Errorf("%w: subnet target /%d outside /%d..32", ErrInvalidPrefix, newLen, cur)
	}
	p, err := prefix.New32(newLen)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPrefix, err)
	}

	count := uint64(1) << (newLen - cur)
	step := uint64(1) << (32 - newLen)
	base := uint64(a.NetworkU32())

	nets := make([]*Address, 0, count)
	for i := uint64(0); i < count; i++ {
		nets = append(nets, fromU32(uint32(base+i*step), p))
	}
	return nets, nil
}

// Split divides the block into exactly n contiguous subnets, allowing uneven
// sizes. It subnets to the smallest power-of-two count that reaches n, then
// repeatedly merges the first summarizable adjacent pair found scanning from
// the end, leaving the larger blocks toward the end of the sequence.
func (a *Address) Split(n int) ([]*Address, error) {
	hostBits := a.prefix.HostLen()
	if n < 1 || uint64(n) > uint64(1)<<hostBits {
		return nil, fmt.Errorf("%w: split count %d outside 1..2^%d", ErrOutOfRange, n, hostBits)
	}

	extra := 0
	for uint64(1)<<extra < uint64(n) {
		extra++
	}
	nets, err := a.Subnet(a.prefix.Len() + extra)
	if err != nil {
		return nil, err
	}

	for len(nets) > n {
		merged := mergeFirstFound(nets)
		if len(merged) == len(nets) {
			break
		}
		nets = merged
	}
	return nets, nil
}

// mergeFirstFound scans adjacent pairs in reverse and merges the first pair
// whose union summarizes to a single block. The scan order is part of the
// observable contract of Split.
func mergeFirstFound(nets []*Address) []*Address {
	for i := len(nets) - 2; i >= 0; i-- {
		sum := SummarizePair(nets[i], nets[i+1])
		if len(sum) == 1 {
			out := make([]*Address, 0, len(nets)-1)
			out = append(out, nets[:i]...)
			out = append(out, sum[0])
			out = append(out, nets[i+2:]...)
			return out
		}
	}
	return nets
}

// Supernet returns the network containing this block at the wider prefix
// newLen. Re-masking can shift the network base. newLen must be strictly
// smaller than the current prefix length; a request below 1 yields the zero
// network 0.0.0.0/0.
func (a *Address) Supernet(newLen int) (*Address, error) {
	if newLen >= a.prefix.Len() {
		return nil, fmt.Errorf("%w: supernet target /%d not wider than /%d", ErrInvalidPrefix, newLen, a.prefix.Len())
	}
	if newLen < 1 {
		newLen = 0
	}
	wider, err := a.WithPrefix(newLen)
	if err != nil {
		return nil, err
	}
	return wider.Network(), nil
}

// SummarizePair merges two networks into one when their union is itself a
// single CIDR block. The operands are reduced to their network addresses and
// ordered; if one contains the other, the containing network is returned
// alone. Otherwise the candidate supernet one bit wider than the lower
// network is accepted only when it covers both blocks exactly. Failing that,
// both networks are returned unmerged, lower first.
func SummarizePair(a, b *Address) []*Address {
	n1, n2 := a.Network(), b.Network()
	if n1.Compare(n2) > 0 {
		n1, n2 = n2, n1
	}
	if n1.Includes(n2) {
		return []*Address{n1}
	}

	snet, err := n1.Supernet(n1.Prefix().Len() - 1)
	if err != nil {
		return []*Address{n1, n2}
	}
	if snet.IncludesAll(n1, n2) && snet.Size() == n1.Size()+n2.Size() {
		return []*Address{snet}
	}
	return []*Address{n1, n2}
}

// Summarize reduces a set of networks to the smallest equivalent set of
// CIDR blocks. Inputs are reduced to their network addresses and sorted;
// adjacent pairs are then merged left to right with SummarizePair until a
// full pass produces no further reduction. A single network summarizes to
// itself; an empty input yields nil.
func Summarize(addrs ...*Address) []*Address {
	if len(addrs) == 0 {
		return nil
	}

	nets := make([]*Address, len(addrs))
	for i, a := range addrs {
		nets[i] = a.Network()
	}
	slices.SortFunc(nets, (*Address).Compare)

	for {
		merged := false
		i := 0
		for i < len(nets)-1 {
			sum := SummarizePair(nets[i], nets[i+1])
			if len(sum) == 1 {
				nets = append(nets[:i], append(sum, nets[i+2:]...)...)
				merged = true
			}
			i++
		}
		if !merged {
			return nets
		}
	}
}
