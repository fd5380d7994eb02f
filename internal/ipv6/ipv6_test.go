package ipv6

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantHex string
		wantLen int
		wantErr error
	}{
		{
			name:    "full form",
			in:      "2001:0db8:0000:cd30:0000:0000:0000:0000/60",
			wantHex: "20010db80000cd300000000000000000",
			wantLen: 60,
		},
		{
			name:    "compressed form",
			in:      "2001:db8:0:cd30::/60",
			wantHex: "20010db80000cd300000000000000000",
			wantLen: 60,
		},
		{
			name:    "bare address defaults to /128",
			in:      "2001:db8::8:800:200c:417a",
			wantHex: "20010db80000000000080800200c417a",
			wantLen: 128,
		},
		{
			name:    "loopback",
			in:      "::1",
			wantHex: "00000000000000000000000000000001",
			wantLen: 128,
		},
		{
			name:    "unspecified",
			in:      "::",
			wantHex: "00000000000000000000000000000000",
			wantLen: 128,
		},
		{
			name:    "trailing compression",
			in:      "fe80::",
			wantHex: "fe800000000000000000000000000000",
			wantLen: 128,
		},
		{
			name:    "seven groups then compression",
			in:      "1:2:3:4:5:6:7::",
			wantHex: "00010002000300040005000600070000",
			wantLen: 128,
		},
		{name: "double compression", in: "2001::db8::1", wantErr: ErrInvalidAddress},
		{name: "too few groups", in: "2001:db8:1", wantErr: ErrInvalidAddress},
		{name: "too many groups", in: "1:2:3:4:5:6:7:8:9", wantErr: ErrInvalidAddress},
		{name: "compression of nothing", in: "1:2:3:4:5:6:7:8::", wantErr: ErrInvalidAddress},
		{name: "hextet too wide", in: "12345::", wantErr: ErrInvalidAddress},
		{name: "bad hextet", in: "2001:db8::g", wantErr: ErrInvalidAddress},
		{name: "dangling colon", in: ":2001:db8:0:0:0:0:0:1", wantErr: ErrInvalidAddress},
		{name: "zone id", in: "fe80::1%eth0", wantErr: ErrInvalidAddress},
		{name: "dotted tail without mapped head", in: "::172.16.10.1", wantErr: ErrInvalidAddress},
		{name: "dotted tail behind mapped head still rejected here", in: "::ffff:172.16.10.1", wantErr: ErrInvalidAddress},
		{name: "empty", in: "", wantErr: ErrInvalidAddress},
		{name: "prefix out of range", in: "2001:db8::/129", wantErr: ErrInvalidPrefix},
		{name: "negative prefix", in: "2001:db8::/-1", wantErr: ErrInvalidPrefix},
		{name: "garbage prefix", in: "2001:db8::/abc", wantErr: ErrInvalidPrefix},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Parse(tt.in)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHex, a.Hex())
			assert.Equal(t, tt.wantLen, a.Prefix().Len())
		})
	}
}

func TestExpandCompress(t *testing.T) {
	a := MustParse("2001:db8:0:cd30::/60")
	assert.Equal(t, "2001:0db8:0000:cd30:0000:0000:0000:0000", a.Expand())
	assert.Equal(t, "2001:db8:0:cd30::", a.Compress())

	// Round trip: expanding the compression of an address matches the
	// expansion of the original.
	b := MustParse(a.Compress())
	assert.Equal(t, a.Expand(), b.Expand())
}

func TestCompressRules(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "2001:0db8:0000:0000:0008:0800:200c:417a", want: "2001:db8::8:800:200c:417a"},
		{in: "0000:0000:0000:0000:0000:0000:0000:0000", want: "::"},
		{in: "0000:0000:0000:0000:0000:0000:0000:0001", want: "::1"},
		{in: "fe80:0000:0000:0000:0000:0000:0000:0000", want: "fe80::"},
		// A single zero group is not compressed.
		{in: "2001:0db8:0001:0000:0001:0000:0000:0001", want: "2001:db8:1:0:1::1"},
		// The longest run wins; the leftmost wins a tie.
		{in: "2001:0000:0000:0001:0000:0000:0000:0001", want: "2001:0:0:1::1"},
		{in: "2001:0000:0000:0001:0001:0000:0000:0001", want: "2001::1:1:0:0:1"},
		// No run of two or more: nothing compresses.
		{in: "2001:0db8:0001:0002:0003:0004:0005:0006", want: "2001:db8:1:2:3:4:5:6"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			a, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.Compress())
			assert.Equal(t, tt.want, a.String())
		})
	}
}

func TestGroups(t *testing.T) {
	a := MustParse("2001:db8::8:800:200c:417a")
	assert.Equal(t, [8]uint16{0x2001, 0x0db8, 0, 0, 0x8, 0x800, 0x200c, 0x417a}, a.Groups())
	assert.Equal(t, []string{"2001", "0db8", "0000", "0000", "0008", "0800", "200c", "417a"}, a.HexGroups())

	g, err := a.Group(7)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x417a), g)

	_, err = a.Group(8)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestNumericForms(t *testing.T) {
	a := MustParse("::1")
	assert.Zero(t, a.BigInt().Cmp(big.NewInt(1)))

	b := MustParse("2001:db8::")
	want, ok := new(big.Int).SetString("20010db8000000000000000000000000", 16)
	require.True(t, ok)
	assert.Zero(t, b.BigInt().Cmp(want))

	// The returned value is a copy.
	n := b.BigInt()
	n.SetInt64(0)
	assert.Zero(t, b.BigInt().Cmp(want))

	bits := b.Bits()
	assert.Len(t, bits, 128)
	assert.Equal(t, "0010000000000001", bits[:16])

	assert.Equal(t, 6, b.Version())
}

func TestBytes(t *testing.T) {
	a := MustParse("2001:db8::1")
	b := a.Bytes()
	require.Len(t, b, 16)
	assert.Equal(t, byte(0x20), b[0])
	assert.Equal(t, byte(0x01), b[15])

	back, err := FromBytes(b, 128)
	require.NoError(t, err)
	assert.Zero(t, a.Compare(back))

	_, err = FromBytes(b[:15], 128)
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestFromBigInt(t *testing.T) {
	a, err := FromBigInt(big.NewInt(0x2a), 64)
	require.NoError(t, err)
	assert.Equal(t, "::2a/64", a.Canonical())

	_, err = FromBigInt(big.NewInt(-1), 64)
	assert.ErrorIs(t, err, ErrInvalidAddress)

	tooBig := new(big.Int).Lsh(big.NewInt(1), 128)
	_, err = FromBigInt(tooBig, 64)
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = FromBigInt(big.NewInt(1), 129)
	assert.ErrorIs(t, err, ErrInvalidPrefix)
}

func TestFromHex(t *testing.T) {
	a, err := FromHex("20010db80000cd300000000000000000", 60)
	require.NoError(t, err)
	assert.Equal(t, "2001:db8:0:cd30::/60", a.Canonical())

	_, err = FromHex("20010db8", 60)
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = FromHex("zz010db80000cd300000000000000000", 60)
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestPackingInvariant(t *testing.T) {
	a := MustParse("2001:db8::ff00:42:8329")

	b, err := a.WithGroup(7, 0)
	require.NoError(t, err)
	assert.Equal(t, "2001:db8::ff00:42:0", b.Compress())
	assert.NotZero(t, a.BigInt().Cmp(b.BigInt()), "numeric value re-derived on the new instance")
	assert.Equal(t, uint16(0x8329), a.Groups()[7], "original unchanged")

	_, err = a.WithGroup(8, 0)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestNetwork(t *testing.T) {
	a := MustParse("2001:db8:8:800:200c:417a::1/64")
	n := a.Network()
	assert.Equal(t, "2001:db8:8:800::/64", n.Canonical())
	assert.True(t, n.IsNetwork())
	assert.False(t, MustParse("2001:db8::1/128").IsNetwork())

	// Fixed point.
	assert.Zero(t, n.Compare(n.Network()))

	// network <= a <= upper bound.
	assert.LessOrEqual(t, n.BigInt().Cmp(a.BigInt()), 0)
	assert.LessOrEqual(t, a.BigInt().Cmp(a.BroadcastBigInt()), 0)
}

func TestBroadcastBigInt(t *testing.T) {
	a := MustParse("2001:db8::4/125")
	want, ok := new(big.Int).SetString("20010db8000000000000000000000007", 16)
	require.True(t, ok)
	assert.Zero(t, a.BroadcastBigInt().Cmp(want))
}

func TestIncludes(t *testing.T) {
	net := MustParse("2001:db8::/32")

	assert.True(t, net.Includes(MustParse("2001:db8:cafe::1/128")))
	assert.True(t, net.Includes(MustParse("2001:db8::/48")))
	assert.True(t, net.Includes(net))
	assert.False(t, net.Includes(MustParse("2001:db9::/32")))
	assert.False(t, net.Includes(MustParse("2001::/16")), "a wider block is not included")
}

func TestCompare(t *testing.T) {
	a := MustParse("2001:db8::1")
	b := MustParse("2001:db8::2")
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))

	wide := MustParse("2001:db8::1/64")
	narrow := MustParse("2001:db8::1/128")
	assert.Equal(t, -1, wide.Compare(narrow))
	assert.Zero(t, narrow.Compare(MustParse("2001:db8::1")))
}

func TestEach(t *testing.T) {
	a := MustParse("2001:db8::4/125")

	var got []string
	for addr := range a.Each() {
		got = append(got, addr.String())
	}
	assert.Equal(t, []string{
		"2001:db8::",
		"2001:db8::1",
		"2001:db8::2",
		"2001:db8::3",
		"2001:db8::4",
		"2001:db8::5",
		"2001:db8::6",
		"2001:db8::7",
	}, got)

	// A fresh call restarts the traversal.
	count := 0
	for range a.Each() {
		count++
		if count == 3 {
			break
		}
	}
	assert.Equal(t, 3, count)
}

func TestReverse(t *testing.T) {
	a := MustParse("2001:db8::567:89ab")
	assert.Equal(t,
		"b.a.9.8.7.6.5.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.8.b.d.0.1.0.0.2.ip6.arpa",
		a.Reverse())
}

func TestClassificationPredicates(t *testing.T) {
	tests := []struct {
		addr        string
		linkLocal   bool
		uniqueLocal bool
		unspecified bool
		loopback    bool
		mapped      bool
	}{
		{addr: "fe80::1", linkLocal: true},
		{addr: "febf::1", linkLocal: true},
		{addr: "fec0::1"},
		{addr: "fc00::1", uniqueLocal: true},
		{addr: "fdff::1", uniqueLocal: true},
		{addr: "::", unspecified: true},
		{addr: "::1", loopback: true},
		{addr: "::ffff:0:0", mapped: true},
		{addr: "2001:db8::1"},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			a := MustParse(tt.addr)
			assert.Equal(t, tt.linkLocal, a.IsLinkLocal())
			assert.Equal(t, tt.uniqueLocal, a.IsUniqueLocal())
			assert.Equal(t, tt.unspecified, a.IsUnspecified())
			assert.Equal(t, tt.loopback, a.IsLoopback())
			assert.Equal(t, tt.mapped, a.IsMapped())
		})
	}
}

func TestRenderings(t *testing.T) {
	a := MustParse("2001:db8:0:cd30::/60")
	assert.Equal(t, "2001:db8:0:cd30::", a.String())
	assert.Equal(t, "2001:db8:0:cd30::/60", a.Canonical())
	assert.Equal(t, "2001:0db8:0000:cd30:0000:0000:0000:0000/60", a.Uncompressed())
}

func TestWithPrefix(t *testing.T) {
	a := MustParse("2001:db8::1")
	b, err := a.WithPrefix(64)
	require.NoError(t, err)
	assert.Equal(t, "2001:db8::1/64", b.Canonical())
	assert.Equal(t, 128, a.Prefix().Len(), "original unchanged")

	_, err = a.WithPrefix(200)
	assert.ErrorIs(t, err, ErrInvalidPrefix)
}

func TestAllocate(t *testing.T) {
	a := MustParse("2001:db8::/125")

	first, ok := a.Allocate(0)
	require.True(t, ok)
	assert.Equal(t, "2001:db8::1", first.String())

	second, ok := a.Allocate(0)
	require.True(t, ok)
	assert.Equal(t, "2001:db8::2", second.String())

	skipped, ok := a.Allocate(2)
	require.True(t, ok)
	assert.Equal(t, "2001:db8::5", skipped.String())

	// Separate instances keep separate cursors.
	b := MustParse("2001:db8::/125")
	fresh, ok := b.Allocate(0)
	require.True(t, ok)
	assert.Equal(t, "2001:db8::1", fresh.String())
}

func TestAllocateExhaustion(t *testing.T) {
	a := MustParse("2001:db8::/126")
	for i := 0; i < 3; i++ {
		_, ok := a.Allocate(0)
		require.True(t, ok)
	}
	addr, ok := a.Allocate(0)
	assert.False(t, ok)
	assert.Nil(t, addr)
}

func TestJSONRoundTrip(t *testing.T) {
	a := MustParse("2001:db8::1/64")

	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `"2001:db8::1/64"`, string(data))

	var back Address
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Zero(t, a.Compare(&back))

	var bad Address
	assert.Error(t, json.Unmarshal([]byte(`"2001::db8::1"`), &bad))
}
