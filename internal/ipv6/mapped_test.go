package ipv6

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMapped(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantHex string
		wantLen int
		wantV4  string
		wantErr bool
	}{
		{
			name:    "dotted tail",
			in:      "::ffff:172.16.10.1/128",
			wantHex: "00000000000000000000ffffac100a01",
			wantLen: 128,
			wantV4:  "172.16.10.1",
		},
		{
			name:    "bare address defaults to /128",
			in:      "::ffff:192.168.100.1",
			wantHex: "00000000000000000000ffffc0a86401",
			wantLen: 128,
			wantV4:  "192.168.100.1",
		},
		{
			name:    "mapped block prefix",
			in:      "::ffff:10.0.0.0/104",
			wantHex: "00000000000000000000ffff0a000000",
			wantLen: 104,
			wantV4:  "10.0.0.0",
		},
		{name: "dotted tail without mapped head", in: "::172.16.10.1", wantErr: true},
		{name: "wrong head", in: "::fffe:172.16.10.1", wantErr: true},
		{name: "no dotted tail", in: "::ffff:ac10:a01", wantErr: true},
		{name: "bad tail octet", in: "::ffff:172.16.10.256", wantErr: true},
		{name: "plain IPv4", in: "172.16.10.1", wantErr: true},
		{name: "bad prefix", in: "::ffff:172.16.10.1/129", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseMapped(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHex, m.Hex())
			assert.Equal(t, tt.wantLen, m.Prefix().Len())
			assert.Equal(t, tt.wantV4, m.IPv4().String())
			assert.True(t, m.IsMapped())
		})
	}
}

func TestMappedRenderings(t *testing.T) {
	m, err := ParseMapped("::ffff:172.16.10.1/128")
	require.NoError(t, err)

	assert.Equal(t, "::ffff:172.16.10.1", m.String())
	assert.Equal(t, "::ffff:172.16.10.1/128", m.Canonical())
	assert.Equal(t, "0000:0000:0000:0000:0000:ffff:ac10:0a01", m.Expand())
}

func TestMappedFromAddress(t *testing.T) {
	a := MustParse("::ffff:ac10:a01")
	m, err := MappedFromAddress(a)
	require.NoError(t, err)
	assert.Equal(t, "172.16.10.1", m.IPv4().String())
	assert.Equal(t, "::ffff:172.16.10.1", m.String())

	_, err = MappedFromAddress(MustParse("2001:db8::1"))
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestMappedComparesAsIPv6(t *testing.T) {
	m, err := ParseMapped("::ffff:10.0.0.1")
	require.NoError(t, err)
	same := MustParse("::ffff:a00:1")
	assert.Zero(t, m.Address.Compare(same))
}
