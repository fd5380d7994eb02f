package ipaddr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cidrkit/cidrkit/internal/ipv4"
	"github.com/cidrkit/cidrkit/internal/ipv6"
)

func TestParseDispatch(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		wantVersion int
		wantType    any
		wantErr     error
	}{
		{name: "ipv4", in: "172.16.10.1/24", wantVersion: 4, wantType: &ipv4.Address{}},
		{name: "ipv4 with netmask", in: "10.0.0.1/255.255.255.0", wantVersion: 4, wantType: &ipv4.Address{}},
		{name: "ipv6", in: "2001:db8::8:800:200c:417a/64", wantVersion: 6, wantType: &ipv6.Address{}},
		{name: "ipv6 loopback", in: "::1", wantVersion: 6, wantType: &ipv6.Address{}},
		{name: "mapped", in: "::ffff:172.16.10.1/128", wantVersion: 6, wantType: &ipv6.Mapped{}},
		{name: "dotted tail without mapped head", in: "::172.16.10.1", wantErr: ipv6.ErrInvalidAddress},
		{name: "empty", in: "", wantErr: ErrUnknownAddress},
		{name: "nonsense", in: "not an address", wantErr: ErrUnknownAddress},
		{name: "ipv4 octet out of range", in: "10.0.0.256", wantErr: ErrUnknownAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ip, err := Parse(tt.in)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, ip.Version())
			assert.IsType(t, tt.wantType, ip)
		})
	}
}

func TestParseKeepsUnderlyingError(t *testing.T) {
	_, err := Parse("2001::db8::1")
	require.ErrorIs(t, err, ErrUnknownAddress)
	assert.ErrorIs(t, err, ipv6.ErrInvalidAddress)
	assert.ErrorContains(t, err, `"2001::db8::1"`)
}

func TestValidators(t *testing.T) {
	assert.True(t, Valid("10.0.0.1"))
	assert.True(t, Valid("2001:db8::1"))
	assert.True(t, Valid("::ffff:10.0.0.1"))
	assert.False(t, Valid("10.0.0.256"))
	assert.False(t, Valid("2001::db8::1"))

	assert.True(t, ValidIPv4("192.168.0.1/24"))
	assert.False(t, ValidIPv4("2001:db8::1"))

	assert.True(t, ValidIPv6("2001:db8::1"))
	assert.False(t, ValidIPv6("192.168.0.1"))

	assert.True(t, ValidNetmask("255.255.255.0"))
	assert.True(t, ValidNetmask("0.0.0.0"))
	assert.False(t, ValidNetmask("255.0.255.0"))
	assert.False(t, ValidNetmask("255.255.255.256"))
	assert.False(t, ValidNetmask("2001:db8::1"))
}
