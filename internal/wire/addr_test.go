package wire

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNetworkAddressRoundTrip(t *testing.T) {
	a := NetworkAddress{
		Services: 1,
		IP:       IPv4MappedIP(net.ParseIP("203.0.113.7")),
		Port:     8333,
	}
	w := NewWriter()
	a.Write(w)

	got, err := ReadNetworkAddress(NewReader(w.Bytes()))
	require.NoError(t, err)
	require.Equal(t, a, got)
}

func TestPortIsBigEndianOnTheWire(t *testing.T) {
	a := NetworkAddress{Port: 8333}
	w := NewWriter()
	a.Write(w)
	raw := w.Bytes()
	// services(8) + ip(16) precede the big-endian port.
	require.Equal(t, byte(0x20), raw[24])
	require.Equal(t, byte(0x8d), raw[25])
}

func TestIPv4MappedRoundTripString(t *testing.T) {
	ip := net.ParseIP("198.51.100.23")
	mapped := IPv4MappedIP(ip)
	require.True(t, IsIPv4Mapped(mapped))

	addr := NetworkAddress{IP: mapped, Port: 80}
	require.Equal(t, "198.51.100.23", addr.IPString())
	require.Equal(t, "198.51.100.23:80", addr.String())
}

func TestAddressRecordRoundTrip(t *testing.T) {
	rec := AddressRecord{
		Timestamp: 1700000000,
		Addr:      NetworkAddress{Services: 9, IP: IPv4MappedIP(net.ParseIP("1.2.3.4")), Port: 8333},
	}
	w := NewWriter()
	rec.Write(w)

	got, err := ReadAddressRecord(NewReader(w.Bytes()))
	require.NoError(t, err)
	require.Equal(t, rec, got)
}
