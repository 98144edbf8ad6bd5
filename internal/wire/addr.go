package wire

import (
	"fmt"
	"net"
)

// NetworkAddress is a peer address record as carried inside version/addr
// messages: services bitmask, 16-byte (IPv4-mapped IPv6) address, and a
// port that is big-endian on the wire (the one exception to the
// protocol's otherwise all-little-endian integers).
type NetworkAddress struct {
	Services uint64
	IP       [16]byte
	Port     uint16
}

// ReadNetworkAddress reads a NetworkAddress (26 bytes: 8+16+2).
func ReadNetworkAddress(r *Reader) (NetworkAddress, error) {
	var a NetworkAddress
	var err error
	if a.Services, err = r.ReadU64LE(); err != nil {
		return a, err
	}
	ip, err := r.ReadBytes(16)
	if err != nil {
		return a, err
	}
	copy(a.IP[:], ip)
	if a.Port, err = r.ReadU16BE(); err != nil {
		return a, err
	}
	return a, nil
}

// Write serializes the NetworkAddress.
func (a NetworkAddress) Write(w *Writer) {
	w.WriteU64LE(a.Services)
	w.WriteBytes(a.IP[:])
	w.WriteU16BE(a.Port)
}

// AddressRecord is the timestamped variant of NetworkAddress carried in
// addr messages and the on-disk peer list.
type AddressRecord struct {
	Timestamp uint32
	Addr      NetworkAddress
}

// ReadAddressRecord reads a timestamped address record (30 bytes).
func ReadAddressRecord(r *Reader) (AddressRecord, error) {
	var rec AddressRecord
	ts, err := r.ReadU32LE()
	if err != nil {
		return rec, err
	}
	addr, err := ReadNetworkAddress(r)
	if err != nil {
		return rec, err
	}
	rec.Timestamp = ts
	rec.Addr = addr
	return rec, nil
}

// Write serializes the timestamped address record.
func (rec AddressRecord) Write(w *Writer) {
	w.WriteU32LE(rec.Timestamp)
	rec.Addr.Write(w)
}

// IPv4MappedIP returns the 16-byte IPv4-in-IPv6 mapped form of a 4-byte
// IPv4 address (the "::ffff:a.b.c.d" prefix).
func IPv4MappedIP(ip net.IP) [16]byte {
	var out [16]byte
	v4 := ip.To4()
	if v4 == nil {
		copy(out[:], ip.To16())
		return out
	}
	out[10] = 0xff
	out[11] = 0xff
	copy(out[12:], v4)
	return out
}

// IsIPv4Mapped reports whether ip is in the "::ffff:0:0/96" mapped range.
func IsIPv4Mapped(ip [16]byte) bool {
	for i := 0; i < 10; i++ {
		if ip[i] != 0 {
			return false
		}
	}
	return ip[10] == 0xff && ip[11] == 0xff
}

// String renders a NetworkAddress as "ip:port", unmapping IPv4-in-IPv6
// addresses for readability.
func (a NetworkAddress) String() string {
	if IsIPv4Mapped(a.IP) {
		return fmt.Sprintf("%d.%d.%d.%d:%d", a.IP[12], a.IP[13], a.IP[14], a.IP[15], a.Port)
	}
	ip := net.IP(a.IP[:])
	return fmt.Sprintf("[%s]:%d", ip.String(), a.Port)
}

// IPString renders just the address portion, unmapping IPv4-in-IPv6.
func (a NetworkAddress) IPString() string {
	if IsIPv4Mapped(a.IP) {
		return fmt.Sprintf("%d.%d.%d.%d", a.IP[12], a.IP[13], a.IP[14], a.IP[15])
	}
	return net.IP(a.IP[:]).String()
}
