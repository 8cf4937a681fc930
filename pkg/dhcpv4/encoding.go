package dhcpv4

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrMalformedAddress reports a dotted-decimal IPv4 string that failed
// validation. Configuration addresses are checked with this before the
// server starts; it is never produced while serving.
var ErrMalformedAddress = errors.New("malformed IPv4 address")

// ParseDottedQuad parses a dotted-decimal IPv4 string into a 4-byte net.IP.
// Stricter than net.ParseIP: exactly four octets, each non-empty, digits
// only, and in [0,255]. All failures wrap ErrMalformedAddress.
func ParseDottedQuad(s string) (net.IP, error) {
	octets := strings.Split(s, ".")
	if len(octets) != 4 {
		return nil, fmt.Errorf("%w: %q has %d octets, want 4", ErrMalformedAddress, s, len(octets))
	}

	ip := make(net.IP, 4)
	for i, o := range octets {
		if o == "" {
			return nil, fmt.Errorf("%w: %q has an empty octet", ErrMalformedAddress, s)
		}
		n := 0
		for _, c := range o {
			if c < '0' || c > '9' {
				return nil, fmt.Errorf("%w: octet %q is not a number", ErrMalformedAddress, o)
			}
			n = n*10 + int(c-'0')
			if n > 255 {
				return nil, fmt.Errorf("%w: octet %q out of range [0,255]", ErrMalformedAddress, o)
			}
		}
		ip[i] = byte(n)
	}

	return ip, nil
}

// FormatDottedQuad is the inverse of ParseDottedQuad. It always succeeds
// for a 4-byte address.
func FormatDottedQuad(ip net.IP) string {
	ip4 := ip.To4()
	if ip4 == nil {
		return "<invalid IPv4>"
	}
	return fmt.Sprintf("%d.%d.%d.%d", ip4[0], ip4[1], ip4[2], ip4[3])
}

// IPToBytes converts a net.IP to a 4-byte slice.
func IPToBytes(ip net.IP) []byte {
	ip4 := ip.To4()
	if ip4 == nil {
		return []byte{0, 0, 0, 0}
	}
	return []byte(ip4)
}

// BytesToIP converts a 4-byte slice to net.IP.
func BytesToIP(b []byte) net.IP {
	if len(b) != 4 {
		return nil
	}
	return net.IPv4(b[0], b[1], b[2], b[3])
}

// Uint16ToBytes converts a uint16 to 2 bytes (big-endian).
func Uint16ToBytes(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

// Uint32ToBytes converts a uint32 to 4 bytes (big-endian).
func Uint32ToBytes(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

// BytesToUint32 converts 4 bytes to uint32 (big-endian).
func BytesToUint32(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, fmt.Errorf("invalid uint32 length %d: expected 4", len(b))
	}
	return binary.BigEndian.Uint32(b), nil
}

// FormatMAC formats bytes as a colon-separated hex MAC address string.
func FormatMAC(b []byte) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = fmt.Sprintf("%02x", v)
	}
	return strings.Join(parts, ":")
}
