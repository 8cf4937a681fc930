package dhcp

import (
	"net"

	"github.com/solodhcpd/solodhcpd/pkg/dhcpv4"
)

// Options is a map of DHCP option code to raw option data. Duplicate codes
// overwrite on decode — last occurrence wins.
type Options map[dhcpv4.OptionCode][]byte

// Option is a single decoded TLV entry, kept in wire order for the
// diagnostic trace.
type Option struct {
	Code  dhcpv4.OptionCode
	Value []byte
}

// DecodeOptions parses the options section of a DHCP packet.
// RFC 2132 — options are TLV (type-length-value) encoded. PAD (0) consumes
// one byte; END (255) terminates the scan. A missing length byte or a value
// running past the buffer stops the scan and returns everything decoded so
// far: non-conformant peers send ragged trailing data, and a partial result
// is the protocol-correct outcome, not an error.
func DecodeOptions(data []byte) (Options, []Option) {
	opts := make(Options)
	var order []Option

	i := 0
	for i < len(data) {
		code := dhcpv4.OptionCode(data[i])
		i++

		if code == dhcpv4.OptionPad {
			continue
		}
		if code == dhcpv4.OptionEnd {
			break
		}

		if i >= len(data) {
			break // code byte was the last byte; no length
		}
		length := int(data[i])
		i++

		if i+length > len(data) {
			break // value would run past the buffer
		}

		value := make([]byte, length)
		copy(value, data[i:i+length])
		opts[code] = value
		order = append(order, Option{Code: code, Value: value})
		i += length
	}

	return opts, order
}

// Get returns the raw value for an option code.
func (opts Options) Get(code dhcpv4.OptionCode) ([]byte, bool) {
	v, ok := opts[code]
	return v, ok
}

// Has returns true if the option is present.
func (opts Options) Has(code dhcpv4.OptionCode) bool {
	_, ok := opts[code]
	return ok
}

// AppendOption appends a TLV-encoded option to buf. An empty value emits
// the bare code byte with no length.
func AppendOption(buf []byte, code dhcpv4.OptionCode, value []byte) []byte {
	if len(value) == 0 {
		return append(buf, byte(code))
	}
	buf = append(buf, byte(code), byte(len(value)))
	return append(buf, value...)
}

// AppendByteOption appends an option with a single-byte value.
func AppendByteOption(buf []byte, code dhcpv4.OptionCode, v byte) []byte {
	return append(buf, byte(code), 1, v)
}

// AppendIPOption appends an option carrying one IPv4 address.
func AppendIPOption(buf []byte, code dhcpv4.OptionCode, ip net.IP) []byte {
	return AppendOption(buf, code, dhcpv4.IPToBytes(ip))
}

// AppendUint32Option appends an option carrying a big-endian uint32.
func AppendUint32Option(buf []byte, code dhcpv4.OptionCode, v uint32) []byte {
	return AppendOption(buf, code, dhcpv4.Uint32ToBytes(v))
}

// AppendEnd appends the END marker.
func AppendEnd(buf []byte) []byte {
	return append(buf, byte(dhcpv4.OptionEnd))
}
