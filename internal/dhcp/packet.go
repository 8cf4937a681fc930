// Package dhcp implements the DHCPv4 packet codec, the single-host request
// handler, and the UDP serving loop.
package dhcp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"net"

	"github.com/solodhcpd/solodhcpd/pkg/dhcpv4"
)

// Decode errors. All of them mean "ignore this datagram"; none is fatal.
var (
	ErrTooShort            = errors.New("packet too short")
	ErrInvalidOpcode       = errors.New("invalid opcode")
	ErrUnsupportedHardware = errors.New("unsupported hardware type")
	ErrBadCookie           = errors.New("bad magic cookie")
)

// Packet represents a decoded DHCPv4 packet (RFC 2131 §2).
type Packet struct {
	Op     dhcpv4.OpCode       // 1=BOOTREQUEST, 2=BOOTREPLY
	HType  dhcpv4.HardwareType // hardware address type (1=Ethernet)
	HLen   byte                // hardware address length (6 for Ethernet)
	Hops   byte                // relay hops
	XID    uint32              // transaction ID, echoed verbatim in replies
	Secs   uint16              // seconds elapsed
	Flags  uint16              // bit 15 = broadcast
	CIAddr net.IP              // client IP address
	YIAddr net.IP              // 'your' (assigned) IP address
	SIAddr net.IP              // next server IP address
	GIAddr net.IP              // relay agent IP address (decoded, unused)
	CHAddr net.HardwareAddr    // client hardware address (first 6 of 16 bytes)
	SName  [64]byte            // server host name
	File   [128]byte           // boot file name

	Options    Options  // decoded option set, last write wins
	OptionList []Option // options in wire order, for the trace
}

// DecodePacket parses a raw DHCPv4 packet.
// Structural invariants: at least 241 bytes (fixed header plus one options
// byte), opcode 1 or 2, Ethernet hardware with 6-byte addresses, and the
// magic cookie 99.130.83.99 at offset 236. Anything else is a decode error
// the caller treats as "drop and log".
func DecodePacket(data []byte) (*Packet, error) {
	if len(data) < dhcpv4.MinPacketLength {
		return nil, fmt.Errorf("%w: %d bytes (minimum %d)", ErrTooShort, len(data), dhcpv4.MinPacketLength)
	}

	p := &Packet{}
	p.Op = dhcpv4.OpCode(data[0])
	if p.Op != dhcpv4.OpCodeBootRequest && p.Op != dhcpv4.OpCodeBootReply {
		return nil, fmt.Errorf("%w: op=%d, want 1 (request) or 2 (reply)", ErrInvalidOpcode, data[0])
	}

	p.HType = dhcpv4.HardwareType(data[1])
	p.HLen = data[2]
	if p.HType != dhcpv4.HardwareTypeEthernet || p.HLen != dhcpv4.EthernetHLen {
		return nil, fmt.Errorf("%w: htype=%d hlen=%d, only Ethernet with 6-byte addresses is served",
			ErrUnsupportedHardware, data[1], data[2])
	}

	p.Hops = data[3]
	p.XID = binary.BigEndian.Uint32(data[4:8])
	p.Secs = binary.BigEndian.Uint16(data[8:10])
	p.Flags = binary.BigEndian.Uint16(data[10:12])

	p.CIAddr = net.IP(append([]byte(nil), data[12:16]...))
	p.YIAddr = net.IP(append([]byte(nil), data[16:20]...))
	p.SIAddr = net.IP(append([]byte(nil), data[20:24]...))
	p.GIAddr = net.IP(append([]byte(nil), data[24:28]...))

	p.CHAddr = net.HardwareAddr(append([]byte(nil), data[28:28+dhcpv4.EthernetHLen]...))

	copy(p.SName[:], data[44:108])
	copy(p.File[:], data[108:236])

	if !bytes.Equal(data[236:240], dhcpv4.MagicCookie) {
		return nil, fmt.Errorf("%w: got % x, want % x", ErrBadCookie, data[236:240], dhcpv4.MagicCookie)
	}

	p.Options, p.OptionList = DecodeOptions(data[dhcpv4.HeaderLength:])

	return p, nil
}

// MessageType returns the DHCP message type from option 53, or 0 if the
// option is absent or mis-sized.
func (p *Packet) MessageType() dhcpv4.MessageType {
	if v, ok := p.Options[dhcpv4.OptionDHCPMessageType]; ok && len(v) == 1 {
		return dhcpv4.MessageType(v[0])
	}
	return 0
}

// IsBroadcast returns true if the broadcast flag is set.
func (p *Packet) IsBroadcast() bool {
	return p.Flags&0x8000 != 0
}

// encodeReplyHeader builds the 240-byte fixed header of a reply.
// Everything starts zeroed; op=BOOTREPLY, Ethernet hardware, hops=0.
// Transaction ID and flags are echoed verbatim from the request, yiaddr
// carries the assigned address, siaddr the server's own, and the client
// hardware address is copied back. sname and file stay zero.
func encodeReplyHeader(req *Packet, assigned, server net.IP) []byte {
	buf := make([]byte, dhcpv4.HeaderLength)
	buf[0] = byte(dhcpv4.OpCodeBootReply)
	buf[1] = byte(dhcpv4.HardwareTypeEthernet)
	buf[2] = dhcpv4.EthernetHLen
	buf[3] = 0

	binary.BigEndian.PutUint32(buf[4:8], req.XID)
	binary.BigEndian.PutUint16(buf[10:12], req.Flags)

	copy(buf[16:20], dhcpv4.IPToBytes(assigned))
	copy(buf[20:24], dhcpv4.IPToBytes(server))
	copy(buf[28:28+dhcpv4.EthernetHLen], req.CHAddr)

	copy(buf[236:240], dhcpv4.MagicCookie)

	return buf
}
