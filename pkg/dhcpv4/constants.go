// Package dhcpv4 provides constants and encoding helpers for DHCPv4 packets.
package dhcpv4

import "net"

// DHCP Message Types (RFC 2131 §9.6)
type MessageType byte

const (
	MessageTypeDiscover MessageType = 1 // DHCPDISCOVER
	MessageTypeOffer    MessageType = 2 // DHCPOFFER
	MessageTypeRequest  MessageType = 3 // DHCPREQUEST
	MessageTypeDecline  MessageType = 4 // DHCPDECLINE
	MessageTypeAck      MessageType = 5 // DHCPACK
	MessageTypeNak      MessageType = 6 // DHCPNAK
	MessageTypeRelease  MessageType = 7 // DHCPRELEASE
	MessageTypeInform   MessageType = 8 // DHCPINFORM
)

func (m MessageType) String() string {
	switch m {
	case MessageTypeDiscover:
		return "DHCPDISCOVER"
	case MessageTypeOffer:
		return "DHCPOFFER"
	case MessageTypeRequest:
		return "DHCPREQUEST"
	case MessageTypeDecline:
		return "DHCPDECLINE"
	case MessageTypeAck:
		return "DHCPACK"
	case MessageTypeNak:
		return "DHCPNAK"
	case MessageTypeRelease:
		return "DHCPRELEASE"
	case MessageTypeInform:
		return "DHCPINFORM"
	default:
		return "UNKNOWN"
	}
}

// DHCP Op Codes (RFC 2131 §2)
type OpCode byte

const (
	OpCodeBootRequest OpCode = 1 // BOOTREQUEST
	OpCodeBootReply   OpCode = 2 // BOOTREPLY
)

// Hardware Types (RFC 1700)
type HardwareType byte

const (
	HardwareTypeEthernet HardwareType = 1
)

// EthernetHLen is the hardware address length for Ethernet.
const EthernetHLen = 6

// DHCP Option Codes (RFC 2132)
type OptionCode byte

const (
	OptionPad                  OptionCode = 0
	OptionSubnetMask           OptionCode = 1
	OptionRouter               OptionCode = 3
	OptionDomainNameServer     OptionCode = 6
	OptionHostname             OptionCode = 12
	OptionDomainName           OptionCode = 15
	OptionBroadcastAddress     OptionCode = 28
	OptionStaticRoute          OptionCode = 33
	OptionNTPServers           OptionCode = 42
	OptionRequestedIP          OptionCode = 50
	OptionIPLeaseTime          OptionCode = 51
	OptionDHCPMessageType      OptionCode = 53
	OptionServerIdentifier     OptionCode = 54
	OptionParameterRequestList OptionCode = 55
	OptionMaxDHCPMessageSize   OptionCode = 57
	OptionRenewalTime          OptionCode = 58
	OptionRebindingTime        OptionCode = 59
	OptionVendorClassID        OptionCode = 60
	OptionClientIdentifier     OptionCode = 61
	OptionEnd                  OptionCode = 255
)

// DHCP Packet Size Limits
const (
	// HeaderLength is the fixed DHCPv4 header including the magic cookie.
	HeaderLength = 240
	// MinPacketLength is the fixed header plus at least one options byte.
	MinPacketLength = 241
	// MaxPacketSize is the largest datagram the server will read (Ethernet MTU).
	MaxPacketSize = 1500
)

// DHCP Ports
const (
	ServerPort = 67
	ClientPort = 68
)

// DHCP Magic Cookie (RFC 2131 §3)
var MagicCookie = []byte{99, 130, 83, 99}

// BroadcastIP is the destination for broadcast replies.
var BroadcastIP = net.IPv4(255, 255, 255, 255)
