package dhcp

import (
	"net"

	"github.com/solodhcpd/solodhcpd/pkg/dhcpv4"
)

// LeaseSeconds is the fixed address lease duration stamped into every
// reply: 24 hours, wire bytes 00 01 51 80. There is no lease table and no
// renewal tracking, so this is a constant rather than configuration.
const LeaseSeconds uint32 = 86400

// ReplyConfig holds the addresses stamped into every OFFER and ACK.
type ReplyConfig struct {
	ServerIP   net.IP // bind address; siaddr and option 54
	ClientIP   net.IP // the one address this server hands out; yiaddr
	SubnetMask net.IP // option 1
	Gateway    net.IP // option 3, single router entry
}

// BuildOffer builds a DHCPOFFER reply to the given request.
func BuildOffer(req *Packet, rc ReplyConfig) []byte {
	return buildReply(req, rc, dhcpv4.MessageTypeOffer)
}

// BuildAck builds a DHCPACK reply to the given request.
func BuildAck(req *Packet, rc ReplyConfig) []byte {
	return buildReply(req, rc, dhcpv4.MessageTypeAck)
}

// buildReply assembles the reply header and the fixed option sequence:
// message type, subnet mask, router, lease time, server identifier, END.
// The protocol does not require this order; it is kept stable so replies
// are byte-for-byte reproducible.
func buildReply(req *Packet, rc ReplyConfig, msgType dhcpv4.MessageType) []byte {
	buf := encodeReplyHeader(req, rc.ClientIP, rc.ServerIP)

	buf = AppendByteOption(buf, dhcpv4.OptionDHCPMessageType, byte(msgType))
	buf = AppendIPOption(buf, dhcpv4.OptionSubnetMask, rc.SubnetMask)
	buf = AppendIPOption(buf, dhcpv4.OptionRouter, rc.Gateway)
	buf = AppendUint32Option(buf, dhcpv4.OptionIPLeaseTime, LeaseSeconds)
	buf = AppendIPOption(buf, dhcpv4.OptionServerIdentifier, rc.ServerIP)
	buf = AppendEnd(buf)

	return buf
}
