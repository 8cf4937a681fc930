package dhcp

import (
	"bytes"
	"net"
	"testing"

	"github.com/solodhcpd/solodhcpd/pkg/dhcpv4"
)

func testReplyConfig() ReplyConfig {
	return ReplyConfig{
		ServerIP:   net.IP{192, 168, 1, 1},
		ClientIP:   net.IP{192, 168, 1, 100},
		SubnetMask: net.IP{255, 255, 255, 0},
		Gateway:    net.IP{192, 168, 1, 254},
	}
}

func TestBuildOfferOptionLayout(t *testing.T) {
	mac := net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	req, err := DecodePacket(buildTestPacket(mac, 0xCAFEBABE, dhcpv4.MessageTypeDiscover))
	if err != nil {
		t.Fatalf("DecodePacket error: %v", err)
	}

	reply := BuildOffer(req, testReplyConfig())

	// Option section is exactly: 53, 1, 3, 51, 54, END, in that order.
	wantOptions := []byte{
		53, 1, 2, // message type OFFER
		1, 4, 255, 255, 255, 0, // subnet mask
		3, 4, 192, 168, 1, 254, // router
		51, 4, 0x00, 0x01, 0x51, 0x80, // lease time, 86400 seconds
		54, 4, 192, 168, 1, 1, // server identifier
		255, // END
	}
	got := reply[dhcpv4.HeaderLength:]
	if !bytes.Equal(got, wantOptions) {
		t.Errorf("option section = % x\nwant % x", got, wantOptions)
	}

	if len(reply) != dhcpv4.HeaderLength+len(wantOptions) {
		t.Errorf("reply length = %d, want %d (no trailing padding)", len(reply), dhcpv4.HeaderLength+len(wantOptions))
	}
}

func TestBuildAck(t *testing.T) {
	mac := net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	req, err := DecodePacket(buildTestPacket(mac, 0x01020304, dhcpv4.MessageTypeRequest))
	if err != nil {
		t.Fatalf("DecodePacket error: %v", err)
	}

	reply := BuildAck(req, testReplyConfig())

	if reply[dhcpv4.HeaderLength+2] != byte(dhcpv4.MessageTypeAck) {
		t.Errorf("message type = %d, want ACK", reply[dhcpv4.HeaderLength+2])
	}
}

func TestBuildReplyDecodes(t *testing.T) {
	// A built reply must itself satisfy the decoder.
	mac := net.HardwareAddr{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x01}
	req, err := DecodePacket(buildTestPacket(mac, 99, dhcpv4.MessageTypeDiscover))
	if err != nil {
		t.Fatalf("DecodePacket error: %v", err)
	}

	rc := testReplyConfig()
	pkt, err := DecodePacket(BuildOffer(req, rc))
	if err != nil {
		t.Fatalf("decoding built reply: %v", err)
	}

	if pkt.Op != dhcpv4.OpCodeBootReply {
		t.Errorf("Op = %d, want BOOTREPLY", pkt.Op)
	}
	if pkt.XID != 99 {
		t.Errorf("XID = %d, want 99", pkt.XID)
	}
	if pkt.MessageType() != dhcpv4.MessageTypeOffer {
		t.Errorf("MessageType = %d, want OFFER", pkt.MessageType())
	}
	if !pkt.YIAddr.Equal(rc.ClientIP) {
		t.Errorf("YIAddr = %v, want %v", pkt.YIAddr, rc.ClientIP)
	}
	sid, ok := pkt.Options.Get(dhcpv4.OptionServerIdentifier)
	if !ok || !bytes.Equal(sid, []byte(rc.ServerIP)) {
		t.Errorf("server identifier = %v, want %v", sid, rc.ServerIP)
	}
}
