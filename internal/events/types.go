// Package events provides a non-blocking fan-out bus for per-packet
// response decisions. Subscribers (the audit journal, tests) observe what
// the handler decided without sitting in the serving path.
package events

import "time"

// EventType identifies a response decision.
type EventType string

const (
	// EventOfferSent fires after a DHCPOFFER is handed to the transport.
	EventOfferSent EventType = "packet.offer"
	// EventAckSent fires after a DHCPACK is handed to the transport.
	EventAckSent EventType = "packet.ack"
	// EventDropped fires when a datagram is dropped with a reason.
	EventDropped EventType = "packet.drop"
)

// Event describes one decision about one received datagram.
type Event struct {
	Type      EventType
	Timestamp time.Time
	MAC       string // client hardware address, colon-hex; empty if undecodable
	XID       uint32 // transaction ID; zero if undecodable
	MsgType   string // inbound DHCP message type name, if known
	Reason    string // drop reason; empty for offer/ack
}
