package dhcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/solodhcpd/solodhcpd/internal/events"
	"github.com/solodhcpd/solodhcpd/internal/metrics"
	"github.com/solodhcpd/solodhcpd/internal/trace"
	"github.com/solodhcpd/solodhcpd/pkg/dhcpv4"
)

// Handler rejection errors. Like the decode errors, every one of these
// means "no reply for this datagram" and nothing more.
var (
	ErrMacMismatch            = errors.New("client MAC does not match configured target")
	ErrMissingMessageType     = errors.New("missing or mis-sized DHCP message type option")
	ErrUnsupportedMessageType = errors.New("unsupported DHCP message type")
)

// Handler classifies one inbound datagram at a time and builds the reply.
// It serves exactly one host: any packet whose client hardware address is
// not the configured target is dropped. There is no state between calls.
type Handler struct {
	targetMAC net.HardwareAddr
	reply     ReplyConfig
	logger    *slog.Logger
	bus       *events.Bus
	tracer    *trace.Tracer
}

// NewHandler creates a handler serving the single configured client.
// bus may be nil when no subscriber cares about decisions.
func NewHandler(targetMAC net.HardwareAddr, reply ReplyConfig, bus *events.Bus, tracer *trace.Tracer, logger *slog.Logger) *Handler {
	return &Handler{
		targetMAC: targetMAC,
		reply:     reply,
		logger:    logger,
		bus:       bus,
		tracer:    tracer,
	}
}

// Handle runs the per-datagram decision pipeline on raw packet bytes and
// returns the reply to broadcast, or nil and a reason when no reply is
// owed. Errors here are diagnostics, never fatal: the caller logs and
// moves on to the next datagram.
func (h *Handler) Handle(_ context.Context, data []byte) ([]byte, error) {
	start := time.Now()
	msgLabel := "UNKNOWN"
	defer func() {
		metrics.PacketProcessingDuration.WithLabelValues(msgLabel).Observe(time.Since(start).Seconds())
	}()

	pkt, err := DecodePacket(data)
	if err != nil {
		h.publishDrop("", 0, "", err)
		return nil, err
	}

	msgLabel = pkt.MessageType().String()
	metrics.PacketsReceived.WithLabelValues(msgLabel).Inc()

	h.traceFields(pkt)

	mac := pkt.CHAddr.String()

	if !bytes.Equal(pkt.CHAddr, h.targetMAC) {
		err := fmt.Errorf("%w: got %s, serving %s", ErrMacMismatch, mac, h.targetMAC)
		h.publishDrop(mac, pkt.XID, "", err)
		return nil, err
	}

	mt, ok := pkt.Options[dhcpv4.OptionDHCPMessageType]
	if !ok || len(mt) != 1 {
		err := fmt.Errorf("%w: option 53 absent or not a single byte", ErrMissingMessageType)
		h.publishDrop(mac, pkt.XID, "", err)
		return nil, err
	}

	msgType := dhcpv4.MessageType(mt[0])
	h.tracer.Printf("DHCP message type: %s (%d)", msgType, mt[0])

	var reply []byte
	var evt events.EventType
	switch msgType {
	case dhcpv4.MessageTypeDiscover:
		reply = BuildOffer(pkt, h.reply)
		evt = events.EventOfferSent
	case dhcpv4.MessageTypeRequest:
		reply = BuildAck(pkt, h.reply)
		evt = events.EventAckSent
	default:
		err := fmt.Errorf("%w: %s (%d)", ErrUnsupportedMessageType, msgType, mt[0])
		h.publishDrop(mac, pkt.XID, msgType.String(), err)
		return nil, err
	}

	h.logger.Info("building reply",
		"msg_type", msgType.String(),
		"reply_type", replyTypeFor(msgType).String(),
		"mac", mac,
		"xid", fmt.Sprintf("%08x", pkt.XID))

	if h.bus != nil {
		h.bus.Publish(events.Event{
			Type:      evt,
			Timestamp: time.Now(),
			MAC:       mac,
			XID:       pkt.XID,
			MsgType:   msgType.String(),
		})
	}

	return reply, nil
}

// replyTypeFor maps an inbound message type to the outbound one.
func replyTypeFor(mt dhcpv4.MessageType) dhcpv4.MessageType {
	if mt == dhcpv4.MessageTypeDiscover {
		return dhcpv4.MessageTypeOffer
	}
	return dhcpv4.MessageTypeAck
}

// publishDrop logs a rejection and publishes the matching event.
func (h *Handler) publishDrop(mac string, xid uint32, msgType string, err error) {
	metrics.PacketsDropped.WithLabelValues(DropReason(err)).Inc()
	h.tracer.Printf("ignoring packet: %v", err)
	h.logger.Debug("dropping packet", "reason", DropReason(err), "mac", mac, "error", err)
	if h.bus != nil {
		h.bus.Publish(events.Event{
			Type:      events.EventDropped,
			Timestamp: time.Now(),
			MAC:       mac,
			XID:       xid,
			MsgType:   msgType,
			Reason:    DropReason(err),
		})
	}
}

// traceFields prints the decoded header and option list to the console
// trace, one field per line.
func (h *Handler) traceFields(pkt *Packet) {
	if !h.tracer.Enabled() {
		return
	}
	h.tracer.Printf("Op: %d", pkt.Op)
	h.tracer.Printf("Hardware type: %d", pkt.HType)
	h.tracer.Printf("Hardware address length: %d", pkt.HLen)
	h.tracer.Printf("Hops: %d", pkt.Hops)
	h.tracer.Printf("Transaction ID: 0x%08X", pkt.XID)
	h.tracer.Printf("Seconds: %d", pkt.Secs)
	h.tracer.Printf("Flags: 0x%04X", pkt.Flags)
	h.tracer.Printf("Client IP: %s", dhcpv4.FormatDottedQuad(pkt.CIAddr))
	h.tracer.Printf("Your IP: %s", dhcpv4.FormatDottedQuad(pkt.YIAddr))
	h.tracer.Printf("Server IP: %s", dhcpv4.FormatDottedQuad(pkt.SIAddr))
	h.tracer.Printf("Gateway IP: %s", dhcpv4.FormatDottedQuad(pkt.GIAddr))
	h.tracer.Printf("MAC address: %s", pkt.CHAddr)
	for _, opt := range pkt.OptionList {
		h.tracer.Printf("Option: %d Length: %d Value: 0x%X", opt.Code, len(opt.Value), opt.Value)
	}
}

// DropReason maps a rejection error to a short stable label for metrics.
func DropReason(err error) string {
	switch {
	case errors.Is(err, ErrTooShort):
		return "too_short"
	case errors.Is(err, ErrInvalidOpcode):
		return "invalid_opcode"
	case errors.Is(err, ErrUnsupportedHardware):
		return "unsupported_hardware"
	case errors.Is(err, ErrBadCookie):
		return "bad_cookie"
	case errors.Is(err, ErrMacMismatch):
		return "mac_mismatch"
	case errors.Is(err, ErrMissingMessageType):
		return "missing_message_type"
	case errors.Is(err, ErrUnsupportedMessageType):
		return "unsupported_message_type"
	default:
		return "other"
	}
}
