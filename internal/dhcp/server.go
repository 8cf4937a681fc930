package dhcp

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"golang.org/x/net/ipv4"

	"github.com/solodhcpd/solodhcpd/internal/metrics"
	"github.com/solodhcpd/solodhcpd/internal/trace"
	"github.com/solodhcpd/solodhcpd/pkg/dhcpv4"
)

// Server owns the UDP port 67 listener and the serving loop. Datagrams are
// processed strictly one at a time: read, decide, reply, then read again.
// The handler keeps no cross-packet state, so there is nothing to lock.
type Server struct {
	conn    *net.UDPConn
	pc      *ipv4.PacketConn
	handler *Handler
	logger  *slog.Logger
	tracer  *trace.Tracer
	addr    string
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewServer creates a DHCP server listening on addr (host without port;
// port 67 is implied).
func NewServer(handler *Handler, addr string, tracer *trace.Tracer, logger *slog.Logger) *Server {
	return &Server{
		handler: handler,
		logger:  logger,
		tracer:  tracer,
		addr:    addr,
		done:    make(chan struct{}),
	}
}

// Start binds the listener and begins the receive loop.
func (s *Server) Start(ctx context.Context) error {
	listenAddr := fmt.Sprintf("%s:%d", s.addr, dhcpv4.ServerPort)
	udpAddr, err := net.ResolveUDPAddr("udp4", listenAddr)
	if err != nil {
		return fmt.Errorf("resolving UDP address %s: %w", listenAddr, err)
	}

	conn, err := net.ListenUDP("udp4", udpAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", listenAddr, err)
	}
	s.conn = conn

	// Control messages tell us which interface each datagram arrived on.
	// Not available on every platform; the trace just omits it then.
	s.pc = ipv4.NewPacketConn(conn)
	if err := s.pc.SetControlMessage(ipv4.FlagInterface, true); err != nil {
		s.logger.Debug("interface control messages unavailable", "error", err)
	}

	s.logger.Info("DHCP server started", "address", listenAddr)

	s.wg.Add(1)
	go s.serve(ctx)

	return nil
}

// serve reads and fully processes one datagram at a time.
func (s *Server) serve(ctx context.Context) {
	defer s.wg.Done()

	buf := make([]byte, dhcpv4.MaxPacketSize)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		default:
		}

		n, cm, src, err := s.pc.ReadFrom(buf)
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			s.logger.Error("reading UDP packet", "error", err)
			continue
		}

		s.processPacket(ctx, buf[:n], src, cm)
	}
}

// processPacket runs one datagram through the handler and broadcasts any
// reply. Rejections are logged and counted, never fatal.
func (s *Server) processPacket(ctx context.Context, data []byte, src net.Addr, cm *ipv4.ControlMessage) {
	s.tracer.Printf("")
	s.tracer.Printf("received a packet of length %d from %s%s", len(data), src, ifaceSuffix(cm))
	s.tracer.Dump("inbound packet", data)

	reply, err := s.handler.Handle(ctx, data)
	if err != nil {
		s.logger.Warn("no reply for datagram",
			"reason", DropReason(err),
			"src", src.String(),
			"size", len(data),
			"error", err)
		return
	}

	s.tracer.Dump("outbound packet", reply)

	if err := s.broadcast(reply); err != nil {
		metrics.SendErrors.Inc()
		s.logger.Error("sending reply", "error", err)
		return
	}

	replyType := dhcpv4.MessageType(reply[dhcpv4.HeaderLength+2])
	metrics.PacketsSent.WithLabelValues(replyType.String()).Inc()
	s.tracer.Printf("sent %s packet (%d bytes)", replyType, len(reply))
}

// broadcast sends a reply to 255.255.255.255:68 through a short-lived
// socket with SO_BROADCAST set. The socket lives for exactly one reply.
func (s *Server) broadcast(data []byte) error {
	conn, err := broadcastListenConfig().ListenPacket(context.Background(), "udp4", ":0")
	if err != nil {
		return fmt.Errorf("opening broadcast socket: %w", err)
	}
	defer conn.Close()

	dst := &net.UDPAddr{IP: dhcpv4.BroadcastIP, Port: dhcpv4.ClientPort}
	if _, err := conn.WriteTo(data, dst); err != nil {
		return fmt.Errorf("broadcasting to %s: %w", dst, err)
	}
	return nil
}

// Stop shuts down the server.
func (s *Server) Stop() {
	close(s.done)
	if s.conn != nil {
		s.conn.Close()
	}
	s.wg.Wait()
	s.logger.Info("DHCP server stopped")
}

// ifaceSuffix formats the receiving interface for the trace, if known.
func ifaceSuffix(cm *ipv4.ControlMessage) string {
	if cm == nil || cm.IfIndex == 0 {
		return ""
	}
	iface, err := net.InterfaceByIndex(cm.IfIndex)
	if err != nil {
		return ""
	}
	return fmt.Sprintf(" on %s", iface.Name)
}
