//go:build !windows

package dhcp

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// broadcastListenConfig returns a ListenConfig whose sockets may send to
// the limited broadcast address. Go does not set SO_BROADCAST itself.
func broadcastListenConfig() *net.ListenConfig {
	return &net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var soErr error
			err := c.Control(func(fd uintptr) {
				soErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
			})
			if err != nil {
				return err
			}
			return soErr
		},
	}
}
