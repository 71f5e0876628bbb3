package network

import (
	"context"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// ListenReuseport opens a TCP listener with SO_REUSEPORT set, so every worker
// process can bind the same address and the kernel spreads accepted
// connections across them.
func ListenReuseport(ctx context.Context, addr string) (net.Listener, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}
	return lc.Listen(ctx, "tcp", addr)
}
