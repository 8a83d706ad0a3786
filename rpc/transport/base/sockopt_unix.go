//go:build unix

package base

import (
	"golang.org/x/sys/unix"
	"net"
	"syscall"
)

// socketBufferSizes queries SO_RCVBUF and SO_SNDBUF of the socket.
// Sockets without a file descriptor report zero.
func socketBufferSizes(socket net.Conn) (rcv, snd int) {
	sc, ok := socket.(syscall.Conn)
	if !ok {
		return 0, 0
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return 0, 0
	}

	err = raw.Control(func(fd uintptr) {
		if v, err := unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF); err == nil {
			rcv = v
		}
		if v, err := unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF); err == nil {
			snd = v
		}
	})
	if err != nil {
		Logger.Debugf("Failed to query socket buffer sizes: %v", err)
		return 0, 0
	}
	return rcv, snd
}
