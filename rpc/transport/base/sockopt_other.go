//go:build !unix

package base

import "net"

// socketBufferSizes is not supported on this platform, the configured sizes are used
func socketBufferSizes(net.Conn) (rcv, snd int) {
	return 0, 0
}
