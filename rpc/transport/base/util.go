package base

import (
	"github.com/ValentinKolb/dGrid/rpc/transport/conn"
)

const (
	minBufferSize = 4 << 10
	maxBufferSize = 1 << 20
)

// bufferSize picks the buffer size of a connection: the size reported by the socket,
// else the configured size, else the default. The result is clamped so a huge
// kernel buffer does not translate into a huge per connection allocation.
func bufferSize(queried, configured int) int {
	size := queried
	if size <= 0 {
		size = configured
	}
	if size <= 0 {
		return conn.DefaultBufferSize
	}
	return min(max(size, minBufferSize), maxBufferSize)
}
