/*
Package transporttest provides a fake cluster member for tests of the client transport.

A Member listens on a random local TCP port (or a unix socket, or as a WebSocket endpoint),
reads the 6 byte preamble of every client and hands each request frame to a Handler:

	member := transporttest.NewMember(t, transporttest.Echo)
	client := tcp.NewTCPClientTransport(common.ClientConfig{Endpoints: []string{member.Addr()}})

Tests that need scripted behavior use the Session of a connection to reply, push event
frames or close the connection at a chosen time. Grid implements the distributed map
operations in memory and pushes entry events to registered listeners.
*/
package transporttest
