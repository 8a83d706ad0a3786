// Package websocket implements the dGrid client transport over WebSocket connections,
// for members that are only reachable through HTTP infrastructure.
//
// Frames are carried in binary messages. StreamConn turns the message based connection
// back into a byte stream, so the connection pumps work on it unchanged.
//
// Key Components:
//
//   - clientConnector: Performs the WebSocket handshake and applies the TCP options
//     to the connection below it
//
//   - StreamConn: Adapter from WebSocket messages to a net.Conn byte stream, usable on
//     the client and on the server side
package websocket
