// Package tcp provides the framed transport of package base over tcp.
//
// Both sides apply the SocketConf and TCPConf settings of their configuration to every
// new connection: TCP_NODELAY, keep-alive, linger and the socket buffer sizes.
package tcp
