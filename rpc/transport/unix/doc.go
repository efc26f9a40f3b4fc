// Package unix provides the framed transport of package base over unix domain sockets,
// for clients running on the same machine as the server. The endpoint is the socket path.
package unix
