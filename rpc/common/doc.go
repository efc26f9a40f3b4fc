// Package common provides the data structures shared by the rpc client, server,
// serializers and transports.
//
// The package focuses on:
//   - Message protocol definition for client server communication
//   - Configuration structures for client and server components
//   - Custom logging implementation integrated with Dragonboat's logger package
//
// Key Components:
//
//   - Message: Core data structure for all RPC communication. The fields used depend
//     on the message type. Index terms and time series values travel as cell.Cell,
//     so their type survives every serializer. Factory methods create the request and
//     response messages, helpers convert them back to index and store types.
//
//   - MessageType: Enumeration of all supported operations: the index.Backend
//     operations (queryIndex, fetch, version), the store writes (put, delete,
//     putRow, getRow, info) and control messages.
//
//   - Errors: responses carry the message and the store.RetCode of an error.
//     Message.ResponseError restores a *store.Error on the client side.
//
//   - ServerConfig / ClientConfig: configuration of the server (shards, transport,
//     metrics, logging) and the client (endpoints, timeouts, retries, stream chunk size).
//
//   - Logger: Custom logging implementation for Dragonboat's logger.ILogger interface,
//     used through logger.GetLogger(name) in all packages that log.
package common
