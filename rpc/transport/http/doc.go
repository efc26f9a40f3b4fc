// Package http implements the dIndex transports on top of net/http.
//
// Every message is sent as the body of a POST request to /<shardId> with content type
// application/octet-stream, and the response body is the serialized response. Unknown
// paths and malformed shard ids answer 404 and 400.
//
// The client spreads requests round robin over all configured endpoints and retries a
// failed request on the next endpoint. Endpoints without a scheme get "http://".
//
// Combined with the JSON serializer the server can be called by hand:
//
//	curl -X POST --data '{"msg_type":"version"}' localhost:8080/100
package http
