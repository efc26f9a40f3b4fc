package index

import (
	"strings"

	"github.com/hashicorp/go-version"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// KeyVisitor is called once per key of a streamed query, in arrival order.
// It runs on the caller's goroutine and must not block for long, since the
// stream is read from the same connection.
type KeyVisitor func(key string)

// Backend executes index queries and fetches against the remote store.
// A Query only borrows the backend for the duration of each call.
// Errors of the underlying transport are returned unchanged, the query layer
// does not retry.
type Backend interface {
	// QueryIndex runs a buffered query and returns the complete (page of the) result.
	QueryIndex(bucket, index string, criterion Criterion, opts Options) (*Collection, error)
	// StreamIndex runs a streaming query. The visitor is invoked zero or more times,
	// the call returns after the stream has completed.
	StreamIndex(bucket, index string, criterion Criterion, opts Options, visit KeyVisitor) error
	// FetchValue returns the value stored for a key.
	FetchValue(bucket, key string, opts FetchOptions) ([]byte, error)
	// ServerVersion returns the version string of the connected server.
	ServerVersion() (string, error)
}

// --------------------------------------------------------------------------
// Version Gating
// --------------------------------------------------------------------------

// PaginationVersion is the first server version supporting max_results,
// continuations and return_terms.
const PaginationVersion = "1.4.0"

// minPaginationVersion is PaginationVersion parsed once
var minPaginationVersion = version.Must(version.NewVersion(PaginationVersion))

// SupportsPagination reports whether a server of the given version supports the
// pagination and return-terms options. Unparsable versions are treated as old,
// pre-releases of PaginationVersion as well.
func SupportsPagination(v string) bool {
	parsed, err := version.NewVersion(strings.TrimSpace(v))
	if err != nil {
		return false
	}
	return parsed.GreaterThanOrEqual(minPaginationVersion)
}
