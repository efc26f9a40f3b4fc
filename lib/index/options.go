package index

import (
	"fmt"
	"strings"
)

// Options controls pagination, term return and streaming of an index query.
// The zero value requests all results in one buffered response.
type Options struct {
	// MaxResults limits the number of results per page (0 = no limit)
	MaxResults int
	// Continuation is the opaque token of the page to fetch ("" = first page)
	Continuation string
	// ReturnTerms requests the matched index term alongside each key
	ReturnTerms bool
	// Stream delivers keys one by one instead of a buffered collection
	Stream bool
}

// WithContinuation returns a copy of the options with the continuation replaced.
func (o Options) WithContinuation(token string) Options {
	o.Continuation = token
	return o
}

// Paginated reports whether the options use any pagination feature.
func (o Options) Paginated() bool {
	return o.MaxResults > 0 || o.Continuation != ""
}

// String returns a compact representation of the options (used in logs and the cli)
func (o Options) String() string {
	var parts []string
	if o.MaxResults > 0 {
		parts = append(parts, fmt.Sprintf("max_results=%d", o.MaxResults))
	}
	if o.Continuation != "" {
		parts = append(parts, fmt.Sprintf("continuation=%s", o.Continuation))
	}
	if o.ReturnTerms {
		parts = append(parts, "return_terms")
	}
	if o.Stream {
		parts = append(parts, "stream")
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// FetchOptions is passed through to Backend.FetchValue for every key of Values.
type FetchOptions struct {
	// IgnoreMissing skips keys that no longer exist instead of failing
	IgnoreMissing bool
}
