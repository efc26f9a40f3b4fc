package index

import "errors"

var (
	// ErrNoMoreResults is returned by NextPage if the current page carries no
	// continuation. It is the regular end of a pagination loop.
	ErrNoMoreResults = errors.New("index: no more results")

	// ErrMalformedResponse is returned if an index response cannot be parsed.
	// Parse errors wrap it, use errors.Is to test for it.
	ErrMalformedResponse = errors.New("index: malformed response")

	// ErrStreamingQuery is returned by Keys and Values if the query was created
	// with the Stream option. Streamed keys are only delivered through Stream.
	ErrStreamingQuery = errors.New("index: streaming query requires a visitor")
)
