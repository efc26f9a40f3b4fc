package index

import (
	"errors"
	"fmt"
)

// Query describes one logical index query: a bucket, an index name, a criterion
// and the query options. A Query is not safe for concurrent use.
type Query struct {
	backend   Backend
	bucket    string
	indexName string
	criterion Criterion
	opts      Options

	// result of the last Keys call, needed by NextPage
	last *Collection
}

// NewQuery creates a query. No request is sent and no validation of the criterion
// against the index type is done, the server enforces that.
func NewQuery(backend Backend, bucket, indexName string, criterion Criterion, opts Options) *Query {
	return &Query{
		backend:   backend,
		bucket:    bucket,
		indexName: indexName,
		criterion: criterion,
		opts:      opts,
	}
}

// --------------------------------------------------------------------------
// Accessors
// --------------------------------------------------------------------------

// Bucket returns the bucket the query runs against.
func (q *Query) Bucket() string { return q.bucket }

// IndexName returns the name of the queried index.
func (q *Query) IndexName() string { return q.indexName }

// Criterion returns the criterion of the query.
func (q *Query) Criterion() Criterion { return q.criterion }

// Options returns the options of the query.
func (q *Query) Options() Options { return q.opts }

// String returns a readable representation of the query.
func (q *Query) String() string {
	return fmt.Sprintf("%s/%s %s %s", q.bucket, q.indexName, q.criterion, q.opts)
}

// --------------------------------------------------------------------------
// Result Retrieval
// --------------------------------------------------------------------------

// Keys runs the query and returns the buffered result. The result is remembered
// for NextPage. Streaming queries fail with ErrStreamingQuery, use Stream instead.
func (q *Query) Keys() (*Collection, error) {
	if q.opts.Stream {
		return nil, ErrStreamingQuery
	}

	result, err := q.backend.QueryIndex(q.bucket, q.indexName, q.criterion, q.opts)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = NewCollection(nil, nil, "")
	}

	q.last = result
	return result, nil
}

// Stream runs the query in streaming mode and calls visit once per key as the keys
// arrive. Nothing is buffered and there is no way to stop the stream early, the
// call returns once the stream is complete or the transport fails.
func (q *Query) Stream(visit KeyVisitor) error {
	opts := q.opts
	opts.Stream = true
	return q.backend.StreamIndex(q.bucket, q.indexName, q.criterion, opts, visit)
}

// Values runs the query and fetches the value of every returned key, one request
// per key, in key order. Keys that appear more than once are fetched every time.
func (q *Query) Values(fetchOpts FetchOptions) ([][]byte, error) {
	keys, err := q.Keys()
	if err != nil {
		return nil, err
	}

	values := make([][]byte, 0, keys.Len())
	for _, key := range keys.Keys {
		value, err := q.backend.FetchValue(q.bucket, key, fetchOpts)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, nil
}

// NextPage returns a new query for the page following the last result of Keys.
// The receiver is not modified and still describes its own page.
// It fails with ErrNoMoreResults if Keys was not called yet or the last result
// carried no continuation.
func (q *Query) NextPage() (*Query, error) {
	if q.last == nil || q.last.Continuation == "" {
		return nil, ErrNoMoreResults
	}
	return NewQuery(q.backend, q.bucket, q.indexName, q.criterion, q.opts.WithContinuation(q.last.Continuation)), nil
}

// Pages runs the query and follows the continuations until the last page,
// calling fn once per page. An error returned by fn or the backend aborts the loop.
func (q *Query) Pages(fn func(page *Collection) error) error {
	current := q
	for {
		page, err := current.Keys()
		if err != nil {
			return err
		}
		if err := fn(page); err != nil {
			return err
		}

		current, err = current.NextPage()
		if errors.Is(err, ErrNoMoreResults) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
