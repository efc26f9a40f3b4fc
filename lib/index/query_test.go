package index

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --------------------------------------------------------------------------
// Fake Backend
// --------------------------------------------------------------------------

type queryCall struct {
	bucket    string
	index     string
	criterion Criterion
	opts      Options
}

type fetchCall struct {
	bucket string
	key    string
	opts   FetchOptions
}

// fakeBackend returns queued collections and records every call
type fakeBackend struct {
	pages   []*Collection
	chunks  [][]string
	values  map[string][]byte
	err     error
	version string

	queries []queryCall
	fetches []fetchCall
	// stream trace, "chunk" marks the start of every chunk delivered by the backend
	trace []string
}

func (f *fakeBackend) QueryIndex(bucket, index string, criterion Criterion, opts Options) (*Collection, error) {
	f.queries = append(f.queries, queryCall{bucket, index, criterion, opts})
	if f.err != nil {
		return nil, f.err
	}
	if len(f.pages) == 0 {
		return nil, errors.New("unexpected query")
	}
	page := f.pages[0]
	f.pages = f.pages[1:]
	return page, nil
}

func (f *fakeBackend) StreamIndex(bucket, index string, criterion Criterion, opts Options, visit KeyVisitor) error {
	f.queries = append(f.queries, queryCall{bucket, index, criterion, opts})
	for _, chunk := range f.chunks {
		f.trace = append(f.trace, "chunk")
		for _, key := range chunk {
			visit(key)
		}
	}
	return f.err
}

func (f *fakeBackend) FetchValue(bucket, key string, opts FetchOptions) ([]byte, error) {
	f.fetches = append(f.fetches, fetchCall{bucket, key, opts})
	if f.err != nil {
		return nil, f.err
	}
	return f.values[key], nil
}

func (f *fakeBackend) ServerVersion() (string, error) {
	return f.version, nil
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

func TestNewQueryStoresInputs(t *testing.T) {
	backend := &fakeBackend{}

	q := NewQuery(backend, "foo", "asdf", Exact("aaaa"), Options{})
	assert.Equal(t, "foo", q.Bucket())
	assert.Equal(t, "asdf", q.IndexName())
	assert.False(t, q.Criterion().IsRange())
	assert.Equal(t, "aaaa", q.Criterion().Term())

	q = NewQuery(backend, "foo", "asdf", Range(1, 5), Options{})
	assert.True(t, q.Criterion().IsRange())
	assert.Equal(t, "1..5", q.Criterion().String())

	// no request on construction
	assert.Empty(t, backend.queries)
}

func TestKeysReturnsCollection(t *testing.T) {
	backend := &fakeBackend{pages: []*Collection{NewCollection([]string{"abcd", "efgh"}, nil, "")}}
	criterion := Range("aaaa", "zzzz")

	q := NewQuery(backend, "foo", "asdf", criterion, Options{})
	keys, err := q.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"abcd", "efgh"}, keys.Keys)

	require.Len(t, backend.queries, 1)
	assert.Equal(t, queryCall{"foo", "asdf", criterion, Options{}}, backend.queries[0])
}

func TestKeysPassesErrorsUnchanged(t *testing.T) {
	transportErr := errors.New("connection reset")
	backend := &fakeBackend{err: transportErr}

	_, err := NewQuery(backend, "foo", "asdf", Exact("x"), Options{}).Keys()
	assert.Same(t, transportErr, err)
}

func TestValuesFetchesEveryKeyInOrder(t *testing.T) {
	backend := &fakeBackend{
		pages:  []*Collection{NewCollection([]string{"abcd", "efgh"}, nil, "")},
		values: map[string][]byte{"abcd": []byte("abcd"), "efgh": []byte("efgh")},
	}

	values, err := NewQuery(backend, "foo", "asdf", Range("aaaa", "zzzz"), Options{}).Values(FetchOptions{})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("abcd"), []byte("efgh")}, values)
	assert.Equal(t, []fetchCall{{"foo", "abcd", FetchOptions{}}, {"foo", "efgh", FetchOptions{}}}, backend.fetches)
}

func TestValuesFetchesDuplicateKeys(t *testing.T) {
	results := []TermKey{{"red", "k1"}, {"blue", "k1"}, {"blue", "k2"}}
	backend := &fakeBackend{
		pages:  []*Collection{NewCollection(nil, results, "")},
		values: map[string][]byte{"k1": []byte("v1"), "k2": []byte("v2")},
	}

	q := NewQuery(backend, "foo", "color_bin", Range("a", "z"), Options{ReturnTerms: true})
	values, err := q.Values(FetchOptions{})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("v1"), []byte("v1"), []byte("v2")}, values)

	require.Len(t, backend.fetches, 3)
	assert.Equal(t, "k1", backend.fetches[0].key)
	assert.Equal(t, "k1", backend.fetches[1].key)
	assert.Equal(t, "k2", backend.fetches[2].key)
}

func TestStreamVisitsKeysInArrivalOrder(t *testing.T) {
	backend := &fakeBackend{chunks: [][]string{{"abcd"}, {"efgh", "ijkl"}}}
	criterion := Range("aaaa", "zzzz")

	q := NewQuery(backend, "foo", "asdf", criterion, Options{Stream: true})
	err := q.Stream(func(key string) {
		backend.trace = append(backend.trace, key)
	})
	require.NoError(t, err)

	// every key is handed over as soon as its chunk arrives
	assert.Equal(t, []string{"chunk", "abcd", "chunk", "efgh", "ijkl"}, backend.trace)
	require.Len(t, backend.queries, 1)
	assert.True(t, backend.queries[0].opts.Stream)
}

func TestStreamingQueryRejectsBufferedRetrieval(t *testing.T) {
	backend := &fakeBackend{}
	q := NewQuery(backend, "foo", "asdf", Exact("x"), Options{Stream: true})

	_, err := q.Keys()
	assert.ErrorIs(t, err, ErrStreamingQuery)

	_, err = q.Values(FetchOptions{})
	assert.ErrorIs(t, err, ErrStreamingQuery)
	assert.Empty(t, backend.queries)
}

func TestMaxResults(t *testing.T) {
	expected, err := ParseCollection([]byte(`{"keys":["aaaa","bbbb","cccc","dddd","eeee"],"continuation":"examplecontinuation"}`))
	require.NoError(t, err)

	backend := &fakeBackend{pages: []*Collection{expected}}
	q := NewQuery(backend, "foo", "asdf", Range("aaaa", "zzzz"), Options{MaxResults: 5})

	keys, err := q.Keys()
	require.NoError(t, err)
	assert.True(t, keys.Equal(expected))
	assert.Equal(t, 5, keys.Len())
	assert.Equal(t, Options{MaxResults: 5}, backend.queries[0].opts)
}

func TestContinuation(t *testing.T) {
	expected, err := ParseCollection([]byte(`{"keys":["ffff","gggg","hhhh"]}`))
	require.NoError(t, err)

	backend := &fakeBackend{pages: []*Collection{expected}}
	opts := Options{MaxResults: 5, Continuation: "examplecontinuation"}
	keys, err := NewQuery(backend, "foo", "asdf", Range("aaaa", "zzzz"), opts).Keys()
	require.NoError(t, err)
	assert.True(t, keys.Equal(expected))
	assert.Equal(t, opts, backend.queries[0].opts)
}

func TestNextPage(t *testing.T) {
	first := NewCollection([]string{"aaaa", "bbbb", "cccc", "dddd", "eeee"}, nil, "T1")
	second := NewCollection([]string{"ffff", "gggg", "hhhh"}, nil, "")
	backend := &fakeBackend{pages: []*Collection{first, second}}
	criterion := Range("aaaa", "zzzz")

	q := NewQuery(backend, "foo", "asdf", criterion, Options{MaxResults: 5})
	keys, err := q.Keys()
	require.NoError(t, err)
	assert.True(t, keys.Equal(first))

	next, err := q.NextPage()
	require.NoError(t, err)
	assert.Equal(t, Options{MaxResults: 5, Continuation: "T1"}, next.Options())

	// the original query still describes the first page
	assert.Equal(t, Options{MaxResults: 5}, q.Options())

	keys, err = next.Keys()
	require.NoError(t, err)
	assert.True(t, keys.Equal(second))

	require.Len(t, backend.queries, 2)
	assert.Equal(t, queryCall{"foo", "asdf", criterion, Options{MaxResults: 5, Continuation: "T1"}}, backend.queries[1])

	// last page has no continuation
	_, err = next.NextPage()
	assert.ErrorIs(t, err, ErrNoMoreResults)
}

func TestNextPageWithoutKeys(t *testing.T) {
	q := NewQuery(&fakeBackend{}, "foo", "asdf", Exact("x"), Options{})
	_, err := q.NextPage()
	assert.ErrorIs(t, err, ErrNoMoreResults)
}

func TestPages(t *testing.T) {
	backend := &fakeBackend{pages: []*Collection{
		NewCollection([]string{"a", "b"}, nil, "T1"),
		NewCollection([]string{"c", "d"}, nil, "T2"),
		NewCollection([]string{"e"}, nil, ""),
	}}

	var keys []string
	err := NewQuery(backend, "foo", "asdf", Range("a", "z"), Options{MaxResults: 2}).Pages(func(page *Collection) error {
		keys = append(keys, page.Keys...)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, keys)
	require.Len(t, backend.queries, 3)
	assert.Equal(t, "", backend.queries[0].opts.Continuation)
	assert.Equal(t, "T1", backend.queries[1].opts.Continuation)
	assert.Equal(t, "T2", backend.queries[2].opts.Continuation)
}

func TestPagesAbortsOnError(t *testing.T) {
	backend := &fakeBackend{pages: []*Collection{
		NewCollection([]string{"a"}, nil, "T1"),
		NewCollection([]string{"b"}, nil, ""),
	}}
	stop := errors.New("stop")

	calls := 0
	err := NewQuery(backend, "foo", "asdf", Range("a", "z"), Options{MaxResults: 1}).Pages(func(page *Collection) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestReturnTerms(t *testing.T) {
	expected, err := ParseCollection([]byte(`{"results":[{"aaaa":"aaaa"},{"bbbb":"bbbb"},{"bbbb":"bbbb2"}]}`))
	require.NoError(t, err)

	backend := &fakeBackend{pages: []*Collection{expected}}
	keys, err := NewQuery(backend, "foo", "asdf", Range("aaaa", "zzzz"), Options{ReturnTerms: true}).Keys()
	require.NoError(t, err)
	assert.True(t, keys.Equal(expected))
	assert.Equal(t, map[string][]string{
		"aaaa": {"aaaa"},
		"bbbb": {"bbbb", "bbbb2"},
	}, keys.Terms())
	assert.Equal(t, Options{ReturnTerms: true}, backend.queries[0].opts)
}
