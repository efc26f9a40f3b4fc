package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ValentinKolb/dIndex/lib/cell"
	"github.com/ValentinKolb/dIndex/lib/index"
	"github.com/ValentinKolb/dIndex/lib/store"
)

func TestQueryIndexRequestRoundTrip(t *testing.T) {
	opts := index.Options{MaxResults: 5, Continuation: "T1", ReturnTerms: true}

	req, err := NewQueryIndexRequest("foo", "age_int", index.Range(10, 20), opts)
	require.NoError(t, err)
	assert.Equal(t, MsgTQueryIndex, req.MsgType)
	assert.Equal(t, opts, req.Options())

	criterion, err := req.Criterion()
	require.NoError(t, err)
	assert.True(t, criterion.IsRange())
	assert.Equal(t, int64(10), criterion.Start)
	assert.Equal(t, int64(20), criterion.End)

	req, err = NewQueryIndexRequest("foo", "name_bin", index.Exact("bob"), index.Options{})
	require.NoError(t, err)
	assert.Nil(t, req.RangeEnd)
	criterion, err = req.Criterion()
	require.NoError(t, err)
	assert.False(t, criterion.IsRange())
	assert.Equal(t, "bob", criterion.Term())
}

func TestQueryIndexRequestRejectsInvalidInput(t *testing.T) {
	_, err := NewQueryIndexRequest("foo", "x", index.Exact(complex(1, 1)), index.Options{})
	var unsupported *cell.UnsupportedValueError
	assert.ErrorAs(t, err, &unsupported)

	_, err = NewQueryIndexRequest("foo", "x", index.Exact(1), index.Options{MaxResults: -1})
	assert.Error(t, err)

	_, err = (&Message{MsgType: MsgTQueryIndex}).Criterion()
	assert.Error(t, err)
}

func TestQueryIndexResponseCollection(t *testing.T) {
	keys := index.NewCollection([]string{"a", "b"}, nil, "T1")
	resp := NewQueryIndexResponse(keys, nil)
	assert.Equal(t, []string{"a", "b"}, resp.Collection().Keys)
	assert.Equal(t, "T1", resp.Collection().Continuation)
	assert.False(t, resp.Collection().HasTerms())

	terms := index.NewCollection(nil, []index.TermKey{{Term: "aaaa", Key: "aaaa"}, {Term: "bbbb", Key: "bbbb"}, {Term: "bbbb", Key: "bbbb2"}}, "")
	resp = NewQueryIndexResponse(terms, nil)
	result := resp.Collection()
	assert.Equal(t, []string{"aaaa", "bbbb", "bbbb2"}, result.Keys)
	assert.Equal(t, map[string][]string{"aaaa": {"aaaa"}, "bbbb": {"bbbb", "bbbb2"}}, result.Terms())

	// interleaved terms and repeated pairs keep the response order
	interleaved := index.NewCollection(nil, []index.TermKey{{Term: "10", Key: "k1"}, {Term: "20", Key: "k2"}, {Term: "10", Key: "k3"}, {Term: "10", Key: "k3"}}, "")
	result = NewQueryIndexResponse(interleaved, nil).Collection()
	assert.Equal(t, []string{"k1", "k2", "k3", "k3"}, result.Keys)
	assert.Equal(t, interleaved.Results(), result.Results())
	assert.True(t, interleaved.Equal(result))

	// an empty term result still reports terms
	resp = NewQueryIndexResponse(index.NewCollection(nil, []index.TermKey{}, ""), nil)
	resp.Results = nil
	assert.True(t, resp.Collection().HasTerms())
	assert.Equal(t, 0, resp.Collection().Len())
}

func TestResponseErrorKeepsCode(t *testing.T) {
	resp := NewFetchResponse(nil, store.NewError(store.RetCNotFound, "object foo/k not found"))
	err := resp.ResponseError()
	require.Error(t, err)
	assert.True(t, store.IsNotFound(err))
	assert.Contains(t, err.Error(), "object foo/k not found")

	resp = NewDeleteResponse(errors.New("disk on fire"))
	assert.Equal(t, store.RetCInternalError, store.CodeOf(resp.ResponseError()))

	assert.NoError(t, NewDeleteResponse(nil).ResponseError())
	assert.Equal(t, store.RetCInternalError, store.CodeOf(NewErrorResponse("bad request").ResponseError()))
}

func TestPutRequestEntries(t *testing.T) {
	req, err := NewPutRequest("foo", "k1", []byte("v"), []store.IndexEntry{{Name: "age_int", Term: 42}, {Name: "name_bin", Term: "bob"}})
	require.NoError(t, err)

	entries, err := req.StoreEntries()
	require.NoError(t, err)
	assert.Equal(t, []store.IndexEntry{{Name: "age_int", Term: int64(42)}, {Name: "name_bin", Term: "bob"}}, entries)
}

func TestMessageTypeJSON(t *testing.T) {
	types := []MessageType{MsgTSuccess, MsgTError, MsgTQueryIndex, MsgTFetch, MsgTVersion, MsgTPut, MsgTDelete, MsgTPutRow, MsgTGetRow, MsgTInfo}
	for _, typ := range types {
		data, err := typ.MarshalJSON()
		require.NoError(t, err)

		var result MessageType
		require.NoError(t, result.UnmarshalJSON(data))
		assert.Equal(t, typ, result)
	}

	var result MessageType
	assert.Error(t, result.UnmarshalJSON([]byte(`"set"`)))
}
