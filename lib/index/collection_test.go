package index

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCollectionKeys(t *testing.T) {
	c, err := ParseCollection([]byte(`{"keys":["aaaa","bbbb","aaaa"],"continuation":"T1"}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"aaaa", "bbbb", "aaaa"}, c.Keys)
	assert.Equal(t, "T1", c.Continuation)
	assert.True(t, c.HasMore())
	assert.False(t, c.HasTerms())
	assert.Nil(t, c.Terms())
	assert.Nil(t, c.Results())
}

func TestParseCollectionEmptyKeys(t *testing.T) {
	c, err := ParseCollection([]byte(`{"keys":[]}`))
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
	assert.False(t, c.HasMore())
}

func TestParseCollectionResults(t *testing.T) {
	c, err := ParseCollection([]byte(`{"results":[{"aaaa":"aaaa"},{"bbbb":"bbbb"},{"bbbb":"bbbb2"},{"bbbb":"bbbb"}]}`))
	require.NoError(t, err)

	// duplicates stay in the key sequence but not in the term groups
	assert.Equal(t, []string{"aaaa", "bbbb", "bbbb2", "bbbb"}, c.Keys)
	assert.Equal(t, map[string][]string{
		"aaaa": {"aaaa"},
		"bbbb": {"bbbb", "bbbb2"},
	}, c.Terms())
	assert.Equal(t, []string{"aaaa", "bbbb"}, c.TermOrder())
	assert.Equal(t, []TermKey{{"aaaa", "aaaa"}, {"bbbb", "bbbb"}, {"bbbb", "bbbb2"}, {"bbbb", "bbbb"}}, c.Results())
}

func TestParseCollectionMalformed(t *testing.T) {
	testCases := []struct {
		name string
		data string
	}{
		{"invalid json", `{"keys":`},
		{"no keys and no results", `{"continuation":"T1"}`},
		{"empty result entry", `{"results":[{}]}`},
		{"two pairs in one entry", `{"results":[{"a":"k1","b":"k2"}]}`},
		{"key is not a string", `{"results":[{"a":5}]}`},
		{"keys is not a list", `{"keys":"aaaa"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseCollection([]byte(tc.data))
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestCollectionJSONRoundTrip(t *testing.T) {
	testCases := []struct {
		name       string
		collection *Collection
	}{
		{"keys", NewCollection([]string{"a", "b"}, nil, "")},
		{"empty", NewCollection(nil, nil, "")},
		{"keys with continuation", NewCollection([]string{"a"}, nil, "T1")},
		{"results", NewCollection(nil, []TermKey{{"z", "k1"}, {"a", "k2"}, {"z", "k3"}}, "T2")},
		{"interleaved terms with repeats", NewCollection(nil, []TermKey{{"10", "k1"}, {"20", "k2"}, {"10", "k3"}, {"10", "k3"}}, "")},
		{"empty results", NewCollection(nil, []TermKey{}, "")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(tc.collection)
			require.NoError(t, err)

			result, err := ParseCollection(data)
			require.NoError(t, err, "json %s", data)
			assert.Equal(t, tc.collection.Keys, result.Keys)
			assert.True(t, tc.collection.Equal(result))
			assert.Equal(t, tc.collection.Continuation, result.Continuation)
			assert.Equal(t, tc.collection.HasTerms(), result.HasTerms())
			assert.Equal(t, tc.collection.Terms(), result.Terms())
			assert.Equal(t, tc.collection.Results(), result.Results())
		})
	}
}

func TestCollectionResultsKeepResponseOrder(t *testing.T) {
	c := NewCollection(nil, []TermKey{{"z", "k1"}, {"a", "k2"}, {"z", "k3"}, {"z", "k3"}}, "")

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Equal(t, `{"results":[{"z":"k1"},{"a":"k2"},{"z":"k3"},{"z":"k3"}]}`, string(data))
	assert.Equal(t, []string{"k1", "k2", "k3", "k3"}, c.Keys)

	// grouping only applies to Terms
	assert.Equal(t, map[string][]string{"z": {"k1", "k3"}, "a": {"k2"}}, c.Terms())
	assert.Equal(t, []string{"z", "a"}, c.TermOrder())
}

func TestCollectionResultsAreCopied(t *testing.T) {
	c := NewCollection(nil, []TermKey{{"z", "k1"}}, "")
	c.Results()[0].Key = "changed"
	assert.Equal(t, []TermKey{{"z", "k1"}}, c.Results())
}

func TestCollectionEqual(t *testing.T) {
	a := NewCollection([]string{"a", "b"}, nil, "T1")
	b := NewCollection(nil, []TermKey{{"x", "a"}, {"y", "b"}}, "")
	c := NewCollection([]string{"b", "a"}, nil, "")

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))

	var empty *Collection
	assert.True(t, empty.Equal(nil))
}

func TestNewCollectionCopiesKeys(t *testing.T) {
	keys := []string{"a", "b"}
	c := NewCollection(keys, nil, "")
	keys[0] = "changed"
	assert.Equal(t, []string{"a", "b"}, c.Keys)
}
