package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSupportsPagination(t *testing.T) {
	testCases := []struct {
		version  string
		expected bool
	}{
		{"1.4.0", true},
		{"1.4", true},
		{"1.4.2", true},
		{"v2.0.0", true},
		{"1.4.0-rc1", false},
		{"1.4.1-rc1", true},
		{" 1.4.0 ", true},
		{"1.4.0+build7", true},
		{"1.10.0", true},
		{"1.3.9", false},
		{"0.14.0", false},
		{"", false},
		{"unknown", false},
		{"1.x", false},
	}

	for _, tc := range testCases {
		t.Run(tc.version, func(t *testing.T) {
			assert.Equal(t, tc.expected, SupportsPagination(tc.version))
		})
	}
}

func TestOptionsString(t *testing.T) {
	assert.Equal(t, "{}", Options{}.String())
	assert.Equal(t, "{max_results=5, continuation=T1, return_terms, stream}",
		Options{MaxResults: 5, Continuation: "T1", ReturnTerms: true, Stream: true}.String())
}

func TestOptionsWithContinuation(t *testing.T) {
	opts := Options{MaxResults: 5}
	next := opts.WithContinuation("T1")

	assert.Equal(t, "", opts.Continuation)
	assert.Equal(t, "T1", next.Continuation)
	assert.Equal(t, 5, next.MaxResults)
	assert.True(t, next.Paginated())
	assert.False(t, Options{ReturnTerms: true}.Paginated())
}
