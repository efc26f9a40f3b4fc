package escape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscape(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		uri, cgi string
	}{
		{"plain", "bucket", "bucket", "bucket"},
		{"space", "a b", "a%20b", "a%20b"},
		{"slash", "a/b", "a%2Fb", "a%2Fb"},
		{"plus", "a+b", "a%2Bb", "a%2Bb"},
		{"star", "a*b", "a*b", "a%2Ab"},
		{"tilde", "a~b", "a%7Eb", "a~b"},
		{"unicode", "ü", "%C3%BC", "%C3%BC"},
		{"mixed", "foo bar/baz?x=1", "foo%20bar%2Fbaz%3Fx%3D1", "foo%20bar%2Fbaz%3Fx%3D1"},
		{"empty", "", "", ""},
	}

	uri := Config{Escaper: EscaperURI}
	cgi := Config{Escaper: EscaperCGI}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.uri, uri.Escape(tc.input))
			assert.Equal(t, tc.cgi, cgi.Escape(tc.input))

			// both escapers decode each other's output
			for _, cfg := range []Config{uri, cgi} {
				name, err := cfg.Unescape(tc.uri)
				require.NoError(t, err)
				assert.Equal(t, tc.input, name)
				name, err = cfg.Unescape(tc.cgi)
				require.NoError(t, err)
				assert.Equal(t, tc.input, name)
			}
		})
	}
}

func TestUnescapePlusIsSpace(t *testing.T) {
	name, err := Config{}.Unescape("a+b")
	require.NoError(t, err)
	assert.Equal(t, "a b", name)
}

func TestUnescapeInvalid(t *testing.T) {
	_, err := Config{}.Unescape("a%zz")
	assert.Error(t, err)
}

func TestMaybeEscape(t *testing.T) {
	decoding := Config{URLDecoding: true}
	assert.Equal(t, "a b/c", decoding.MaybeEscape("a b/c"))
	name, err := decoding.MaybeUnescape("a%20b")
	require.NoError(t, err)
	assert.Equal(t, "a%20b", name)

	plain := Config{}
	assert.Equal(t, "a%20b%2Fc", plain.MaybeEscape("a b/c"))
	name, err = plain.MaybeUnescape("a%20b")
	require.NoError(t, err)
	assert.Equal(t, "a b", name)
}

func TestPaths(t *testing.T) {
	cfg := Config{}
	assert.Equal(t, "/buckets/my%20bucket/keys/a%2Fb", cfg.ObjectPath("my bucket", "a/b"))
	assert.Equal(t, "/buckets/foo/index/asdf_bin/aaaa", cfg.IndexPath("foo", "asdf_bin", "aaaa"))
	assert.Equal(t, "/buckets/foo/index/asdf_int/1/5", cfg.IndexPath("foo", "asdf_int", "1", "5"))
}

func TestParseEscaper(t *testing.T) {
	e, err := ParseEscaper("URI")
	require.NoError(t, err)
	assert.Equal(t, EscaperURI, e)

	e, err = ParseEscaper(" cgi ")
	require.NoError(t, err)
	assert.Equal(t, EscaperCGI, e)
	assert.Equal(t, "cgi", e.String())

	_, err = ParseEscaper("base64")
	assert.Error(t, err)
}
