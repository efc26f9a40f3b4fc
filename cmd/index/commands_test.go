package index

import (
	"testing"

	"github.com/ValentinKolb/dIndex/lib/index"
	"github.com/ValentinKolb/dIndex/lib/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCriterion(t *testing.T) {
	c, err := parseCriterion("age_int", []string{"30"})
	require.NoError(t, err)
	assert.Equal(t, index.Exact(int64(30)), c)

	c, err = parseCriterion("name_bin", []string{"a", "m"})
	require.NoError(t, err)
	assert.Equal(t, index.Range("a", "m"), c)
	assert.True(t, c.IsRange())

	_, err = parseCriterion("age_int", []string{"10", "x"})
	assert.Error(t, err)
}

func TestParseIndexEntries(t *testing.T) {
	entries, err := parseIndexEntries([]string{"age_int=42", "name_bin=bob=smith"})
	require.NoError(t, err)
	assert.Equal(t, []store.IndexEntry{
		{Name: "age_int", Term: int64(42)},
		{Name: "name_bin", Term: "bob=smith"},
	}, entries)

	_, err = parseIndexEntries([]string{"noterm"})
	assert.Error(t, err)

	_, err = parseIndexEntries([]string{"=x"})
	assert.Error(t, err)
}
