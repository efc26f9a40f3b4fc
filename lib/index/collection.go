package index

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// TermKey is a single result of a query that returns terms.
type TermKey struct {
	Term string `json:"term"`
	Key  string `json:"key"`
}

// Collection is the result of one index query (or one page of it).
// It behaves like the ordered sequence of matched keys and additionally exposes
// the matched terms (if requested) and the continuation token of the next page.
type Collection struct {
	// Keys contains all matched keys in response order, duplicates included
	Keys []string
	// Continuation is non-empty iff the server has more results
	Continuation string

	results   []TermKey
	terms     map[string][]string
	termOrder []string
}

// NewCollection builds a collection from a plain key list or, if results is not
// nil, from term/key results. In the latter case keys is ignored and derived from
// the results.
func NewCollection(keys []string, results []TermKey, continuation string) *Collection {
	c := &Collection{Continuation: continuation}

	if results == nil {
		c.Keys = append(make([]string, 0, len(keys)), keys...)
		return c
	}

	c.Keys = make([]string, 0, len(results))
	c.results = append(make([]TermKey, 0, len(results)), results...)
	c.terms = make(map[string][]string)
	for _, r := range results {
		c.Keys = append(c.Keys, r.Key)
		c.addTerm(r.Term, r.Key)
	}
	return c
}

// addTerm adds a key to the set of keys for term, keeping first-seen order
func (c *Collection) addTerm(term, key string) {
	keys, ok := c.terms[term]
	if !ok {
		c.termOrder = append(c.termOrder, term)
	}
	if slices.Contains(keys, key) {
		return
	}
	c.terms[term] = append(keys, key)
}

// --------------------------------------------------------------------------
// Parsing
// --------------------------------------------------------------------------

// collectionPayload is the json shape of an index response
type collectionPayload struct {
	Keys         []string                     `json:"keys"`
	Continuation string                       `json:"continuation,omitempty"`
	Results      []map[string]json.RawMessage `json:"results,omitempty"`
}

// ParseCollection parses a json index response of the form
//
//	{"keys": ["k1", ...], "continuation": "..."}
//	{"results": [{"term": "k1"}, ...], "continuation": "..."}
//
// Each result entry carries exactly one term/key pair.
// A payload with neither keys nor results fails with ErrMalformedResponse.
func ParseCollection(data []byte) (*Collection, error) {
	var payload collectionPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if payload.Results == nil {
		if payload.Keys == nil {
			return nil, fmt.Errorf("%w: neither keys nor results present", ErrMalformedResponse)
		}
		return NewCollection(payload.Keys, nil, payload.Continuation), nil
	}

	results := make([]TermKey, 0, len(payload.Results))
	for i, entry := range payload.Results {
		if len(entry) != 1 {
			return nil, fmt.Errorf("%w: result %d has %d entries, expected 1", ErrMalformedResponse, i, len(entry))
		}
		for term, raw := range entry {
			var key string
			if err := json.Unmarshal(raw, &key); err != nil {
				return nil, fmt.Errorf("%w: result %d: key is not a string", ErrMalformedResponse, i)
			}
			results = append(results, TermKey{Term: term, Key: key})
		}
	}
	return NewCollection(nil, results, payload.Continuation), nil
}

// MarshalJSON renders the collection in the format ParseCollection reads.
func (c *Collection) MarshalJSON() ([]byte, error) {
	if c.terms == nil {
		return json.Marshal(collectionPayload{Keys: c.keysOrEmpty(), Continuation: c.Continuation})
	}

	// results are written by hand, a map would lose the pair order
	var buf bytes.Buffer
	buf.WriteString(`{"results":[`)
	for i, tk := range c.results {
		if i > 0 {
			buf.WriteByte(',')
		}
		term, _ := json.Marshal(tk.Term)
		key, _ := json.Marshal(tk.Key)
		buf.WriteByte('{')
		buf.Write(term)
		buf.WriteByte(':')
		buf.Write(key)
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	if c.Continuation != "" {
		token, _ := json.Marshal(c.Continuation)
		buf.WriteString(`,"continuation":`)
		buf.Write(token)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// --------------------------------------------------------------------------
// Accessors
// --------------------------------------------------------------------------

// Len returns the number of keys.
func (c *Collection) Len() int {
	return len(c.Keys)
}

// HasTerms reports whether the collection carries matched terms.
func (c *Collection) HasTerms() bool {
	return c.terms != nil
}

// Terms returns the keys grouped by the term they matched under.
// It is nil unless terms were requested. The returned map must not be modified.
func (c *Collection) Terms() map[string][]string {
	return c.terms
}

// TermOrder returns the distinct terms in first-seen order.
func (c *Collection) TermOrder() []string {
	return c.termOrder
}

// Results returns the term/key pairs in response order, repeated pairs included.
// Its keys are exactly Keys. It is nil unless terms were requested.
func (c *Collection) Results() []TermKey {
	if c.terms == nil {
		return nil
	}
	return slices.Clone(c.results)
}

// HasMore reports whether a next page exists.
func (c *Collection) HasMore() bool {
	return c.Continuation != ""
}

// Equal compares the key sequences of two collections.
func (c *Collection) Equal(other *Collection) bool {
	if c == nil || other == nil {
		return c == other
	}
	return slices.Equal(c.Keys, other.Keys)
}

func (c *Collection) keysOrEmpty() []string {
	if c.Keys == nil {
		return []string{}
	}
	return c.Keys
}
