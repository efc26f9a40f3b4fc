package memstore

import (
	"encoding/base64"
	"encoding/binary"
	"math/big"
	"strconv"
	"strings"

	"github.com/ValentinKolb/dIndex/lib/cell"
	"github.com/ValentinKolb/dIndex/lib/store"
)

// --------------------------------------------------------------------------
// Terms
// --------------------------------------------------------------------------

// term is a normalized index term. Integer terms sort before string terms.
type term struct {
	isInt bool
	i     int64
	s     string
}

func (t term) less(other term) bool {
	if t.isInt != other.isInt {
		return t.isInt
	}
	if t.isInt {
		return t.i < other.i
	}
	return t.s < other.s
}

func (t term) equal(other term) bool {
	return t.isInt == other.isInt && t.i == other.i && t.s == other.s
}

// render returns the term as it appears in term/key results.
// Typed indexes hold one kind of term and render it plainly. On untyped indexes a
// string that reads like an integer (or starts with a quote) is rendered quoted,
// so the string "10" and the integer 10 stay distinct terms.
func (t term) render(indexName string) string {
	if t.isInt {
		return strconv.FormatInt(t.i, 10)
	}
	if strings.HasSuffix(indexName, "_bin") || !ambiguous(t.s) {
		return t.s
	}
	return strconv.Quote(t.s)
}

// ambiguous reports whether s could be mistaken for a rendered integer or quoted term
func ambiguous(s string) bool {
	if strings.HasPrefix(s, `"`) {
		return true
	}
	i, err := strconv.ParseInt(s, 10, 64)
	return err == nil && strconv.FormatInt(i, 10) == s
}

func (t term) cell() cell.Cell {
	if t.isInt {
		return cell.Integer(t.i)
	}
	return cell.Binary([]byte(t.s))
}

// normalizeTerm converts a scalar into a term and checks it against the index type
func normalizeTerm(indexName string, v any) (term, error) {
	var t term
	switch x := v.(type) {
	case string:
		t = term{s: x}
	case []byte:
		t = term{s: string(x)}
	case int:
		t = term{isInt: true, i: int64(x)}
	case int8:
		t = term{isInt: true, i: int64(x)}
	case int16:
		t = term{isInt: true, i: int64(x)}
	case int32:
		t = term{isInt: true, i: int64(x)}
	case int64:
		t = term{isInt: true, i: x}
	case uint8:
		t = term{isInt: true, i: int64(x)}
	case uint16:
		t = term{isInt: true, i: int64(x)}
	case uint32:
		t = term{isInt: true, i: int64(x)}
	case *big.Int:
		if x == nil || !x.IsInt64() {
			return term{}, store.Errorf(store.RetCInvalidOperation, "term %v of index %s is out of range", v, indexName)
		}
		t = term{isInt: true, i: x.Int64()}
	default:
		return term{}, store.Errorf(store.RetCInvalidOperation, "term %v (%T) of index %s is not a string or integer", v, v, indexName)
	}

	switch {
	case strings.HasSuffix(indexName, "_int") && !t.isInt:
		return term{}, store.Errorf(store.RetCInvalidOperation, "index %s requires integer terms, got %q", indexName, t.s)
	case strings.HasSuffix(indexName, "_bin") && t.isInt:
		return term{}, store.Errorf(store.RetCInvalidOperation, "index %s requires string terms, got %d", indexName, t.i)
	}
	return t, nil
}

// --------------------------------------------------------------------------
// Index Items
// --------------------------------------------------------------------------

// item is one entry of the ordered index, sorted by bucket, index, term and key
type item struct {
	bucket string
	index  string
	term   term
	key    string
}

func lessItem(a, b item) bool {
	if a.bucket != b.bucket {
		return a.bucket < b.bucket
	}
	if a.index != b.index {
		return a.index < b.index
	}
	if !a.term.equal(b.term) {
		return a.term.less(b.term)
	}
	return a.key < b.key
}

// --------------------------------------------------------------------------
// Continuation Tokens
// --------------------------------------------------------------------------

// encodeContinuation encodes the position of the last returned item.
// Format: term cell (cell wire format) | key length (4 bytes) | key, base64 url encoded.
func encodeContinuation(last item) string {
	c := last.term.cell()
	buf := make([]byte, c.Size()+4+len(last.key))
	offset := c.PutBinary(buf)
	binary.BigEndian.PutUint32(buf[offset:], uint32(len(last.key)))
	copy(buf[offset+4:], last.key)
	return base64.RawURLEncoding.EncodeToString(buf)
}

// decodeContinuation returns the (term, key) position encoded in token
func decodeContinuation(token string) (term, string, error) {
	invalid := store.Errorf(store.RetCInvalidOperation, "invalid continuation %q", token)

	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return term{}, "", invalid
	}

	var c cell.Cell
	n, err := c.ReadBinary(data)
	if err != nil {
		return term{}, "", invalid
	}
	data = data[n:]
	if len(data) < 4 {
		return term{}, "", invalid
	}
	keyLen := binary.BigEndian.Uint32(data)
	data = data[4:]
	if uint32(len(data)) != keyLen {
		return term{}, "", invalid
	}

	switch c.Tag() {
	case cell.TagInteger:
		return term{isInt: true, i: *c.IntegerValue}, string(data), nil
	case cell.TagBinary:
		return term{s: string(c.BinaryValue)}, string(data), nil
	default:
		return term{}, "", invalid
	}
}
