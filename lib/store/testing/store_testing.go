package testing

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/dIndex/lib/cell"
	"github.com/ValentinKolb/dIndex/lib/index"
	"github.com/ValentinKolb/dIndex/lib/store"
)

// StoreFactory is a function that creates a new, empty instance of an IStore implementation
type StoreFactory func() store.IStore

// RunStoreTests runs a comprehensive test suite for an IStore implementation.
func RunStoreTests(t *testing.T, name string, factory StoreFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Put&Fetch", func(t *testing.T) {
			testPutFetch(t, factory())
		})

		t.Run("PutAssignsKey", func(t *testing.T) {
			testPutAssignsKey(t, factory())
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory())
		})

		t.Run("ExactQuery", func(t *testing.T) {
			testExactQuery(t, factory())
		})

		t.Run("RangeQuery", func(t *testing.T) {
			testRangeQuery(t, factory())
		})

		t.Run("ReturnTerms", func(t *testing.T) {
			testReturnTerms(t, factory())
		})

		t.Run("Pagination", func(t *testing.T) {
			testPagination(t, factory())
		})

		t.Run("Streaming", func(t *testing.T) {
			testStreaming(t, factory())
		})

		t.Run("Values", func(t *testing.T) {
			testValues(t, factory())
		})

		t.Run("TermValidation", func(t *testing.T) {
			testTermValidation(t, factory())
		})

		t.Run("Rows", func(t *testing.T) {
			testRows(t, factory())
		})

		t.Run("ConcurrentPuts", func(t *testing.T) {
			testConcurrentPuts(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func mustPut(t *testing.T, s store.IStore, bucket, key, value string, entries ...store.IndexEntry) string {
	t.Helper()
	key, err := s.Put(bucket, key, []byte(value), entries)
	if err != nil {
		t.Fatalf("Put(%s/%s) failed: %v", bucket, key, err)
	}
	return key
}

func mustKeys(t *testing.T, q *index.Query) *index.Collection {
	t.Helper()
	keys, err := q.Keys()
	if err != nil {
		t.Fatalf("Keys() for %s failed: %v", q, err)
	}
	return keys
}

func expectKeys(t *testing.T, c *index.Collection, expected ...string) {
	t.Helper()
	if !slices.Equal(c.Keys, expected) {
		t.Errorf("Expected keys %v, got %v", expected, c.Keys)
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testPutFetch(t *testing.T, s store.IStore) {
	mustPut(t, s, "foo", "k1", "value1")

	value, err := s.FetchValue("foo", "k1", index.FetchOptions{})
	if err != nil {
		t.Fatalf("FetchValue failed: %v", err)
	}
	if !bytes.Equal(value, []byte("value1")) {
		t.Errorf("Expected value %s, got %s", "value1", value)
	}

	mustPut(t, s, "foo", "k1", "value2")
	value, _ = s.FetchValue("foo", "k1", index.FetchOptions{})
	if !bytes.Equal(value, []byte("value2")) {
		t.Errorf("Expected value %s after overwrite, got %s", "value2", value)
	}

	// same key in another bucket is another object
	if _, err := s.FetchValue("bar", "k1", index.FetchOptions{}); !store.IsNotFound(err) {
		t.Errorf("Expected not found error for other bucket, got %v", err)
	}

	value, err = s.FetchValue("foo", "missing", index.FetchOptions{IgnoreMissing: true})
	if err != nil || value != nil {
		t.Errorf("Expected nil value without error for ignored missing key, got %v, %v", value, err)
	}
}

func testPutAssignsKey(t *testing.T, s store.IStore) {
	key1 := mustPut(t, s, "foo", "", "a")
	key2 := mustPut(t, s, "foo", "", "b")

	if key1 == "" || key2 == "" {
		t.Fatalf("Expected assigned keys, got %q and %q", key1, key2)
	}
	if key1 == key2 {
		t.Errorf("Expected distinct keys, got %q twice", key1)
	}

	value, err := s.FetchValue("foo", key2, index.FetchOptions{})
	if err != nil || string(value) != "b" {
		t.Errorf("Expected value b for assigned key, got %s, %v", value, err)
	}
}

func testDelete(t *testing.T, s store.IStore) {
	mustPut(t, s, "foo", "k1", "v", store.IndexEntry{Name: "color_bin", Term: "red"})

	if err := s.Delete("foo", "k1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.FetchValue("foo", "k1", index.FetchOptions{}); !store.IsNotFound(err) {
		t.Errorf("Expected not found error after delete, got %v", err)
	}

	keys := mustKeys(t, index.NewQuery(s, "foo", "color_bin", index.Exact("red"), index.Options{}))
	expectKeys(t, keys)

	// deleting twice is fine
	if err := s.Delete("foo", "k1"); err != nil {
		t.Errorf("Expected no error deleting a missing key, got %v", err)
	}
}

func testExactQuery(t *testing.T, s store.IStore) {
	mustPut(t, s, "foo", "k1", "v", store.IndexEntry{Name: "color_bin", Term: "red"})
	mustPut(t, s, "foo", "k2", "v", store.IndexEntry{Name: "color_bin", Term: "blue"})
	mustPut(t, s, "foo", "k3", "v", store.IndexEntry{Name: "color_bin", Term: "red"})
	mustPut(t, s, "other", "k4", "v", store.IndexEntry{Name: "color_bin", Term: "red"})

	keys := mustKeys(t, index.NewQuery(s, "foo", "color_bin", index.Exact("red"), index.Options{}))
	expectKeys(t, keys, "k1", "k3")
	if keys.HasMore() {
		t.Errorf("Expected no continuation, got %q", keys.Continuation)
	}

	// re-indexing moves the key
	mustPut(t, s, "foo", "k1", "v", store.IndexEntry{Name: "color_bin", Term: "blue"})
	keys = mustKeys(t, index.NewQuery(s, "foo", "color_bin", index.Exact("blue"), index.Options{}))
	expectKeys(t, keys, "k1", "k2")
	keys = mustKeys(t, index.NewQuery(s, "foo", "color_bin", index.Exact("red"), index.Options{}))
	expectKeys(t, keys, "k3")
}

func testRangeQuery(t *testing.T, s store.IStore) {
	for i := 1; i <= 10; i++ {
		mustPut(t, s, "foo", fmt.Sprintf("k%02d", i), "v", store.IndexEntry{Name: "age_int", Term: i * 10})
	}

	keys := mustKeys(t, index.NewQuery(s, "foo", "age_int", index.Range(25, 60), index.Options{}))
	expectKeys(t, keys, "k03", "k04", "k05", "k06")

	// bounds are inclusive
	keys = mustKeys(t, index.NewQuery(s, "foo", "age_int", index.Range(10, 20), index.Options{}))
	expectKeys(t, keys, "k01", "k02")

	// integers are compared numerically, not lexicographically
	keys = mustKeys(t, index.NewQuery(s, "foo", "age_int", index.Range(90, 1000), index.Options{}))
	expectKeys(t, keys, "k09", "k10")

	keys = mustKeys(t, index.NewQuery(s, "foo", "age_int", index.Range(60, 25), index.Options{}))
	expectKeys(t, keys)
}

func testReturnTerms(t *testing.T, s store.IStore) {
	mustPut(t, s, "foo", "aaaa", "v", store.IndexEntry{Name: "asdf_bin", Term: "aaaa"})
	mustPut(t, s, "foo", "bbbb", "v", store.IndexEntry{Name: "asdf_bin", Term: "bbbb"})
	mustPut(t, s, "foo", "bbbb2", "v", store.IndexEntry{Name: "asdf_bin", Term: "bbbb"})

	q := index.NewQuery(s, "foo", "asdf_bin", index.Range("aaaa", "zzzz"), index.Options{ReturnTerms: true})
	keys := mustKeys(t, q)
	expectKeys(t, keys, "aaaa", "bbbb", "bbbb2")

	terms := keys.Terms()
	if len(terms) != 2 || !slices.Equal(terms["aaaa"], []string{"aaaa"}) || !slices.Equal(terms["bbbb"], []string{"bbbb", "bbbb2"}) {
		t.Errorf("Expected terms {aaaa:[aaaa] bbbb:[bbbb bbbb2]}, got %v", terms)
	}

	// integer terms are returned in their decimal representation
	mustPut(t, s, "foo", "n1", "v", store.IndexEntry{Name: "num_int", Term: 7})
	keys = mustKeys(t, index.NewQuery(s, "foo", "num_int", index.Exact(7), index.Options{ReturnTerms: true}))
	if !slices.Equal(keys.Terms()["7"], []string{"n1"}) {
		t.Errorf("Expected term 7 to map to [n1], got %v", keys.Terms())
	}

	// interleaved terms keep the scan order of their keys
	mustPut(t, s, "foo", "m1", "v", store.IndexEntry{Name: "mixed", Term: 10})
	mustPut(t, s, "foo", "m2", "v", store.IndexEntry{Name: "mixed", Term: 20})
	mustPut(t, s, "foo", "m3", "v", store.IndexEntry{Name: "mixed", Term: "10"})
	keys = mustKeys(t, index.NewQuery(s, "foo", "mixed", index.Range(10, "10"), index.Options{ReturnTerms: true}))
	expectKeys(t, keys, "m1", "m2", "m3")
	expected := []index.TermKey{{Term: "10", Key: "m1"}, {Term: "20", Key: "m2"}, {Term: `"10"`, Key: "m3"}}
	if !slices.Equal(keys.Results(), expected) {
		t.Errorf("Expected results %v, got %v", expected, keys.Results())
	}
}

func testPagination(t *testing.T, s store.IStore) {
	all := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for _, key := range all {
		// two keys share every term to page through equal terms
		mustPut(t, s, "foo", key, "v", store.IndexEntry{Name: "group_bin", Term: "t" + string(rune('0'+(key[0]-'a')/2))})
	}

	q := index.NewQuery(s, "foo", "group_bin", index.Range("t0", "t9"), index.Options{MaxResults: 3})
	first := mustKeys(t, q)
	expectKeys(t, first, "a", "b", "c")
	if !first.HasMore() {
		t.Fatalf("Expected continuation after first page")
	}

	next, err := q.NextPage()
	if err != nil {
		t.Fatalf("NextPage failed: %v", err)
	}
	if next.Options().MaxResults != 3 || next.Options().Continuation != first.Continuation {
		t.Errorf("Expected next page options to carry max results and continuation, got %s", next.Options())
	}
	expectKeys(t, mustKeys(t, next), "d", "e", "f")

	var collected []string
	pages := 0
	err = q.Pages(func(page *index.Collection) error {
		pages++
		collected = append(collected, page.Keys...)
		return nil
	})
	if err != nil {
		t.Fatalf("Pages failed: %v", err)
	}
	if !slices.Equal(collected, all) || pages != 3 {
		t.Errorf("Expected %v in 3 pages, got %v in %d pages", all, collected, pages)
	}

	// exactly max results left, no empty trailing page
	q = index.NewQuery(s, "foo", "group_bin", index.Range("t0", "t9"), index.Options{MaxResults: 4})
	expectKeys(t, mustKeys(t, q), "a", "b", "c", "d")
	next, _ = q.NextPage()
	last := mustKeys(t, next)
	expectKeys(t, last, "e", "f", "g", "h")
	if _, err := next.NextPage(); !errors.Is(err, index.ErrNoMoreResults) {
		t.Errorf("Expected ErrNoMoreResults after last page, got %v", err)
	}

	q = index.NewQuery(s, "foo", "group_bin", index.Exact("t0"), index.Options{Continuation: "not a token"})
	if _, err := q.Keys(); store.CodeOf(err) != store.RetCInvalidOperation {
		t.Errorf("Expected invalid operation for a malformed continuation, got %v", err)
	}
}

func testStreaming(t *testing.T, s store.IStore) {
	var expected []string
	for i := 0; i < 25; i++ {
		key := fmt.Sprintf("k%02d", i)
		expected = append(expected, key)
		mustPut(t, s, "foo", key, "v", store.IndexEntry{Name: "n_int", Term: i})
	}

	q := index.NewQuery(s, "foo", "n_int", index.Range(0, 100), index.Options{Stream: true})
	var streamed []string
	if err := q.Stream(func(key string) { streamed = append(streamed, key) }); err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	if !slices.Equal(streamed, expected) {
		t.Errorf("Expected streamed keys %v, got %v", expected, streamed)
	}

	streamed = nil
	q = index.NewQuery(s, "foo", "n_int", index.Range(100, 200), index.Options{Stream: true})
	if err := q.Stream(func(key string) { streamed = append(streamed, key) }); err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	if len(streamed) != 0 {
		t.Errorf("Expected no streamed keys, got %v", streamed)
	}
}

func testValues(t *testing.T, s store.IStore) {
	mustPut(t, s, "foo", "abcd", "value-abcd", store.IndexEntry{Name: "asdf_bin", Term: "abcd"})
	mustPut(t, s, "foo", "efgh", "value-efgh", store.IndexEntry{Name: "asdf_bin", Term: "efgh"})

	values, err := index.NewQuery(s, "foo", "asdf_bin", index.Range("aaaa", "zzzz"), index.Options{}).Values(index.FetchOptions{})
	if err != nil {
		t.Fatalf("Values failed: %v", err)
	}
	if len(values) != 2 || string(values[0]) != "value-abcd" || string(values[1]) != "value-efgh" {
		t.Errorf("Expected [value-abcd value-efgh], got %q", values)
	}
}

func testTermValidation(t *testing.T, s store.IStore) {
	if _, err := s.Put("foo", "k1", nil, []store.IndexEntry{{Name: "age_int", Term: "old"}}); store.CodeOf(err) != store.RetCInvalidOperation {
		t.Errorf("Expected invalid operation for string term on integer index, got %v", err)
	}
	if _, err := s.Put("foo", "k1", nil, []store.IndexEntry{{Name: "name_bin", Term: 5}}); store.CodeOf(err) != store.RetCInvalidOperation {
		t.Errorf("Expected invalid operation for integer term on binary index, got %v", err)
	}
	// a rejected put leaves no object behind
	if _, err := s.FetchValue("foo", "k1", index.FetchOptions{}); !store.IsNotFound(err) {
		t.Errorf("Expected rejected object to be absent, got %v", err)
	}

	_, err := index.NewQuery(s, "foo", "age_int", index.Range("a", "z"), index.Options{}).Keys()
	if store.CodeOf(err) != store.RetCInvalidOperation {
		t.Errorf("Expected invalid operation for string range on integer index, got %v", err)
	}

	// untyped index names accept both, integers sort first
	mustPut(t, s, "foo", "s", "v", store.IndexEntry{Name: "mixed", Term: "1"})
	mustPut(t, s, "foo", "i", "v", store.IndexEntry{Name: "mixed", Term: 1})
	keys := mustKeys(t, index.NewQuery(s, "foo", "mixed", index.Range(0, "z"), index.Options{}))
	expectKeys(t, keys, "i", "s")
}

func testRows(t *testing.T, s store.IStore) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 123_000_000, time.UTC)
	row, err := cell.EncodeRow([]any{"sensor-1", int64(42), 21.5, ts, false, nil})
	if err != nil {
		t.Fatalf("EncodeRow failed: %v", err)
	}

	if err := s.PutRow("weather", "r1", row); err != nil {
		t.Fatalf("PutRow failed: %v", err)
	}

	loaded, ok, err := s.GetRow("weather", "r1")
	if err != nil || !ok {
		t.Fatalf("Expected row to exist, got ok=%v err=%v", ok, err)
	}
	values, err := cell.DecodeRow(loaded)
	if err != nil {
		t.Fatalf("DecodeRow failed: %v", err)
	}
	if len(values) != 6 {
		t.Fatalf("Expected 6 values, got %d", len(values))
	}
	if values[0] != "sensor-1" || values[1] != int64(42) || values[2] != 21.5 || values[4] != false || values[5] != nil {
		t.Errorf("Unexpected row values %v", values)
	}
	if decoded, ok := values[3].(time.Time); !ok || !decoded.Equal(ts) {
		t.Errorf("Expected timestamp %v, got %v", ts, values[3])
	}

	if _, ok, err := s.GetRow("weather", "missing"); ok || err != nil {
		t.Errorf("Expected missing row, got ok=%v err=%v", ok, err)
	}
}

func testConcurrentPuts(t *testing.T, s store.IStore) {
	const workers = 8
	const perWorker = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				key := fmt.Sprintf("w%d-%03d", w, i)
				if _, err := s.Put("foo", key, []byte(key), []store.IndexEntry{{Name: "worker_int", Term: w}}); err != nil {
					t.Errorf("Put failed: %v", err)
				}
			}
		}(w)
	}
	wg.Wait()

	keys := mustKeys(t, index.NewQuery(s, "foo", "worker_int", index.Range(0, workers), index.Options{}))
	if keys.Len() != workers*perWorker {
		t.Errorf("Expected %d keys, got %d", workers*perWorker, keys.Len())
	}
	keys = mustKeys(t, index.NewQuery(s, "foo", "worker_int", index.Exact(3), index.Options{}))
	if keys.Len() != perWorker {
		t.Errorf("Expected %d keys for worker 3, got %d", perWorker, keys.Len())
	}
}
