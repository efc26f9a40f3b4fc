// Package index implements the client side of secondary index queries.
//
// A Query combines a bucket, an index name and a Criterion (an exact term or an
// inclusive range) with Options that control pagination, term return and
// streaming. The query itself does no I/O, it delegates every request to a
// Backend, which is either a local store (memstore) or the rpc client.
//
// Key Components:
//
//   - Query: Runs buffered (Keys), streaming (Stream) and value (Values) retrieval
//     and derives the query of the following page (NextPage, Pages).
//
//   - Collection: One page of results. It behaves as the ordered sequence of keys
//     and additionally exposes the matched terms and the continuation token.
//
//   - Backend: The contract a store has to fulfill to answer queries.
//
// Usage Example:
//
//	q := index.NewQuery(backend, "users", "email_bin", index.Range("a", "m"), index.Options{MaxResults: 100})
//	err := q.Pages(func(page *index.Collection) error {
//	  for _, key := range page.Keys {
//	    fmt.Println(key)
//	  }
//	  return nil
//	})
//
// Pagination and term return are only understood by servers of version
// PaginationVersion or newer. Checking this is left to the caller, see
// SupportsPagination.
package index
