// Package memstore implements store.IStore in memory.
//
// Objects are kept in a map per bucket. Index entries live in a single ordered
// btree (github.com/google/btree) sorted by bucket, index name, term and key, so
// exact and range queries are one ordered scan. Integer terms sort numerically and
// before string terms.
//
// Continuation tokens encode the position (term and key) of the last returned entry.
// A page is only followed by a continuation if at least one more entry exists.
// Tokens stay valid while the store changes: the next page starts after the encoded
// position, whatever was inserted or deleted in between.
package memstore
