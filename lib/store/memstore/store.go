package memstore

import (
	"sync"

	"github.com/google/btree"
	"github.com/google/uuid"

	"github.com/ValentinKolb/dIndex/lib/cell"
	"github.com/ValentinKolb/dIndex/lib/index"
	"github.com/ValentinKolb/dIndex/lib/store"
)

// DefaultVersion is the server version reported by a store created without WithVersion.
const DefaultVersion = "2.0.0"

// btree degree, 32 is the value recommended by the btree package for in-memory use
const defaultDegree = 32

type object struct {
	value   []byte
	entries []item
}

type storeImpl struct {
	version string

	mu      sync.RWMutex
	objects map[string]map[string]*object // bucket -> key -> object
	index   *btree.BTreeG[item]
	rows    map[string]map[string][]cell.Cell // table -> key -> row
	numRows int
}

// Option configures a memory store.
type Option func(*storeImpl)

// WithVersion sets the server version the store reports. Stores reporting a version
// older than index.PaginationVersion reject pagination and return terms.
func WithVersion(version string) Option {
	return func(s *storeImpl) {
		s.version = version
	}
}

// NewMemStore creates a new in-memory store.
// All methods are safe for concurrent use.
func NewMemStore(opts ...Option) store.IStore {
	s := &storeImpl{
		version: DefaultVersion,
		objects: make(map[string]map[string]*object),
		index:   btree.NewG[item](defaultDegree, lessItem),
		rows:    make(map[string]map[string][]cell.Cell),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go and index/backend.go)
// --------------------------------------------------------------------------

func (s *storeImpl) QueryIndex(bucket, indexName string, criterion index.Criterion, opts index.Options) (*index.Collection, error) {
	items, continuation, err := s.scan(bucket, indexName, criterion, opts)
	if err != nil {
		return nil, err
	}

	if opts.ReturnTerms {
		results := make([]index.TermKey, 0, len(items))
		for _, it := range items {
			results = append(results, index.TermKey{Term: it.term.render(indexName), Key: it.key})
		}
		return index.NewCollection(nil, results, continuation), nil
	}

	keys := make([]string, 0, len(items))
	for _, it := range items {
		keys = append(keys, it.key)
	}
	return index.NewCollection(keys, nil, continuation), nil
}

func (s *storeImpl) StreamIndex(bucket, indexName string, criterion index.Criterion, opts index.Options, visit index.KeyVisitor) error {
	items, _, err := s.scan(bucket, indexName, criterion, opts)
	if err != nil {
		return err
	}
	// the lock is released here, so the visitor may call back into the store
	for _, it := range items {
		visit(it.key)
	}
	return nil
}

func (s *storeImpl) FetchValue(bucket, key string, opts index.FetchOptions) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[bucket][key]
	if !ok {
		if opts.IgnoreMissing {
			return nil, nil
		}
		return nil, store.Errorf(store.RetCNotFound, "object %s/%s not found", bucket, key)
	}
	return append(make([]byte, 0, len(obj.value)), obj.value...), nil
}

func (s *storeImpl) ServerVersion() (string, error) {
	return s.version, nil
}

func (s *storeImpl) Put(bucket, key string, value []byte, entries []store.IndexEntry) (string, error) {
	if bucket == "" {
		return "", store.NewError(store.RetCInvalidOperation, "bucket must not be empty")
	}
	if key == "" {
		key = uuid.NewString()
	}

	// validate all entries before anything is changed
	items := make([]item, 0, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			return "", store.NewError(store.RetCInvalidOperation, "index name must not be empty")
		}
		t, err := normalizeTerm(e.Name, e.Term)
		if err != nil {
			return "", err
		}
		items = append(items, item{bucket: bucket, index: e.Name, term: t, key: key})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bucketObjects, ok := s.objects[bucket]
	if !ok {
		bucketObjects = make(map[string]*object)
		s.objects[bucket] = bucketObjects
	}
	if old, ok := bucketObjects[key]; ok {
		for _, it := range old.entries {
			s.index.Delete(it)
		}
	}
	for _, it := range items {
		s.index.ReplaceOrInsert(it)
	}
	bucketObjects[key] = &object{
		value:   append(make([]byte, 0, len(value)), value...),
		entries: items,
	}
	return key, nil
}

func (s *storeImpl) Delete(bucket, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[bucket][key]
	if !ok {
		return nil
	}
	for _, it := range obj.entries {
		s.index.Delete(it)
	}
	delete(s.objects[bucket], key)
	if len(s.objects[bucket]) == 0 {
		delete(s.objects, bucket)
	}
	return nil
}

func (s *storeImpl) PutRow(table, key string, row []cell.Cell) error {
	if table == "" {
		return store.NewError(store.RetCInvalidOperation, "table must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tableRows, ok := s.rows[table]
	if !ok {
		tableRows = make(map[string][]cell.Cell)
		s.rows[table] = tableRows
	}
	if _, exists := tableRows[key]; !exists {
		s.numRows++
	}
	tableRows[key] = append(make([]cell.Cell, 0, len(row)), row...)
	return nil
}

func (s *storeImpl) GetRow(table, key string) ([]cell.Cell, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[table][key]
	if !ok {
		return nil, false, nil
	}
	return append(make([]cell.Cell, 0, len(row)), row...), true, nil
}

func (s *storeImpl) GetInfo() (store.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects := 0
	for _, bucketObjects := range s.objects {
		objects += len(bucketObjects)
	}
	return store.Info{
		Version:      s.version,
		Objects:      objects,
		IndexEntries: s.index.Len(),
		Rows:         s.numRows,
	}, nil
}

// --------------------------------------------------------------------------
// Index Scan
// --------------------------------------------------------------------------

// scan returns the matching index items of one page and the continuation of the
// next page ("" if this is the last page)
func (s *storeImpl) scan(bucket, indexName string, criterion index.Criterion, opts index.Options) ([]item, string, error) {
	if (opts.Paginated() || opts.ReturnTerms) && !index.SupportsPagination(s.version) {
		return nil, "", store.Errorf(store.RetCUnsupportedOperation,
			"server version %s does not support pagination or return terms (requires %s)", s.version, index.PaginationVersion)
	}
	if opts.MaxResults < 0 {
		return nil, "", store.Errorf(store.RetCInvalidOperation, "max results must not be negative, got %d", opts.MaxResults)
	}

	start, err := normalizeTerm(indexName, criterion.Start)
	if err != nil {
		return nil, "", err
	}
	end := start
	if criterion.IsRange() {
		if end, err = normalizeTerm(indexName, criterion.End); err != nil {
			return nil, "", err
		}
	}

	pivot := item{bucket: bucket, index: indexName, term: start}
	resume := false
	if opts.Continuation != "" {
		t, key, err := decodeContinuation(opts.Continuation)
		if err != nil {
			return nil, "", err
		}
		if lessItem(pivot, item{bucket: bucket, index: indexName, term: t, key: key}) {
			pivot = item{bucket: bucket, index: indexName, term: t, key: key}
			resume = true
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []item
	s.index.AscendGreaterOrEqual(pivot, func(it item) bool {
		if it.bucket != bucket || it.index != indexName || end.less(it.term) {
			return false
		}
		if resume && it == pivot {
			// the item the continuation points to was already returned
			return true
		}
		items = append(items, it)
		// one more than requested tells whether a next page exists
		return opts.MaxResults == 0 || len(items) <= opts.MaxResults
	})

	if opts.MaxResults > 0 && len(items) > opts.MaxResults {
		items = items[:opts.MaxResults]
		return items, encodeContinuation(items[len(items)-1]), nil
	}
	return items, "", nil
}
