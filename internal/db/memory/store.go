// Package memory provides an in-memory db.Store with exact brute-force
// vector search. It mirrors the Redis backend's semantics record for record
// and is the reference implementation used in unit tests and as the zero
// dependency local driver.
package memory

import (
	"context"
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/citeworthy/paperdex/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Store is a mutex-guarded in-memory implementation of db.Store.
type Store struct {
	mu      sync.RWMutex
	hashes  map[string]map[string]string
	sets    map[string]map[string]struct{}
	kv      map[string][]byte
	indexes map[string]*db.IndexDefinition
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		hashes:  make(map[string]map[string]string),
		sets:    make(map[string]map[string]struct{}),
		kv:      make(map[string][]byte),
		indexes: make(map[string]*db.IndexDefinition),
	}
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// WaitForReady always succeeds immediately.
func (s *Store) WaitForReady(_ context.Context, _ time.Duration) error { return nil }

// --- HashStore ---

// HSet sets hash fields.
func (s *Store) HSet(_ context.Context, key string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hashes[key]
	if !ok {
		h = make(map[string]string, len(fields))
		s.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

// HSetMulti stores multiple hashes.
func (s *Store) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	for _, item := range items {
		if err := s.HSet(ctx, item.Key, item.Fields); err != nil {
			return err
		}
	}
	return nil
}

// HGetAll returns a copy of all fields of a hash. A missing key yields an
// empty map, matching Redis HGETALL.
func (s *Store) HGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.hashes[key]))
	for k, v := range s.hashes[key] {
		out[k] = v
	}
	return out, nil
}

// HGetAllMulti fetches all fields for multiple hashes.
func (s *Store) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	out := make([]map[string]string, len(keys))
	for i, key := range keys {
		m, err := s.HGetAll(ctx, key)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

// Del deletes a key from every namespace.
func (s *Store) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.hashes, key)
	delete(s.sets, key)
	delete(s.kv, key)
	return nil
}

// Exists checks if a key exists.
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.hashes[key]; ok {
		return true, nil
	}
	if _, ok := s.sets[key]; ok {
		return true, nil
	}
	_, ok := s.kv[key]
	return ok, nil
}

// --- SetStore ---

// SAdd adds members to a set.
func (s *Store) SAdd(_ context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[key]
	if !ok {
		set = make(map[string]struct{}, len(members))
		s.sets[key] = set
	}
	for _, m := range members {
		set[m] = struct{}{}
	}
	return nil
}

// SRem removes members from a set.
func (s *Store) SRem(_ context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range members {
		delete(s.sets[key], m)
	}
	return nil
}

// SMembers returns all members of a set, ascending for determinism.
func (s *Store) SMembers(_ context.Context, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	members := make([]string, 0, len(s.sets[key]))
	for m := range s.sets[key] {
		members = append(members, m)
	}
	sort.Strings(members)
	return members, nil
}

// --- KVStore ---

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.kv[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set stores a value at the given key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	s.kv[key] = v
	return nil
}

// SetWithTTL stores a value; the TTL is ignored (the in-memory store is
// process-scoped and short-lived).
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, _ time.Duration) error {
	return s.Set(ctx, key, value)
}

// --- IndexManager ---

// CreateIndex registers an index definition.
func (s *Store) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indexes[def.Name]; ok {
		return db.ErrIndexExists
	}
	s.indexes[def.Name] = def
	return nil
}

// DropIndex removes an index definition.
func (s *Store) DropIndex(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indexes[name]; !ok {
		return db.ErrIndexNotFound
	}
	delete(s.indexes, name)
	return nil
}

// IndexExists checks whether an index definition is registered.
func (s *Store) IndexExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.indexes[name]
	return ok, nil
}

// --- Searcher ---

// SearchKNN performs an exact brute-force distance scan over the indexed
// records: filter first, rank by ascending distance, ties broken by paper
// id ascending.
func (s *Store) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.indexes[q.IndexName]
	if !ok {
		return nil, db.ErrIndexNotFound
	}
	vf, ok := def.VectorField()
	if !ok {
		return nil, &db.Error{Op: db.OpSearch, Err: errNoVectorField}
	}

	exclude := make(map[string]struct{}, len(q.ExcludeIDs))
	for _, id := range q.ExcludeIDs {
		exclude[id] = struct{}{}
	}

	var entries []db.SearchEntry
	for key, fields := range s.hashes {
		if !matchesPrefix(key, def.Prefixes) {
			continue
		}
		if _, skip := exclude[fields[db.FieldID]]; skip {
			continue
		}
		if !matchesFilter(fields, q.Cutoff, q.Categories) {
			continue
		}
		raw, ok := fields[db.FieldVector]
		if !ok || raw == "" {
			continue
		}
		vec := db.VectorFromBytes(raw)
		if len(vec) != len(q.Vector) {
			continue
		}
		entries = append(entries, db.SearchEntry{
			Key:      key,
			Distance: distance(vf.VectorDistance, q.Vector, vec),
			Fields:   projectFields(fields, q.ReturnFields),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Distance != entries[j].Distance {
			return entries[i].Distance < entries[j].Distance
		}
		return entries[i].Key < entries[j].Key
	})

	total := len(entries)
	if len(entries) > q.K {
		entries = entries[:q.K]
	}

	return &db.SearchResult{Total: total, Entries: entries}, nil
}

// SearchText performs a case-insensitive substring match over the title
// field, ordered by published date descending, ties by paper id ascending.
func (s *Store) SearchText(_ context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.indexes[q.IndexName]
	if !ok {
		return nil, db.ErrIndexNotFound
	}

	term := strings.ToLower(q.Term)

	var entries []db.SearchEntry
	for key, fields := range s.hashes {
		if !matchesPrefix(key, def.Prefixes) {
			continue
		}
		if !strings.Contains(strings.ToLower(fields[db.FieldTitle]), term) {
			continue
		}
		if !matchesFilter(fields, q.Cutoff, q.Categories) {
			continue
		}
		entries = append(entries, db.SearchEntry{
			Key:    key,
			Fields: projectFields(fields, q.ReturnFields),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		pi := publishedOf(entries[i].Fields)
		pj := publishedOf(entries[j].Fields)
		if pi != pj {
			return pi > pj
		}
		return entries[i].Key < entries[j].Key
	})

	total := len(entries)
	if len(entries) > q.Limit {
		entries = entries[:q.Limit]
	}

	return &db.SearchResult{Total: total, Entries: entries}, nil
}

// --- helpers ---

var errNoVectorField = errors.New("index has no vector field")

func matchesPrefix(key string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

func matchesFilter(fields map[string]string, cutoff time.Time, categories []string) bool {
	if !cutoff.IsZero() {
		if publishedOf(fields) < cutoff.Unix() {
			return false
		}
	}
	if len(categories) == 0 {
		return true
	}
	have := strings.Split(fields[db.FieldCategories], db.CategorySeparator)
	for _, want := range categories {
		for _, c := range have {
			if c == want {
				return true
			}
		}
	}
	return false
}

func publishedOf(fields map[string]string) int64 {
	n, err := strconv.ParseInt(fields[db.FieldPublished], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func projectFields(fields map[string]string, returnFields []string) map[string]string {
	if len(returnFields) == 0 {
		returnFields = []string{
			db.FieldID, db.FieldTitle, db.FieldAbstract, db.FieldAuthors,
			db.FieldCategories, db.FieldPublished, db.FieldUpdated,
		}
	}
	out := make(map[string]string, len(returnFields))
	for _, f := range returnFields {
		if v, ok := fields[f]; ok {
			out[f] = v
		}
	}
	return out
}

func distance(metric db.DistanceMetric, a, b []float32) float64 {
	switch metric {
	case db.DistanceL2:
		var sum float64
		for i := range a {
			d := float64(a[i]) - float64(b[i])
			sum += d * d
		}
		return math.Sqrt(sum)
	default: // cosine distance
		var dot, na, nb float64
		for i := range a {
			dot += float64(a[i]) * float64(b[i])
			na += float64(a[i]) * float64(a[i])
			nb += float64(b[i]) * float64(b[i])
		}
		if na == 0 || nb == 0 {
			return 1
		}
		return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
	}
}
