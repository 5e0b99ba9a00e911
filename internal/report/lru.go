package report

import (
	"container/list"
	"sync"
)

// LRUStore keeps the most recently used records in memory and delegates
// to a backing Store for persistence and cache misses.
type LRUStore struct {
	mu    sync.Mutex
	cap   int
	back  Store
	order *list.List // front is most recent; values are *Record
	items map[string]*list.Element
}

// NewLRUStore creates an LRU cache with the given capacity in front of
// back. Capacity is clamped to at least 1.
func NewLRUStore(cap int, back Store) *LRUStore {
	if cap < 1 {
		cap = 1
	}
	return &LRUStore{
		cap:   cap,
		back:  back,
		order: list.New(),
		items: make(map[string]*list.Element, cap),
	}
}

// Save caches rec and writes it through to the backing store.
func (s *LRUStore) Save(rec *Record) error {
	s.mu.Lock()
	s.put(rec)
	s.mu.Unlock()

	return s.back.Save(rec)
}

// Load returns the cached record or loads and caches it from the backing
// store.
func (s *LRUStore) Load(runID string) (*Record, error) {
	s.mu.Lock()
	if e, ok := s.items[runID]; ok {
		s.order.MoveToFront(e)
		rec := e.Value.(*Record)
		s.mu.Unlock()
		return rec, nil
	}
	s.mu.Unlock()

	rec, err := s.back.Load(runID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.put(rec)
	s.mu.Unlock()
	return rec, nil
}

// Recent returns up to n cached records, most recent first.
func (s *LRUStore) Recent(n int) []*Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Record, 0, min(n, s.order.Len()))
	for e := s.order.Front(); e != nil && len(out) < n; e = e.Next() {
		out = append(out, e.Value.(*Record))
	}
	return out
}

// put must be called with s.mu held.
func (s *LRUStore) put(rec *Record) {
	if e, ok := s.items[rec.ID]; ok {
		e.Value = rec
		s.order.MoveToFront(e)
		return
	}
	s.items[rec.ID] = s.order.PushFront(rec)
	if s.order.Len() > s.cap {
		last := s.order.Back()
		s.order.Remove(last)
		delete(s.items, last.Value.(*Record).ID)
	}
}
