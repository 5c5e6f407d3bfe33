package repository

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"
)

// MemoryStore implements PostStore in process memory.
// Uses sync.RWMutex for thread-safe concurrent access
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]memoryDoc
	seq  uint64           // insertion counter, breaks createdAt ties
	now  func() time.Time // server clock
}

type memoryDoc struct {
	fields    map[string]any
	createdAt time.Time
	seq       uint64
}

// NewMemoryStore creates an empty store stamped by the wall clock.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock creates an empty store stamped by now.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]memoryDoc),
		now:  now,
	}
}

// ListAll returns copies of every document, newest first.
// Equal timestamps fall back to insertion order, newest first.
func (m *MemoryStore) ListAll(ctx context.Context) ([]Document, error) {
	m.mu.RLock()
	type entry struct {
		id  string
		doc memoryDoc
	}
	entries := make([]entry, 0, len(m.docs))
	for id, d := range m.docs {
		entries = append(entries, entry{id: id, doc: d})
	}
	m.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].doc, entries[j].doc
		if !a.createdAt.Equal(b.createdAt) {
			return a.createdAt.After(b.createdAt)
		}
		return a.seq > b.seq
	})

	out := make([]Document, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.doc.document(e.id))
	}
	return out, nil
}

// GetByID returns a copy of the document so callers cannot mutate the store.
func (m *MemoryStore) GetByID(ctx context.Context, id string) (Document, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.docs[id]
	if !ok {
		return Document{}, false, nil
	}
	return d.document(id), true, nil
}

func (m *MemoryStore) Create(ctx context.Context, fields map[string]any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := newID()
	m.seq++
	m.docs[id] = memoryDoc{
		fields:    withoutReserved(fields),
		createdAt: m.now().UTC(),
		seq:       m.seq,
	}
	return id, nil
}

func (m *MemoryStore) UpdateByID(ctx context.Context, id string, fields map[string]any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.docs[id]
	if !ok {
		return false, nil
	}
	merged := maps.Clone(d.fields)
	maps.Copy(merged, withoutReserved(fields))
	d.fields = merged
	m.docs[id] = d
	return true, nil
}

func (m *MemoryStore) DeleteByID(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[id]; !ok {
		return false, nil
	}
	delete(m.docs, id)
	return true, nil
}

// Len returns the number of stored documents.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

func (d memoryDoc) document(id string) Document {
	createdAt := d.createdAt
	return Document{
		ID:        id,
		Fields:    maps.Clone(d.fields),
		CreatedAt: &createdAt,
	}
}
