package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

type memDoc struct {
	body    []byte
	version int64
}

// Memory is an in-process Store with optimistic concurrency. It backs the
// dev profile and the concurrency tests.
type Memory struct {
	mu   sync.RWMutex
	docs map[docKey]memDoc
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[docKey]memDoc)}
}

func (m *Memory) Get(ctx context.Context, collection, id string, dest any) error {
	m.mu.RLock()
	doc, ok := m.docs[docKey{collection, id}]
	m.mu.RUnlock()

	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(doc.body, dest)
}

func (m *Memory) Set(ctx context.Context, collection, id string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	k := docKey{collection, id}
	m.docs[k] = memDoc{body: body, version: m.docs[k].version + 1}
	return nil
}

func (m *Memory) RunTransaction(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memTx{
		store:  m,
		reads:  make(map[docKey]int64),
		writes: make(map[docKey][]byte),
	}
	if err := fn(tx); err != nil {
		return err
	}
	return m.commit(tx)
}

func (m *Memory) commit(tx *memTx) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// version 0 means "observed absent"
	for k, seen := range tx.reads {
		if m.docs[k].version != seen {
			return ErrConflict
		}
	}
	for k := range tx.writes {
		if _, read := tx.reads[k]; !read && m.docs[k].version != 0 {
			return ErrConflict
		}
	}

	for k, body := range tx.writes {
		m.docs[k] = memDoc{body: body, version: m.docs[k].version + 1}
	}
	return nil
}

type memTx struct {
	store  *Memory
	reads  map[docKey]int64
	writes map[docKey][]byte
}

func (t *memTx) Get(ctx context.Context, collection, id string, dest any) error {
	k := docKey{collection, id}
	if body, ok := t.writes[k]; ok {
		return json.Unmarshal(body, dest)
	}

	t.store.mu.RLock()
	doc, ok := t.store.docs[k]
	t.store.mu.RUnlock()

	if seen, tracked := t.reads[k]; tracked && seen != doc.version {
		return ErrConflict
	}
	t.reads[k] = doc.version

	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(doc.body, dest)
}

func (t *memTx) Set(collection, id string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	t.writes[docKey{collection, id}] = body
	return nil
}
