package store

import (
	"context"
	"sync"

	"github.com/cespare/xxhash"
)

const memoryShards = 64

type memoryShard struct {
	sync.RWMutex
	scores map[string]int32
}

// MemoryStore is an in-process store split into independently locked
// shards so parallel search workers rarely contend.
type MemoryStore struct {
	shards [memoryShards]memoryShard
}

func NewMemoryStore() *MemoryStore {
	m := &MemoryStore{}
	for i := range m.shards {
		m.shards[i].scores = make(map[string]int32)
	}
	return m
}

func (m *MemoryStore) shard(key string) *memoryShard {
	return &m.shards[xxhash.Sum64String(key)&(memoryShards-1)]
}

func (m *MemoryStore) Get(_ context.Context, key string) (int32, bool, error) {
	s := m.shard(key)
	s.RLock()
	v, ok := s.scores[key]
	s.RUnlock()
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, score int32) error {
	s := m.shard(key)
	s.Lock()
	s.scores[key] = score
	s.Unlock()
	return nil
}

// Len returns the number of stored entries.
func (m *MemoryStore) Len() int {
	n := 0
	for i := range m.shards {
		m.shards[i].RLock()
		n += len(m.shards[i].scores)
		m.shards[i].RUnlock()
	}
	return n
}

func (m *MemoryStore) Close() error { return nil }
