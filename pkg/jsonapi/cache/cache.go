// Package cache defines the storage used by resolvers to keep hydrated
// documents, keyed by the endpoint they were fetched from.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrNotFound = errors.New("cache: not found")

type Cache interface {
	// Get returns the cleaned document stored for endpoint, or ErrNotFound
	Get(ctx context.Context, endpoint string) (map[string]any, error)
	Set(ctx context.Context, endpoint string, document map[string]any) error
	// Snapshot returns every cached document keyed by endpoint
	Snapshot(ctx context.Context) (map[string]map[string]any, error)
	Close() error
}

type entry struct {
	document  map[string]any
	fetchedAt time.Time
}

// Memory is an in-process Cache
type Memory struct {
	mu        sync.RWMutex
	documents map[string]entry
	ttl       time.Duration
	now       func() time.Time
}

// ExpireAfter makes documents older than ttl count as missing. A zero ttl keeps them forever.
func ExpireAfter(ttl time.Duration) func(*Memory) {
	return func(m *Memory) {
		m.ttl = max(ttl, 0)
	}
}

func NewMemory(options ...func(*Memory)) *Memory {
	m := &Memory{
		documents: map[string]entry{},
		now:       time.Now,
	}

	for _, option := range options {
		option(m)
	}

	return m
}

func (m *Memory) Get(_ context.Context, endpoint string) (map[string]any, error) {
	m.mu.RLock()
	e, ok := m.documents[endpoint]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}

	if m.expired(e) {
		m.mu.Lock()
		if current, ok := m.documents[endpoint]; ok && m.expired(current) {
			delete(m.documents, endpoint)
		}
		m.mu.Unlock()

		return nil, ErrNotFound
	}

	return e.document, nil
}

func (m *Memory) Set(_ context.Context, endpoint string, document map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.documents[endpoint] = entry{document: document, fetchedAt: m.now()}
	return nil
}

func (m *Memory) Snapshot(_ context.Context) (map[string]map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := make(map[string]map[string]any, len(m.documents))
	for endpoint, e := range m.documents {
		if !m.expired(e) {
			snapshot[endpoint] = e.document
		}
	}

	return snapshot, nil
}

func (m *Memory) Close() error {
	return nil
}

func (m *Memory) expired(e entry) bool {
	return m.ttl > 0 && m.now().Sub(e.fetchedAt) > m.ttl
}
