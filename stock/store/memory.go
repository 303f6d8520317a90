// Package store provides KV implementations.
package store

import (
	"context"
	"sync"

	"github.com/MrDieggo/controleEstoque-app/stock"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	records map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getLocked(key)
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(key, value)
	return nil
}

func (m *Memory) getLocked(key string) ([]byte, bool, error) {
	v, ok := m.records[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *Memory) setLocked(key string, value []byte) {
	m.records[key] = append([]byte(nil), value...)
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (m *Memory) WithTx(_ context.Context, fn func(stock.KV) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make(map[string][]byte, len(m.records))
	for k, v := range m.records {
		snapshot[k] = v
	}

	if err := fn(&memoryView{parent: m}); err != nil {
		m.records = snapshot
		return err
	}
	return nil
}

// memoryView is the KV handed to WithTx callbacks; the parent lock is held.
type memoryView struct {
	parent *Memory
}

func (v *memoryView) Get(_ context.Context, key string) ([]byte, bool, error) {
	return v.parent.getLocked(key)
}

func (v *memoryView) Set(_ context.Context, key string, value []byte) error {
	v.parent.setLocked(key, value)
	return nil
}
