package locking

import (
	"context"
	"sync"
	"time"
)

// MemoryManager implements Manager in process memory. It is only correct for
// a single scheduler instance; replicated deployments need the Redis manager.
type MemoryManager struct {
	mu   sync.Mutex
	held map[string]string
}

// NewMemoryManager constructs an in-memory lock manager.
func NewMemoryManager() *MemoryManager {
	return &MemoryManager{held: make(map[string]string)}
}

// TryAcquire grabs the key if free, otherwise returns (nil, nil).
func (m *MemoryManager) TryAcquire(_ context.Context, key string) (*Lock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.held[key]; taken {
		return nil, nil
	}
	holder := newHolderID()
	m.held[key] = holder
	return &Lock{Key: key, HolderID: holder, AcquiredAt: time.Now().UTC()}, nil
}

// Release frees the lock when this holder owns it; otherwise it is a no-op.
func (m *MemoryManager) Release(_ context.Context, lock *Lock) error {
	if lock == nil {
		return ErrNilLock
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if holder, ok := m.held[lock.Key]; ok && holder == lock.HolderID {
		delete(m.held, lock.Key)
	}
	return nil
}
