package session

import (
	"context"
	"sync"
	"time"
)

// MemoryTable is the in-process backend for single-instance deployments:
// a mutex-guarded map with lazy TTL eviction.
type MemoryTable[T any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry[T]
	now     func() time.Time
}

type memoryEntry[T any] struct {
	data      T
	createdAt time.Time
}

func NewMemoryTable[T any](ttl time.Duration) *MemoryTable[T] {
	return &MemoryTable[T]{
		ttl:     ttl,
		entries: make(map[string]memoryEntry[T]),
		now:     time.Now,
	}
}

func (t *MemoryTable[T]) Create(_ context.Context, id string, data T) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries[id] = memoryEntry[T]{data: data, createdAt: t.now()}
	return nil
}

func (t *MemoryTable[T]) Get(_ context.Context, id string) (T, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var zero T
	e, ok := t.entries[id]
	if !ok {
		return zero, false, nil
	}
	if t.expired(e) {
		delete(t.entries, id)
		return zero, false, nil
	}
	return e.data, true, nil
}

func (t *MemoryTable[T]) Mutate(_ context.Context, id string, fn func(*T) bool) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[id]
	if !ok {
		return false, nil
	}
	if t.expired(e) {
		delete(t.entries, id)
		return false, nil
	}

	if fn(&e.data) {
		t.entries[id] = e
	} else {
		delete(t.entries, id)
	}
	return true, nil
}

func (t *MemoryTable[T]) Delete(_ context.Context, id string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[id]
	if !ok {
		return false, nil
	}
	delete(t.entries, id)
	if t.expired(e) {
		// Physically present but logically gone; nobody wins an expired record.
		return false, nil
	}
	return true, nil
}

func (t *MemoryTable[T]) sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	evicted := 0
	for id, e := range t.entries {
		if t.expired(e) {
			delete(t.entries, id)
			evicted++
		}
	}
	return evicted
}

func (t *MemoryTable[T]) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

func (t *MemoryTable[T]) expired(e memoryEntry[T]) bool {
	return t.now().Sub(e.createdAt) > t.ttl
}

// NewMemoryStore builds a Store over in-process tables with the standard
// per-channel TTLs: phone and telegram 3 minutes, email 5 minutes.
func NewMemoryStore() *Store {
	phone := NewMemoryTable[PhoneSession](PhoneTTL)
	email := NewMemoryTable[EmailSession](EmailTTL)
	telegram := NewMemoryTable[TelegramSession](TelegramTTL)

	return &Store{
		Phone:    phone,
		Email:    email,
		Telegram: telegram,
		sweep: func() int {
			return phone.sweep() + email.sweep() + telegram.sweep()
		},
	}
}
