package assistant

import (
	"sync"
	"time"

	"daftar/internal/cache"
	"daftar/internal/core"
	"daftar/internal/log"
)

// Status of a pending transaction.
type Status int

const (
	AwaitingCategory Status = iota + 1
	ReadyToConfirm
)

func (s Status) String() string {
	switch s {
	case AwaitingCategory:
		return "awaiting_category"
	case ReadyToConfirm:
		return "ready_to_confirm"
	}
	return "unknown"
}

// Pending is a transaction waiting for a category or for confirmation.
// Attempts counts failed persistence attempts.
type Pending struct {
	Tx        core.Transaction
	Status    Status
	Attempts  int
	CreatedAt time.Time
}

// PendingStore holds at most one pending transaction per conversation.
type PendingStore interface {
	Get(conversationID string) (Pending, bool)
	Set(conversationID string, p Pending)
	Delete(conversationID string)
}

var _ PendingStore = (*cache.LRUCache[Pending])(nil)

func newPendingStore(maxSessions int, ttl time.Duration, now func() time.Time, logger *log.Logger) *cache.LRUCache[Pending] {
	return cache.NewLRUCache(maxSessions, ttl,
		cache.WithClock[Pending](now),
		cache.WithEvictHook(func(conversationID string, p Pending, reason cache.EvictReason) {
			logger.Info("Pending transaction dropped",
				log.FieldConversationID, conversationID,
				log.FieldStatus, p.Status.String(),
				"reason", reason.String())
		}),
	)
}

// keyedMutex serializes work per key. Entries are removed when unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refLock)}
}

// Lock blocks until key is free and returns its unlock function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
