package store

import (
	"context"
	"sync"
	"time"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/data/redisStore"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/google/uuid"
)

const lockKeyPrefix = "lock:document:"

// RedisDocumentLock is a lease per document id. The lease expires after ttl so a
// crashed writer cannot block the document forever.
type RedisDocumentLock struct {
	store  *redisStore.Store
	ttl    time.Duration
	retry  time.Duration
	logger *logger_i.Logger
}

// GetRedisDocumentLock returns nil when redis is offline.
func GetRedisDocumentLock(ctx context.Context, settings config.RedisSettings, ttl time.Duration) *RedisDocumentLock {
	s := redisStore.GetRedisStore(ctx, settings, config.RedisLockStore)
	if s == nil {
		return nil
	}
	return NewRedisDocumentLock(s, ttl, config.DocumentLockRetry)
}

func NewRedisDocumentLock(store *redisStore.Store, ttl time.Duration, retry time.Duration) *RedisDocumentLock {
	return &RedisDocumentLock{store: store, ttl: ttl, retry: retry, logger: logger_i.NewLogger("DocumentLock")}
}

func (l *RedisDocumentLock) Lock(ctx context.Context, documentId string) (func(), error) {
	key := lockKeyPrefix + documentId
	token := uuid.NewString()
	log := l.logger.WithTrace(ctx).With("document_id", documentId)

	for {
		ok, err := l.store.SetNX(ctx, key, token, l.ttl)
		if err != nil {
			return nil, err
		}
		if ok {
			var once sync.Once
			return func() {
				once.Do(func() {
					// the caller's ctx may already be done by the time it unlocks
					released, err := l.store.CompareAndDelete(context.Background(), key, token)
					if err != nil {
						log.Error("could not release document lock", "error", err)
					} else if !released {
						log.Warn("document lock expired before release")
					}
				})
			}, nil
		}

		log.Debug("document locked by another writer, waiting")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
}

// InMemoryDocumentLock serialises writers within one process. A slot lives only while
// someone holds or waits on it.
type InMemoryDocumentLock struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	ch   chan struct{}
	refs int
}

func InitInMemoryDocumentLock() *InMemoryDocumentLock {
	return &InMemoryDocumentLock{slots: make(map[string]*lockSlot)}
}

func (l *InMemoryDocumentLock) Lock(ctx context.Context, documentId string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[documentId]
	if !ok {
		slot = &lockSlot{ch: make(chan struct{}, 1)}
		l.slots[documentId] = slot
	}
	slot.refs++
	l.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-slot.ch
				l.release(documentId, slot)
			})
		}, nil
	case <-ctx.Done():
		l.release(documentId, slot)
		return nil, ctx.Err()
	}
}

// Held is the number of document ids currently locked or waited on.
func (l *InMemoryDocumentLock) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

func (l *InMemoryDocumentLock) release(documentId string, slot *lockSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 && l.slots[documentId] == slot {
		delete(l.slots, documentId)
	}
}
