package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// MemoryStoreSuite is a test suite for the in-memory store.
type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
	ctx   context.Context
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemoryStore(time.Hour)
	s.ctx = context.Background()
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) TestLoadAbsent() {
	sess, err := s.store.Load(s.ctx, testKey())
	s.NoError(err)
	s.Nil(sess)
}

func (s *MemoryStoreSuite) TestSaveThenLoad() {
	sess := New(testKey(), time.Now())
	sess.State.Scratchpad.Address = "1 Main St"
	s.Require().NoError(s.store.Save(s.ctx, sess))

	loaded, err := s.store.Load(s.ctx, testKey())
	s.Require().NoError(err)
	s.Require().NotNil(loaded)
	s.Equal(sess, loaded)
}

func (s *MemoryStoreSuite) TestSaveReplaces() {
	first := New(testKey(), time.Now())
	s.Require().NoError(s.store.Save(s.ctx, first))

	second := New(testKey(), time.Now())
	second.State.Step = "phone"
	s.Require().NoError(s.store.Save(s.ctx, second))

	loaded, err := s.store.Load(s.ctx, testKey())
	s.Require().NoError(err)
	s.Equal("phone", loaded.State.Step)
	s.Equal(1, s.store.Len())
}

func (s *MemoryStoreSuite) TestExpiredRecordIsEvictedOnLoad() {
	sess := New(testKey(), time.Now())
	sess.Meta.LastSeenAt = time.Now().Add(-2 * time.Hour)
	s.Require().NoError(s.store.Save(s.ctx, sess))

	loaded, err := s.store.Load(s.ctx, testKey())
	s.NoError(err)
	s.Nil(loaded)

	// Evicted as a side effect, not just hidden.
	s.Equal(0, s.store.Len())
}

func (s *MemoryStoreSuite) TestSweep() {
	now := time.Now()

	live := New(Key{Channel: "web", UserID: "u1", SessionID: "live"}, now)
	stale := New(Key{Channel: "web", UserID: "u2", SessionID: "stale"}, now)
	stale.Meta.LastSeenAt = now.Add(-2 * time.Hour)
	s.Require().NoError(s.store.Save(s.ctx, live))
	s.Require().NoError(s.store.Save(s.ctx, stale))

	swept, err := s.store.Sweep(s.ctx, now)
	s.Require().NoError(err)
	s.Equal(1, swept)
	s.Equal(1, s.store.Len())

	loaded, err := s.store.Load(s.ctx, live.Key())
	s.NoError(err)
	s.NotNil(loaded)
}

func (s *MemoryStoreSuite) TestDistinctKeysDoNotCollide() {
	a := New(Key{Channel: "web", UserID: "u", SessionID: "a"}, time.Now())
	b := New(Key{Channel: "web", UserID: "u", SessionID: "b"}, time.Now())
	s.Require().NoError(s.store.Save(s.ctx, a))
	s.Require().NoError(s.store.Save(s.ctx, b))

	s.Equal(2, s.store.Len())
}

func TestKeyLockSerializesSameKey(t *testing.T) {
	locks := NewKeyLock()
	key := testKey()

	const workers = 32
	counter := 0
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			unlock := locks.Lock(key)
			defer unlock()
			// Unsynchronized increment; only the key lock protects it.
			counter++
		}()
	}
	wg.Wait()

	if counter != workers {
		t.Fatalf("expected %d increments, got %d", workers, counter)
	}
	if len(locks.entries) != 0 {
		t.Fatalf("expected lock table to be empty, got %d entries", len(locks.entries))
	}
}

func TestKeyLockIndependentKeys(t *testing.T) {
	locks := NewKeyLock()

	unlockA := locks.Lock(Key{Channel: "web", UserID: "u", SessionID: "a"})
	defer unlockA()

	// A different key must not block.
	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock(Key{Channel: "web", UserID: "u", SessionID: "b"})
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}
}
