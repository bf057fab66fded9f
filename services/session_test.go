package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_CreateGetDestroy(t *testing.T) {
	store := NewSessionStore(DefaultSessionTTL)

	s := store.Create()
	require.NotEmpty(t, s.ID)
	assert.Equal(t, 1, store.Len())

	got, ok := store.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)

	store.Destroy(s.ID)
	_, ok = store.Get(s.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())

	// unknown ids are ignored
	store.Destroy("missing")
}

func TestSessionStore_SessionsAreIndependent(t *testing.T) {
	store := NewSessionStore(DefaultSessionTTL)
	a := store.Create()
	b := store.Create()
	require.NotEqual(t, a.ID, b.ID)

	err := a.Update(func(l *EstimateList) error {
		l.Add(tileEntry, 5, 10, "")
		return nil
	})
	require.NoError(t, err)

	assert.Len(t, a.Items(), 1)
	assert.Empty(t, b.Items())
	assert.Equal(t, int64(55000), a.Summary().Subtotal)
	assert.Equal(t, Summary{}, b.Summary())
}

func TestSession_UpdatePropagatesError(t *testing.T) {
	s := NewSessionStore(DefaultSessionTTL).Create()

	err := s.Update(func(l *EstimateList) error {
		_, err := l.RemoveAt(0)
		return err
	})

	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestSession_ConcurrentUpdates(t *testing.T) {
	s := NewSessionStore(DefaultSessionTTL).Create()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Update(func(l *EstimateList) error {
				l.Add(tileEntry, 1, 0, "")
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Len(t, s.Items(), 50)
	assert.Equal(t, int64(500000), s.Summary().Subtotal)
}

func TestSessionStore_IdleSessionsExpire(t *testing.T) {
	store := NewSessionStore(time.Hour)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	kept := store.Create()
	idle := store.Create()

	now = now.Add(40 * time.Minute)
	_, ok := store.Get(kept.ID)
	require.True(t, ok)

	now = now.Add(40 * time.Minute)
	_, ok = store.Get(kept.ID)
	assert.True(t, ok, "a session looked up within the TTL stays alive")

	_, ok = store.Get(idle.ID)
	assert.False(t, ok, "a session idle past the TTL is gone")
	assert.Equal(t, 1, store.Len())
}

func TestSessionStore_CreateSweepsExpired(t *testing.T) {
	store := NewSessionStore(time.Minute)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	for i := 0; i < 1000; i++ {
		store.Create()
	}
	require.Equal(t, 1000, store.Len())

	now = now.Add(2 * time.Minute)
	store.Create()
	assert.Equal(t, 1, store.Len())
}

func TestSessionStore_Sweep(t *testing.T) {
	store := NewSessionStore(time.Minute)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Create()
	store.Create()
	assert.Equal(t, 0, store.Sweep())

	now = now.Add(time.Hour)
	assert.Equal(t, 2, store.Sweep())
	assert.Equal(t, 0, store.Len())
}

func TestSessionStore_ZeroTTLNeverExpires(t *testing.T) {
	store := NewSessionStore(0)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	s := store.Create()
	now = now.Add(365 * 24 * time.Hour)

	_, ok := store.Get(s.ID)
	assert.True(t, ok)
}
