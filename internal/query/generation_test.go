package query

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerationsAreDroppedAfterReads(t *testing.T) {
	ctx := context.Background()
	c := NewClient(NewMemoryStore(time.Minute), Options{StaleTime: time.Minute})

	for i := 0; i < 20; i++ {
		term := fmt.Sprintf("term-%d", i)
		res := Fetch(ctx, c, Query[string]{
			Key:     UserSearch(term),
			Enabled: true,
			Fn:      func(context.Context) (string, error) { return term, nil },
		})
		require.True(t, res.Success())
	}
	c.Invalidate(ctx, UpdateTask, Projects())

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Empty(t, c.gens)
}

type blockingInvalidateStore struct {
	Store
	entered chan struct{}
	unblock chan struct{}
}

func (s *blockingInvalidateStore) Invalidate(ctx context.Context, prefix Key) (int, error) {
	close(s.entered)
	<-s.unblock
	return s.Store.Invalidate(ctx, prefix)
}

func TestSlowInvalidationDoesNotBlockReads(t *testing.T) {
	ctx := context.Background()
	store := &blockingInvalidateStore{
		Store:   NewMemoryStore(time.Minute),
		entered: make(chan struct{}),
		unblock: make(chan struct{}),
	}
	c := NewClient(store, Options{StaleTime: time.Minute})

	invalidated := make(chan struct{})
	go func() {
		c.Invalidate(ctx, UpdateTask, Project("p1"))
		close(invalidated)
	}()
	<-store.entered

	done := make(chan Result[int], 1)
	go func() {
		done <- Fetch(ctx, c, Query[int]{
			Key:     Projects(),
			Enabled: true,
			Fn:      func(context.Context) (int, error) { return 1, nil },
		})
	}()

	select {
	case res := <-done:
		assert.True(t, res.Success())
	case <-time.After(2 * time.Second):
		t.Fatal("read waited on the store invalidation")
	}

	close(store.unblock)
	<-invalidated
}

type slowSetStore struct {
	Store
	once    sync.Once
	setting chan struct{}
	proceed chan struct{}
}

func (s *slowSetStore) Set(ctx context.Context, key Key, e Entry) error {
	s.once.Do(func() {
		close(s.setting)
		<-s.proceed
	})
	return s.Store.Set(ctx, key, e)
}

func TestInvalidationDuringCacheWriteIsNotLost(t *testing.T) {
	ctx := context.Background()
	store := &slowSetStore{
		Store:   NewMemoryStore(time.Minute),
		setting: make(chan struct{}),
		proceed: make(chan struct{}),
	}
	c := NewClient(store, Options{StaleTime: time.Minute})

	var calls atomic.Int32
	q := Query[int]{
		Key:     ProjectTasks("p1"),
		Enabled: true,
		Fn:      func(context.Context) (int, error) { return int(calls.Add(1)), nil },
	}

	done := make(chan Result[int], 1)
	go func() { done <- Fetch(ctx, c, q) }()
	<-store.setting

	c.Invalidate(ctx, CreateTask, ProjectTasks("p1"))
	close(store.proceed)
	require.Equal(t, 1, (<-done).Data)

	res := Fetch(ctx, c, q)
	require.True(t, res.Success())
	assert.False(t, res.FromCache)
	assert.Equal(t, 2, res.Data)
}
