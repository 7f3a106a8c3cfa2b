package query_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"abricot/internal/model"
	"abricot/internal/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(staleTime time.Duration) *query.Client {
	return query.NewClient(query.NewMemoryStore(time.Minute), query.Options{StaleTime: staleTime})
}

func TestFetchDisabledIsIdle(t *testing.T) {
	c := newClient(time.Minute)
	called := false

	res := query.Fetch(context.Background(), c, query.Query[[]model.Task]{
		Key:     query.ProjectTasks(""),
		Enabled: false,
		Fn: func(context.Context) ([]model.Task, error) {
			called = true
			return nil, nil
		},
	})

	assert.True(t, res.Idle())
	assert.NoError(t, res.Err)
	assert.False(t, called)
}

func TestFetchServesFreshEntryFromCache(t *testing.T) {
	c := newClient(time.Minute)
	var calls atomic.Int32
	q := query.Query[[]string]{
		Key:     query.Projects(),
		Enabled: true,
		Fn: func(context.Context) ([]string, error) {
			calls.Add(1)
			return []string{"Alpha"}, nil
		},
	}

	first := query.Fetch(context.Background(), c, q)
	require.True(t, first.Success())
	assert.False(t, first.FromCache)

	second := query.Fetch(context.Background(), c, q)
	require.True(t, second.Success())
	assert.True(t, second.FromCache)
	assert.Equal(t, []string{"Alpha"}, second.Data)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchRefetchesAfterStaleTime(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := query.NewClient(query.NewMemoryStore(0), query.Options{
		StaleTime: 30 * time.Second,
		Now:       func() time.Time { return now },
	})
	var calls atomic.Int32
	q := query.Query[int]{
		Key:     query.DashboardStats(),
		Enabled: true,
		Fn: func(context.Context) (int, error) {
			return int(calls.Add(1)), nil
		},
	}

	assert.Equal(t, 1, query.Fetch(context.Background(), c, q).Data)
	now = now.Add(10 * time.Second)
	assert.Equal(t, 1, query.Fetch(context.Background(), c, q).Data)
	now = now.Add(30 * time.Second)
	assert.Equal(t, 2, query.Fetch(context.Background(), c, q).Data)
}

func TestFetchCoalescesConcurrentReads(t *testing.T) {
	c := newClient(0)
	var calls atomic.Int32
	release := make(chan struct{})
	q := query.Query[string]{
		Key:     query.Project("p1"),
		Enabled: true,
		Fn: func(context.Context) (string, error) {
			calls.Add(1)
			<-release
			return "Alpha", nil
		},
	}

	const readers = 8
	var wg sync.WaitGroup
	results := make([]query.Result[string], readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = query.Fetch(context.Background(), c, q)
		}(i)
	}
	// Let every reader join the flight before it completes.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.True(t, r.Success())
		assert.Equal(t, "Alpha", r.Data)
	}
}

func TestFetchErrorPassesThrough(t *testing.T) {
	c := newClient(time.Minute)
	boom := errors.New("Projet introuvable")

	res := query.Fetch(context.Background(), c, query.Query[string]{
		Key:     query.Project("p9"),
		Enabled: true,
		Fn:      func(context.Context) (string, error) { return "", boom },
	})

	assert.Equal(t, query.StatusError, res.Status)
	assert.ErrorIs(t, res.Err, boom)
}

func TestFetchCallerCancelDoesNotCancelSharedCall(t *testing.T) {
	c := newClient(time.Minute)
	release := make(chan struct{})
	var fnCtxErr error
	q := query.Query[string]{
		Key:     query.Projects(),
		Enabled: true,
		Fn: func(ctx context.Context) (string, error) {
			<-release
			fnCtxErr = ctx.Err()
			return "ok", nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan query.Result[string])
	go func() { done <- query.Fetch(ctx, c, q) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	res := <-done
	assert.ErrorIs(t, res.Err, context.Canceled)

	close(release)
	require.Eventually(t, func() bool {
		r := query.Fetch(context.Background(), c, q)
		return r.Success() && r.FromCache
	}, time.Second, 10*time.Millisecond)
	assert.NoError(t, fnCtxErr)
}

func TestMutateFailureInvalidatesNothing(t *testing.T) {
	c := newClient(time.Minute)
	var calls atomic.Int32
	q := query.Query[int]{
		Key:     query.ProjectTasks("p1"),
		Enabled: true,
		Fn:      func(context.Context) (int, error) { return int(calls.Add(1)), nil },
	}
	query.Fetch(context.Background(), c, q)

	denied := errors.New("Accès refusé")
	_, err := query.Mutate(context.Background(), c, query.Mutation[string, struct{}]{
		Kind: query.UpdateTask,
		Fn:   func(context.Context, string) (struct{}, error) { return struct{}{}, denied },
		Invalidates: func(string, struct{}) []query.Key {
			return query.Dependents(query.UpdateTask, query.Target{ProjectID: "p1"})
		},
	}, "t1")
	assert.ErrorIs(t, err, denied)

	res := query.Fetch(context.Background(), c, q)
	assert.True(t, res.FromCache)
	assert.Equal(t, int32(1), calls.Load())
}

func TestMutateSuccessRefetchesDependents(t *testing.T) {
	c := newClient(time.Minute)
	status := model.StatusTodo
	q := query.Query[model.Status]{
		Key:     query.ProjectTasks("p1"),
		Enabled: true,
		Fn:      func(context.Context) (model.Status, error) { return status, nil },
	}
	assert.Equal(t, model.StatusTodo, query.Fetch(context.Background(), c, q).Data)

	_, err := query.Mutate(context.Background(), c, query.Mutation[model.Status, struct{}]{
		Kind: query.UpdateTask,
		Fn: func(_ context.Context, s model.Status) (struct{}, error) {
			status = s
			return struct{}{}, nil
		},
		Invalidates: func(model.Status, struct{}) []query.Key {
			return query.Dependents(query.UpdateTask, query.Target{ProjectID: "p1"})
		},
	}, model.StatusDone)
	require.NoError(t, err)

	res := query.Fetch(context.Background(), c, q)
	assert.False(t, res.FromCache)
	assert.Equal(t, model.StatusDone, res.Data)
}

func TestInvalidationDuringFetchDiscardsResult(t *testing.T) {
	c := newClient(time.Minute)
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	q := query.Query[int]{
		Key:     query.ProjectTasks("p1"),
		Enabled: true,
		Fn: func(context.Context) (int, error) {
			n := calls.Add(1)
			if n == 1 {
				close(started)
				<-release
			}
			return int(n), nil
		},
	}

	done := make(chan query.Result[int])
	go func() { done <- query.Fetch(context.Background(), c, q) }()
	<-started

	c.Invalidate(context.Background(), query.UpdateTask, query.Project("p1"))
	close(release)
	assert.Equal(t, 1, (<-done).Data)

	// The pre-invalidation result was not cached.
	res := query.Fetch(context.Background(), c, q)
	assert.False(t, res.FromCache)
	assert.Equal(t, 2, res.Data)
}

func TestClearDropsEverything(t *testing.T) {
	c := newClient(time.Minute)
	var calls atomic.Int32
	q := query.Query[int]{
		Key:     query.UserProfile(),
		Enabled: true,
		Fn:      func(context.Context) (int, error) { return int(calls.Add(1)), nil },
	}
	query.Fetch(context.Background(), c, q)
	require.NoError(t, c.Clear(context.Background()))

	res := query.Fetch(context.Background(), c, q)
	assert.False(t, res.FromCache)
	assert.Equal(t, int32(2), calls.Load())
}
