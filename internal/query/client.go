package query

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"abricot/pkg/logger"
	"abricot/pkg/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Status of a read as seen by its consumer.
type Status string

const (
	// StatusIdle: the query is disabled (missing parameters) and was not run.
	StatusIdle    Status = "idle"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Result is what a read hands back. Err is the fetcher's error, unchanged.
type Result[T any] struct {
	Data      T
	Status    Status
	Err       error
	FromCache bool
	UpdatedAt time.Time
}

func (r Result[T]) Idle() bool    { return r.Status == StatusIdle }
func (r Result[T]) Success() bool { return r.Status == StatusSuccess }

// Query describes one keyed read. Enabled must be false while a required
// parameter is missing.
type Query[T any] struct {
	Key     Key
	Enabled bool
	Fn      func(ctx context.Context) (T, error)
}

// Mutation describes one write and the reads it makes stale once acknowledged.
type Mutation[V, R any] struct {
	Kind        MutationKind
	Fn          func(ctx context.Context, vars V) (R, error)
	Invalidates func(vars V, result R) []Key
}

// Options for NewClient.
type Options struct {
	// StaleTime is how long a fetched entry is served without refetching.
	// Zero means every read refetches (concurrent reads still coalesce).
	StaleTime time.Duration
	Logger    *zap.Logger
	Now       func() time.Time
}

// generation tracks a key only while reads of it are outstanding.
type generation struct {
	key  Key
	gen  uint64
	refs int
}

// Client is the query cache. Reads of one key share a single in-flight call;
// a read that started before an invalidation of its key never writes the
// cache, and reads issued after the invalidation never join it.
type Client struct {
	store     Store
	group     singleflight.Group
	staleTime time.Duration
	now       func() time.Time
	logger    *zap.Logger

	// epoch grows on every invalidation. A generation created later starts
	// at the current epoch, so it never matches a flight that predates an
	// invalidation even after its entry was dropped.
	mu    sync.Mutex
	epoch uint64
	gens  map[string]*generation
}

func NewClient(store Store, opts Options) *Client {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Client{
		store:     store,
		staleTime: opts.StaleTime,
		now:       opts.Now,
		logger:    opts.Logger,
		gens:      make(map[string]*generation),
	}
}

// Fetch runs q through the cache.
func Fetch[T any](ctx context.Context, c *Client, q Query[T]) Result[T] {
	if !q.Enabled {
		return Result[T]{Status: StatusIdle}
	}
	log := logger.WithTrace(ctx, c.logger).With(zap.String("query_key", q.Key.String()))

	if data, updatedAt, ok := lookup[T](ctx, c, q.Key, log); ok {
		metrics.IncrementQueryCache("hit")
		return Result[T]{Data: data, Status: StatusSuccess, FromCache: true, UpdatedAt: updatedAt}
	}

	keyStr := q.Key.String()
	gen := c.acquire(q.Key)
	defer c.release(q.Key)
	flight := keyStr + "#" + strconv.FormatUint(gen, 10)

	// The shared call outlives any single caller: a caller that goes away
	// stops waiting, the others still get the result.
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flight, func() (any, error) {
		data, err := q.Fn(flightCtx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", keyStr, err)
		}
		updatedAt := c.now()
		c.storeIfCurrent(flightCtx, q.Key, gen, Entry{Data: raw, UpdatedAt: updatedAt}, log)
		return Entry{Data: raw, UpdatedAt: updatedAt}, nil
	})

	select {
	case <-ctx.Done():
		return Result[T]{Status: StatusError, Err: ctx.Err()}
	case res := <-ch:
		if res.Shared {
			metrics.IncrementQueryCache("shared")
		} else {
			metrics.IncrementQueryCache("miss")
		}
		if res.Err != nil {
			log.Debug("Query failed", zap.Error(res.Err))
			return Result[T]{Status: StatusError, Err: res.Err}
		}
		entry := res.Val.(Entry)
		// Each caller decodes its own copy.
		var data T
		if err := json.Unmarshal(entry.Data, &data); err != nil {
			return Result[T]{Status: StatusError, Err: fmt.Errorf("decode %s: %w", keyStr, err)}
		}
		return Result[T]{Data: data, Status: StatusSuccess, UpdatedAt: entry.UpdatedAt}
	}
}

func lookup[T any](ctx context.Context, c *Client, key Key, log *zap.Logger) (T, time.Time, bool) {
	var zero T
	if c.staleTime <= 0 {
		return zero, time.Time{}, false
	}
	entry, ok, err := c.store.Get(ctx, key)
	if err != nil {
		log.Warn("Query cache read failed, fetching", zap.Error(err))
		return zero, time.Time{}, false
	}
	if !ok || entry.Stale || c.now().Sub(entry.UpdatedAt) >= c.staleTime {
		return zero, time.Time{}, false
	}
	var data T
	if err := json.Unmarshal(entry.Data, &data); err != nil {
		return zero, time.Time{}, false
	}
	return data, entry.UpdatedAt, true
}

// Mutate runs m and, only once the write succeeded, invalidates its dependents.
// Errors are returned unchanged and invalidate nothing.
func Mutate[V, R any](ctx context.Context, c *Client, m Mutation[V, R], vars V) (R, error) {
	result, err := m.Fn(ctx, vars)
	if err != nil {
		return result, err
	}
	if m.Invalidates != nil {
		c.Invalidate(context.WithoutCancel(ctx), m.Kind, m.Invalidates(vars, result)...)
	}
	return result, nil
}

// Invalidate marks every cached read under each prefix stale. Store failures
// are logged: the write they follow has already been acknowledged.
func (c *Client) Invalidate(ctx context.Context, kind MutationKind, prefixes ...Key) int {
	if len(prefixes) == 0 {
		return 0
	}
	log := logger.WithTrace(ctx, c.logger).With(zap.String("mutation", string(kind)))

	c.mu.Lock()
	c.epoch++
	for _, g := range c.gens {
		for _, prefix := range prefixes {
			if g.key.HasPrefix(prefix) {
				g.gen = c.epoch
				break
			}
		}
	}
	c.mu.Unlock()

	total := 0
	for _, prefix := range prefixes {
		n, err := c.store.Invalidate(ctx, prefix)
		if err != nil {
			log.Error("Query cache invalidation failed",
				zap.String("query_key", prefix.String()),
				zap.Error(err),
			)
			continue
		}
		total += n
	}
	metrics.AddQueryInvalidations(string(kind), total)
	log.Debug("Invalidated queries", zap.Int("entries", total), zap.Int("prefixes", len(prefixes)))
	return total
}

// Clear drops every cached read, e.g. when the user logs out.
func (c *Client) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.epoch++
	for _, g := range c.gens {
		g.gen = c.epoch
	}
	c.mu.Unlock()

	return c.store.Clear(ctx)
}

func (c *Client) acquire(key Key) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := key.String()
	g, ok := c.gens[id]
	if !ok {
		g = &generation{key: key, gen: c.epoch}
		c.gens[id] = g
	}
	g.refs++
	return g.gen
}

func (c *Client) release(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := key.String()
	if g, ok := c.gens[id]; ok {
		if g.refs--; g.refs <= 0 {
			delete(c.gens, id)
		}
	}
}

func (c *Client) isCurrent(key Key, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	g := c.gens[key.String()]
	return g != nil && g.gen == gen
}

// storeIfCurrent writes e unless key was invalidated since gen was taken. An
// invalidation that lands during the write is caught by the second check and
// the entry is invalidated again.
func (c *Client) storeIfCurrent(ctx context.Context, key Key, gen uint64, e Entry, log *zap.Logger) {
	if !c.isCurrent(key, gen) {
		log.Debug("Discarding result invalidated while in flight")
		return
	}
	if err := c.store.Set(ctx, key, e); err != nil {
		log.Warn("Query cache write failed", zap.Error(err))
		return
	}
	if !c.isCurrent(key, gen) {
		if _, err := c.store.Invalidate(ctx, key); err != nil {
			log.Warn("Query cache invalidation failed", zap.Error(err))
		}
	}
}
