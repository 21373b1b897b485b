package resolver

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Defaults applied by New for zero Options fields.
const (
	DefaultTimeout = 5 * time.Second
	DefaultBackoff = 200 * time.Millisecond
)

// Store persists present results across processes. Implementations must be
// safe for concurrent use.
type Store interface {
	LoadMapping(ctx context.Context, qname string) (Mapping, bool, error)
	SaveMapping(ctx context.Context, qname string, m Mapping) error
	DeleteMapping(ctx context.Context, qname string) error
}

// Options configures a Resolver.
type Options struct {
	// Zone is appended to every query name.
	Zone string

	// Timeout bounds each query attempt (0 = DefaultTimeout).
	Timeout time.Duration

	// Retries is the number of extra attempts after a transport failure.
	// Absent and malformed results are never retried.
	Retries int

	// Backoff is the pause before the first retry; it doubles per attempt
	// (0 = DefaultBackoff).
	Backoff time.Duration

	// Store, when set, backs the in-memory cache.
	Store Store

	// Logger receives query and cache events (nil = slog.Default()).
	Logger *slog.Logger
}

// Resolver resolves dictionary names through a Client.
//
// Present results are cached by query name; absent results and failures are
// not. Concurrent resolves of one name share a single query that is detached
// from any one caller's cancellation. Safe for concurrent use.
type Resolver struct {
	client Client
	opts   Options
	logger *slog.Logger

	group singleflight.Group

	mu    sync.RWMutex
	cache map[string]Mapping

	// gen is bumped by Invalidate; a lookup that started under an older
	// generation does not cache its result. saveMu orders store writes
	// against Invalidate's delete.
	gen    map[string]uint64
	saveMu sync.Mutex
}

// New creates a Resolver over client.
func New(client Client, opts Options) *Resolver {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultBackoff
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		client: client,
		opts:   opts,
		logger: logger,
		cache:  make(map[string]Mapping),
		gen:    make(map[string]uint64),
	}
}

type outcome struct {
	mapping Mapping
	found   bool
}

// Resolve returns the dictionary published under name.
//
//   - present: (mapping, true, nil)
//   - absent:  (nil, false, nil)
//   - failure: (nil, false, *Error) with MALFORMED_RECORD, RESOLUTION_FAILED
//     or INVALID_NAME
func (r *Resolver) Resolve(ctx context.Context, name string) (Mapping, bool, error) {
	qname, err := QueryName(name, r.opts.Zone)
	if err != nil {
		return nil, false, &Error{Code: ErrCodeInvalidName, Name: name, Message: "cannot derive query name", Err: err}
	}

	if m, ok := r.cached(ctx, qname); ok {
		return m, true, nil
	}

	ch := r.group.DoChan(qname, func() (any, error) {
		return r.lookup(context.WithoutCancel(ctx), name, qname)
	})

	select {
	case <-ctx.Done():
		return nil, false, &Error{Code: ErrCodeResolutionFailed, Name: name, Message: "caller gave up", Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		out := res.Val.(outcome)
		if !out.found {
			return nil, false, nil
		}
		return out.mapping.Clone(), true, nil
	}
}

// Invalidate drops name from the memory cache and the store.
func (r *Resolver) Invalidate(ctx context.Context, name string) error {
	qname, err := QueryName(name, r.opts.Zone)
	if err != nil {
		return &Error{Code: ErrCodeInvalidName, Name: name, Message: "cannot derive query name", Err: err}
	}

	r.saveMu.Lock()
	defer r.saveMu.Unlock()

	r.mu.Lock()
	delete(r.cache, qname)
	r.gen[qname]++
	r.mu.Unlock()
	r.group.Forget(qname)

	if r.opts.Store != nil {
		return r.opts.Store.DeleteMapping(ctx, qname)
	}
	return nil
}

// Purge empties the memory cache. The store is left untouched.
func (r *Resolver) Purge() {
	r.mu.Lock()
	r.cache = make(map[string]Mapping)
	r.mu.Unlock()
}

func (r *Resolver) cached(ctx context.Context, qname string) (Mapping, bool) {
	r.mu.RLock()
	m, ok := r.cache[qname]
	r.mu.RUnlock()
	if ok {
		r.logger.Debug("resolver cache hit", "qname", qname)
		return m.Clone(), true
	}

	if r.opts.Store == nil {
		return nil, false
	}
	m, ok, err := r.opts.Store.LoadMapping(ctx, qname)
	if err != nil {
		r.logger.Warn("resolver store load failed", "qname", qname, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	r.remember(qname, m)
	r.logger.Debug("resolver store hit", "qname", qname)
	return m.Clone(), true
}

func (r *Resolver) remember(qname string, m Mapping) {
	r.mu.Lock()
	r.cache[qname] = m.Clone()
	r.mu.Unlock()
}

// lookup runs the query with per-attempt timeouts and retries transport
// failures with exponential backoff.
func (r *Resolver) lookup(ctx context.Context, name, qname string) (outcome, error) {
	r.mu.RLock()
	gen := r.gen[qname]
	r.mu.RUnlock()

	var lastErr error
	backoff := r.opts.Backoff

	for attempt := 0; attempt <= r.opts.Retries; attempt++ {
		if attempt > 0 {
			r.logger.Warn("resolver retrying",
				"qname", qname,
				"attempt", attempt+1,
				"error", lastErr)
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return outcome{}, &Error{Code: ErrCodeResolutionFailed, Name: name, Message: "cancelled", Err: ctx.Err()}
			case <-timer.C:
			}
			backoff *= 2
		}

		records, err := r.query(ctx, qname)
		switch {
		case errors.Is(err, ErrNotFound):
			r.logger.Debug("resolver name absent", "qname", qname)
			return outcome{}, nil
		case err != nil:
			lastErr = err
			continue
		case len(records) == 0:
			r.logger.Debug("resolver name has no records", "qname", qname)
			return outcome{}, nil
		}

		m, err := ParseRecords(records)
		if err != nil {
			return outcome{}, &Error{Code: ErrCodeMalformedRecord, Name: name, Message: "bad record", Err: err}
		}

		r.save(ctx, qname, gen, m)
		r.logger.Debug("resolver name present", "qname", qname, "entries", len(m))
		return outcome{mapping: m, found: true}, nil
	}

	return outcome{}, &Error{Code: ErrCodeResolutionFailed, Name: name, Message: "query failed", Err: lastErr}
}

// save caches m unless qname was invalidated since generation gen.
func (r *Resolver) save(ctx context.Context, qname string, gen uint64, m Mapping) {
	r.saveMu.Lock()
	defer r.saveMu.Unlock()

	r.mu.Lock()
	current := r.gen[qname] == gen
	if current {
		r.cache[qname] = m.Clone()
	}
	r.mu.Unlock()
	if !current {
		r.logger.Debug("resolver result invalidated in flight", "qname", qname)
		return
	}

	if r.opts.Store != nil {
		if err := r.opts.Store.SaveMapping(ctx, qname, m); err != nil {
			r.logger.Warn("resolver store save failed", "qname", qname, "error", err)
		}
	}
}

func (r *Resolver) query(ctx context.Context, qname string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()
	r.logger.Debug("resolver query", "qname", qname)
	return r.client.Query(ctx, qname)
}
