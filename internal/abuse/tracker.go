package abuse

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Tracker keeps per-client sliding-window failure counters and temporary
// blocks. It is consulted before guard evaluation so abusive clients are
// rejected without guard or backend cost. Keys carry their keyspace prefix
// ("ip:" or "sub:").
type Tracker interface {
	TrackFailure(ctx context.Context, key, reason string)
	IsBlocked(ctx context.Context, key string) bool
	Block(ctx context.Context, key string, d time.Duration)
}

type Options struct {
	Window    time.Duration // failure-counting window
	Threshold int           // failures within the window that trip a block
	BlockFor  time.Duration // block duration, independent of the window
	Retention time.Duration // entries older than this are swept
}

func (o Options) withDefaults() Options {
	if o.Window <= 0 {
		o.Window = 10 * time.Minute
	}
	if o.Threshold <= 0 {
		o.Threshold = 50
	}
	if o.BlockFor <= 0 {
		o.BlockFor = 15 * time.Minute
	}
	if o.Retention <= 0 {
		o.Retention = time.Hour
	}
	return o
}

type entry struct {
	count        int
	windowStart  time.Time
	blocked      bool
	blockedUntil time.Time
}

// LocalTracker is the in-process tracker. State is process-lifetime only and
// never persisted.
type LocalTracker struct {
	mu      sync.Mutex
	entries map[string]*entry
	opts    Options
	logger  *slog.Logger

	nextSweep time.Time
	now       func() time.Time
}

func NewLocalTracker(opts Options, logger *slog.Logger) *LocalTracker {
	opts = opts.withDefaults()
	return &LocalTracker{
		entries:   make(map[string]*entry),
		opts:      opts,
		logger:    logger,
		nextSweep: time.Now().Add(opts.Retention),
		now:       time.Now,
	}
}

func (t *LocalTracker) TrackFailure(_ context.Context, key, reason string) {
	if key == "" {
		return
	}
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sweepLocked(now)

	e, ok := t.entries[key]
	if !ok {
		e = &entry{windowStart: now}
		t.entries[key] = e
	}
	if now.Sub(e.windowStart) > t.opts.Window {
		e.count = 0
		e.windowStart = now
	}
	e.count++
	if e.count >= t.opts.Threshold && !e.blocked {
		e.blocked = true
		e.blockedUntil = now.Add(t.opts.BlockFor)
		t.logger.Warn("auto-blocking client",
			"key", key,
			"failures", e.count,
			"reason", reason,
			"until", e.blockedUntil,
		)
	}
}

func (t *LocalTracker) IsBlocked(_ context.Context, key string) bool {
	if key == "" {
		return false
	}
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[key]
	if !ok || !e.blocked {
		return false
	}
	if now.After(e.blockedUntil) {
		e.blocked = false
		e.count = 0
		e.windowStart = now
		return false
	}
	return true
}

func (t *LocalTracker) Block(_ context.Context, key string, d time.Duration) {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	if !ok {
		e = &entry{windowStart: now}
		t.entries[key] = e
	}
	e.blocked = true
	e.blockedUntil = now.Add(d)
}

// sweepLocked discards stale entries to bound memory. Blocked entries stay
// until their block expires even if the counting window is long gone.
func (t *LocalTracker) sweepLocked(now time.Time) {
	if now.Before(t.nextSweep) {
		return
	}
	for key, e := range t.entries {
		if e.blocked && now.Before(e.blockedUntil) {
			continue
		}
		if now.Sub(e.windowStart) > t.opts.Retention {
			delete(t.entries, key)
		}
	}
	t.nextSweep = now.Add(t.opts.Retention)
}
