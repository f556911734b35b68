package memory

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// entry is one stored value. A zero expiresAt means the entry never
// expires. The entry lives exactly as long as its map slot.
type entry struct {
	data      []byte
	expiresAt time.Time
}

func (e entry) hasDeadline() bool { return !e.expiresAt.IsZero() }

// Store is a mutex-guarded map from key to value with optional TTL.
//
// A Store is shared by every connection handler; all access goes through
// its locked operations, and the lock is held only for O(log n) map/index
// work, never across I/O or the reaper's sleep.
type Store struct {
	logger *slog.Logger
	now    func() time.Time

	mu          sync.Mutex
	entries     map[string]entry
	expirations *expirationIndex

	// wake is 1-buffered: a pending wakeup coalesces with later ones.
	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup

	closeOnce sync.Once
	expired   atomic.Uint64
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the logger used by the background reaper.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithClock overrides the time source. The reaper's timers still run on
// wall time; the clock governs deadline computation and comparison.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a Store and starts its reaper. Close stops the reaper; in
// the server process the Store lives until exit.
func New(opts ...Option) *Store {
	s := &Store{
		logger:      slog.Default(),
		now:         time.Now,
		entries:     make(map[string]entry),
		expirations: newExpirationIndex(),
		wake:        make(chan struct{}, 1),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.wg.Add(1)
	go s.reap()

	return s
}

// Set inserts or overwrites key. A ttl <= 0 stores the value without a
// deadline. When the new deadline becomes the earliest tracked one, the
// reaper is woken after the lock is released so it can re-arm its timer.
func (s *Store) Set(key string, value []byte, ttl time.Duration) {
	data := make([]byte, len(value))
	copy(data, value)

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	// An overwritten entry's index pair must go before the new one lands;
	// a stale pair pointing at replaced data must never persist.
	if prev, ok := s.entries[key]; ok && prev.hasDeadline() {
		s.expirations.remove(prev.expiresAt, key)
	}
	s.entries[key] = entry{data: data, expiresAt: expiresAt}

	notify := false
	if !expiresAt.IsZero() {
		s.expirations.insert(expiresAt, key)
		if min, ok := s.expirations.min(); ok && min.key == key && min.at.Equal(expiresAt) {
			notify = true
		}
	}
	s.mu.Unlock()

	if notify {
		// Never signal while holding the lock.
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}
}

// Get returns a copy of the value if the key is present and not expired.
// The reaper is the primary removal path; a read observing a passed
// deadline evicts lazily rather than return stale data.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		return nil, false
	}
	if e.hasDeadline() && !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		s.expirations.remove(e.expiresAt, key)
		s.mu.Unlock()
		s.expired.Add(1)
		return nil, false
	}
	s.mu.Unlock()

	out := make([]byte, len(e.data))
	copy(out, e.data)
	return out, true
}

// Delete removes the key and, if it had a deadline, its index pair in the
// same lock acquisition. Returns whether the key was present.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false
	}
	delete(s.entries, key)
	if e.hasDeadline() {
		s.expirations.remove(e.expiresAt, key)
	}
	return true
}

// Len returns the number of stored keys, expired-but-unswept ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// ExpiredTotal returns the number of keys evicted on expiry so far, by
// either the reaper or a lazy read.
func (s *Store) ExpiredTotal() uint64 {
	return s.expired.Load()
}

// Close stops the reaper and waits for it to exit. Safe to call twice.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
	return nil
}

// reap runs for the Store's lifetime. Each round evicts everything whose
// deadline has passed, then sleeps until the next deadline, or forever when
// none is tracked. Both sleeps are cut short by the wake signal, so a
// newly-inserted earlier deadline is honored promptly instead of waiting
// out a stale timer.
func (s *Store) reap() {
	defer s.wg.Done()

	for {
		s.mu.Lock()
		now := s.now()
		evicted := 0
		var next time.Time
		hasNext := false
		for {
			min, ok := s.expirations.min()
			if !ok {
				break
			}
			if min.at.After(now) {
				next = min.at
				hasNext = true
				break
			}
			s.expirations.deleteMin()
			delete(s.entries, min.key)
			evicted++
		}
		s.mu.Unlock()

		if evicted > 0 {
			s.expired.Add(uint64(evicted))
			s.logger.Debug("reaped expired keys", "count", evicted)
		}

		if hasNext {
			timer := time.NewTimer(next.Sub(now))
			select {
			case <-timer.C:
			case <-s.wake:
				timer.Stop()
			case <-s.done:
				timer.Stop()
				return
			}
		} else {
			select {
			case <-s.wake:
			case <-s.done:
				return
			}
		}
	}
}
