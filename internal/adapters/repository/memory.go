package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/pitchmap/pkg/metrics"
)

type memEntry struct {
	session *Session
	expires time.Time
}

// MemoryStore keeps sessions in process memory. Saved sessions are shared
// with readers and must not be modified after Save.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]memEntry

	ttl           time.Duration
	sweepInterval time.Duration
	now           func() time.Time

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopChan chan struct{}
}

// NewMemoryStore constructs a memory store and starts its expiry sweeper.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byID:          make(map[string]memEntry),
		sweepInterval: time.Minute,
		now:           time.Now,
		stopChan:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startSweeper(ctx)
	return s
}

func (s *MemoryStore) startSweeper(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

// Sweep evicts expired sessions and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	now := s.now()
	s.mu.Lock()
	removed := 0
	for id, e := range s.byID {
		if s.expired(e, now) {
			delete(s.byID, id)
			removed++
		}
	}
	n := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateSessionsStored(n)
	return removed
}

// Close stops the sweeper.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, sess *Session) error {
	if sess == nil || sess.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidSession)
	}
	sess.Table()

	e := memEntry{session: sess}
	if s.ttl > 0 {
		e.expires = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	s.byID[sess.ID] = e
	n := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateSessionsStored(n)
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	e, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok || s.expired(e, s.now()) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e.session, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	e, ok := s.byID[id]
	delete(s.byID, id)
	n := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateSessionsStored(n)
	if !ok || s.expired(e, s.now()) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Count implements Store. Expired sessions not yet swept are excluded.
func (s *MemoryStore) Count(_ context.Context) int {
	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.byID {
		if !s.expired(e, now) {
			n++
		}
	}
	return n
}

func (s *MemoryStore) expired(e memEntry, now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}
