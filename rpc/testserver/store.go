package testserver

import (
	"github.com/puzpuzpuz/xsync/v3"
	"sync"
	"time"
)

// entry is a stored value, a zero deadline means the entry never expires
type entry struct {
	value    string
	deadline int64 // unix nanoseconds
}

func (e entry) expired(now int64) bool {
	return e.deadline != 0 && e.deadline <= now
}

// memoryStore is the in-memory key value store behind the server.
// Values live in a concurrent map, expirations are tracked in a heap so
// sweep can remove expired keys without scanning the map.
type memoryStore struct {
	data *xsync.MapOf[string, entry]

	mu       sync.Mutex // protects expiries
	expiries *expiryHeap

	now func() time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		data:     xsync.NewMapOf[string, entry](),
		expiries: newExpiryHeap(),
		now:      time.Now,
	}
}

// Set stores value under key. expireIn = 0 means no expiration.
func (s *memoryStore) Set(key, value string, expireIn uint64) {
	e := entry{value: value}
	if expireIn > 0 {
		e.deadline = s.now().Add(time.Duration(expireIn) * time.Second).UnixNano()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Store(key, e)
	if e.deadline != 0 {
		s.expiries.Schedule(key, e.deadline)
	} else {
		s.expiries.Unschedule(key)
	}
}

// Get returns the value for key, expired keys are treated as absent
func (s *memoryStore) Get(key string) (string, bool) {
	e, ok := s.load(key, s.now().UnixNano())
	if !ok {
		return "", false
	}
	return e.value, true
}

// Delete removes key and reports whether it existed
func (s *memoryStore) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data.LoadAndDelete(key)
	s.expiries.Unschedule(key)
	return ok && !e.expired(s.now().UnixNano())
}

// ExpiresIn returns the seconds (rounded up) until key expires.
// ok is false if the key does not exist or never expires.
func (s *memoryStore) ExpiresIn(key string) (seconds uint64, ok bool) {
	// one reading of the clock, load guarantees deadline > now
	now := s.now().UnixNano()
	e, ok := s.load(key, now)
	if !ok || e.deadline == 0 {
		return 0, false
	}
	remaining := time.Duration(e.deadline - now)
	return uint64((remaining + time.Second - 1) / time.Second), true
}

// Size returns the number of stored keys, including expired keys not swept yet
func (s *memoryStore) Size() int {
	return s.data.Size()
}

// sweep removes all expired keys and returns how many were removed
func (s *memoryStore) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UnixNano()
	removed := 0
	for _, key := range s.expiries.PopDue(now) {
		s.data.Compute(key, func(old entry, loaded bool) (entry, bool) {
			if !loaded {
				// deleting a missing key keeps Compute from storing the zero entry
				return old, true
			}
			if old.expired(now) {
				removed++
				return old, true
			}
			return old, false
		})
	}
	return removed
}

// load returns the entry for key if it is still alive at now
func (s *memoryStore) load(key string, now int64) (entry, bool) {
	e, ok := s.data.Load(key)
	if !ok || e.expired(now) {
		return entry{}, false
	}
	return e, true
}
