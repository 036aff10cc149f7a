package iot

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
	"liyu1981.xyz/aquapond-service/pkg/models"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
	// pinned entries were set explicitly and survive Prune
	pinned bool
}

// RateLimiterStore keeps one token bucket per device. Ids are normalized, so
// "pond-01" and "POND-01" share a bucket. Buckets created on demand are
// dropped by Prune once the device goes quiet.
type RateLimiterStore struct {
	mu           sync.Mutex
	entries      map[string]*limiterEntry
	defaultRate  rate.Limit
	defaultBurst int
	now          func() time.Time
}

func NewRateLimiterStore(defaultRate rate.Limit, defaultBurst int) *RateLimiterStore {
	return &RateLimiterStore{
		entries:      make(map[string]*limiterEntry),
		defaultRate:  defaultRate,
		defaultBurst: defaultBurst,
		now:          time.Now,
	}
}

func (s *RateLimiterStore) GetLimiter(deviceID string) *rate.Limiter {
	id := models.NormalizeDeviceID(deviceID)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.entries[id]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(s.defaultRate, s.defaultBurst)}
		s.entries[id] = entry
	}
	entry.lastUsed = s.now()
	return entry.limiter
}

// SetLimiter replaces the device's bucket with a full one at the new rate.
func (s *RateLimiterStore) SetLimiter(deviceID string, deviceRate rate.Limit, deviceBurst int) {
	id := models.NormalizeDeviceID(deviceID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = &limiterEntry{
		limiter:  rate.NewLimiter(deviceRate, deviceBurst),
		lastUsed: s.now(),
		pinned:   true,
	}
}

func (s *RateLimiterStore) Allow(deviceID string) bool {
	return s.GetLimiter(deviceID).Allow()
}

// Prune forgets default buckets untouched since olderThan and reports how
// many went. A forgotten device starts again with a full bucket.
func (s *RateLimiterStore) Prune(olderThan time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0
	for id, entry := range s.entries {
		if !entry.pinned && entry.lastUsed.Before(olderThan) {
			delete(s.entries, id)
			pruned++
		}
	}
	return pruned
}

func (s *RateLimiterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
