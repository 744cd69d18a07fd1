package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/i474232898/weather-food-recommender/internal/recommend"
)

var (
	// ErrNotFound is returned when no recommendation matches the query.
	ErrNotFound = errors.New("no recommendations recorded")
)

// MemoryStore is a concurrency-safe in-memory recommendation history.
type MemoryStore struct {
	mu sync.RWMutex

	// ordered by GeneratedAt as saved
	history []recommend.Recommendation

	// retention configuration
	maxHistory int           // max number of recommendations kept
	maxAge     time.Duration // optional max age for recommendations

	now func() time.Time
}

var _ recommend.Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// Save appends a recommendation and enforces retention.
func (s *MemoryStore) Save(_ context.Context, rec recommend.Recommendation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, rec)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(s.history) > s.maxHistory {
		over := len(s.history) - s.maxHistory
		s.history = append([]recommend.Recommendation(nil), s.history[over:]...)
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(s.history); i++ {
			if !s.history[i].GeneratedAt.Before(cutoff) {
				break
			}
		}
		if i > 0 {
			s.history = append([]recommend.Recommendation(nil), s.history[i:]...)
		}
	}
	return nil
}

// Latest returns the most recent recommendation.
func (s *MemoryStore) Latest(_ context.Context) (recommend.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.history) == 0 {
		return recommend.Recommendation{}, ErrNotFound
	}
	return s.history[len(s.history)-1], nil
}

// Range returns all recommendations generated between from and to (inclusive).
func (s *MemoryStore) Range(_ context.Context, from, to time.Time) ([]recommend.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []recommend.Recommendation
	for _, rec := range s.history {
		if !rec.GeneratedAt.Before(from) && !rec.GeneratedAt.After(to) {
			result = append(result, rec)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}
