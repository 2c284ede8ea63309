package store

import (
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/commute-weather/internal/commute"
)

var (
	// ErrNotFound is returned when no prediction is stored for a period.
	ErrNotFound = errors.New("no predictions for period")
)

// PredictionHistory holds a time-ordered list of predictions for one period.
type PredictionHistory struct {
	Predictions []commute.Prediction
}

// MemoryStore is a concurrency-safe in-memory prediction store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: commute period, value: history
	data map[commute.Period]*PredictionHistory

	// retention configuration
	maxHistory int           // max number of predictions per period
	maxAge     time.Duration // optional max age for predictions
	clock      clockwork.Clock
}

var _ commute.Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration, clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{
		data:       make(map[commute.Period]*PredictionHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		clock:      clock,
	}
}

// SavePrediction appends a prediction for its period and enforces retention.
func (s *MemoryStore) SavePrediction(p commute.Prediction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[p.Period]
	if !ok {
		history = &PredictionHistory{}
		s.data[p.Period] = history
	}

	// Keep the list ordered by prediction time even if saves arrive out of order.
	i := len(history.Predictions)
	for i > 0 && history.Predictions[i-1].PredictionTime.After(p.PredictionTime) {
		i--
	}
	history.Predictions = append(history.Predictions, commute.Prediction{})
	copy(history.Predictions[i+1:], history.Predictions[i:])
	history.Predictions[i] = p

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Predictions) > s.maxHistory {
		over := len(history.Predictions) - s.maxHistory
		history.Predictions = history.Predictions[over:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := s.clock.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Predictions); i++ {
			if !history.Predictions[i].PredictionTime.Before(cutoff) {
				break
			}
		}
		history.Predictions = history.Predictions[i:]
	}
}

// GetLatest returns the most recent prediction for a period.
func (s *MemoryStore) GetLatest(period commute.Period) (commute.Prediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[period]
	if !ok || len(history.Predictions) == 0 {
		return commute.Prediction{}, ErrNotFound
	}
	return history.Predictions[len(history.Predictions)-1], nil
}

// GetRange returns all predictions for a period made between from and to (inclusive).
func (s *MemoryStore) GetRange(period commute.Period, from, to time.Time) ([]commute.Prediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[period]
	if !ok || len(history.Predictions) == 0 {
		return nil, ErrNotFound
	}

	var result []commute.Prediction
	for _, p := range history.Predictions {
		if !p.PredictionTime.Before(from) && !p.PredictionTime.After(to) {
			result = append(result, p)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}
