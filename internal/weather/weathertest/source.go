// Package weathertest provides a scripted weather.Source for tests.
package weathertest

import (
	"context"
	"sync"

	"github.com/i474232898/commute-weather/internal/weather"
)

// Source returns canned observations and records every requested window.
type Source struct {
	mu           sync.Mutex
	Observations []weather.Observation
	Err          error
	windows      []weather.Window
}

var _ weather.Source = (*Source)(nil)

func (s *Source) Name() string { return "stub" }

// FetchObservations returns Err if set, otherwise the observations inside window.
func (s *Source) FetchObservations(ctx context.Context, window weather.Window) ([]weather.Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows = append(s.windows, window)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}
	var out []weather.Observation
	for _, o := range s.Observations {
		if window.Contains(o.Timestamp) {
			out = append(out, o)
		}
	}
	return out, nil
}

// Windows returns the windows requested so far.
func (s *Source) Windows() []weather.Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]weather.Window(nil), s.windows...)
}

// LastWindow returns the most recently requested window.
func (s *Source) LastWindow() weather.Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.windows) == 0 {
		return weather.Window{}
	}
	return s.windows[len(s.windows)-1]
}
