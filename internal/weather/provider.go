package weather

import (
	"context"
)

// Source abstracts a station data feed (e.g. the KMA typ01 API).
type Source interface {
	Name() string
	FetchObservations(ctx context.Context, window Window) ([]Observation, error)
}
