package commute

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/i474232898/commute-weather/internal/comfort"
	"github.com/i474232898/commute-weather/internal/weather"
)

// EveningMode selects the observation window for evening predictions.
type EveningMode string

const (
	// EveningLookback uses the same lookback as the morning prediction.
	EveningLookback EveningMode = "lookback"
	// EveningAfternoon uses 14:00-17:00 once that range is complete.
	EveningAfternoon EveningMode = "afternoon"
)

// Options configures a Predictor. Zero values fall back to a real clock, UTC,
// a 3 hour lookback and EveningLookback.
type Options struct {
	Clock         clockwork.Clock
	Location      *time.Location
	LookbackHours int
	EveningMode   EveningMode
}

// Predictor fetches recent observations and scores them for a commute.
type Predictor struct {
	source   weather.Source
	clock    clockwork.Clock
	loc      *time.Location
	lookback int
	evening  EveningMode
}

func NewPredictor(source weather.Source, opts Options) *Predictor {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.LookbackHours <= 0 {
		opts.LookbackHours = 3
	}
	if opts.EveningMode == "" {
		opts.EveningMode = EveningLookback
	}
	return &Predictor{
		source:   source,
		clock:    opts.Clock,
		loc:      opts.Location,
		lookback: opts.LookbackHours,
		evening:  opts.EveningMode,
	}
}

// Now returns the current time in the predictor's location.
func (p *Predictor) Now() time.Time {
	return p.clock.Now().In(p.loc)
}

// Location returns the zone used for windows and timestamps.
func (p *Predictor) Location() *time.Location {
	return p.loc
}

// CurrentPeriod picks the commute that is coming up at t: evening between
// 14:00 and 19:00, morning otherwise.
func CurrentPeriod(t time.Time) Period {
	if h := t.Hour(); h >= 14 && h < 19 {
		return PeriodEvening
	}
	return PeriodMorning
}

// Predict scores the given commute period.
func (p *Predictor) Predict(ctx context.Context, period Period) (Prediction, error) {
	now := p.Now()
	window, err := p.windowFor(period, now)
	if err != nil {
		return Prediction{}, err
	}

	observations, err := p.source.FetchObservations(ctx, window)
	if err != nil {
		return Prediction{}, fmt.Errorf("%s prediction: %w", period, err)
	}
	if len(observations) == 0 {
		return Prediction{}, fmt.Errorf("%s prediction: %w", period, ErrNoData)
	}

	breakdown, err := comfort.Score(observations)
	if err != nil {
		return Prediction{}, fmt.Errorf("%s prediction: %w", period, err)
	}

	latest := observations[len(observations)-1]
	return Prediction{
		ID:                uuid.NewString(),
		PredictionTime:    now,
		Period:            period,
		Comfort:           breakdown,
		ObservationsCount: len(observations),
		DataPeriod:        window.Label(),
		Window:            window,
		Latest:            &latest,
	}, nil
}

func (p *Predictor) PredictMorning(ctx context.Context) (Prediction, error) {
	return p.Predict(ctx, PeriodMorning)
}

func (p *Predictor) PredictEvening(ctx context.Context) (Prediction, error) {
	return p.Predict(ctx, PeriodEvening)
}

// PredictCurrent predicts whichever commute CurrentPeriod selects for now.
func (p *Predictor) PredictCurrent(ctx context.Context) (Prediction, error) {
	return p.Predict(ctx, CurrentPeriod(p.Now()))
}

// RecentObservations returns the observations of the last hour, oldest first.
// An empty result is ErrNoData.
func (p *Predictor) RecentObservations(ctx context.Context) ([]weather.Observation, error) {
	window, err := weather.LookbackWindow(p.Now(), 1, p.loc)
	if err != nil {
		return nil, err
	}
	observations, err := p.source.FetchObservations(ctx, window)
	if err != nil {
		return nil, err
	}
	if len(observations) == 0 {
		return nil, ErrNoData
	}
	return observations, nil
}

// LatestObservation returns the newest observation of the last hour.
func (p *Predictor) LatestObservation(ctx context.Context) (weather.Observation, error) {
	observations, err := p.RecentObservations(ctx)
	if err != nil {
		return weather.Observation{}, err
	}
	return observations[len(observations)-1], nil
}

func (p *Predictor) windowFor(period Period, now time.Time) (weather.Window, error) {
	switch period {
	case PeriodMorning:
		return weather.LookbackWindow(now, p.lookback, p.loc)
	case PeriodEvening:
		if p.evening == EveningAfternoon {
			if w, ok := weather.AfternoonWindow(now, p.loc); ok {
				return w, nil
			}
		}
		return weather.LookbackWindow(now, p.lookback, p.loc)
	default:
		return weather.Window{}, fmt.Errorf("%w: %q", ErrUnknownPeriod, period)
	}
}
