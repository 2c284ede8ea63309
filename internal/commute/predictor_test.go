package commute

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/commute-weather/internal/weather"
	"github.com/i474232898/commute-weather/internal/weather/weathertest"
)

var seoul = time.FixedZone("KST", 9*60*60)

func at(day, hour, minute int) time.Time {
	return time.Date(2023, 1, day, hour, minute, 0, 0, seoul)
}

func ptr(v float64) *float64 { return &v }

// hourly returns one comfortable observation per hour of the given day.
func hourly(day int) []weather.Observation {
	out := make([]weather.Observation, 0, 24)
	for h := 0; h < 24; h++ {
		out = append(out, weather.NewObservation(at(day, h, 0), 18, 2, 0, ptr(55)))
	}
	return out
}

func newTestPredictor(now time.Time, src weather.Source, mode EveningMode) *Predictor {
	return NewPredictor(src, Options{
		Clock:         clockwork.NewFakeClockAt(now),
		Location:      seoul,
		LookbackHours: 3,
		EveningMode:   mode,
	})
}

func TestPredictor_MorningUsesLookback(t *testing.T) {
	src := &weathertest.Source{Observations: hourly(2)}
	p := newTestPredictor(at(2, 10, 30), src, EveningLookback)

	pred, err := p.PredictMorning(context.Background())
	require.NoError(t, err)

	assert.Equal(t, weather.Window{Start: at(2, 8, 0), End: at(2, 10, 0)}, src.LastWindow())
	assert.Equal(t, PeriodMorning, pred.Period)
	assert.Equal(t, "08:00-10:00", pred.DataPeriod)
	assert.Equal(t, 3, pred.ObservationsCount)
	assert.Equal(t, 100.0, pred.Comfort.Score)
	assert.Equal(t, at(2, 10, 30), pred.PredictionTime)
	require.NotNil(t, pred.Latest)
	assert.Equal(t, at(2, 10, 0), pred.Latest.Timestamp)
	assert.NotEmpty(t, pred.ID)
}

func TestPredictor_EveningWindow(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		mode EveningMode
		want weather.Window
	}{
		{"lookback", at(2, 18, 20), EveningLookback, weather.Window{Start: at(2, 16, 0), End: at(2, 18, 0)}},
		{"afternoon complete", at(2, 18, 20), EveningAfternoon, weather.Window{Start: at(2, 14, 0), End: at(2, 17, 0)}},
		{"afternoon exactly at end", at(2, 17, 0), EveningAfternoon, weather.Window{Start: at(2, 14, 0), End: at(2, 17, 0)}},
		{"afternoon incomplete falls back", at(2, 15, 10), EveningAfternoon, weather.Window{Start: at(2, 13, 0), End: at(2, 15, 0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &weathertest.Source{Observations: hourly(2)}
			p := newTestPredictor(tt.now, src, tt.mode)

			pred, err := p.PredictEvening(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, src.LastWindow())
			assert.Equal(t, tt.want.Label(), pred.DataPeriod)
			assert.Equal(t, PeriodEvening, pred.Period)
		})
	}
}

func TestPredictor_MorningAcrossMidnight(t *testing.T) {
	src := &weathertest.Source{Observations: append(hourly(1), hourly(2)...)}
	p := newTestPredictor(at(2, 0, 45), src, EveningLookback)

	pred, err := p.PredictMorning(context.Background())
	require.NoError(t, err)
	assert.Equal(t, weather.Window{Start: at(1, 22, 0), End: at(2, 0, 0)}, src.LastWindow())
	assert.Equal(t, 3, pred.ObservationsCount)
}

func TestCurrentPeriod(t *testing.T) {
	tests := []struct {
		hour int
		want Period
	}{
		{6, PeriodMorning},
		{9, PeriodMorning},
		{13, PeriodMorning},
		{14, PeriodEvening},
		{18, PeriodEvening},
		{19, PeriodMorning},
		{23, PeriodMorning},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CurrentPeriod(at(2, tt.hour, 30)), "hour %d", tt.hour)
	}
}

func TestPredictor_PredictCurrent(t *testing.T) {
	src := &weathertest.Source{Observations: hourly(2)}
	p := newTestPredictor(at(2, 15, 30), src, EveningLookback)

	pred, err := p.PredictCurrent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PeriodEvening, pred.Period)
}

func TestPredictor_NoData(t *testing.T) {
	src := &weathertest.Source{}
	p := newTestPredictor(at(2, 10, 30), src, EveningLookback)

	_, err := p.PredictMorning(context.Background())
	require.ErrorIs(t, err, ErrNoData)
	assert.Contains(t, err.Error(), "morning_commute prediction")
}

func TestPredictor_SourceError(t *testing.T) {
	boom := errors.New("upstream down")
	src := &weathertest.Source{Err: boom}
	p := newTestPredictor(at(2, 10, 30), src, EveningLookback)

	_, err := p.PredictEvening(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "evening_commute prediction")
}

func TestPredictor_UnknownPeriod(t *testing.T) {
	p := newTestPredictor(at(2, 10, 30), &weathertest.Source{}, EveningLookback)

	_, err := p.Predict(context.Background(), Period("lunch"))
	require.ErrorIs(t, err, ErrUnknownPeriod)
}

func TestPredictor_LatestObservation(t *testing.T) {
	src := &weathertest.Source{Observations: hourly(2)}
	p := newTestPredictor(at(2, 10, 30), src, EveningLookback)

	obs, err := p.LatestObservation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, at(2, 10, 0), obs.Timestamp)
	assert.Equal(t, weather.Window{Start: at(2, 10, 0), End: at(2, 10, 0)}, src.LastWindow())

	_, err = newTestPredictor(at(2, 10, 30), &weathertest.Source{}, EveningLookback).LatestObservation(context.Background())
	require.ErrorIs(t, err, ErrNoData)
}

func TestPredictor_RecentObservations(t *testing.T) {
	obs := append(hourly(2), weather.NewObservation(at(2, 10, 20), 7, 1, 0, nil))
	p := newTestPredictor(at(2, 10, 30), &weathertest.Source{Observations: obs}, EveningLookback)

	recent, err := p.RecentObservations(context.Background())
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, at(2, 10, 0), recent[0].Timestamp)

	_, err = newTestPredictor(at(2, 10, 30), &weathertest.Source{}, EveningLookback).RecentObservations(context.Background())
	require.ErrorIs(t, err, ErrNoData)
}

func TestPredictor_Defaults(t *testing.T) {
	p := NewPredictor(&weathertest.Source{}, Options{})
	assert.Equal(t, time.UTC, p.Location())
	assert.Equal(t, 3, p.lookback)
	assert.Equal(t, EveningLookback, p.evening)
}

func TestParsePeriod(t *testing.T) {
	for in, want := range map[string]Period{
		"morning":         PeriodMorning,
		"evening":         PeriodEvening,
		"morning_commute": PeriodMorning,
		"evening_commute": PeriodEvening,
	} {
		got, err := ParsePeriod(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParsePeriod("noon")
	require.ErrorIs(t, err, ErrUnknownPeriod)
}
