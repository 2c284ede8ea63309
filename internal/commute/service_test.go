package commute_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/commute-weather/internal/commute"
	"github.com/i474232898/commute-weather/internal/observability"
	"github.com/i474232898/commute-weather/internal/store"
	"github.com/i474232898/commute-weather/internal/weather"
	"github.com/i474232898/commute-weather/internal/weather/weathertest"
)

var kst = time.FixedZone("KST", 9*60*60)

func newService(t *testing.T, clock clockwork.Clock, src weather.Source) (*commute.Service, *observability.Metrics) {
	t.Helper()
	predictor := commute.NewPredictor(src, commute.Options{Clock: clock, Location: kst, LookbackHours: 3})
	metrics := observability.NewMetricsForTesting()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return commute.NewService(predictor, store.NewMemoryStore(10, 0, clock), logger, metrics), metrics
}

func cold(day int) []weather.Observation {
	var out []weather.Observation
	for h := 0; h < 24; h++ {
		ts := time.Date(2023, 1, day, h, 0, 0, 0, kst)
		out = append(out, weather.NewObservation(ts, -5, 1, 0, nil))
	}
	return out
}

func TestService_PredictStoresAndRecords(t *testing.T) {
	now := time.Date(2023, 1, 2, 7, 0, 0, 0, kst)
	clock := clockwork.NewFakeClockAt(now)
	svc, metrics := newService(t, clock, &weathertest.Source{Observations: cold(2)})

	p, err := svc.Predict(context.Background(), commute.PeriodMorning)
	require.NoError(t, err)
	assert.InDelta(t, 62.5, p.Comfort.Score, 1e-9)

	latest, err := svc.Latest(commute.PeriodMorning)
	require.NoError(t, err)
	assert.Equal(t, p.ID, latest.ID)

	clock.Advance(time.Hour)
	_, err = svc.Predict(context.Background(), commute.PeriodMorning)
	require.NoError(t, err)

	history, err := svc.History(commute.PeriodMorning, now, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Len(t, history, 2)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Predictions.WithLabelValues("morning_commute", "success")))
	assert.InDelta(t, 62.5, testutil.ToFloat64(metrics.LastScore.WithLabelValues("morning_commute")), 1e-9)
}

func TestService_PredictFailureNotStored(t *testing.T) {
	now := time.Date(2023, 1, 2, 15, 0, 0, 0, kst)
	svc, metrics := newService(t, clockwork.NewFakeClockAt(now), &weathertest.Source{Err: errors.New("boom")})

	_, err := svc.PredictCurrent(context.Background())
	require.Error(t, err)

	_, err = svc.Latest(commute.PeriodEvening)
	require.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Predictions.WithLabelValues("evening_commute", "error")))
}

func TestService_LatestObservation(t *testing.T) {
	now := time.Date(2023, 1, 2, 9, 59, 0, 0, kst)
	svc, _ := newService(t, clockwork.NewFakeClockAt(now), &weathertest.Source{Observations: cold(2)})

	obs, err := svc.LatestObservation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 1, 2, 9, 0, 0, 0, kst), obs.Timestamp)
	assert.Equal(t, now, svc.Now())
}
