package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/commute-weather/internal/commute"
	"github.com/i474232898/commute-weather/internal/notify"
	"github.com/i474232898/commute-weather/internal/observability"
	"github.com/i474232898/commute-weather/internal/store"
	"github.com/i474232898/commute-weather/internal/weather"
	"github.com/i474232898/commute-weather/internal/weather/weathertest"
)

var kst = time.FixedZone("KST", 9*60*60)

type recorder struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (r *recorder) Notify(_ context.Context, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

func newTestScheduler(t *testing.T, now time.Time, src weather.Source) (*Scheduler, *recorder) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(now)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	predictor := commute.NewPredictor(src, commute.Options{Clock: clock, Location: kst})
	svc := commute.NewService(predictor, store.NewMemoryStore(0, 0, clock), logger, observability.NewMetricsForTesting())
	rec := &recorder{}
	return New(kst, svc, rec, logger), rec
}

func observations(day int) []weather.Observation {
	var out []weather.Observation
	for h := 0; h < 24; h++ {
		hm := 50.0
		out = append(out, weather.NewObservation(time.Date(2023, 1, day, h, 0, 0, 0, kst), 20, 1, 0, &hm))
	}
	return out
}

func TestRunMorning_DeliversReport(t *testing.T) {
	s, rec := newTestScheduler(t, time.Date(2023, 1, 2, 7, 0, 0, 0, kst), &weathertest.Source{Observations: observations(2)})

	require.NoError(t, s.RunMorning(context.Background()))

	require.Len(t, rec.msgs, 1)
	msg := rec.msgs[0]
	assert.Equal(t, notify.KindReport, msg.Kind)
	require.NotNil(t, msg.Prediction)
	assert.Equal(t, commute.PeriodMorning, msg.Prediction.Period)
	assert.True(t, strings.HasPrefix(msg.Text, "🌅 아침 7시 출근길 예측:\n=== 출퇴근길 쾌적지수 예측 ==="), msg.Text)
	assert.Contains(t, msg.Text, "대상: 출근길")
	assert.Contains(t, msg.Text, "데이터 기간: 05:00-07:00")
}

func TestRunEvening_HeadingNamesDataPeriod(t *testing.T) {
	s, rec := newTestScheduler(t, time.Date(2023, 1, 2, 16, 30, 0, 0, kst), &weathertest.Source{Observations: observations(2)})

	require.NoError(t, s.RunEvening(context.Background()))
	require.Len(t, rec.msgs, 1)
	assert.True(t, strings.HasPrefix(rec.msgs[0].Text, "🌆 퇴근길 예측 (14:00-16:00 데이터 기반):\n"), rec.msgs[0].Text)
}

func TestRunNow_PicksEvening(t *testing.T) {
	s, rec := newTestScheduler(t, time.Date(2023, 1, 2, 16, 0, 0, 0, kst), &weathertest.Source{Observations: observations(2)})

	require.NoError(t, s.RunNow(context.Background()))
	require.Len(t, rec.msgs, 1)
	assert.Equal(t, commute.PeriodEvening, rec.msgs[0].Prediction.Period)
	assert.True(t, strings.HasPrefix(rec.msgs[0].Text, "📱 현재 시점 예측:\n"), rec.msgs[0].Text)
}

func TestRunEvening_FailureIsNotified(t *testing.T) {
	boom := errors.New("kma down")
	s, rec := newTestScheduler(t, time.Date(2023, 1, 2, 18, 0, 0, 0, kst), &weathertest.Source{Err: boom})

	err := s.RunEvening(context.Background())
	require.ErrorIs(t, err, boom)

	require.Len(t, rec.msgs, 1)
	assert.Equal(t, notify.KindFailure, rec.msgs[0].Kind)
	assert.Nil(t, rec.msgs[0].Prediction)
	assert.Contains(t, rec.msgs[0].Text, "퇴근길 예측 실패")
}

func TestStart_RegistersJobs(t *testing.T) {
	s, _ := newTestScheduler(t, time.Date(2023, 1, 2, 7, 0, 0, 0, kst), &weathertest.Source{})

	require.NoError(t, s.Start())
	t.Cleanup(s.Stop)

	jobs := s.Jobs()
	require.Len(t, jobs, 2)
	assert.Contains(t, jobs, "morning")
	assert.Contains(t, jobs, "evening")

	morning := jobs["morning"].In(kst)
	assert.Equal(t, 7, morning.Hour())
	assert.Equal(t, 0, morning.Minute())

	evening := jobs["evening"].In(kst)
	assert.GreaterOrEqual(t, evening.Hour(), 14)
	assert.LessOrEqual(t, evening.Hour(), 18)
}
