package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/commute-weather/internal/config"
	"github.com/i474232898/commute-weather/internal/observability"
	"github.com/i474232898/commute-weather/internal/weather/feed"
	"github.com/i474232898/commute-weather/internal/weather/kma"
)

// fakeKMA answers with one comfortable hourly row for every hour in [tm1, tm2].
func fakeKMA(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		from, err1 := time.Parse("200601021504", r.URL.Query().Get("tm1"))
		to, err2 := time.Parse("200601021504", r.URL.Query().Get("tm2"))
		if err1 != nil || err2 != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var b strings.Builder
		b.WriteString("tm ta ws rn hm\n")
		for ts := from; !ts.After(to); ts = ts.Add(time.Hour) {
			fmt.Fprintf(&b, "%s 20.0 1.0 0.0 50\n", ts.Format("200601021504"))
		}
		_, _ = w.Write([]byte(b.String()))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func setEnv(t *testing.T, baseURL, authKey string) {
	t.Helper()
	t.Setenv("APP_ENV", "prod")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("KMA_BASE_URL", baseURL)
	t.Setenv("KMA_AUTH_KEY", authKey)
	t.Setenv("TIMEZONE", "Asia/Seoul")
	t.Setenv("MQTT_BROKER", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("COMMUTE_LOCATION", "")
	t.Setenv("WEATHER_API_KEY", "")
}

func TestRun_Morning(t *testing.T) {
	setEnv(t, fakeKMA(t).URL, "secret")

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"morning"}, &out, observability.NewMetricsForTesting()))

	report := out.String()
	assert.Contains(t, report, "=== 출퇴근길 쾌적지수 예측 ===")
	assert.Contains(t, report, "대상: 출근길")
	assert.Contains(t, report, "관측 데이터 수: 3개")
	assert.Contains(t, report, "쾌적지수: 100.0/100 (excellent)")
}

func TestRun_Test(t *testing.T) {
	setEnv(t, fakeKMA(t).URL, "secret")

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"test"}, &out, observability.NewMetricsForTesting()))
	assert.Contains(t, out.String(), "API 연결 성공! 1개 관측 데이터 수신")
	assert.Contains(t, out.String(), "(20.0°C)")
}

func TestRun_MissingAuthKey(t *testing.T) {
	setEnv(t, fakeKMA(t).URL, "")

	var out bytes.Buffer
	err := run(context.Background(), []string{"evening"}, &out, observability.NewMetricsForTesting())
	require.ErrorIs(t, err, kma.ErrMissingAuthKey)
	assert.Contains(t, out.String(), "퇴근길 예측 실패")
}

func TestRun_UnknownCommand(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), []string{"lunch"}, &out, observability.NewMetricsForTesting())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown command "lunch"`)

	require.NoError(t, run(context.Background(), []string{"help"}, &out, observability.NewMetricsForTesting()))
	assert.Contains(t, out.String(), "usage: commute-weather")
}

func TestNewServer_Health(t *testing.T) {
	setEnv(t, fakeKMA(t).URL, "secret")
	t.Setenv("SCHEDULER_ENABLED", "false")

	a := newTestApp(t)
	srv := newServer(a.service)

	resp, err := srv.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func newTestApp(t *testing.T) *app {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)
	return newApp(cfg, &bytes.Buffer{}, observability.NewMetricsForTesting(), false)
}

func TestRun_BaselineSample(t *testing.T) {
	setEnv(t, fakeKMA(t).URL, "")

	var out bytes.Buffer
	args := []string{"baseline", "sample", "-file", "../../data/raw/example_recent_weather.json"}
	require.NoError(t, run(context.Background(), args, &out, observability.NewMetricsForTesting()))

	assert.Equal(t, "Comfort score: 99.4 (excellent)\n"+
		"  penalty:temperature = 0.0\n"+
		"  penalty:precipitation = 0.0\n"+
		"  penalty:wind = 0.6\n"+
		"  penalty:humidity = 0.0\n", out.String())
}

func TestRun_BaselineKMA(t *testing.T) {
	setEnv(t, fakeKMA(t).URL, "secret")

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"baseline", "kma"}, &out, observability.NewMetricsForTesting()))
	assert.True(t, strings.HasPrefix(out.String(), "Comfort score: 100.0 (excellent)\n"), out.String())

	t.Setenv("KMA_AUTH_KEY", "")
	err := run(context.Background(), []string{"baseline", "kma"}, &out, observability.NewMetricsForTesting())
	require.ErrorIs(t, err, kma.ErrMissingAuthKey)
}

func TestRun_BaselineAPI(t *testing.T) {
	setEnv(t, fakeKMA(t).URL, "")
	var auth, hours string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		hours = r.URL.Query().Get("hours")
		_, _ = w.Write([]byte(`{"observations": [{"timestamp": "2024-01-10T07:00:00", "temperature_c": -5, "wind_speed_ms": 1}]}`))
	}))
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	args := []string{"baseline", "api", "-base-url", srv.URL, "-location", "seoul", "-api-key", "token", "-lookback", "2"}
	require.NoError(t, run(context.Background(), args, &out, observability.NewMetricsForTesting()))

	assert.Equal(t, "Bearer token", auth)
	assert.Equal(t, "2", hours)
	assert.Contains(t, out.String(), "Comfort score: 62.5 (good)")
	assert.Contains(t, out.String(), "penalty:temperature = 37.5")
}

func TestRun_BaselineErrors(t *testing.T) {
	setEnv(t, fakeKMA(t).URL, "")

	var out bytes.Buffer
	err := run(context.Background(), []string{"baseline", "radar"}, &out, observability.NewMetricsForTesting())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown baseline mode "radar"`)

	err = run(context.Background(), []string{"baseline", "-file", "missing.json"}, &out, observability.NewMetricsForTesting())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "baseline sample")

	err = run(context.Background(), []string{"baseline", "api", "-location", ""}, &out, observability.NewMetricsForTesting())
	require.ErrorIs(t, err, feed.ErrMissingLocation)
}
