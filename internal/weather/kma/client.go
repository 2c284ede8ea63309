package kma

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/sony/gobreaker"
	"golang.org/x/text/encoding/korean"

	"github.com/i474232898/commute-weather/internal/observability"
	"github.com/i474232898/commute-weather/internal/weather"
)

var (
	// ErrMissingAuthKey is returned before any request when no API key is configured.
	ErrMissingAuthKey = errors.New("kma auth key is not configured")
	// ErrNoObservations is returned when a report holds no usable rows for the window.
	ErrNoObservations = errors.New("kma returned no parsable weather observations")
)

// DefaultBaseURL is the typ01 hourly surface observation endpoint.
const DefaultBaseURL = "https://apihub.kma.go.kr/api/typ01/url/kma_sfctm2.php"

const requestTimeLayout = "200601021504"

// Config holds the KMA API settings.
type Config struct {
	BaseURL   string
	AuthKey   string
	StationID string
	HelpFlag  int
}

// Client implements weather.Source for the KMA typ01 API.
type Client struct {
	name    string
	cfg     Config
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	logger  *slog.Logger
	metrics *observability.Metrics
}

var _ weather.Source = (*Client)(nil)

func NewClient(httpClient *http.Client, cfg Config, logger *slog.Logger, metrics *observability.Metrics) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Client{
		name: "kma",
		cfg:  cfg,
		httpCfg: HTTPClientConfig{
			Client:  httpClient,
			Backoff: DefaultBackoff,
		},
		circuit: newCircuitBreaker("kma"),
		logger:  logger,
		metrics: metrics,
	}
}

func (c *Client) Name() string {
	return c.name
}

// FetchObservations requests the report covering window and returns its
// observations. An empty report yields ErrNoObservations.
func (c *Client) FetchObservations(ctx context.Context, window weather.Window) ([]weather.Observation, error) {
	if c.cfg.AuthKey == "" {
		return nil, ErrMissingAuthKey
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("tm1", window.Start.Format(requestTimeLayout))
		values.Set("tm2", window.End.Format(requestTimeLayout))
		values.Set("stn", c.cfg.StationID)
		values.Set("help", strconv.Itoa(c.cfg.HelpFlag))
		values.Set("authKey", c.cfg.AuthKey)

		u := fmt.Sprintf("%s?%s", c.cfg.BaseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	started := time.Now()
	body, err := getWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	c.metrics.FetchDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues("error").Inc()
		c.logger.Warn("kma fetch failed", "station", c.cfg.StationID, "error", err)
		return nil, fmt.Errorf("fetch kma report: %w", err)
	}

	text, err := decodeBody(body)
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode kma report: %w", err)
	}

	observations := ParseReport(text, window.Start, window.End)
	if len(observations) == 0 {
		c.metrics.FetchRequests.WithLabelValues("empty").Inc()
		c.logger.Warn("kma report had no observations",
			"station", c.cfg.StationID,
			"window", window.Label(),
			"bytes", len(body),
		)
		return nil, ErrNoObservations
	}

	c.metrics.FetchRequests.WithLabelValues("success").Inc()
	c.metrics.ObservationsParsed.Add(float64(len(observations)))
	c.logger.Debug("kma report parsed",
		"station", c.cfg.StationID,
		"window", window.Label(),
		"observations", len(observations),
	)
	return observations, nil
}

// decodeBody returns UTF-8 text, converting EUC-KR reports (station names are
// Korean) when the body is not valid UTF-8.
func decodeBody(body []byte) (string, error) {
	if utf8.Valid(body) {
		return string(body), nil
	}
	decoded, err := korean.EUCKR.NewDecoder().Bytes(body)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
