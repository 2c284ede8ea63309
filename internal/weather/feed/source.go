package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/commute-weather/internal/weather"
)

// ErrMissingLocation is returned before any request when no location is configured.
var ErrMissingLocation = errors.New("weather api location is not configured")

const maxBodyBytes = 4 << 20

// FileSource serves observations from a JSON payload on disk.
type FileSource struct {
	path string
	loc  *time.Location
}

var _ weather.Source = (*FileSource)(nil)

func NewFileSource(path string, loc *time.Location) *FileSource {
	return &FileSource{path: path, loc: loc}
}

func (s *FileSource) Name() string { return "file" }

// FetchObservations reads the file on every call and returns the entries
// inside window. A zero window returns every entry.
func (s *FileSource) FetchObservations(ctx context.Context, window weather.Window) ([]weather.Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open weather file: %w", err)
	}
	defer f.Close()

	observations, err := Decode(f, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	if window == (weather.Window{}) {
		return observations, nil
	}
	out := observations[:0]
	for _, o := range observations {
		if window.Contains(o.Timestamp) {
			out = append(out, o)
		}
	}
	return out, nil
}

// Config holds the settings of a generic JSON weather API.
type Config struct {
	BaseURL  string
	APIKey   string
	Location string
}

// Client fetches the payload from {BaseURL}/observations.
type Client struct {
	http    *http.Client
	cfg     Config
	loc     *time.Location
	circuit *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

var _ weather.Source = (*Client)(nil)

func NewClient(httpClient *http.Client, cfg Config, loc *time.Location, logger *slog.Logger) *Client {
	return &Client{
		http: httpClient,
		cfg:  cfg,
		loc:  loc,
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "weather-api",
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}),
		logger: logger,
	}
}

func (c *Client) Name() string { return "weather-api" }

// FetchObservations asks the API for the hours covered by window and returns
// what it reports, unfiltered.
func (c *Client) FetchObservations(ctx context.Context, window weather.Window) ([]weather.Observation, error) {
	if c.cfg.Location == "" {
		return nil, ErrMissingLocation
	}
	hours := int(window.End.Sub(window.Start)/time.Hour) + 1

	values := url.Values{}
	values.Set("location", c.cfg.Location)
	values.Set("hours", strconv.Itoa(hours))
	u := strings.TrimRight(c.cfg.BaseURL, "/") + "/observations?" + values.Encode()

	result, err := c.circuit.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if c.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
		if err != nil {
			return nil, err
		}
		if len(body) > maxBodyBytes {
			return nil, fmt.Errorf("response body exceeds %d bytes", maxBodyBytes)
		}
		return body, nil
	})
	if err != nil {
		c.logger.Warn("weather api fetch failed", "location", c.cfg.Location, "error", err)
		return nil, fmt.Errorf("fetch weather api: %w", err)
	}

	body, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return Decode(bytes.NewReader(body), c.loc)
}
