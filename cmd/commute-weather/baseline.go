package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/i474232898/commute-weather/internal/comfort"
	"github.com/i474232898/commute-weather/internal/config"
	"github.com/i474232898/commute-weather/internal/logging"
	"github.com/i474232898/commute-weather/internal/observability"
	"github.com/i474232898/commute-weather/internal/weather"
	"github.com/i474232898/commute-weather/internal/weather/feed"
	"github.com/i474232898/commute-weather/internal/weather/kma"
)

const defaultSampleFile = "data/raw/example_recent_weather.json"

// runBaseline scores one batch of observations from a JSON file, a JSON
// weather API or the KMA feed, and prints the score with every penalty.
func runBaseline(ctx context.Context, cfg *config.AppConfig, args []string, stdout io.Writer, metrics *observability.Metrics) error {
	mode := "sample"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		mode, args = args[0], args[1:]
	}

	fs := flag.NewFlagSet("baseline", flag.ContinueOnError)
	fs.SetOutput(stdout)
	file := fs.String("file", defaultSampleFile, "observation JSON file (sample mode)")
	lookback := fs.Int("lookback", cfg.LookbackHours, "hours of recent data to fetch (api and kma modes)")
	baseURL := fs.String("base-url", cfg.WeatherAPI.BaseURL, "weather API base URL (api mode)")
	location := fs.String("location", cfg.WeatherAPI.Location, "weather API location (api mode)")
	apiKey := fs.String("api-key", cfg.WeatherAPI.APIKey, "weather API key (api mode)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	lg := logging.New(os.Stderr, cfg, version)
	httpClient := &http.Client{Timeout: cfg.KMATimeout}

	var source weather.Source
	switch mode {
	case "sample":
		source = feed.NewFileSource(*file, cfg.Location)
	case "api":
		source = feed.NewClient(httpClient, feed.Config{
			BaseURL:  *baseURL,
			APIKey:   *apiKey,
			Location: *location,
		}, cfg.Location, lg)
	case "kma":
		source = kma.NewClient(httpClient, cfg.KMA, lg, metrics)
	default:
		return fmt.Errorf("unknown baseline mode %q (allowed: sample, api, kma)", mode)
	}

	var window weather.Window
	if mode != "sample" {
		w, err := weather.LookbackWindow(time.Now(), *lookback, cfg.Location)
		if err != nil {
			return err
		}
		window = w
	}

	observations, err := source.FetchObservations(ctx, window)
	if err != nil {
		return fmt.Errorf("baseline %s: %w", mode, err)
	}
	breakdown, err := comfort.Score(observations)
	if err != nil {
		return fmt.Errorf("baseline %s: %w", mode, err)
	}

	printBreakdown(stdout, breakdown)
	return nil
}

func printBreakdown(w io.Writer, b comfort.Breakdown) {
	fmt.Fprintf(w, "Comfort score: %.1f (%s)\n", b.Score, b.Label())
	for _, p := range []struct {
		name  string
		value float64
	}{
		{"temperature", b.Penalties.Temperature},
		{"precipitation", b.Penalties.Precipitation},
		{"wind", b.Penalties.Wind},
		{"humidity", b.Penalties.Humidity},
	} {
		fmt.Fprintf(w, "  penalty:%s = %.1f\n", p.name, p.value)
	}
}
