// Package feed reads observations from the generic JSON weather payload
// {"observations": [...]} used by sample files and simple weather APIs.
package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/commute-weather/internal/weather"
)

// ErrMalformed is returned when an entry lacks a required field or holds a
// value that is not a number or timestamp.
var ErrMalformed = errors.New("malformed weather observation")

type payload struct {
	Observations []map[string]any `json:"observations"`
}

// Naive timestamps (no offset) are read in the caller's location.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Decode reads a payload and normalizes every entry. A single malformed entry
// fails the whole payload. A payload without "observations" yields none.
// The precipitation type is always derived from amount and temperature.
func Decode(r io.Reader, loc *time.Location) ([]weather.Observation, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var p payload
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode weather payload: %w", err)
	}

	out := make([]weather.Observation, 0, len(p.Observations))
	for i, entry := range p.Observations {
		obs, err := normalize(entry, loc)
		if err != nil {
			return nil, fmt.Errorf("%w (entry %d): %v", ErrMalformed, i, err)
		}
		out = append(out, obs)
	}
	return out, nil
}

func normalize(entry map[string]any, loc *time.Location) (weather.Observation, error) {
	raw, ok := entry["timestamp"]
	if !ok || raw == nil {
		return weather.Observation{}, errors.New("missing timestamp")
	}
	ts, err := parseTimestamp(fmt.Sprint(raw), loc)
	if err != nil {
		return weather.Observation{}, err
	}

	temperature, err := required(entry, "temperature_c")
	if err != nil {
		return weather.Observation{}, err
	}
	wind, err := required(entry, "wind_speed_ms")
	if err != nil {
		return weather.Observation{}, err
	}

	var precip float64
	if v, ok := entry["precipitation_mm"]; ok && !isEmpty(v) {
		if precip, err = toFloat(v); err != nil {
			return weather.Observation{}, fmt.Errorf("precipitation_mm: %w", err)
		}
	}

	var humidity *float64
	if v, ok := entry["relative_humidity"]; ok && v != nil {
		h, err := toFloat(v)
		if err != nil {
			return weather.Observation{}, fmt.Errorf("relative_humidity: %w", err)
		}
		humidity = &h
	}

	return weather.NewObservation(ts, temperature, wind, precip, humidity), nil
}

func required(entry map[string]any, key string) (float64, error) {
	v, ok := entry[key]
	if !ok {
		return 0, fmt.Errorf("missing %s", key)
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

// isEmpty matches the zero-ish values that count as no precipitation.
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

func toFloat(v any) (float64, error) {
	var s string
	switch t := v.(type) {
	case json.Number:
		s = t.String()
	case string:
		s = strings.TrimSpace(t)
		if strings.ContainsAny(s, "xX") {
			return 0, fmt.Errorf("not a decimal number: %q", t)
		}
	default:
		return 0, fmt.Errorf("not a number: %v", v)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return f, nil
}

func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts.In(loc), nil
	}
	for _, layout := range naiveLayouts {
		if ts, err := time.ParseInLocation(layout, s, loc); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}
