package kma

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/commute-weather/internal/weather"
)

// Values at or below this are "no data" placeholders in typ01 reports.
const sentinelThreshold = -900.0

// Column synonyms, tried in order.
var (
	temperatureKeys   = []string{"ta", "temp", "temperature"}
	windSpeedKeys     = []string{"ws", "wind", "wind_speed"}
	precipitationKeys = []string{"rn", "rn_1", "rn_2", "pr1", "precip", "precipitation"}
	humidityKeys      = []string{"hm", "rh", "reh", "humidity"}
)

var timestampLayouts = map[int]string{
	12: "200601021504",
	10: "2006010215",
}

// ParseReport turns a typ01 text report into observations within [start, end],
// sorted by timestamp. Timestamps are read as wall-clock times in start's
// location. Rows without a usable timestamp are skipped; an empty result is
// not an error.
func ParseReport(raw string, start, end time.Time) []weather.Observation {
	var comments, data []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, commentMarker) {
			comments = append(comments, line)
			continue
		}
		data = append(data, line)
	}
	if len(data) == 0 {
		return []weather.Observation{}
	}

	hdr := headerFromComments(comments)
	if !hdr.resolved() {
		first := strings.Fields(data[0])
		if looksLikeHeader(first) {
			hdr = inlineHeader(first)
			data = data[1:]
		} else {
			hdr = fallbackHeader(len(first))
		}
	}

	window := weather.Window{Start: start, End: end}
	loc := start.Location()

	observations := make([]weather.Observation, 0, len(data))
	for _, line := range data {
		r := zipRow(hdr.names, strings.Fields(line))
		rawTS, _ := r.lookup("tm")
		ts, ok := parseTimestamp(rawTS, loc)
		if !ok || !window.Contains(ts) {
			continue
		}
		observations = append(observations, observationFromRow(ts, r))
	}

	sort.SliceStable(observations, func(i, j int) bool {
		return observations[i].Timestamp.Before(observations[j].Timestamp)
	})
	return observations
}

func observationFromRow(ts time.Time, r row) weather.Observation {
	temperature, _ := firstValid(r, temperatureKeys)

	wind, ok := firstValid(r, windSpeedKeys)
	if !ok || wind < 0 {
		wind = 0
	}

	precip, ok := firstValid(r, precipitationKeys)
	if !ok || precip < 0 {
		precip = 0
	}

	var humidity *float64
	if h, ok := firstValid(r, humidityKeys); ok && h >= 0 {
		humidity = &h
	}

	return weather.NewObservation(ts, temperature, wind, precip, humidity)
}

func parseTimestamp(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	layout, ok := timestampLayouts[len(raw)]
	if !ok || !allDigits(raw) {
		return time.Time{}, false
	}
	ts, err := time.ParseInLocation(layout, raw, loc)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}

// firstValid returns the first synonym column holding a valid number.
func firstValid(r row, keys []string) (float64, bool) {
	for _, key := range keys {
		v, ok := r.lookup(key)
		if !ok {
			continue
		}
		if f, ok := parseValue(v); ok {
			return f, true
		}
	}
	return 0, false
}

// parseValue rejects blanks, "-" and "." placeholders, non-numbers and sentinels.
// Only decimal notation is accepted; hex floats such as 0x1p4 are not numbers here.
func parseValue(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" || s == "." || strings.ContainsAny(s, "xX") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f <= sentinelThreshold {
		return 0, false
	}
	return f, true
}
