// Package comfort reduces weather observations to a 0-100 commute comfort score.
package comfort

import (
	"errors"
	"math"
	"sort"

	"github.com/i474232898/commute-weather/internal/weather"
)

// ErrInvalidInput is returned when there is nothing to score.
var ErrInvalidInput = errors.New("at least one observation is required")

const baseScore = 100.0

// Penalty caps.
const (
	MaxTemperaturePenalty = 40.0
	MaxRainPenalty        = 30.0
	MaxSnowPenalty        = 40.0
	MaxWindPenalty        = 25.0
	MaxHumidityPenalty    = 15.0
)

// Label cut points of a Breakdown.
const (
	ExcellentThreshold = 80.0
	GoodThreshold      = 60.0
	FairThreshold      = 40.0
)

// Penalties are the per-dimension deductions from the base score.
type Penalties struct {
	Temperature   float64 `json:"temperature"`
	Precipitation float64 `json:"precipitation"`
	Wind          float64 `json:"wind"`
	Humidity      float64 `json:"humidity"`
}

// Total sums all penalties.
func (p Penalties) Total() float64 {
	return p.Temperature + p.Precipitation + p.Wind + p.Humidity
}

// Breakdown carries the final score alongside the individual penalties.
type Breakdown struct {
	Score     float64   `json:"score"`
	Penalties Penalties `json:"penalties"`
}

// Label maps the score to excellent, good, fair or poor.
func (b Breakdown) Label() string {
	switch {
	case b.Score >= ExcellentThreshold:
		return "excellent"
	case b.Score >= GoodThreshold:
		return "good"
	case b.Score >= FairThreshold:
		return "fair"
	default:
		return "poor"
	}
}

// Score computes the comfort breakdown for observations. The result does not
// depend on the order of the input.
func Score(observations []weather.Observation) (Breakdown, error) {
	if len(observations) == 0 {
		return Breakdown{}, ErrInvalidInput
	}

	p := Penalties{
		Temperature:   temperaturePenalty(observations),
		Precipitation: precipitationPenalty(observations),
		Wind:          windPenalty(observations),
		Humidity:      humidityPenalty(observations),
	}
	return Breakdown{
		Score:     math.Max(0, baseScore-p.Total()),
		Penalties: p,
	}, nil
}

// temperaturePenalty uses the median temperature; 10-25C is comfortable.
func temperaturePenalty(observations []weather.Observation) float64 {
	temps := make([]float64, len(observations))
	for i, o := range observations {
		temps[i] = o.TemperatureC
	}
	m := median(temps)
	switch {
	case m < 10:
		return math.Min(MaxTemperaturePenalty, (10-m)*2.5)
	case m > 25:
		return math.Min(MaxTemperaturePenalty, (m-25)*1.8)
	default:
		return 0
	}
}

// precipitationPenalty weighs snow more heavily than rain.
func precipitationPenalty(observations []weather.Observation) float64 {
	var rain, snow []float64
	for _, o := range observations {
		if o.PrecipitationMM <= 0 {
			continue
		}
		if o.PrecipitationType == weather.PrecipitationSnow {
			snow = append(snow, o.PrecipitationMM)
		} else {
			rain = append(rain, o.PrecipitationMM)
		}
	}
	return math.Min(MaxRainPenalty, sum(rain)*5.0) + math.Min(MaxSnowPenalty, sum(snow)*8.0)
}

// windPenalty uses the peak wind speed; up to 4 m/s is free.
func windPenalty(observations []weather.Observation) float64 {
	peak := observations[0].WindSpeedMS
	for _, o := range observations[1:] {
		peak = math.Max(peak, o.WindSpeedMS)
	}
	if peak <= 4 {
		return 0
	}
	return math.Min(MaxWindPenalty, (peak-4)*3.0)
}

// humidityPenalty uses the mean of reported humidity; 30-70% is comfortable.
func humidityPenalty(observations []weather.Observation) float64 {
	var values []float64
	for _, o := range observations {
		if o.RelativeHumidity != nil {
			values = append(values, *o.RelativeHumidity)
		}
	}
	if len(values) == 0 {
		return 0
	}
	mean := sum(values) / float64(len(values))
	if mean >= 30 && mean <= 70 {
		return 0
	}
	return math.Min(MaxHumidityPenalty, math.Abs(mean-50)*0.4)
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// sum adds values in ascending order so the total is the same for any
// permutation of the input.
func sum(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	var total float64
	for _, v := range sorted {
		total += v
	}
	return total
}
