package weather

import (
	"time"
)

// PrecipitationType is derived from the precipitation amount and temperature.
type PrecipitationType string

const (
	PrecipitationNone PrecipitationType = "none"
	PrecipitationRain PrecipitationType = "rain"
	PrecipitationSnow PrecipitationType = "snow"
)

// SnowThresholdC is the temperature at or below which precipitation counts as snow.
const SnowThresholdC = 2.0

// Observation is one normalized station reading.
// Timestamp is a wall-clock time in the station's zone, minute resolution.
type Observation struct {
	Timestamp         time.Time         `json:"timestamp"`
	TemperatureC      float64           `json:"temperatureC"`
	WindSpeedMS       float64           `json:"windSpeedMs"`
	PrecipitationMM   float64           `json:"precipitationMm"`
	RelativeHumidity  *float64          `json:"relativeHumidity,omitempty"`
	PrecipitationType PrecipitationType `json:"precipitationType"`
}

// ClassifyPrecipitation returns none for zero precipitation, otherwise snow or rain
// depending on the temperature.
func ClassifyPrecipitation(precipMM, temperatureC float64) PrecipitationType {
	if precipMM == 0 {
		return PrecipitationNone
	}
	if temperatureC <= SnowThresholdC {
		return PrecipitationSnow
	}
	return PrecipitationRain
}

// NewObservation builds an Observation and derives its precipitation type.
func NewObservation(ts time.Time, temperatureC, windSpeedMS, precipMM float64, humidity *float64) Observation {
	return Observation{
		Timestamp:         ts,
		TemperatureC:      temperatureC,
		WindSpeedMS:       windSpeedMS,
		PrecipitationMM:   precipMM,
		RelativeHumidity:  humidity,
		PrecipitationType: ClassifyPrecipitation(precipMM, temperatureC),
	}
}
