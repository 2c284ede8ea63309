package commute

import (
	"errors"
	"fmt"
	"time"

	"github.com/i474232898/commute-weather/internal/comfort"
	"github.com/i474232898/commute-weather/internal/weather"
)

// Period names the commute a prediction is for.
type Period string

const (
	PeriodMorning Period = "morning_commute"
	PeriodEvening Period = "evening_commute"
)

var (
	// ErrNoData is returned when the source yields no observations to score.
	ErrNoData = errors.New("no weather observations available")
	// ErrUnknownPeriod is returned for a period other than morning or evening.
	ErrUnknownPeriod = errors.New("unknown commute period")
)

// ParsePeriod accepts "morning"/"evening" as well as the full period names.
func ParsePeriod(s string) (Period, error) {
	switch s {
	case "morning", string(PeriodMorning):
		return PeriodMorning, nil
	case "evening", string(PeriodEvening):
		return PeriodEvening, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
	}
}

// Prediction is the comfort score for one commute together with the data it used.
type Prediction struct {
	ID                string               `json:"id"`
	PredictionTime    time.Time            `json:"predictionTime"`
	Period            Period               `json:"period"`
	Comfort           comfort.Breakdown    `json:"comfort"`
	ObservationsCount int                  `json:"observationsCount"`
	DataPeriod        string               `json:"dataPeriod"`
	Window            weather.Window       `json:"window"`
	Latest            *weather.Observation `json:"latest,omitempty"`
}

// Store is the contract the in-memory prediction store must satisfy.
type Store interface {
	SavePrediction(p Prediction)
	GetLatest(period Period) (Prediction, error)
	GetRange(period Period, from, to time.Time) ([]Prediction, error)
}
