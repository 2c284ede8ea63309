package commute

import (
	"context"
	"log/slog"
	"time"

	"github.com/i474232898/commute-weather/internal/observability"
	"github.com/i474232898/commute-weather/internal/weather"
)

// Service runs predictions and keeps their history in a Store.
type Service struct {
	predictor *Predictor
	store     Store
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewService creates a new Service.
func NewService(predictor *Predictor, store Store, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		predictor: predictor,
		store:     store,
		logger:    logger,
		metrics:   metrics,
	}
}

// Predict runs a prediction for period and stores it on success.
func (s *Service) Predict(ctx context.Context, period Period) (Prediction, error) {
	p, err := s.predictor.Predict(ctx, period)
	if err != nil {
		s.metrics.Predictions.WithLabelValues(string(period), "error").Inc()
		s.logger.Warn("prediction failed", "period", period, "error", err)
		return Prediction{}, err
	}

	s.metrics.Predictions.WithLabelValues(string(period), "success").Inc()
	s.metrics.LastScore.WithLabelValues(string(period)).Set(p.Comfort.Score)
	s.store.SavePrediction(p)

	s.logger.Info("prediction computed",
		"id", p.ID,
		"period", period,
		"score", p.Comfort.Score,
		"label", p.Comfort.Label(),
		"observations", p.ObservationsCount,
		"data_period", p.DataPeriod,
	)
	return p, nil
}

// PredictCurrent predicts the commute that is coming up now.
func (s *Service) PredictCurrent(ctx context.Context) (Prediction, error) {
	return s.Predict(ctx, CurrentPeriod(s.Now()))
}

// RecentObservations delegates to the predictor.
func (s *Service) RecentObservations(ctx context.Context) ([]weather.Observation, error) {
	return s.predictor.RecentObservations(ctx)
}

// LatestObservation delegates to the predictor.
func (s *Service) LatestObservation(ctx context.Context) (weather.Observation, error) {
	return s.predictor.LatestObservation(ctx)
}

// Latest delegates to the underlying store.
func (s *Service) Latest(period Period) (Prediction, error) {
	return s.store.GetLatest(period)
}

// History delegates to the underlying store.
func (s *Service) History(period Period, from, to time.Time) ([]Prediction, error) {
	return s.store.GetRange(period, from, to)
}

// Now returns the current time in the configured location.
func (s *Service) Now() time.Time {
	return s.predictor.Now()
}
