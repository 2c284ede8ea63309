package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/commute-weather/internal/commute"
	"github.com/i474232898/commute-weather/internal/notify"
)

const (
	MorningCron = "0 7 * * *"
	EveningCron = "0 14-18 * * *"

	jobTimeout = 30 * time.Second
)

// Scheduler runs the commute predictions on a daily cron and delivers the reports.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *commute.Service
	notifier  notify.Notifier
	logger    *slog.Logger
}

// New creates a new Scheduler whose cron expressions are evaluated in loc.
func New(loc *time.Location, service *commute.Service, notifier notify.Notifier, logger *slog.Logger) *Scheduler {
	s := gocron.NewScheduler(loc)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		service:   service,
		notifier:  notifier,
		logger:    logger,
	}
}

// Start schedules the morning and evening jobs and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	jobs := []struct {
		tag  string
		cron string
		run  func(context.Context) error
	}{
		{"morning", MorningCron, s.RunMorning},
		{"evening", EveningCron, s.RunEvening},
	}
	for _, j := range jobs {
		run := j.run
		tag := j.tag
		_, err := s.scheduler.Cron(j.cron).Tag(tag).Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()

			s.logger.Info("scheduler: running prediction job", "job", tag)
			if err := run(ctx); err != nil {
				s.logger.Error("scheduler: job failed", "job", tag, "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("schedule %s job: %w", tag, err)
		}
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// Jobs returns the tags of the scheduled jobs with their next run time.
func (s *Scheduler) Jobs() map[string]time.Time {
	out := make(map[string]time.Time)
	for _, j := range s.scheduler.Jobs() {
		for _, tag := range j.Tags() {
			out[tag] = j.NextRun()
		}
	}
	return out
}

// RunMorning predicts the morning commute and delivers the report.
func (s *Scheduler) RunMorning(ctx context.Context) error {
	return s.run(ctx, commute.PeriodMorning, morningHeading)
}

// RunEvening predicts the evening commute and delivers the report.
func (s *Scheduler) RunEvening(ctx context.Context) error {
	return s.run(ctx, commute.PeriodEvening, eveningHeading)
}

// RunNow predicts whichever commute is coming up and delivers the report.
func (s *Scheduler) RunNow(ctx context.Context) error {
	return s.run(ctx, commute.CurrentPeriod(s.service.Now()), nowHeading)
}

func morningHeading(commute.Prediction) string { return "🌅 아침 7시 출근길 예측:" }

func eveningHeading(p commute.Prediction) string {
	return fmt.Sprintf("🌆 퇴근길 예측 (%s 데이터 기반):", p.DataPeriod)
}

func nowHeading(commute.Prediction) string { return "📱 현재 시점 예측:" }

func (s *Scheduler) run(ctx context.Context, period commute.Period, heading func(commute.Prediction) string) error {
	p, err := s.service.Predict(ctx, period)
	if err != nil {
		msg := notify.Message{
			Kind:   notify.KindFailure,
			Text:   fmt.Sprintf("❌ %s 예측 실패: %v", commute.PeriodName(period), err),
			SentAt: s.service.Now(),
		}
		if nerr := s.notifier.Notify(ctx, msg); nerr != nil {
			s.logger.Warn("scheduler: failure notification not delivered", "error", nerr)
		}
		return err
	}

	return s.notifier.Notify(ctx, notify.Message{
		Kind:       notify.KindReport,
		Text:       heading(p) + "\n" + commute.FormatReport(p),
		Prediction: &p,
		SentAt:     s.service.Now(),
	})
}
