package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/commute-weather/internal/api/http"
	"github.com/i474232898/commute-weather/internal/commute"
	"github.com/i474232898/commute-weather/internal/config"
	"github.com/i474232898/commute-weather/internal/logging"
	"github.com/i474232898/commute-weather/internal/notify"
	"github.com/i474232898/commute-weather/internal/observability"
	"github.com/i474232898/commute-weather/internal/scheduler"
	"github.com/i474232898/commute-weather/internal/store"
	"github.com/i474232898/commute-weather/internal/weather/kma"
)

var version = "dev"

const usage = `usage: commute-weather [command]

commands:
  serve     run the web app and the scheduler (default)
  schedule  run only the scheduler
  now       print the prediction for the upcoming commute
  morning   print the morning commute prediction
  evening   print the evening commute prediction
  test      check the KMA API connection
  baseline  score observations once: baseline [sample|api|kma] [flags]`

func main() {
	if !config.LoadDotEnv() {
		log.Printf("INFO: No .env file found")
	}

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, observability.NewMetrics()); err != nil {
		stop()
		log.Fatalf("commute-weather: %v", err)
	}
}

// app holds the wired components shared by all commands.
type app struct {
	cfg      *config.AppConfig
	logger   *slog.Logger
	service  *commute.Service
	notifier *notify.Multi
	sched    *scheduler.Scheduler
}

func newApp(cfg *config.AppConfig, stdout io.Writer, metrics *observability.Metrics, printReports bool) *app {
	lg := logging.New(os.Stderr, cfg, version)

	// Shared HTTP client for outbound KMA calls.
	httpClient := &http.Client{Timeout: cfg.KMATimeout}
	source := kma.NewClient(httpClient, cfg.KMA, lg, metrics)

	predictor := commute.NewPredictor(source, commute.Options{
		Location:      cfg.Location,
		LookbackHours: cfg.LookbackHours,
		EveningMode:   cfg.EveningMode,
	})
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge, nil)
	service := commute.NewService(predictor, memStore, lg, metrics)

	sinks := []notify.Sink{{Name: "log", Notifier: notify.NewLogNotifier(lg)}}
	if printReports {
		sinks = append(sinks, notify.Sink{Name: "stdout", Notifier: notify.NewWriterNotifier(stdout)})
	}
	var mqttSink *notify.MQTTNotifier
	if cfg.MQTTBroker != "" {
		mqttSink = notify.NewMQTTNotifier(notify.MQTTConfig{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
			Topic:    cfg.MQTTTopic,
		}, lg)
		sinks = append(sinks, notify.Sink{Name: "mqtt", Notifier: mqttSink})
	}
	if len(cfg.KafkaBrokers) > 0 {
		sinks = append(sinks, notify.Sink{Name: "kafka", Notifier: notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)})
	}
	notifier := notify.NewMulti(lg, metrics, sinks...)

	if mqttSink != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := mqttSink.Connect(ctx); err != nil {
			lg.Warn("mqtt broker unreachable; reports will not be published until it reconnects", "error", err)
		}
	}

	return &app{
		cfg:      cfg,
		logger:   lg,
		service:  service,
		notifier: notifier,
		sched:    scheduler.New(cfg.Location, service, notifier, lg),
	}
}

func (a *app) close() {
	if err := a.notifier.Close(); err != nil {
		a.logger.Warn("closing notifiers", "error", err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer, metrics *observability.Metrics) error {
	command := "serve"
	if len(args) > 0 {
		command = args[0]
	}

	switch command {
	case "serve", "schedule", "now", "morning", "evening", "test", "baseline":
	case "help", "-h", "--help":
		fmt.Fprintln(stdout, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if command == "baseline" {
		return runBaseline(ctx, cfg, args[1:], stdout, metrics)
	}

	oneShot := command != "serve" && command != "schedule"
	a := newApp(cfg, stdout, metrics, oneShot)
	defer a.close()

	switch command {
	case "serve":
		return a.serve(ctx)
	case "schedule":
		return a.schedule(ctx)
	case "now":
		return a.sched.RunNow(ctx)
	case "morning":
		return a.sched.RunMorning(ctx)
	case "evening":
		return a.sched.RunEvening(ctx)
	default:
		return a.testConnection(ctx, stdout)
	}
}

func (a *app) schedule(ctx context.Context) error {
	if err := a.sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer a.sched.Stop()

	for tag, next := range a.sched.Jobs() {
		a.logger.Info("scheduled job", "job", tag, "next_run", next)
	}
	<-ctx.Done()
	return nil
}

func (a *app) serve(ctx context.Context) error {
	if a.cfg.SchedulerEnabled {
		if err := a.sched.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer a.sched.Stop()
	}

	srv := newServer(a.service)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "port", a.cfg.Port)
		errCh <- srv.Listen(":" + a.cfg.Port)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("fiber server stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.ShutdownWithContext(shutdownCtx); err != nil {
		a.logger.Error("error during shutdown", "error", err)
	}
	return nil
}

func newServer(service *commute.Service) *fiber.App {
	// Basic app configuration
	srv := fiber.New(fiber.Config{
		AppName:               "commute-weather",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	srv.Use(logger.New())
	srv.Use(recover.New())

	httpapi.RegisterRoutes(srv, service)
	return srv
}

func (a *app) testConnection(ctx context.Context, stdout io.Writer) error {
	fmt.Fprintln(stdout, "KMA API 연결 테스트...")
	observations, err := a.service.RecentObservations(ctx)
	switch {
	case errors.Is(err, commute.ErrNoData), errors.Is(err, kma.ErrNoObservations):
		fmt.Fprintln(stdout, "API 연결됨: 데이터가 없습니다.")
		return nil
	case err != nil:
		return fmt.Errorf("API 연결 실패: %w", err)
	}
	latest := observations[len(observations)-1]
	fmt.Fprintf(stdout, "API 연결 성공! %d개 관측 데이터 수신\n", len(observations))
	fmt.Fprintf(stdout, "최신 관측: %s (%.1f°C)\n",
		latest.Timestamp.Format(commute.DisplayTimeLayout), latest.TemperatureC)
	return nil
}
